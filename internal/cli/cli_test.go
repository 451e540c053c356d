package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository/sqlite"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("AUTH_BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(t.TempDir(), "helpdesk.db")
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"seed"},
		{"user", "create"},
		{"user", "grant"},
		{"user", "revoke"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("driver"))
	assert.NotNil(t, root.PersistentFlags().Lookup("sqlite"))
}

func TestMigrateSeedAndUsers(t *testing.T) {
	path := setupEnv(t)
	base := []string{"--driver", "sqlite", "--sqlite", path}

	out, err := execute(t, "", append(base, "migrate", "up")...)
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite schema version: 1")

	seedFile := filepath.Join(t.TempDir(), "categorias.json")
	require.NoError(t, os.WriteFile(seedFile, []byte(`[{"categoria_nome": "Hardware", "subcategorias": ["Impressora", "Monitor"]}]`), 0o600))

	out, err = execute(t, "", append(base, "seed", "-f", seedFile)...)
	require.NoError(t, err)
	assert.Contains(t, out, "categories:    1 created, 0 existing")
	assert.Contains(t, out, "subcategories: 2 created, 0 existing")

	out, err = execute(t, "", append(base, "seed", "-f", seedFile)...)
	require.NoError(t, err)
	assert.Contains(t, out, "categories:    0 created, 1 existing")

	out, err = execute(t, "segredo123\n", append(base, "user", "create", "admin", "--name", "Administrador", "--group", "CPD")...)
	require.NoError(t, err)
	assert.Contains(t, out, "user admin ready")

	_, err = execute(t, "", append(base, "user", "grant", "admin", "Diretoria")...)
	require.NoError(t, err)
	_, err = execute(t, "", append(base, "user", "revoke", "admin", "CPD")...)
	require.NoError(t, err)

	_, err = execute(t, "", append(base, "user", "grant", "ghost", "CPD")...)
	assert.ErrorContains(t, err, "user not found")

	_, err = execute(t, "", append(base, "user", "create", "fraco", "--password", "123")...)
	assert.Error(t, err)

	db, err := persistence.OpenSQLite(path, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()
	repos := sqlite.NewStore(db).Repos()

	ctx := context.Background()
	user, err := repos.Users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Administrador", user.Name)
	groups, err := repos.Users.Groups(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Diretoria"}, groups)

	tree, err := repos.Categories.ListTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Subcategories, 2)
}
