package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "HELPDESK_TECHNICIAN_GROUP", "HELPDESK_COMMENT_LOG_GROUP", "REDIS_ADDR", "LDAP_MIRROR_GROUPS_EXCEPT", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "CPD", cfg.Helpdesk.TechnicianGroup)
	assert.Equal(t, "CPD", cfg.Helpdesk.CommentLogGroup)
	assert.Equal(t, []string{"Diretoria"}, cfg.Helpdesk.PrivilegedGroups)
	assert.Equal(t, []string{"Parada Geral"}, cfg.Helpdesk.CriticalCategories)
	assert.Equal(t, 3, cfg.Helpdesk.PendingEvaluationLimit)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Nil(t, cfg.Notification.KafkaBrokers)
	assert.Contains(t, cfg.Directory.MirrorGroupsExcept, "Domain Admins")
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("HELPDESK_TECHNICIAN_GROUP", "Suporte")
	t.Setenv("HELPDESK_COMMENT_LOG_GROUP", "")
	t.Setenv("HELPDESK_PRIVILEGED_GROUPS", "Diretoria, Presidencia ,,")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("CATEGORY_CACHE_TTL_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "Suporte", cfg.Helpdesk.TechnicianGroup)
	assert.Equal(t, "Suporte", cfg.Helpdesk.CommentLogGroup)
	assert.Equal(t, []string{"Diretoria", "Presidencia"}, cfg.Helpdesk.PrivilegedGroups)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notification.KafkaBrokers)
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Redis.CategoryCacheTTL())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_DRIVER")
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_DB")
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:9000", AppConfig{Host: "127.0.0.1", Port: "9000"}.Addr())
}
