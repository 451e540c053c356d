package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/directory"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/service"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Local account commands",
		Long:  `Manage accounts that authenticate against the local user table instead of the corporate directory.`,
	}
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserGroupCmd("grant", "Add a user to a group", true))
	cmd.AddCommand(newUserGroupCmd("revoke", "Remove a user from a group", false))
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		name     string
		email    string
		groups   []string
		password string
	)
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create or reset a local account",
		Long: `Create a local account, or reset its password when it already exists.
The password is prompted for unless --password is given.

Examples:
  helpdeskctl user create admin --name "Administrador" --group CPD
  helpdeskctl user create maria --email maria@example.org`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			svc := newAccountService(e)
			user, err := svc.CreateLocalUser(cmd.Context(), service.LocalAccount{
				Username: args[0],
				Name:     name,
				Email:    email,
				Password: password,
				Groups:   groups,
			})
			if err != nil {
				return err
			}
			OutputLine(cmd.OutOrStdout(), "user %s ready (id %s)", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "E-mail address")
	cmd.Flags().StringSliceVar(&groups, "group", nil, "Group membership (repeatable)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newUserGroupCmd(use, short string, add bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username> <group>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			svc := newAccountService(e)
			if add {
				err = svc.GrantGroup(cmd.Context(), args[0], args[1])
			} else {
				err = svc.RevokeGroup(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				return err
			}
			OutputLine(cmd.OutOrStdout(), "%s: %s %s", use, args[0], args[1])
			return nil
		},
	}
}

func newAccountService(e *env) *service.AuthService {
	return service.NewAuthService(service.AuthDependencies{
		Store:      e.db.Store,
		Directory:  directory.NewLocalProvider(e.db.Store.Repos().Users, e.cfg.Auth.BcryptCost),
		Tokens:     auth.NewTokenManager(e.cfg.Auth.JWTSecret, e.cfg.Auth.AccessTokenTTLMinutes),
		Revoker:    auth.NewMemoryRevoker(),
		Policy:     lifecycle.NewPolicy(e.cfg.Helpdesk),
		BcryptCost: e.cfg.Auth.BcryptCost,
		Logger:     e.logger,
	})
}

// readPassword prompts twice on a terminal and reads one line otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		first, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		fmt.Fprint(prompt, "Repeat password: ")
		second, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			return "", fmt.Errorf("passwords do not match")
		}
		return string(first), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
