package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"golang.org/x/term"
)

// tokenFile is the name of the stored access token under the config dir.
const tokenFile = "token"

// whoamiTimeout bounds the session verification round trip.
const whoamiTimeout = 30 * time.Second

// loginCommand creates the login command.
func (c *CLI) loginCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against a deepbrain server",
		Long: `Log in to a deepbrain server and store the access token locally.

The password is read from stdin (hidden when attached to a terminal) or
from the DEEPBRAIN_PASSWORD environment variable for scripted use.
The token is stored in ~/.config/deepbrain/token with owner-only
permissions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			if email == "" {
				fmt.Print("Email: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read email: %w", err)
				}
				email = strings.TrimSpace(line)
			}

			password, err := readPassword()
			if err != nil {
				return err
			}

			api, err := c.newAPIClient(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), whoamiTimeout)
			defer cancel()

			spinner := newSpinnerWithContext(ctx, "Logging in...")
			spinner.Start()

			token, err := api.Login(ctx, email, password)
			if err != nil {
				spinner.StopWithError("Login failed")
				return err
			}
			spinner.Stop()

			if err := saveToken(token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			printSuccess("Logged in as %s", email)
			printDetail("Server: %s", cfg.Server.BaseURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when omitted)")

	return cmd
}

// logoutCommand creates the logout command.
func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deleteToken(); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

// whoamiCommand creates the whoami command.
func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			if _, err := loadToken(); err != nil {
				return fmt.Errorf("not logged in (run 'deepbrain login' first)")
			}

			api, err := c.newAPIClient(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), whoamiTimeout)
			defer cancel()

			spinner := newSpinnerWithContext(ctx, "Verifying session...")
			spinner.Start()

			user, err := api.Me(ctx)
			if err != nil {
				spinner.StopWithError("Session invalid")
				return fmt.Errorf("verify session: %w", err)
			}
			spinner.Stop()

			printSuccess("Deep Brain Session")
			printKeyValue("Username", user.Username)
			if user.FullName != "" {
				printKeyValue("Name", user.FullName)
			}
			printKeyValue("Email", user.Email)
			printKeyValue("Server", cfg.Server.BaseURL)
			printKeyValue("Since", user.CreatedAt.Format("Jan 2, 2006"))

			return nil
		},
	}
}

// readPassword reads the password from the environment, a terminal, or
// piped stdin, in that order of preference.
func readPassword() (string, error) {
	if pw := os.Getenv("DEEPBRAIN_PASSWORD"); pw != "" {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// Token Storage
// =============================================================================

// tokenPath returns the stored token location.
func tokenPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFile), nil
}

// saveToken writes the access token with owner-only permissions.
func saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

// loadToken reads the stored access token. A missing file is an error so
// callers can distinguish "not logged in" from an empty token.
func loadToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// deleteToken removes the stored token. A missing file is not an error.
func deleteToken() error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
