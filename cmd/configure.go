package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jonandersen/tradedesk/internal/config"
	"github.com/jonandersen/tradedesk/internal/feed"
	"github.com/jonandersen/tradedesk/internal/keyring"
)

// passwordReader abstracts terminal password input for testing.
type passwordReader interface {
	ReadPassword() (string, error)
	IsTerminal() bool
}

// terminalReader reads passwords from the terminal using golang.org/x/term.
type terminalReader struct {
	fd int
}

func newTerminalReader(fd int) *terminalReader {
	return &terminalReader{fd: fd}
}

func (r *terminalReader) ReadPassword() (string, error) {
	password, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (r *terminalReader) IsTerminal() bool {
	return term.IsTerminal(r.fd)
}

// prompter abstracts line input for testing.
type prompter interface {
	ReadLine(prompt string) (string, error)
}

// terminalPrompter implements prompter using stdin.
type terminalPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

func newTerminalPrompter(r io.Reader, w io.Writer) *terminalPrompter {
	return &terminalPrompter{reader: bufio.NewReader(r), writer: w}
}

func (p *terminalPrompter) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.writer, prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// configureOptions holds dependencies for the configure command.
// This allows for dependency injection in tests.
type configureOptions struct {
	configPath     func() string
	store          keyring.Store
	passwordReader passwordReader
	prompt         prompter
}

func newConfigureCmd(opts configureOptions) *cobra.Command {
	var clearToken bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure the server, identity and session token",
		Long: `Configure which trading server to use and who you are.

You will be prompted for the server URL and your email, then for the
session token, which is read without echo and kept in the system keyring.
Press enter at any prompt to keep the current value.

The development server (tradedesk serve) identifies viewers by their
session token, so when no token is stored yet the email is used.

Example:
  tradedesk configure
  tradedesk configure --clear-token`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearToken {
				return runClearToken(cmd, opts)
			}
			return runConfigure(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&clearToken, "clear-token", false, "Remove the stored session token")

	// Don't show usage info on validation errors - just show the error
	cmd.SilenceUsage = true

	return cmd
}

func runConfigure(cmd *cobra.Command, opts configureOptions) error {
	// Verify we're running in an interactive terminal
	if !opts.passwordReader.IsTerminal() {
		return fmt.Errorf("configure requires an interactive terminal\nRun this command directly in your terminal (not piped or in a script)")
	}

	path := opts.configPath()
	cfg, err := config.Load(path)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	serverURL, err := opts.prompt.ReadLine(fmt.Sprintf("Server URL [%s]: ", cfg.ServerURL))
	if err != nil {
		return fmt.Errorf("failed to read server URL: %w", err)
	}
	if serverURL != "" {
		if _, err := feed.WebsocketURL(serverURL); err != nil {
			return err
		}
		cfg.ServerURL = strings.TrimSuffix(serverURL, "/")
	}

	emailPrompt := "Email: "
	if cfg.Email != "" {
		emailPrompt = fmt.Sprintf("Email [%s]: ", cfg.Email)
	}
	email, err := opts.prompt.ReadLine(emailPrompt)
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return fmt.Errorf("invalid email %q", email)
		}
		cfg.Email = email
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Session token (leave empty to keep current): ")
	token, err := opts.passwordReader.ReadPassword()
	if err != nil {
		return fmt.Errorf("failed to read session token: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout()) // Print newline after hidden input

	if token == "" {
		existing, err := keyring.SessionToken(opts.store)
		if err != nil {
			return err
		}
		if existing == "" && cfg.Email != "" {
			token = cfg.Email
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No session token given; using your email.")
		}
	}
	if token != "" {
		if err := opts.store.Set(keyring.ServiceName, keyring.KeySessionToken, token); err != nil {
			return fmt.Errorf("failed to store session token in keyring: %w", err)
		}
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration saved successfully!")
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Server: %s\n", cfg.ServerURL)
	if cfg.Email != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Email:  %s\n", cfg.Email)
	}
	return nil
}

// runClearToken removes the stored session token.
func runClearToken(cmd *cobra.Command, opts configureOptions) error {
	if err := opts.store.Delete(keyring.ServiceName, keyring.KeySessionToken); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Session token cleared successfully.")
	return nil
}

func init() {
	// Create configure command with production dependencies
	configureCmd := newConfigureCmd(configureOptions{
		configPath:     configPath,
		store:          keyring.NewSystemStore(),
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
		prompt:         newTerminalPrompter(os.Stdin, os.Stdout),
	})
	rootCmd.AddCommand(configureCmd)
}
