package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/meetsum/config"
	"github.com/otherjamesbrown/meetsum/credentials"
)

// Auth command flags.
var (
	authProvider string
)

// KeyStore is the keyring surface the auth commands use.
type KeyStore interface {
	GetAPIKey(provider string) (string, error)
	SetAPIKey(provider, key string) error
	DeleteAPIKey(provider string) error
	Description() string
}

// AuthCommandDeps holds dependencies for auth commands.
type AuthCommandDeps struct {
	Config     *config.Config
	LoadConfig func() (*config.Config, error)
	Store      KeyStore

	// ReadKey reads the key to store. Nil prompts on the terminal or reads a
	// line from stdin.
	ReadKey func(in io.Reader, out io.Writer) (string, error)
}

// DefaultAuthDeps returns default dependencies for production use.
func DefaultAuthDeps() *AuthCommandDeps {
	return &AuthCommandDeps{
		LoadConfig: LoadConfig,
		Store:      credentials.NewStore(),
		ReadKey:    readKey,
	}
}

// NewAuthCommand creates the auth command group.
func NewAuthCommand(deps *AuthCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultAuthDeps()
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the LLM API key",
		Long: `Manage the LLM provider API key stored in the system keyring.

The key used by watch and scan is resolved in this order:
  1. llm.api_key in the config file
  2. OPENROUTER_API_KEY or GEMINI_API_KEY, depending on llm.provider
  3. the system keyring (service "meetsum")

Examples:
  # Store a key for the configured provider (prompts without echo)
  meetsum auth set-key

  # Store a Gemini key from a pipe
  echo "$KEY" | meetsum auth set-key --provider gemini

  # See which key would be used
  meetsum auth status`,
	}

	cmd.PersistentFlags().StringVar(&authProvider, "provider", "", "LLM provider (defaults to llm.provider)")

	cmd.AddCommand(newAuthSetKeyCommand(deps))
	cmd.AddCommand(newAuthClearKeyCommand(deps))
	cmd.AddCommand(newAuthStatusCommand(deps))

	return cmd
}

// provider returns --provider or the configured provider.
func (d *AuthCommandDeps) provider() (string, error) {
	if authProvider != "" {
		switch authProvider {
		case config.ProviderOpenRouter, config.ProviderGemini:
			return authProvider, nil
		}
		return "", fmt.Errorf("invalid provider %q (must be openrouter or gemini)", authProvider)
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return "", fmt.Errorf("loading configuration: %w", err)
	}
	d.Config = cfg
	return cfg.LLM.Provider, nil
}

func newAuthSetKeyCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "set-key",
		Short: "Store an API key in the keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := deps.provider()
			if err != nil {
				return err
			}
			read := deps.ReadKey
			if read == nil {
				read = readKey
			}
			key, err := read(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("reading API key: %w", err)
			}
			if err := deps.Store.SetAPIKey(provider, key); err != nil {
				return fmt.Errorf("storing API key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s key %s in %s\n", provider, credentials.MaskAPIKey(strings.TrimSpace(key)), deps.Store.Description())
			return nil
		},
	}
}

func newAuthClearKeyCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-key",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := deps.provider()
			if err != nil {
				return err
			}
			if err := deps.Store.DeleteAPIKey(provider); err != nil {
				return fmt.Errorf("removing API key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s key from %s\n", provider, deps.Store.Description())
			return nil
		},
	}
}

func newAuthStatusCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which API key would be used",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			deps.Config = cfg
			if authProvider != "" {
				cfg.LLM.Provider = authProvider
			}

			key, origin, err := cfg.ResolveAPIKey(deps.Store)
			result := struct {
				Provider string `json:"provider" yaml:"provider"`
				Source   string `json:"source" yaml:"source"`
				Key      string `json:"key,omitempty" yaml:"key,omitempty"`
			}{Provider: cfg.LLM.Provider, Source: "none"}
			if err == nil {
				result.Source = origin
				result.Key = credentials.MaskAPIKey(key)
			}

			return WriteOutput(cmd.OutOrStdout(), cfg.OutputFormat, result, func(w io.Writer) error {
				fmt.Fprintf(w, "Provider: %s\n", result.Provider)
				if result.Key == "" {
					fmt.Fprintln(w, "API key:  not configured")
					return nil
				}
				fmt.Fprintf(w, "API key:  %s (from %s)\n", result.Key, result.Source)
				return nil
			})
		},
	}
}

// readKey prompts without echo on a terminal, otherwise reads one line.
func readKey(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "API key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
