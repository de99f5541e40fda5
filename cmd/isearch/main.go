package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"isearch/internal/app"
	"isearch/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "isearch",
	Short:        "Catalog, search and deduplicate local files",
	SilenceUsage: true,
}

// loadConfig resolves the default paths and reads the config file over the
// built-in defaults.
func loadConfig() (*app.Defaults, *config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := defaults.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}
	return defaults, cfg, nil
}

// withApp builds an App for command, runs fn and closes the App, recording
// whether fn failed.
func withApp(command string, fn func(a *app.App) error) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var echo io.Writer
	if verbose {
		echo = os.Stderr
	}
	a, err := app.New(cfg, command, echo)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}

	err = fn(a)
	if err != nil {
		a.Fail()
	}
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		if err := config.Init(defaults.ConfigPath, defaults.NewConfig()); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("# Effective configuration (file: %s)\n\n", defaults.ConfigPath)
		m := &config.Manager{}
		return m.Write(os.Stdout, cfg)
	},
}

var stdin = bufio.NewReader(os.Stdin)

// readPassphrase prompts on the terminal without echo, or reads one line
// from stdin when it is not a terminal.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// stderrIsTerminal reports whether progress can be redrawn in place.
func stderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Copy log output to stderr")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
