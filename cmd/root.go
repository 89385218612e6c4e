package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/atenas/admin-console/internal/app"
	"github.com/atenas/admin-console/internal/pkg/config"
	"github.com/atenas/admin-console/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "atenas",
	Short:         "Atenas administrative console",
	Long:          `Runs the Atenas admin console and manages its session and users from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// isTerminal is replaced in tests.
var isTerminal = term.IsTerminal

// bootstrap loads the configuration and builds the application. The caller
// closes it.
func bootstrap(cmd *cobra.Command) (*app.App, *config.Config, error) {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

// readPassword returns flagVal when set, otherwise prompts without echo. On a
// non-terminal stdin a single line is read.
func readPassword(cmd *cobra.Command, flagVal, prompt string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(b) == 0 {
		return "", errors.New("password is required")
	}
	return string(b), nil
}
