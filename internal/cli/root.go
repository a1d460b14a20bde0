// Package cli implements the exrep command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/j-veylop/exon-report/internal/config"
	"github.com/j-veylop/exon-report/internal/logger"
	"github.com/j-veylop/exon-report/internal/services"
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	cfg      *config.Config
	manager  *services.Manager
	project  string
	logLevel string
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "exrep",
		Short: "Subcontractor activity reports for construction portal projects",
		Long: `exrep logs into the portal, counts project records per subcontractor
and writes the breakdown as a spreadsheet.

Credentials and defaults are read from .env files and the environment
(EXON_USERNAME, EXON_PASSWORD, EXON_PROJECT_ID, ...).`,
		Version:            version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&a.project, "project", "p", "", "Project id (default $EXON_PROJECT_ID)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default $LOG_LEVEL)")

	rootCmd.AddCommand(newReportCmd(a))
	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newCountCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newViewCmd(a))
	rootCmd.AddCommand(newProjectsCmd(a))

	return rootCmd
}

// Execute runs the command line and reports errors on stderr.
func Execute(ctx context.Context, version string) error {
	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger.SetLevel(level)

	a.manager, err = services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.manager == nil {
		return nil
	}
	if err := a.manager.Close(); err != nil {
		logger.Warn("error closing services", "error", err)
	}
	return nil
}

// projectOrAll resolves the project for commands where every project is a
// valid scope.
func (a *app) projectOrAll() string {
	project, err := a.manager.ResolveProject(a.project)
	if err != nil {
		return ""
	}
	return project
}
