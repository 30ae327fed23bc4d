package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/viralforge/partner-portal/internal/app/bootstrap"
	"github.com/viralforge/partner-portal/internal/application"
)

// Backend is the slice of the runtime the commands need.
type Backend interface {
	Service() *application.Service
	Migrate(ctx context.Context) ([]string, error)
	Close()
}

// Opener builds a Backend from the config file path given by --config.
type Opener func(ctx context.Context, configPath string) (Backend, error)

func openRuntime(ctx context.Context, configPath string) (Backend, error) {
	cfg, err := bootstrap.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	// stdout is reserved for command output
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return bootstrap.New(ctx, cfg, logger)
}

type rootFlags struct {
	configPath string
	output     string
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(openRuntime)
}

func newRootCommand(open Opener) *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "portalctl",
		Short:         "Operate the partner portal from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "configs/default.yaml", "Path to the service config file")
	cmd.PersistentFlags().StringVarP(&flags.output, "output", "o", outputTable, "Output format: table or json")

	env := &commandEnv{open: open, flags: flags}
	cmd.AddCommand(newStatementCmd(env))
	cmd.AddCommand(newReportCmd(env))
	cmd.AddCommand(newCloseMonthCmd(env))
	cmd.AddCommand(newStockCmd(env))
	cmd.AddCommand(newMigrateCmd(env))
	return cmd
}

// commandEnv opens the backend lazily so --help never touches storage.
type commandEnv struct {
	open  Opener
	flags *rootFlags
}

func (e *commandEnv) run(cmd *cobra.Command, fn func(ctx context.Context, backend Backend) error) error {
	if err := validateOutput(e.flags.output); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := e.open(ctx, e.flags.configPath)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(ctx, backend)
}

func operatorActor() application.Actor {
	return application.Actor{
		SubjectID: "portalctl",
		Role:      application.RoleSystem,
		RequestID: "portalctl",
	}
}
