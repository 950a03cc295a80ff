package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/shibukawa/sqlverify"
	"github.com/shibukawa/sqlverify/actiondoc"
	"github.com/shibukawa/sqlverify/dbquery"
	"github.com/shibukawa/sqlverify/queryaction"
	"github.com/shibukawa/sqlverify/runner"
	"github.com/shibukawa/sqlverify/variable"
)

// RunCmd represents the run command
type RunCmd struct {
	Paths       []string `arg:"" optional:"" help:"Check documents or directories (default: input_dir from config)" type:"path"`
	Environment string   `help:"Database environment to use from config" default:"development" short:"e" name:"env"`
	RunPattern  string   `help:"Run only checks whose file name starts with the pattern" short:"r" name:"run"`
	FailFast    bool     `help:"Stop at the first failed check"`
	DB          string   `help:"Database connection string (overrides config)"`
	Type        string   `help:"Database driver used with --db"`
}

// Run executes the run command
func (cmd *RunCmd) Run(ctx *Context) error {
	config, err := sqlverify.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbConfig, err := cmd.resolveDatabase(config)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := ctx.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Debug("connecting to database",
		zap.String("environment", cmd.Environment),
		zap.String("driver", dbConfig.Driver))

	db, err := dbquery.Open(runCtx, dbConfig.Driver, dbConfig.Connection, config.Defaults.QueryTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	vars := variable.NewContext(nil)
	vars.SetVariables(config.Variables)

	engine := queryaction.NewEngine(
		dbquery.NewExecutor(db, config.Defaults.QueryTimeout),
		queryaction.WithLogger(logger),
	)

	r := runner.NewRunner(engine, vars, defaultsFromConfig(config))
	r.SetLogger(logger)
	r.SetRunPattern(cmd.RunPattern)
	r.SetFailFast(cmd.FailFast)

	summary, err := r.Run(runCtx, inputPaths(cmd.Paths, config))
	if err != nil {
		return err
	}

	if !ctx.Quiet {
		runner.PrintSummary(ctx.Stdout, summary)
	}

	if summary.Failed > 0 || summary.Skipped > 0 {
		return sqlverify.ErrChecksFailed
	}

	return nil
}

// resolveDatabase prefers --db/--type over the configured environment.
func (cmd *RunCmd) resolveDatabase(config *sqlverify.Config) (sqlverify.Database, error) {
	if cmd.DB == "" && cmd.Type == "" {
		return config.Database(cmd.Environment)
	}

	if cmd.DB == "" {
		return sqlverify.Database{}, ErrEmptyConnectionString
	}

	if cmd.Type == "" {
		return sqlverify.Database{}, ErrEmptyDatabaseType
	}

	return sqlverify.Database{Driver: cmd.Type, Connection: cmd.DB}, nil
}

func defaultsFromConfig(config *sqlverify.Config) actiondoc.Defaults {
	return actiondoc.Defaults{
		MaxRetries:   config.Defaults.MaxRetries,
		RetryPause:   config.Defaults.RetryPause,
		LegacyExport: config.Defaults.LegacyExportEnabled(),
	}
}

func inputPaths(paths []string, config *sqlverify.Config) []string {
	if len(paths) > 0 {
		return paths
	}

	return []string{config.InputDir}
}
