package main

import (
	"fmt"

	"github.com/shibukawa/sqlverify"
	"github.com/shibukawa/sqlverify/runner"
)

// CheckCmd represents the check command
type CheckCmd struct {
	Paths      []string `arg:"" optional:"" help:"Check documents or directories (default: input_dir from config)" type:"path"`
	RunPattern string   `help:"Check only documents whose file name starts with the pattern" short:"r" name:"run"`
}

// Run executes the check command
func (cmd *CheckCmd) Run(ctx *Context) error {
	config, err := sqlverify.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	r := runner.NewRunner(nil, nil, defaultsFromConfig(config))
	r.SetLogger(ctx.Logger)
	r.SetRunPattern(cmd.RunPattern)

	summary, err := r.Check(inputPaths(cmd.Paths, config))
	if err != nil {
		return err
	}

	if !ctx.Quiet {
		runner.PrintSummary(ctx.Stdout, summary)
	}

	if summary.Failed > 0 {
		return sqlverify.ErrChecksFailed
	}

	return nil
}
