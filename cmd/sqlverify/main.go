package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
	Logger  *zap.Logger
	Stdout  io.Writer
}

// CLI represents the command-line interface
var CLI struct {
	Config  string     `help:"Configuration file path" default:"sqlverify.yaml"`
	Verbose bool       `help:"Enable verbose output" short:"v"`
	Quiet   bool       `help:"Suppress output" short:"q"`
	Run     RunCmd     `cmd:"" help:"Run check documents against a database"`
	Check   CheckCmd   `cmd:"" help:"Parse check documents without connecting to a database"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.Stdout, "sqlverify v0.1.0")
	return nil
}

// newLogger builds the console logger. Verbose enables debug output, quiet keeps errors only.
func newLogger(verbose, quiet bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Sampling = nil

	switch {
	case verbose:
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case quiet:
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return config.Build()
}

func main() {
	ctx := kong.Parse(&CLI)

	logger, err := newLogger(CLI.Verbose, CLI.Quiet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		os.Exit(1)
	}

	defer func() { _ = logger.Sync() }()

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
		Logger:  logger,
		Stdout:  os.Stdout,
	}

	err = ctx.Run(appCtx)
	if err != nil {
		_ = logger.Sync()

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
