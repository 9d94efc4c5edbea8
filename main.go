package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"

	"github.com/yiblet/cliphist/internal/cli"
	"github.com/yiblet/cliphist/internal/logging"
)

func main() {
	// Parse command-line arguments
	var args cli.Args
	parser := arg.MustParse(&args)

	logger := logging.Setup(os.Stderr, logging.ParseFormat(args.LogFormat), logging.ParseLevel(args.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.New(logger).Execute(ctx, &args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// Argument validation errors come with usage
		if args.HasCommand() {
			fmt.Fprintln(os.Stderr)
			parser.WriteUsage(os.Stderr)
		}
		stop()
		os.Exit(1)
	}
}
