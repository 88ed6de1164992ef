package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/vulnark/internal/cmd"
	"github.com/felixgeelhaar/vulnark/internal/exitcode"
	"github.com/felixgeelhaar/vulnark/internal/ux"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "\nInterrupted")
			stop()
			exitcode.Exit(exitcode.Interrupted)
		}
		ux.PrintError(os.Stderr, err)
		stop()
		exitcode.ExitWithError(err)
	}
}
