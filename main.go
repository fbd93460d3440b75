package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshnies/survol/cmd"
	"github.com/joshnies/survol/lib/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.NewApp().RunContext(ctx, os.Args)
	if err != nil {
		console.ErrorPrint("%s", err)
		stop()
		os.Exit(1)
	}
}
