package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgivc/musicsync/internal/app"
)

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	workers := flag.Int("workers", -1, "Number of parallel downloads (1-25), overrides the config file")
	quick := flag.Int("quick", -1, "Download at most N files per collection, overrides the config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range c {
			fmt.Println("\nReceived termination signal. Finishing in-flight downloads...")
			cancel()
		}
	}()

	a := app.New(*cfgFileName, app.Overrides{Workers: *workers, QuickLimit: *quick})
	if err := a.Setup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Setup failed: %s\n", err)
		a.Stop()
		os.Exit(1)
	}

	_, err := a.Run(ctx)
	a.Stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Sync failed: %s\n", err)
		os.Exit(1)
	}
}
