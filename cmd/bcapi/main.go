// Command bcapi sends a single request to the BigCommerce API and prints the
// decoded response.
//
// Usage:
//
//	bcapi [global options] get URL [-q key=value ...]
//	bcapi [global options] post URL BODY
//	bcapi [global options] put URL BODY
//	bcapi [global options] delete URL
//	bcapi [global options] head URL
//
// BODY may be given inline, as @path to read a file, or as - to read stdin.
// Credentials can come from flags, a YAML config file (-c), BIGCOMMERCE_*
// environment variables or a .env file (--env-file).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bigcommerce/bigcommerce-api-go/internal/command"
)

// Config holds the streams the command reads from and writes to.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns a Config bound to the process streams.
func DefaultConfig() Config {
	return Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func run(args []string, cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := command.App()
	app.Reader = cfg.Stdin
	app.Writer = cfg.Stdout
	app.ErrWriter = cfg.Stderr

	return app.RunContext(ctx, args)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
