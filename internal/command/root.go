// Package command provides the command definitions for bcapi.
//
// It uses urfave/cli/v2 for command parsing. Every invocation issues one
// request through a bigcommerce.Connection built from the configuration
// file, the environment and the global flags.
package command

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	bigcommerce "github.com/bigcommerce/bigcommerce-api-go"
	"github.com/bigcommerce/bigcommerce-api-go/internal/config"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const (
	envClientID = "BIGCOMMERCE_CLIENT_ID"
	envToken    = "BIGCOMMERCE_TOKEN"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "bcapi",
		Usage:     "Send requests to the BigCommerce API",
		UsageText: "bcapi [global options] <get|post|put|delete|head> URL [BODY]",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:     globalFlags(),
		Commands:  RequestCommands(),
		Before: func(c *cli.Context) error {
			if path := c.String("env-file"); path != "" {
				if err := godotenv.Load(path); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			}
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"BIGCOMMERCE_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Load environment variables from a .env file",
		},
		&cli.BoolFlag{
			Name:  "xml",
			Usage: "Send and accept application/xml instead of JSON",
		},
		&cli.BoolFlag{
			Name:  "fail-on-error",
			Usage: "Treat 4xx and 5xx responses as errors",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Connect and request timeout",
		},
		&cli.StringFlag{
			Name:  "proxy",
			Usage: "Proxy host, e.g. proxy.local or socks5://127.0.0.1",
		},
		&cli.IntFlag{
			Name:  "proxy-port",
			Usage: "Proxy port",
		},
		&cli.BoolFlag{
			Name:  "verify-peer",
			Usage: "Verify the server TLS certificate",
		},
		&cli.StringFlag{
			Name:  "user",
			Usage: "Username for basic authentication",
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "Password for basic authentication",
		},
		&cli.StringFlag{
			Name:    "client-id",
			Usage:   "OAuth client ID (X-Auth-Client)",
			EnvVars: []string{envClientID},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "OAuth access token (X-Auth-Token)",
			EnvVars: []string{envToken},
		},
		&cli.StringSliceFlag{
			Name:    "header",
			Aliases: []string{"H"},
			Usage:   "Extra request header as name:value (repeatable)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Print the status line and headers, and log requests",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	ConfigFile string
	Headers    []string
	Verbose    bool

	// Overrides holds the flags given on the command line as dotted
	// configuration keys.
	Overrides map[string]any
}

// ParseGlobalFlags extracts global flags from context. Only flags that were
// set become configuration overrides.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	flags := &GlobalFlags{
		ConfigFile: c.String("config"),
		Headers:    c.StringSlice("header"),
		Verbose:    c.Bool("verbose"),
		Overrides:  make(map[string]any),
	}

	set := func(flag, key string, value any) {
		if c.IsSet(flag) {
			flags.Overrides[key] = value
		}
	}
	set("xml", "use_xml", c.Bool("xml"))
	set("fail-on-error", "fail_on_error", c.Bool("fail-on-error"))
	set("timeout", "timeout", c.Duration("timeout"))
	set("proxy", "proxy.host", c.String("proxy"))
	set("proxy-port", "proxy.port", c.Int("proxy-port"))
	set("verify-peer", "verify_peer", c.Bool("verify-peer"))
	set("user", "auth.username", c.String("user"))
	set("password", "auth.password", c.String("password"))

	// Values from --env-file are only visible after flag parsing.
	if v := flagOrEnv(c, "client-id", envClientID); v != "" {
		flags.Overrides["auth.client_id"] = v
	}
	if v := flagOrEnv(c, "token", envToken); v != "" {
		flags.Overrides["auth.token"] = v
	}

	return flags
}

func flagOrEnv(c *cli.Context, flag, env string) string {
	if c.IsSet(flag) {
		return c.String(flag)
	}
	return os.Getenv(env)
}

// Connect builds a Connection from the configuration file, the environment
// and the global flags.
func Connect(c *cli.Context) (*bigcommerce.Connection, *GlobalFlags, error) {
	flags := ParseGlobalFlags(c)

	cfg, err := config.Load(flags.ConfigFile, flags.Overrides)
	if err != nil {
		return nil, nil, err
	}

	level := hclog.Info
	if flags.Verbose {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "bcapi",
		Level:  level,
		Output: c.App.ErrWriter,
	})

	conn, err := cfg.Connect(bigcommerce.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	for _, h := range flags.Headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			conn.Close()
			return nil, nil, fmt.Errorf("invalid header %q, want name:value", h)
		}
		conn.AddHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	return conn, flags, nil
}
