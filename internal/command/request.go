package command

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	bigcommerce "github.com/bigcommerce/bigcommerce-api-go"
)

// RequestCommands returns one command per HTTP verb.
func RequestCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "get",
			Usage:     "Send a GET request",
			ArgsUsage: "URL",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:    "query",
					Aliases: []string{"q"},
					Usage:   "Query parameter as key=value (repeatable)",
				},
			},
			Action: func(c *cli.Context) error {
				query, err := parseQuery(c.StringSlice("query"))
				if err != nil {
					return err
				}
				return runRequest(c, 1, func(ctx context.Context, conn *bigcommerce.Connection, target string) (any, error) {
					return conn.Get(ctx, target, query)
				})
			},
		},
		{
			Name:      "post",
			Usage:     "Send a POST request",
			ArgsUsage: "URL BODY",
			Action: func(c *cli.Context) error {
				return withBody(c, func(ctx context.Context, conn *bigcommerce.Connection, target, body string) (any, error) {
					return conn.Post(ctx, target, body)
				})
			},
		},
		{
			Name:      "put",
			Usage:     "Send a PUT request",
			ArgsUsage: "URL BODY",
			Action: func(c *cli.Context) error {
				return withBody(c, func(ctx context.Context, conn *bigcommerce.Connection, target, body string) (any, error) {
					return conn.Put(ctx, target, body)
				})
			},
		},
		{
			Name:      "delete",
			Usage:     "Send a DELETE request",
			ArgsUsage: "URL",
			Action: func(c *cli.Context) error {
				return runRequest(c, 1, func(ctx context.Context, conn *bigcommerce.Connection, target string) (any, error) {
					return conn.Delete(ctx, target)
				})
			},
		},
		{
			Name:      "head",
			Usage:     "Send a HEAD request",
			ArgsUsage: "URL",
			Action: func(c *cli.Context) error {
				return runRequest(c, 1, func(ctx context.Context, conn *bigcommerce.Connection, target string) (any, error) {
					return conn.Head(ctx, target)
				})
			},
		},
	}
}

type requestFunc func(ctx context.Context, conn *bigcommerce.Connection, target string) (any, error)

func withBody(c *cli.Context, send func(ctx context.Context, conn *bigcommerce.Connection, target, body string) (any, error)) error {
	body, err := readBody(c.App.Reader, c.Args().Get(1))
	if err != nil {
		return err
	}
	return runRequest(c, 2, func(ctx context.Context, conn *bigcommerce.Connection, target string) (any, error) {
		return send(ctx, conn, target, body)
	})
}

// runRequest connects, sends one request and prints the outcome.
func runRequest(c *cli.Context, nargs int, send requestFunc) error {
	if c.NArg() != nargs {
		return fmt.Errorf("%s: expected %d argument(s), got %d", c.Command.Name, nargs, c.NArg())
	}
	target := c.Args().First()

	conn, flags, err := Connect(c)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := send(ctx, conn, target)
	if flags.Verbose && conn.Status() != 0 {
		printHead(c.App.Writer, conn)
	}
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if lastErr := conn.LastError(); lastErr != nil {
		if err := printBody(c.App.Writer, errorBody(lastErr)); err != nil {
			return err
		}
		return fmt.Errorf("request failed: %w", lastErr)
	}

	return printBody(c.App.Writer, body)
}

// readBody returns the request body argument. "@path" reads the body from a
// file and "-" from stdin.
func readBody(stdin io.Reader, arg string) (string, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		return string(data), nil
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		return string(data), nil
	}
	return arg, nil
}

func parseQuery(params []string) (url.Values, error) {
	if len(params) == 0 {
		return nil, nil
	}
	query := make(url.Values, len(params))
	for _, p := range params {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q, want key=value", p)
		}
		query.Add(key, value)
	}
	return query, nil
}
