package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	bigcommerce "github.com/bigcommerce/bigcommerce-api-go"
)

// printHead writes the status line and the response headers, sorted by name.
func printHead(w io.Writer, conn *bigcommerce.Connection) {
	fmt.Fprintln(w, conn.StatusMessage())

	headers := conn.Headers()
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s: %s\n", name, headers[name])
	}
	fmt.Fprintln(w)
}

// printBody writes a decoded body. Strings (XML mode) are written as-is,
// anything else as indented JSON. A nil body writes nothing.
func printBody(w io.Writer, body any) error {
	switch b := body.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, b)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}

func errorBody(err error) any {
	var clientErr *bigcommerce.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Body
	}
	var serverErr *bigcommerce.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Body
	}
	return nil
}
