package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/gudangapp/gudang/internal/session"
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// newTable returns a tabwriter for aligned column output.
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// requireAuth resolves the session and fails unless it is authenticated.
func requireAuth(ctx context.Context) error {
	app.session.Refresh(ctx)
	if app.session.GuardProtected() == session.DecisionRedirectLogin {
		return fmt.Errorf("not logged in (run \"gudang login\")")
	}
	return nil
}

// prompt reads one line from stdin after printing the label.
func prompt(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
