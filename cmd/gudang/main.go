// Package main provides the gudang CLI, a terminal console for the remote
// inventory API. It keeps fetched data in a keyed cache, persists the
// session token locally, and falls back to an offline snapshot when the
// server is unreachable.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
