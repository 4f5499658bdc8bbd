// Command catalogctl manages the product catalog from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-catalog-admin/cmd/catalogctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
