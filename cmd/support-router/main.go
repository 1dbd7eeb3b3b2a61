// cmd/support-router/main.go
package main

import (
	"fmt"
	"os"

	"support-router/cmd/support-router/commands"
)

// Set by the release build.
var version = "dev"

func main() {
	commands.SetVersion(version)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
