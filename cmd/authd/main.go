// Command authd runs the account authentication and session service.
package main

import (
	"fmt"
	"os"
)

// Version information set at build time.
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (built: %s)", version, buildDate)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
