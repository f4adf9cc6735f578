// Command stellarctl runs StellarFS views over record files from the terminal.
package main

import (
	"os"

	"github.com/noah-isme/stellarfs-api/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
