// Command medroute routes medical questions to topic-grouped literature.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/medroute/internal/adapters/driving/cli"
)

// Set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
