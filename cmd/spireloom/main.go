// spireloom weaves WARP architecture descriptions into generated sources.
package main

import (
	"os"

	"github.com/hupe1980/spire-loom/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
