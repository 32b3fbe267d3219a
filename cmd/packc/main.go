// Command packc compiles scripts into scoreboard data packs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/packc/internal/cli"
	"github.com/roach88/packc/internal/compiler"
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	compiler.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := cli.NewRootCommand()
	root.Version = version
	root.SilenceErrors = true
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "packc:", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
