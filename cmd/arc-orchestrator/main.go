package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	// Import for side effects: register every provider's factory into
	// pkg/generators.Registry via init().
	_ "github.com/praetorian-inc/arc-orchestrator/internal/providers/anthropic"
	_ "github.com/praetorian-inc/arc-orchestrator/internal/providers/bedrock"
	_ "github.com/praetorian-inc/arc-orchestrator/internal/providers/google"
	_ "github.com/praetorian-inc/arc-orchestrator/internal/providers/openai"
	_ "github.com/praetorian-inc/arc-orchestrator/internal/providers/replicate"
)

func main() {
	// Parse with custom exit handler to enforce proper exit codes:
	// 0 = success, 1 = solve/runtime error, 2 = validation/usage error
	ctx := kong.Parse(&CLI,
		kong.Name("arc-orchestrator"),
		kong.Description("Multi-stage ARC-AGI reasoning task solver."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Exit(func(code int) {
			if code != 0 {
				os.Exit(2)
			}
			os.Exit(0)
		}),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
