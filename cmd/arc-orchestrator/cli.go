package main

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// CLI is the arc-orchestrator command-line interface.
var CLI struct {
	Debug   bool       `help:"Enable debug mode." short:"d" env:"ARC_DEBUG"`
	Version VersionCmd `cmd:"" help:"Print version information."`
	Help    HelpCmd    `cmd:"" hidden:"" default:"1"`

	Solve     SolveCmd     `cmd:"" help:"Solve one or more ARC tasks."`
	SolveTask SolveTaskCmd `cmd:"" hidden:"" help:"Solve a single task/test read from stdin (internal child-process mode)."`

	Completion CompletionCmd `cmd:"" help:"Generate shell completion scripts."`
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	printVersion()
	return nil
}

// HelpCmd prints help.
type HelpCmd struct{}

func (h *HelpCmd) Run(ctx *kong.Context) error {
	appCtx := *ctx
	if len(appCtx.Path) > 1 {
		appCtx.Path = appCtx.Path[:1]
	}
	return appCtx.PrintUsage(false)
}

// CompletionCmd generates shell completion scripts.
type CompletionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"Shell type (bash, zsh, fish)."`
}

func (c *CompletionCmd) Run() error {
	switch c.Shell {
	case "bash":
		fmt.Println("# Bash completion for arc-orchestrator")
		fmt.Println("# Add to ~/.bashrc:")
		fmt.Println("# eval \"$(arc-orchestrator completion bash)\"")
	case "zsh":
		fmt.Println("# Zsh completion for arc-orchestrator")
		fmt.Println("# Add to ~/.zshrc:")
		fmt.Println("# eval \"$(arc-orchestrator completion zsh)\"")
	case "fish":
		fmt.Println("# Fish completion for arc-orchestrator")
		fmt.Println("# Run: arc-orchestrator completion fish | source")
	}
	return nil
}
