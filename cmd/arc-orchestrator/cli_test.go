package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kongExit struct{ code int }

// TestCLIStructParsing tests Kong CLI struct parses basic commands.
func TestCLIStructParsing(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{name: "help flag", args: []string{"--help"}},
		{name: "version command", args: []string{"version"}},
		{name: "no command (defaults to help)", args: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cli struct {
				Debug   bool       `help:"Enable debug mode." short:"d"`
				Version VersionCmd `cmd:"" help:"Print version."`
				Help    HelpCmd    `cmd:"" hidden:"" default:"1"`
				Solve   SolveCmd   `cmd:"" help:"Solve tasks."`
			}

			var stdout bytes.Buffer
			didExit := false
			exitCode := -1

			parser, err := kong.New(&cli,
				kong.Name("arc-orchestrator"),
				kong.Exit(func(code int) {
					didExit = true
					exitCode = code
					panic(kongExit{code: code})
				}),
			)
			require.NoError(t, err)
			parser.Stdout = &stdout
			parser.Stderr = &stdout

			var parseErr error
			func() {
				defer func() {
					if r := recover(); r != nil {
						if _, ok := r.(kongExit); ok {
							return
						}
						panic(r)
					}
				}()
				_, parseErr = parser.Parse(tt.args)
			}()

			if tt.expectError {
				assert.Error(t, parseErr)
			} else {
				assert.NoError(t, parseErr)
			}

			if tt.name == "help flag" {
				assert.True(t, didExit)
				assert.Equal(t, 0, exitCode)
				assert.Contains(t, stdout.String(), "Usage: arc-orchestrator")
			} else {
				assert.False(t, didExit)
			}
		})
	}
}

func TestSolveCmdRequiresExactlyOneTaskSource(t *testing.T) {
	tests := []struct {
		name        string
		cmd         SolveCmd
		expectError bool
	}{
		{name: "none set", cmd: SolveCmd{}, expectError: true},
		{name: "task set", cmd: SolveCmd{Task: "tasks.json"}, expectError: false},
		{name: "task-directory set", cmd: SolveCmd{TaskDirectory: "./tasks"}, expectError: false},
		{name: "task-file set", cmd: SolveCmd{TaskFile: "task.json"}, expectError: false},
		{
			name:        "two sources set",
			cmd:         SolveCmd{Task: "tasks.json", TaskFile: "task.json"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSolveCmdFlagParsing(t *testing.T) {
	var cli struct {
		Solve SolveCmd `cmd:""`
	}

	parser, err := kong.New(&cli, kong.Name("arc-orchestrator"), kong.Exit(func(int) {}))
	require.NoError(t, err)

	// --task-file is type:"existingfile", so kong stats the path at parse
	// time; the file has to exist.
	taskFile := filepath.Join(t.TempDir(), "task.json")
	require.NoError(t, os.WriteFile(taskFile, []byte(`{"train":[],"test":[]}`), 0o644))

	args := []string{
		"solve",
		"--task-file", taskFile,
		"--step1-models", "gpt-5.1-high,gemini-3-high",
		"--k-threshold", "4",
		"--judge-model", "gpt-5.1-high",
		"--force-step-5",
		"--task-workers", "3",
	}

	_, err = parser.Parse(args)
	require.NoError(t, err)

	assert.Equal(t, taskFile, cli.Solve.TaskFile)
	assert.Equal(t, "gpt-5.1-high,gemini-3-high", cli.Solve.Step1Models)
	assert.Equal(t, 4, cli.Solve.KThreshold)
	assert.Equal(t, "gpt-5.1-high", cli.Solve.JudgeModel)
	assert.True(t, cli.Solve.ForceStep5)
	assert.Equal(t, 3, cli.Solve.TaskWorkers)
}

func TestSolveCmdSolverModeIsExclusive(t *testing.T) {
	var cli struct {
		Solve SolveCmd `cmd:""`
	}

	parser, err := kong.New(&cli, kong.Name("arc-orchestrator"), kong.Exit(func(int) {}))
	require.NoError(t, err)

	// A real task file, so the only thing left to reject is the
	// --solver/--solver-testing pair.
	taskFile := filepath.Join(t.TempDir(), "task.json")
	require.NoError(t, os.WriteFile(taskFile, []byte(`{"train":[],"test":[]}`), 0o644))

	_, err = parser.Parse([]string{"solve", "--task-file", taskFile, "--solver", "--solver-testing"})
	assert.Error(t, err)
}

func TestVersionCmdRun(t *testing.T) {
	cmd := VersionCmd{}
	assert.NoError(t, cmd.Run())
}

func TestHelpCmdRun(t *testing.T) {
	var cli struct {
		Help  HelpCmd  `cmd:"" hidden:"" default:"1"`
		Solve SolveCmd `cmd:""`
	}

	parser, err := kong.New(&cli, kong.Name("arc-orchestrator"), kong.Description("Test CLI"))
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{})
	require.NoError(t, err)

	var buf bytes.Buffer
	ctx.Kong.Stdout = &buf

	require.NoError(t, cli.Help.Run(ctx))
	assert.Contains(t, buf.String(), "arc-orchestrator")
	assert.Contains(t, buf.String(), "Test CLI")
}

func TestCompletionCmdRun(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		cmd := CompletionCmd{Shell: shell}
		assert.NoError(t, cmd.Run())
	}
}
