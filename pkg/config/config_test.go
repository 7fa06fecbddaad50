package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicYAMLLoading(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
run:
  task_workers: 5
  logs_directory: ./logs

providers:
  openai:
    api_key: test-key

solver:
  step1_models:
    - gpt-5.1-high
  k_threshold: 4
  judge_model: gpt-5.1-high
`

	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 5, cfg.Run.TaskWorkers)
	assert.Equal(t, "./logs", cfg.Run.LogsDirectory)
	assert.Equal(t, "test-key", cfg.Providers["openai"].APIKey)
	assert.Equal(t, []string{"gpt-5.1-high"}, cfg.Solver.Step1Models)
	assert.Equal(t, 4, cfg.Solver.KThreshold)
	assert.Equal(t, "gpt-5.1-high", cfg.Solver.JudgeModel)
}

func TestHierarchicalMerge(t *testing.T) {
	tmpDir := t.TempDir()

	baseConfig := filepath.Join(tmpDir, "base.yaml")
	baseYAML := `
run:
  task_workers: 3
solver:
  step1_models: [gpt-5.1-high]
  k_threshold: 4
  judge_model: gpt-5.1-high
`
	require.NoError(t, os.WriteFile(baseConfig, []byte(baseYAML), 0644))

	overrideConfig := filepath.Join(tmpDir, "override.yaml")
	overrideYAML := `
run:
  task_workers: 5
solver:
  k_threshold: 11
`
	require.NoError(t, os.WriteFile(overrideConfig, []byte(overrideYAML), 0644))

	cfg, err := LoadConfig(baseConfig, overrideConfig)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 5, cfg.Run.TaskWorkers)                          // overridden
	assert.Equal(t, []string{"gpt-5.1-high"}, cfg.Solver.Step1Models) // inherited
	assert.Equal(t, 11, cfg.Solver.KThreshold)                        // overridden
	assert.Equal(t, "gpt-5.1-high", cfg.Solver.JudgeModel)            // inherited
}

func TestEnvironmentVariableInterpolation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	os.Setenv("ARC_TEST_API_KEY", "test-api-key-123")
	defer os.Unsetenv("ARC_TEST_API_KEY")

	yamlContent := `
providers:
  openai:
    api_key: ${ARC_TEST_API_KEY}
solver:
  step1_models: [gpt-5.1-high]
  k_threshold: 4
  judge_model: gpt-5.1-high
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "test-api-key-123", cfg.Providers["openai"].APIKey)
}

func TestMissingEnvironmentVariable(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	os.Unsetenv("ARC_MISSING_VAR")

	yamlContent := `
providers:
  openai:
    api_key: ${ARC_MISSING_VAR}
solver:
  step1_models: [gpt-5.1-high]
  k_threshold: 4
  judge_model: gpt-5.1-high
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadConfig(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "ARC_MISSING_VAR")
	assert.Contains(t, err.Error(), "not set")
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config",
			yaml: `
solver:
  step1_models: [gpt-5.1-high]
  k_threshold: 4
  judge_model: gpt-5.1-high
`,
			expectError: false,
		},
		{
			name: "missing step1 models",
			yaml: `
solver:
  k_threshold: 4
  judge_model: gpt-5.1-high
`,
			expectError: true,
			errorMsg:    "step1_models",
		},
		{
			name: "missing k_threshold",
			yaml: `
solver:
  step1_models: [gpt-5.1-high]
  judge_model: gpt-5.1-high
`,
			expectError: true,
			errorMsg:    "k_threshold",
		},
		{
			name: "unknown model identifier",
			yaml: `
solver:
  step1_models: [gpt-7-ultra]
  k_threshold: 4
  judge_model: gpt-5.1-high
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.yaml), 0644))

			cfg, err := LoadConfig(configPath)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				if tt.errorMsg != "" {
					assert.Contains(t, err.Error(), tt.errorMsg)
				}
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, cfg)
			}
		})
	}
}

func TestProfileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
solver:
  step1_models: [gpt-5.1-high]
  k_threshold: 4
  judge_model: gpt-5.1-high

profiles:
  production:
    solver:
      k_threshold: 11
  development:
    solver:
      k_threshold: 2
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadConfigWithProfile(configPath, "production")
	require.NoError(t, err)
	assert.Equal(t, 11, cfg.Solver.KThreshold)

	cfg, err = LoadConfigWithProfile(configPath, "development")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Solver.KThreshold)

	cfg, err = LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Solver.KThreshold)
}

func TestInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
run:
  task_workers: 5
  invalid indentation
solver:
  step1_models
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	cfg, err := LoadConfig(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "yaml")
}

func TestNonexistentFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestToSpecAppliesDefaultWatchdogWhenUnset(t *testing.T) {
	sc := SolverConfig{Step1Models: []string{"gpt-5.1-high"}, KThreshold: 4, JudgeModel: "gpt-5.1-high"}
	spec, err := sc.ToSpec()
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, spec.Watchdog)
}

func TestToSpecParsesExplicitWatchdog(t *testing.T) {
	sc := SolverConfig{Step1Models: []string{"gpt-5.1-high"}, KThreshold: 4, JudgeModel: "gpt-5.1-high", Watchdog: "30m"}
	spec, err := sc.ToSpec()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, spec.Watchdog)
}

func TestToBatchConfigFallsBackToRunTaskWorkers(t *testing.T) {
	cfg := Config{
		Run:    RunConfig{TaskWorkers: 7},
		Solver: SolverConfig{Step1Models: []string{"gpt-5.1-high"}, KThreshold: 4, JudgeModel: "gpt-5.1-high"},
	}
	bc, err := cfg.ToBatchConfig("/usr/bin/arc-orchestrator", []string{"solve-task"})
	require.NoError(t, err)
	assert.Equal(t, 7, bc.TaskWorkers)
}

func TestLoadConfigFileSkipsValidation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// No solver section at all: LoadConfig would reject this, but
	// LoadConfigFile must succeed since CLI flags are expected to fill
	// in the required fields afterward.
	yamlContent := `
providers:
  openai:
    api_key: test-key
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadConfigFile(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "test-key", cfg.Providers["openai"].APIKey)
	assert.Error(t, cfg.Validate())
}

func TestMergeReplacesSlicesWholesale(t *testing.T) {
	base := &Config{Solver: SolverConfig{Step1Models: []string{"gpt-5.1-high"}}}
	overlay := &Config{Solver: SolverConfig{Step1Models: []string{"gemini-3-high"}}}

	base.Merge(overlay)

	assert.Equal(t, []string{"gemini-3-high"}, base.Solver.Step1Models)
}
