package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/internal/solver"
	"github.com/praetorian-inc/arc-orchestrator/internal/testutil"
	"github.com/praetorian-inc/arc-orchestrator/pkg/ratelimit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/retry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolverSpecBuildResolvesModelsAndSkipsBad(t *testing.T) {
	spec := SolverSpec{
		Step1Models: []string{"gpt-5.1-high", "not-a-real-model"},
		KThreshold:  3,
		JudgeModel:  "gpt-5.1-high",
	}
	gens := map[types.Provider]types.Generator{types.ProviderOpenAI: testutil.NewMockGenerator(types.ModelResponse{Text: "1"})}

	cfg, errs := spec.Build(gens, nil, solver.Config{})
	require.Len(t, errs, 1)
	assert.Len(t, cfg.Step1Models, 1)
	assert.Equal(t, "gpt-5.1-high", cfg.Step1Models[0].Identifier)
	assert.Equal(t, types.ProviderOpenAI, cfg.JudgeModel.Provider)
}

func TestConfigDefaultsApplyWhenUnset(t *testing.T) {
	var cfg Config
	assert.Equal(t, 1, cfg.workers())
	assert.Equal(t, defaultGlobalTimeout, cfg.globalTimeout())

	cfg.TaskWorkers = 4
	cfg.GlobalTimeout = time.Minute
	assert.Equal(t, 4, cfg.workers())
	assert.Equal(t, time.Minute, cfg.globalTimeout())
}

func simpleBatchTask(id string) types.Task {
	return types.Task{
		ID:    id,
		Train: []types.Example{{Input: [][]int{{1}}, Output: [][]int{{2}}}},
		Test:  []types.Example{{Input: [][]int{{3}}, Output: [][]int{{4}}}},
	}
}

func TestRunChildSolvesAndWritesResponse(t *testing.T) {
	req := TaskRequest{
		Task:      simpleBatchTask("t1"),
		TestIndex: 0,
		Spec: SolverSpec{
			Step1Models: []string{"gpt-5.1-high"},
			KThreshold:  1,
			JudgeModel:  "gpt-5.1-high",
		},
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	gen := testutil.NewMockGenerator(types.ModelResponse{Text: "4"})
	builder := func(spec SolverSpec) (map[types.Provider]types.Generator, *ratelimit.Registry, solver.Config, error) {
		return map[types.Provider]types.Generator{types.ProviderOpenAI: gen}, nil, solver.Config{Retry: retry.Config{MaxAttempts: 1}}, nil
	}

	var out bytes.Buffer
	err = RunChild(context.Background(), bytes.NewReader(body), &out, builder)
	require.NoError(t, err)

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "PASS", resp.Result.Outcome)
}

func TestRunChildReportsBuilderError(t *testing.T) {
	req := TaskRequest{Task: simpleBatchTask("t2"), TestIndex: 0}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	builder := func(spec SolverSpec) (map[types.Provider]types.Generator, *ratelimit.Registry, solver.Config, error) {
		return nil, nil, solver.Config{}, assert.AnError
	}

	var out bytes.Buffer
	err = RunChild(context.Background(), bytes.NewReader(body), &out, builder)
	require.NoError(t, err) // I/O itself succeeds; the failure is reported inside the response

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, resp.Result)
}

func TestControllerRunCollectsChildResponses(t *testing.T) {
	script := `cat >/dev/null; printf '{"test_index":0,"result":{"Outcome":"PASS"}}'`
	cfg := Config{
		BinaryPath:    "/bin/sh",
		ChildArgs:     []string{"-c", script},
		TaskWorkers:   2,
		GlobalTimeout: 5 * time.Second,
	}
	jobs := []TaskJob{
		{Task: simpleBatchTask("a"), TestIndex: 0},
		{Task: simpleBatchTask("b"), TestIndex: 0},
	}

	outcomes := Run(context.Background(), cfg, jobs)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
		assert.False(t, o.Broken)
		require.NotNil(t, o.Resp)
		assert.Equal(t, "PASS", o.Resp.Result.Outcome)
	}
}

func TestControllerRunReportsChildProcessFailure(t *testing.T) {
	cfg := Config{
		BinaryPath:    "/bin/sh",
		ChildArgs:     []string{"-c", "cat >/dev/null; exit 1"},
		TaskWorkers:   1,
		GlobalTimeout: 5 * time.Second,
	}
	outcomes := Run(context.Background(), cfg, []TaskJob{{Task: simpleBatchTask("c"), TestIndex: 0}})
	require.Len(t, outcomes, 1)
	assert.Error(t, outcomes[0].Err)
	assert.False(t, outcomes[0].Broken)
}

func TestControllerRunMarksBrokenWhenGlobalDeadlineElapses(t *testing.T) {
	cfg := Config{
		BinaryPath:    "/bin/sh",
		ChildArgs:     []string{"-c", "cat >/dev/null; sleep 5"},
		TaskWorkers:   1,
		GlobalTimeout: 100 * time.Millisecond,
	}
	outcomes := Run(context.Background(), cfg, []TaskJob{{Task: simpleBatchTask("d"), TestIndex: 0}})
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Broken)
	assert.Error(t, outcomes[0].Err)
}
