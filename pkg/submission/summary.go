package submission

// TaskSummary is one task's contribution to results.json's task_results map.
type TaskSummary struct {
	Correct  bool    `json:"correct"`
	Cost     float64 `json:"cost"`
	Attempts int     `json:"attempts"`
	Duration float64 `json:"duration_seconds"`
}

// ResultsSummary is the run-wide aggregate written to results.json.
type ResultsSummary struct {
	Score                      float64                `json:"score"`
	TotalTasks                 int                     `json:"total_tasks"`
	TotalCost                  float64                `json:"total_cost"`
	TotalAttempts              int                     `json:"total_attempts"`
	AvgCostPerTask             float64                 `json:"avg_cost_per_task"`
	AvgCostPerAttempt          float64                 `json:"avg_cost_per_attempt"`
	AvgOutputTokensPerTask     float64                 `json:"avg_output_tokens_per_task"`
	AvgTotalTokensPerTask      float64                 `json:"avg_total_tokens_per_task"`
	AvgDurationPerTask         float64                 `json:"avg_duration_per_task"`
	TaskResults                map[string]TaskSummary  `json:"task_results"`
	NumAttemptsWithEmptyList   int                     `json:"num_attempts_with_empty_list"`
}

// ComputeSummary folds one run's tasks (grouped by task id, each task's
// pairs already merged across every test index it covers) into the
// run-wide ResultsSummary. taskCorrect records whether ANY pair
// within a task solved correctly, matching the ARC scoring rule that a
// task "counts" if at least one of its test pairs is solved.
func ComputeSummary(tasks map[string][]TaskInput) ResultsSummary {
	summary := ResultsSummary{TaskResults: make(map[string]TaskSummary, len(tasks))}

	var totalOutputTokens, totalTotalTokens int
	var totalDuration float64
	var correctTasks int

	for taskID, pairs := range tasks {
		var taskCorrect bool
		var taskCost float64
		var taskAttempts int
		var taskOutputTokens, taskTotalTokens int
		var taskDuration float64

		for _, pair := range pairs {
			for _, a := range pair.Attempts {
				taskAttempts++
				summary.TotalAttempts++
				taskCost += a.Cost
				summary.TotalCost += a.Cost
				taskOutputTokens += a.Usage.CompletionTokens
				taskTotalTokens += a.Usage.TotalTokens
				if a.Correct {
					taskCorrect = true
				}
				if len(a.Grid) == 0 || (len(a.Grid) == 1 && len(a.Grid[0]) == 1 && a.Grid[0][0] == 0) {
					summary.NumAttemptsWithEmptyList++
				}
				if !a.End.IsZero() && !a.Start.IsZero() {
					taskDuration += a.End.Sub(a.Start).Seconds()
				}
			}
		}

		if taskCorrect {
			correctTasks++
		}
		summary.TaskResults[taskID] = TaskSummary{
			Correct:  taskCorrect,
			Cost:     taskCost,
			Attempts: taskAttempts,
			Duration: taskDuration,
		}
		totalOutputTokens += taskOutputTokens
		totalTotalTokens += taskTotalTokens
		totalDuration += taskDuration
	}

	summary.TotalTasks = len(tasks)
	if summary.TotalTasks > 0 {
		summary.Score = float64(correctTasks) / float64(summary.TotalTasks)
		summary.AvgCostPerTask = summary.TotalCost / float64(summary.TotalTasks)
		summary.AvgOutputTokensPerTask = float64(totalOutputTokens) / float64(summary.TotalTasks)
		summary.AvgTotalTokensPerTask = float64(totalTotalTokens) / float64(summary.TotalTasks)
		summary.AvgDurationPerTask = totalDuration / float64(summary.TotalTasks)
	}
	if summary.TotalAttempts > 0 {
		summary.AvgCostPerAttempt = summary.TotalCost / float64(summary.TotalAttempts)
	}

	return summary
}
