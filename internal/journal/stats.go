package journal

import "time"

// Statistics aggregates sessions over a date range.
type Statistics struct {
	TotalSessions      int            `json:"total_sessions"`
	CompletedSessions  int            `json:"completed_sessions"`
	FailedSessions     int            `json:"failed_sessions"`
	TotalTasks         int            `json:"total_tasks"`
	CompletedTasks     int            `json:"completed_tasks"`
	FailedTasks        int            `json:"failed_tasks"`
	TotalDataSize      int64          `json:"total_data_size_bytes"`
	TotalDuration      int64          `json:"total_duration_ms"`
	AvgDuration        int64          `json:"avg_duration_ms"`
	AvgTasksPerSession float64        `json:"avg_tasks_per_session"`
	SuccessRate        float64        `json:"success_rate"`
	ActionCounts       map[string]int `json:"action_counts"`
	ContentTypes       map[string]int `json:"content_types"`
	AppliedSteps       map[string]int `json:"applied_steps"`
	ErrorTypes         map[string]int `json:"error_types"`
	UserActivity       map[string]int `json:"user_activity"`
}

// GetSessionsInDateRange returns the finished sessions of every day from start to
// end inclusive.
func (j *Journal) GetSessionsInDateRange(start, end time.Time) ([]Session, error) {
	sessions := make([]Session, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		summary, err := j.GetDailySummary(d.Format(dateLayout))
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, summary.Sessions...)
	}
	return sessions, nil
}

// GetStatistics aggregates the finished sessions from start to end inclusive.
func (j *Journal) GetStatistics(start, end time.Time) (*Statistics, error) {
	sessions, err := j.GetSessionsInDateRange(start, end)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		ActionCounts: make(map[string]int),
		ContentTypes: make(map[string]int),
		AppliedSteps: make(map[string]int),
		ErrorTypes:   make(map[string]int),
		UserActivity: make(map[string]int),
	}

	for _, session := range sessions {
		stats.TotalSessions++
		stats.TotalTasks += session.TotalTasks
		stats.CompletedTasks += session.CompletedTasks
		stats.FailedTasks += session.FailedTasks
		stats.TotalDataSize += session.TotalDataSize
		stats.TotalDuration += session.Duration

		switch session.Status {
		case StatusCompleted:
			stats.CompletedSessions++
		case StatusFailed:
			stats.FailedSessions++
		}

		for _, task := range session.Tasks {
			stats.ActionCounts[task.Action]++
			if task.ContentType != "" {
				stats.ContentTypes[task.ContentType]++
			}
			for _, v := range task.Applied {
				stats.AppliedSteps[task.ContentType+" "+v]++
			}
			if task.ErrorType != "" {
				stats.ErrorTypes[task.ErrorType]++
			}
		}

		user := session.User
		if user == "" {
			user = "anonymous"
		}
		stats.UserActivity[user]++
	}

	if stats.TotalSessions > 0 {
		stats.AvgDuration = stats.TotalDuration / int64(stats.TotalSessions)
		stats.AvgTasksPerSession = float64(stats.TotalTasks) / float64(stats.TotalSessions)
	}
	if stats.TotalTasks > 0 {
		stats.SuccessRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
	}

	return stats, nil
}
