package cmd

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/internal/journal"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 366
	dateLayout       = "2006-01-02"
)

// requireJournal rejects journal requests when the journal is disabled
func (a *app) requireJournal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.journal == nil {
			return echo.NewHTTPError(http.StatusNotFound, "Upgrade journal not enabled")
		}
		return next(c)
	}
}

// listSessionsHandler returns finished sessions of one day, filtered by user and status
func (a *app) listSessionsHandler(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = time.Now().Format(dateLayout)
	}

	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	summary, err := a.journal.GetDailySummary(date)
	if err != nil {
		return httpError(err)
	}

	sessions := filterSessions(summary.Sessions, c.QueryParam("user"), c.QueryParam("status"))
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":     date,
		"sessions": sessions,
	})
}

// getActiveSessionsHandler returns currently running upgrade sessions
func (a *app) getActiveSessionsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": a.journal.GetActiveSessions(),
	})
}

// getSessionHandler returns detailed information about a specific session
func (a *app) getSessionHandler(c echo.Context) error {
	session, err := a.journal.GetSession(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

// getDailySummaryHandler returns the summary for a specific date
func (a *app) getDailySummaryHandler(c echo.Context) error {
	summary, err := a.journal.GetDailySummary(c.Param("date"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// getStatsHandler returns statistics over the last ?days= days, today included
func (a *app) getStatsHandler(c echo.Context) error {
	days := defaultStatsDays
	if daysStr := c.QueryParam("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed < 1 || parsed > maxStatsDays {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be between 1 and 366")
		}
		days = parsed
	}

	end := time.Now()
	start := end.AddDate(0, 0, -(days - 1))

	stats, err := a.journal.GetStatistics(start, end)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"from":            start.Format(dateLayout),
		"to":              end.Format(dateLayout),
		"active_sessions": len(a.journal.GetActiveSessions()),
		"statistics":      stats,
	})
}

// rotateJournalHandler archives old daily summaries
func (a *app) rotateJournalHandler(c echo.Context) error {
	result, err := a.journal.RotateOldLogs()
	if err != nil {
		logrus.WithError(err).Error("Journal rotation failed")
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "success",
		"archived": result.Archived,
		"removed":  result.Removed,
	})
}

// filterSessions filters sessions by user and status
func filterSessions(sessions []journal.Session, user, status string) []journal.Session {
	if user == "" && status == "" {
		return sessions
	}

	filtered := make([]journal.Session, 0)
	for _, session := range sessions {
		if user != "" && session.User != user {
			continue
		}
		if status != "" && session.Status != status {
			continue
		}
		filtered = append(filtered, session)
	}

	return filtered
}
