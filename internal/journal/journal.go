// Package journal records upgrade requests on disk.
//
// Each request becomes a session holding one record per task. Sessions are written
// to sessions/<id>.json as they progress; finished sessions are appended to a daily
// summary (journal_<date>.json) guarded by a file lock so several service processes
// can share one journal directory.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/internal/domain"
)

// Session statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Task statuses.
const (
	TaskRunning = "running"
	TaskSuccess = "success"
	TaskError   = "error"
)

const dateLayout = "2006-01-02"

// Session is one upgrade request.
type Session struct {
	ID             string                 `json:"id"`
	User           string                 `json:"user"`
	IPAddress      string                 `json:"ip_address"`
	UserAgent      string                 `json:"user_agent"`
	StartTime      time.Time              `json:"start_time"`
	EndTime        *time.Time             `json:"end_time,omitempty"`
	Duration       int64                  `json:"duration_ms"`
	Status         string                 `json:"status"`
	TotalTasks     int                    `json:"total_tasks"`
	CompletedTasks int                    `json:"completed_tasks"`
	FailedTasks    int                    `json:"failed_tasks"`
	TotalDataSize  int64                  `json:"total_data_size_bytes"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Tasks          []TaskRecord           `json:"tasks"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// TaskRecord is one task within a session.
type TaskRecord struct {
	Index        int        `json:"task_index"`
	Action       string     `json:"action"`
	ContentType  string     `json:"content_type"`
	From         string     `json:"from"`
	To           string     `json:"to,omitempty"`
	Applied      []string   `json:"applied,omitempty"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Duration     int64      `json:"duration_ms"`
	Status       string     `json:"status"`
	DataSize     int64      `json:"data_size_bytes"`
	MD5Hash      string     `json:"md5_hash,omitempty"`
	ErrorType    string     `json:"error_type,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// DailySummary aggregates the sessions that started on one day.
type DailySummary struct {
	Date              string    `json:"date"`
	TotalSessions     int       `json:"total_sessions"`
	CompletedSessions int       `json:"completed_sessions"`
	FailedSessions    int       `json:"failed_sessions"`
	TotalTasks        int       `json:"total_tasks"`
	CompletedTasks    int       `json:"completed_tasks"`
	FailedTasks       int       `json:"failed_tasks"`
	TotalDataSize     int64     `json:"total_data_size_bytes"`
	AvgDuration       int64     `json:"avg_duration_ms"`
	Sessions          []Session `json:"sessions"`
}

// Journal manages upgrade sessions under one directory.
type Journal struct {
	dir           string
	sessionsDir   string
	archiveDir    string
	retentionDays int
	logger        logrus.FieldLogger

	mu     sync.RWMutex
	active map[string]*Session
	now    func() time.Time
}

// New creates the journal directories below dir.
func New(dir string, retentionDays int, logger logrus.FieldLogger) (*Journal, error) {
	sessionsDir := filepath.Join(dir, "sessions")
	archiveDir := filepath.Join(dir, "archive")

	if err := os.MkdirAll(sessionsDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	if err := os.MkdirAll(archiveDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	if retentionDays < 1 {
		retentionDays = 7
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Journal{
		dir:           dir,
		sessionsDir:   sessionsDir,
		archiveDir:    archiveDir,
		retentionDays: retentionDays,
		logger:        logger,
		active:        make(map[string]*Session),
		now:           time.Now,
	}, nil
}

// StartSession opens a session for a request with totalTasks tasks.
func (j *Journal) StartSession(user, ipAddress, userAgent string, totalTasks int, metadata map[string]interface{}) (*Session, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	session := &Session{
		ID:         uuid.New().String(),
		User:       user,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		StartTime:  j.now(),
		Status:     StatusRunning,
		TotalTasks: totalTasks,
		Tasks:      make([]TaskRecord, 0, totalTasks),
		Metadata:   metadata,
	}
	j.active[session.ID] = session

	if err := j.saveSession(session); err != nil {
		delete(j.active, session.ID)
		return nil, err
	}
	return session, nil
}

// StartTask appends a running task record and returns its position in the session.
func (j *Journal) StartTask(sessionID string, index int, action, contentType, from, to string) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	session, err := j.activeSession(sessionID)
	if err != nil {
		return 0, err
	}

	session.Tasks = append(session.Tasks, TaskRecord{
		Index:       index,
		Action:      action,
		ContentType: contentType,
		From:        from,
		To:          to,
		StartTime:   j.now(),
		Status:      TaskRunning,
	})
	return len(session.Tasks) - 1, j.saveSession(session)
}

// CompleteTask marks the task at position pos as successful.
func (j *Journal) CompleteTask(sessionID string, pos int, to string, applied []string, dataSize int64, md5Hash string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	session, task, err := j.task(sessionID, pos)
	if err != nil {
		return err
	}

	j.finishTask(task, TaskSuccess)
	if to != "" {
		task.To = to
	}
	task.Applied = applied
	task.DataSize = dataSize
	task.MD5Hash = md5Hash

	session.CompletedTasks++
	session.TotalDataSize += dataSize

	return j.saveSession(session)
}

// FailTask marks the task at position pos as failed.
func (j *Journal) FailTask(sessionID string, pos int, errorType, errorMessage string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	session, task, err := j.task(sessionID, pos)
	if err != nil {
		return err
	}

	j.finishTask(task, TaskError)
	task.ErrorType = errorType
	task.ErrorMessage = errorMessage

	session.FailedTasks++

	return j.saveSession(session)
}

// CompleteSession closes a session. It is failed when any task failed.
func (j *Journal) CompleteSession(sessionID string) error {
	return j.closeSession(sessionID, "")
}

// FailSession closes a session as failed with the given reason.
func (j *Journal) FailSession(sessionID, errorMessage string) error {
	return j.closeSession(sessionID, errorMessage)
}

func (j *Journal) closeSession(sessionID, errorMessage string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	session, err := j.activeSession(sessionID)
	if err != nil {
		return err
	}

	now := j.now()
	session.EndTime = &now
	session.Duration = now.Sub(session.StartTime).Milliseconds()

	switch {
	case errorMessage != "":
		session.Status = StatusFailed
		session.ErrorMessage = errorMessage
	case session.FailedTasks > 0:
		session.Status = StatusFailed
	default:
		session.Status = StatusCompleted
	}

	if err := j.saveSession(session); err != nil {
		return err
	}
	if err := j.addToDailySummary(session); err != nil {
		return err
	}

	delete(j.active, sessionID)
	return nil
}

// GetSession returns an active session or loads a finished one from disk.
func (j *Journal) GetSession(sessionID string) (*Session, error) {
	j.mu.RLock()
	if session, ok := j.active[sessionID]; ok {
		cp := *session
		cp.Tasks = append([]TaskRecord(nil), session.Tasks...)
		j.mu.RUnlock()
		return &cp, nil
	}
	j.mu.RUnlock()

	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, domain.NewValidationError("session_id", "must be a UUID")
	}

	data, err := os.ReadFile(j.sessionFile(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewNotFoundError("session", sessionID)
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &session, nil
}

// GetActiveSessions returns running sessions, newest first.
func (j *Journal) GetActiveSessions() []Session {
	j.mu.RLock()
	defer j.mu.RUnlock()

	sessions := make([]Session, 0, len(j.active))
	for _, session := range j.active {
		cp := *session
		cp.Tasks = append([]TaskRecord(nil), session.Tasks...)
		sessions = append(sessions, cp)
	}
	sort.Slice(sessions, func(a, b int) bool {
		return sessions[a].StartTime.After(sessions[b].StartTime)
	})
	return sessions
}

// GetDailySummary returns the summary for date (YYYY-MM-DD). Days without sessions
// yield an empty summary.
func (j *Journal) GetDailySummary(date string) (*DailySummary, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, domain.NewValidationError("date", "expected YYYY-MM-DD")
	}

	data, err := os.ReadFile(j.summaryFile(date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &DailySummary{Date: date, Sessions: []Session{}}, nil
		}
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}

	var summary DailySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return &summary, nil
}

func (j *Journal) activeSession(sessionID string) (*Session, error) {
	session, ok := j.active[sessionID]
	if !ok {
		return nil, domain.NewNotFoundError("session", sessionID)
	}
	return session, nil
}

func (j *Journal) task(sessionID string, pos int) (*Session, *TaskRecord, error) {
	session, err := j.activeSession(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if pos < 0 || pos >= len(session.Tasks) {
		return nil, nil, domain.NewValidationError("task", fmt.Sprintf("position %d out of range", pos))
	}
	return session, &session.Tasks[pos], nil
}

func (j *Journal) finishTask(task *TaskRecord, status string) {
	now := j.now()
	task.EndTime = &now
	task.Duration = now.Sub(task.StartTime).Milliseconds()
	task.Status = status
}

func (j *Journal) sessionFile(id string) string {
	return filepath.Join(j.sessionsDir, id+".json")
}

func (j *Journal) summaryFile(date string) string {
	return filepath.Join(j.dir, fmt.Sprintf("journal_%s.json", date))
}

func (j *Journal) saveSession(session *Session) error {
	return writeJSON(j.sessionFile(session.ID), session)
}

// addToDailySummary appends a finished session to its day's summary.
func (j *Journal) addToDailySummary(session *Session) error {
	date := session.StartTime.Format(dateLayout)

	lock := flock.New(filepath.Join(j.dir, ".journal.lock"))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	summary, err := j.GetDailySummary(date)
	if err != nil {
		return err
	}

	summary.Sessions = append(summary.Sessions, *session)
	summary.TotalSessions++
	summary.TotalTasks += session.TotalTasks
	summary.CompletedTasks += session.CompletedTasks
	summary.FailedTasks += session.FailedTasks
	summary.TotalDataSize += session.TotalDataSize

	switch session.Status {
	case StatusCompleted:
		summary.CompletedSessions++
	case StatusFailed:
		summary.FailedSessions++
	}

	var total int64
	for _, s := range summary.Sessions {
		total += s.Duration
	}
	summary.AvgDuration = total / int64(len(summary.Sessions))

	return writeJSON(j.summaryFile(date), summary)
}

// writeJSON replaces path atomically with the indented encoding of v.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
