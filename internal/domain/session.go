package domain

import (
	"math"
	"time"
)

// Session is one bounded interval of Claude Code activity. A session is
// open while EndTime is nil.
type Session struct {
	ID              string
	ProjectPath     string
	TranscriptPath  string
	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds *int64
}

// NewSession opens a session starting at now.
func NewSession(id, projectPath, transcriptPath string, now time.Time) Session {
	return Session{
		ID:             id,
		ProjectPath:    projectPath,
		TranscriptPath: transcriptPath,
		StartTime:      now.UTC(),
	}
}

// IsClosed reports whether a termination event has been recorded.
func (s *Session) IsClosed() bool {
	return s.EndTime != nil
}

// Close stamps the end time and the whole-second duration. Closing an
// already closed session overwrites both values: the latest close wins.
func (s *Session) Close(now time.Time) {
	end := now.UTC()
	duration := int64(math.Floor(end.Sub(s.StartTime).Seconds()))
	s.EndTime = &end
	s.DurationSeconds = &duration
}
