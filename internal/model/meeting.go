package model

import (
	"time"

	"github.com/google/uuid"
)

// MeetingStatus is the lifecycle state of a meeting. Transitions are strictly
// linear: NotStarted -> Recording -> Stopped -> Processing -> Completed.
type MeetingStatus string

const (
	StatusNotStarted MeetingStatus = "NotStarted"
	StatusRecording  MeetingStatus = "Recording"
	StatusStopped    MeetingStatus = "Stopped"
	StatusProcessing MeetingStatus = "Processing"
	StatusCompleted  MeetingStatus = "Completed"
)

// Meeting represents one recorded meeting and its processing artifacts.
type Meeting struct {
	ID            uuid.UUID     `json:"id"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       *time.Time    `json:"end_time,omitempty"`
	Status        MeetingStatus `json:"status"`
	RecordingPath string        `json:"recording_path,omitempty"`
	ReportPath    string        `json:"report_path,omitempty"`
	TemplatePath  string        `json:"template_path,omitempty"`
}

// NewMeeting creates a meeting in the NotStarted state.
func NewMeeting() *Meeting {
	return &Meeting{
		ID:        uuid.New(),
		StartTime: time.Now(),
		Status:    StatusNotStarted,
	}
}

// Start marks the meeting as recording.
func (m *Meeting) Start() {
	m.Status = StatusRecording
	m.StartTime = time.Now()
}

// Stop marks the meeting as stopped.
func (m *Meeting) Stop() {
	now := time.Now()
	m.Status = StatusStopped
	m.EndTime = &now
}

// MarkProcessing marks the meeting as being processed.
func (m *Meeting) MarkProcessing() {
	m.Status = StatusProcessing
}

// MarkCompleted marks the meeting as completed.
func (m *Meeting) MarkCompleted() {
	m.Status = StatusCompleted
}

// Recording represents the audio artifact captured for a meeting.
type Recording struct {
	ID              uuid.UUID `json:"id"`
	MeetingID       uuid.UUID `json:"meeting_id"`
	FilePath        string    `json:"file_path"`
	DurationSeconds float64   `json:"duration_seconds"`
	FileSizeBytes   int64     `json:"file_size_bytes"`
	SampleRate      int       `json:"sample_rate"`
	Channels        int       `json:"channels"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewRecording creates a recording entry for a meeting. Duration is estimated
// from the file size assuming 44.1kHz 16-bit stereo when the container has not
// been inspected.
func NewRecording(meetingID uuid.UUID, filePath string, fileSizeBytes int64) *Recording {
	return &Recording{
		ID:              uuid.New(),
		MeetingID:       meetingID,
		FilePath:        filePath,
		DurationSeconds: float64(fileSizeBytes) / (44100 * 2 * 2),
		FileSizeBytes:   fileSizeBytes,
		SampleRate:      44100,
		Channels:        2,
		CreatedAt:       time.Now(),
	}
}

// Report represents a generated meeting report.
type Report struct {
	ID           uuid.UUID `json:"id"`
	MeetingID    uuid.UUID `json:"meeting_id"`
	Content      string    `json:"content"`
	Language     Language  `json:"language"`
	CreatedAt    time.Time `json:"created_at"`
	TemplatePath string    `json:"template_path,omitempty"`
}

// NewReport creates a report for a meeting.
func NewReport(meetingID uuid.UUID, content string, language Language, templatePath string) *Report {
	return &Report{
		ID:           uuid.New(),
		MeetingID:    meetingID,
		Content:      content,
		Language:     language,
		CreatedAt:    time.Now(),
		TemplatePath: templatePath,
	}
}
