package repository

import (
	"context"
	"errors"

	"meetscribe/internal/model"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create stores a new meeting record
	Create(ctx context.Context, m *model.Meeting) error

	// Update replaces the stored meeting with the given state
	Update(ctx context.Context, m *model.Meeting) error

	// GetByID retrieves a meeting by ID
	GetByID(ctx context.Context, id uuid.UUID) (*model.Meeting, error)

	// List retrieves all meetings, most recently created first
	List(ctx context.Context) ([]model.Meeting, error)

	// Active retrieves the meeting currently in the Recording state
	Active(ctx context.Context) (*model.Meeting, error)
}

// RecordingRepository defines the interface for recording metadata access
type RecordingRepository interface {
	// Save stores recording metadata for a meeting
	Save(ctx context.Context, rec *model.Recording) error

	// GetByMeeting retrieves the recording captured for a meeting
	GetByMeeting(ctx context.Context, meetingID uuid.UUID) (*model.Recording, error)
}

// ReportRepository defines the interface for generated report access
type ReportRepository interface {
	// Save stores a generated report
	Save(ctx context.Context, rep *model.Report) error

	// GetByMeeting retrieves the report generated for a meeting
	GetByMeeting(ctx context.Context, meetingID uuid.UUID) (*model.Report, error)
}

// TemplateRepository defines the interface for the active report template
type TemplateRepository interface {
	// SetCurrent replaces the active report template
	SetCurrent(ctx context.Context, tpl *model.Template) error

	// Current retrieves the active report template
	Current(ctx context.Context) (*model.Template, error)
}
