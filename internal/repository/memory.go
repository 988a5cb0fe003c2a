package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"meetscribe/internal/logging"
	"meetscribe/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type meetingRepository struct {
	mu           sync.Mutex
	meetings     map[uuid.UUID]*model.Meeting
	order        []uuid.UUID
	snapshotPath string
	log          zerolog.Logger
}

// NewMeetingRepository creates an in-memory meeting repository. When
// snapshotPath is non-empty, every write also dumps all meetings to that JSON
// file, best-effort, so state can be inspected after a restart.
func NewMeetingRepository(snapshotPath string) MeetingRepository {
	return &meetingRepository{
		meetings:     make(map[uuid.UUID]*model.Meeting),
		snapshotPath: snapshotPath,
		log:          logging.Component("repository"),
	}
}

// Create stores a new meeting record
func (r *meetingRepository) Create(ctx context.Context, m *model.Meeting) error {
	r.mu.Lock()
	if _, ok := r.meetings[m.ID]; ok {
		r.mu.Unlock()
		return fmt.Errorf("meeting %s already exists", m.ID)
	}
	stored := *m
	r.meetings[m.ID] = &stored
	r.order = append(r.order, m.ID)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.writeSnapshot(snapshot)
	return nil
}

// Update replaces the stored meeting with the given state
func (r *meetingRepository) Update(ctx context.Context, m *model.Meeting) error {
	r.mu.Lock()
	if _, ok := r.meetings[m.ID]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("meeting %s: %w", m.ID, ErrNotFound)
	}
	stored := *m
	r.meetings[m.ID] = &stored
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.writeSnapshot(snapshot)
	return nil
}

// GetByID retrieves a meeting by ID
func (r *meetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.meetings[id]
	if !ok {
		return nil, fmt.Errorf("meeting %s: %w", id, ErrNotFound)
	}
	// Return a copy to avoid race conditions
	cp := *m
	return &cp, nil
}

// List retrieves all meetings, most recently created first
func (r *meetingRepository) List(ctx context.Context) ([]model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Meeting, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, *r.meetings[r.order[i]])
	}
	return out, nil
}

// Active retrieves the meeting currently in the Recording state
func (r *meetingRepository) Active(ctx context.Context) (*model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		m := r.meetings[r.order[i]]
		if m.Status == model.StatusRecording {
			cp := *m
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("no active meeting: %w", ErrNotFound)
}

// snapshotLocked copies all meetings in creation order. Callers must hold mu.
func (r *meetingRepository) snapshotLocked() []model.Meeting {
	out := make([]model.Meeting, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.meetings[id])
	}
	return out
}

// writeSnapshot dumps meetings to the snapshot file. Failures are logged and
// swallowed; the in-memory state is authoritative.
func (r *meetingRepository) writeSnapshot(meetings []model.Meeting) {
	if r.snapshotPath == "" {
		return
	}
	data, err := json.MarshalIndent(meetings, "", "  ")
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to marshal meetings snapshot")
		return
	}
	if err := os.WriteFile(r.snapshotPath, data, 0644); err != nil {
		r.log.Warn().Err(err).Str("path", r.snapshotPath).Msg("failed to write meetings snapshot")
	}
}

type recordingRepository struct {
	mu        sync.Mutex
	byMeeting map[uuid.UUID]*model.Recording
}

// NewRecordingRepository creates an in-memory recording repository.
func NewRecordingRepository() RecordingRepository {
	return &recordingRepository{byMeeting: make(map[uuid.UUID]*model.Recording)}
}

// Save stores recording metadata for a meeting
func (r *recordingRepository) Save(ctx context.Context, rec *model.Recording) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *rec
	r.byMeeting[rec.MeetingID] = &stored
	return nil
}

// GetByMeeting retrieves the recording captured for a meeting
func (r *recordingRepository) GetByMeeting(ctx context.Context, meetingID uuid.UUID) (*model.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byMeeting[meetingID]
	if !ok {
		return nil, fmt.Errorf("recording for meeting %s: %w", meetingID, ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

type reportRepository struct {
	mu        sync.Mutex
	byMeeting map[uuid.UUID]*model.Report
}

// NewReportRepository creates an in-memory report repository.
func NewReportRepository() ReportRepository {
	return &reportRepository{byMeeting: make(map[uuid.UUID]*model.Report)}
}

// Save stores a generated report
func (r *reportRepository) Save(ctx context.Context, rep *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *rep
	r.byMeeting[rep.MeetingID] = &stored
	return nil
}

// GetByMeeting retrieves the report generated for a meeting
func (r *reportRepository) GetByMeeting(ctx context.Context, meetingID uuid.UUID) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.byMeeting[meetingID]
	if !ok {
		return nil, fmt.Errorf("report for meeting %s: %w", meetingID, ErrNotFound)
	}
	cp := *rep
	return &cp, nil
}

type templateRepository struct {
	mu      sync.Mutex
	current *model.Template
}

// NewTemplateRepository creates an in-memory template repository.
func NewTemplateRepository() TemplateRepository {
	return &templateRepository{}
}

// SetCurrent replaces the active report template
func (r *templateRepository) SetCurrent(ctx context.Context, tpl *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *tpl
	r.current = &stored
	return nil
}

// Current retrieves the active report template
func (r *templateRepository) Current(ctx context.Context) (*model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil, fmt.Errorf("no template loaded: %w", ErrNotFound)
	}
	cp := *r.current
	return &cp, nil
}
