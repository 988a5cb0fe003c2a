package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"meetscribe/internal/audio"
	"meetscribe/internal/logging"
	"meetscribe/internal/metrics"
	"meetscribe/internal/model"
	"meetscribe/internal/transcript"
)

// MeetingService drives the meeting lifecycle from start through the
// transcribe-and-report pipeline.
type MeetingService struct {
	repos       Repositories
	files       FileStore
	splitter    *audio.Splitter
	pipeline    Pipeline
	concurrency int
	log         zerolog.Logger
}

// FileStore is the storage surface the meeting service writes through.
// *storage.Service implements it.
type FileStore interface {
	RecordingPath(meetingID uuid.UUID) string
	SaveReport(meetingID uuid.UUID, content string) (string, error)
	SaveUpload(file *multipart.FileHeader, dst string) (int64, error)
}

// NewMeetingService wires the meeting workflow. Chunk transcription runs with
// at most concurrency requests in flight.
func NewMeetingService(repos Repositories, files FileStore, splitter *audio.Splitter, pipeline Pipeline, concurrency int) *MeetingService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &MeetingService{
		repos:       repos,
		files:       files,
		splitter:    splitter,
		pipeline:    pipeline,
		concurrency: concurrency,
		log:         logging.Component("meeting"),
	}
}

// Start begins a new meeting. Only one meeting may be recording at a time.
func (s *MeetingService) Start(ctx context.Context) (*model.Meeting, error) {
	if _, err := s.repos.Meetings.Active(ctx); err == nil {
		return nil, ErrMeetingAlreadyStarted
	}

	m := model.NewMeeting()
	m.Start()
	if err := s.repos.Meetings.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	s.log.Info().Str("meeting_id", m.ID.String()).Msg("meeting started")
	return m, nil
}

// Stop ends the recording and stores the uploaded audio file.
func (s *MeetingService) Stop(ctx context.Context, meetingID uuid.UUID, upload *multipart.FileHeader) (*model.Meeting, error) {
	m, err := s.repos.Meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, ErrMeetingNotFound
	}
	if m.Status != model.StatusRecording {
		return nil, ErrMeetingNotStarted
	}

	dst := s.files.RecordingPath(m.ID)
	size, err := s.files.SaveUpload(upload, dst)
	if err != nil {
		return nil, fmt.Errorf("failed to store recording: %w", err)
	}

	m.Stop()
	m.RecordingPath = dst
	if err := s.repos.Meetings.Update(ctx, m); err != nil {
		return nil, err
	}
	if err := s.repos.Recordings.Save(ctx, model.NewRecording(m.ID, dst, size)); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("meeting_id", m.ID.String()).
		Str("recording", dst).
		Int64("bytes", size).
		Msg("meeting stopped")
	return m, nil
}

// ProcessResult summarizes one completed processing run.
type ProcessResult struct {
	Meeting         *model.Meeting
	ChunkCount      int
	TranscriptChars int
	ReportPath      string
}

// Process runs the full pipeline on a stopped meeting: split the recording,
// transcribe the chunks concurrently, assemble the transcript in chunk order
// and generate the report. The meeting ends Completed; on failure it stays in
// its last persisted state.
func (s *MeetingService) Process(ctx context.Context, meetingID uuid.UUID, language model.Language, templateContent string) (*ProcessResult, error) {
	if !language.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
	}

	m, err := s.repos.Meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, ErrMeetingNotFound
	}
	if m.Status != model.StatusStopped {
		return nil, ErrMeetingNotStopped
	}

	start := time.Now()
	m.MarkProcessing()
	if err := s.repos.Meetings.Update(ctx, m); err != nil {
		return nil, err
	}

	chunks, err := s.splitter.Split(m.RecordingPath, m.ID.String()[:8])
	if err != nil {
		return nil, fmt.Errorf("failed to split recording: %w", err)
	}

	transcripts, err := s.transcribeChunks(ctx, chunks)
	s.cleanupChunks(m.RecordingPath, chunks)
	if err != nil {
		return nil, err
	}
	assembled := transcript.Assemble(transcripts)

	tpl := templateContent
	tplPath := ""
	if tpl == "" {
		if current, currentErr := s.repos.Templates.Current(ctx); currentErr == nil {
			tpl = current.Content
			tplPath = current.FilePath
		}
	}

	content, err := s.pipeline.GenerateReport(ctx, assembled, tpl, string(language), len(chunks) > 1)
	if err != nil {
		return nil, err
	}

	reportPath, err := s.files.SaveReport(m.ID, content)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Reports.Save(ctx, model.NewReport(m.ID, content, language, tplPath)); err != nil {
		return nil, err
	}

	m.ReportPath = reportPath
	m.TemplatePath = tplPath
	m.MarkCompleted()
	if err := s.repos.Meetings.Update(ctx, m); err != nil {
		return nil, err
	}

	metrics.MeetingsProcessed.Inc()
	metrics.MeetingProcessingDuration.Observe(time.Since(start).Seconds())
	s.log.Info().
		Str("meeting_id", m.ID.String()).
		Int("chunks", len(chunks)).
		Int("transcript_chars", len(assembled)).
		Str("report", reportPath).
		Msg("meeting processed")

	return &ProcessResult{
		Meeting:         m,
		ChunkCount:      len(chunks),
		TranscriptChars: len(assembled),
		ReportPath:      reportPath,
	}, nil
}

// transcribeChunks runs chunk transcriptions concurrently. Each result lands
// at its chunk's index, so the assembled order never depends on which request
// finished first. Spoken language is auto-detected; the meeting language only
// applies to the report.
func (s *MeetingService) transcribeChunks(ctx context.Context, chunks []string) ([]string, error) {
	transcripts := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			text, err := s.pipeline.Transcribe(gctx, chunk, "")
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i+1, err)
			}
			transcripts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return transcripts, nil
}

// cleanupChunks removes split chunk files. The original recording is never
// deleted.
func (s *MeetingService) cleanupChunks(original string, chunks []string) {
	for _, chunk := range chunks {
		if chunk == original {
			continue
		}
		if err := os.Remove(chunk); err != nil {
			s.log.Warn().Err(err).Str("chunk", chunk).Msg("failed to remove chunk file")
		}
	}
}

// Get retrieves one meeting.
func (s *MeetingService) Get(ctx context.Context, meetingID uuid.UUID) (*model.Meeting, error) {
	m, err := s.repos.Meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, ErrMeetingNotFound
	}
	return m, nil
}

// List retrieves all meetings, most recently created first.
func (s *MeetingService) List(ctx context.Context) ([]model.Meeting, error) {
	return s.repos.Meetings.List(ctx)
}

// Report retrieves the generated report for a meeting.
func (s *MeetingService) Report(ctx context.Context, meetingID uuid.UUID) (*model.Report, error) {
	rep, err := s.repos.Reports.GetByMeeting(ctx, meetingID)
	if err != nil {
		return nil, ErrMeetingNotFound
	}
	return rep, nil
}
