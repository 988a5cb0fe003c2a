package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"meetscribe/internal/audio"
	"meetscribe/internal/model"
	"meetscribe/internal/repository"
	"meetscribe/internal/storage"
)

type fakePipeline struct {
	transcribe func(ctx context.Context, filePath, language string) (string, error)
	translate  func(ctx context.Context, text, target, source string) (string, error)
	report     func(ctx context.Context, transcript, template, language string, multipart bool) (string, error)
}

func (f *fakePipeline) Transcribe(ctx context.Context, filePath, language string) (string, error) {
	if f.transcribe == nil {
		return "", nil
	}
	return f.transcribe(ctx, filePath, language)
}

func (f *fakePipeline) TranslateText(ctx context.Context, text, target, source string) (string, error) {
	if f.translate == nil {
		return "", nil
	}
	return f.translate(ctx, text, target, source)
}

func (f *fakePipeline) GenerateReport(ctx context.Context, transcript, template, language string, multipart bool) (string, error) {
	if f.report == nil {
		return "", nil
	}
	return f.report(ctx, transcript, template, language, multipart)
}

func newRepositories() Repositories {
	return Repositories{
		Meetings:   repository.NewMeetingRepository(""),
		Recordings: repository.NewRecordingRepository(),
		Reports:    repository.NewReportRepository(),
		Templates:  repository.NewTemplateRepository(),
	}
}

func newFileStore(t *testing.T) *storage.Service {
	t.Helper()
	files, err := storage.New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return files
}

// wavBytes renders a stereo 16-bit 44.1kHz file with the given frame count.
func wavBytes(t *testing.T, frames int) []byte {
	t.Helper()
	info := &audio.Info{Channels: 2, SampleWidth: 2, FrameRate: 44100, Frames: frames}
	data := make([]byte, frames*info.BytesPerFrame())
	for i := range data {
		data[i] = byte(i % 249)
	}
	path := filepath.Join(t.TempDir(), "render.wav")
	if err := audio.WriteFile(path, info, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func fileUpload(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 22)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File[field]
	if len(files) != 1 {
		t.Fatalf("expected one file, got %d", len(files))
	}
	return files[0]
}

// chunkNumber extracts N from a _partNNN.wav file name.
func chunkNumber(t *testing.T, path string) int {
	t.Helper()
	base := filepath.Base(path)
	i := strings.LastIndex(base, "_part")
	if i < 0 {
		t.Fatalf("not a chunk file: %s", base)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(base[i+len("_part"):], ".wav"))
	if err != nil {
		t.Fatalf("bad chunk number in %s: %v", base, err)
	}
	return n
}

func startStoppedMeeting(t *testing.T, svc *MeetingService, wav []byte) *model.Meeting {
	t.Helper()
	ctx := context.Background()
	m, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stopped, err := svc.Stop(ctx, m.ID, fileUpload(t, "audio", "meeting.wav", wav))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return stopped
}

func TestStartRejectsSecondMeeting(t *testing.T) {
	svc := NewMeetingService(newRepositories(), newFileStore(t), audio.NewSplitter(0), &fakePipeline{}, 1)

	if _, err := svc.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Start(context.Background()); !errors.Is(err, ErrMeetingAlreadyStarted) {
		t.Fatalf("expected ErrMeetingAlreadyStarted, got %v", err)
	}
}

func TestStopRequiresRecording(t *testing.T) {
	repos := newRepositories()
	svc := NewMeetingService(repos, newFileStore(t), audio.NewSplitter(0), &fakePipeline{}, 1)
	ctx := context.Background()

	upload := fileUpload(t, "audio", "meeting.wav", wavBytes(t, 50))

	m := model.NewMeeting()
	if err := repos.Meetings.Create(ctx, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Stop(ctx, m.ID, upload); !errors.Is(err, ErrMeetingNotStarted) {
		t.Fatalf("expected ErrMeetingNotStarted, got %v", err)
	}

	if _, err := svc.Stop(ctx, model.NewMeeting().ID, upload); !errors.Is(err, ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}
}

func TestStopStoresRecording(t *testing.T) {
	repos := newRepositories()
	files := newFileStore(t)
	svc := NewMeetingService(repos, files, audio.NewSplitter(0), &fakePipeline{}, 1)
	ctx := context.Background()

	wav := wavBytes(t, 200)
	m := startStoppedMeeting(t, svc, wav)

	if m.Status != model.StatusStopped {
		t.Fatalf("status = %s, want %s", m.Status, model.StatusStopped)
	}
	if filepath.Dir(m.RecordingPath) != files.RecordingsDir() {
		t.Fatalf("recording stored outside recordings dir: %s", m.RecordingPath)
	}
	saved, err := os.ReadFile(m.RecordingPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(saved, wav) {
		t.Fatal("stored recording differs from upload")
	}

	rec, err := repos.Recordings.GetByMeeting(ctx, m.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.FileSizeBytes != int64(len(wav)) {
		t.Fatalf("recording size = %d, want %d", rec.FileSizeBytes, len(wav))
	}
}

func TestProcessSplitsTranscribesAndReports(t *testing.T) {
	repos := newRepositories()
	files := newFileStore(t)
	ctx := context.Background()

	var mu sync.Mutex
	var completionOrder []int
	var reportArgs struct {
		transcript string
		template   string
		language   string
		multipart  bool
	}
	pipeline := &fakePipeline{}
	svc := NewMeetingService(repos, files, audio.NewSplitter(4096), pipeline, 3)

	pipeline.transcribe = func(ctx context.Context, filePath, language string) (string, error) {
		n := chunkNumber(t, filePath)
		// Later chunks finish first, so assembly order must come from the
		// chunk index, not completion order.
		time.Sleep(time.Duration(3-n) * 25 * time.Millisecond)
		if language != "" {
			t.Errorf("transcription hint = %q, want empty", language)
		}
		if _, err := os.Stat(filePath); err != nil {
			t.Errorf("chunk missing during transcription: %v", err)
		}
		mu.Lock()
		completionOrder = append(completionOrder, n)
		mu.Unlock()
		return "segment " + strconv.Itoa(n), nil
	}
	pipeline.report = func(ctx context.Context, transcript, template, language string, multipart bool) (string, error) {
		mu.Lock()
		reportArgs.transcript = transcript
		reportArgs.template = template
		reportArgs.language = language
		reportArgs.multipart = multipart
		mu.Unlock()
		return "# Weekly Report\n\n- done", nil
	}

	// 2000 stereo 16-bit frames make 8044 bytes, splitting into three chunks
	// at a 4096 byte threshold.
	m := startStoppedMeeting(t, svc, wavBytes(t, 2000))

	result, err := svc.Process(ctx, m.ID, model.LanguageEnglish, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ChunkCount != 3 {
		t.Fatalf("chunks = %d, want 3", result.ChunkCount)
	}
	mu.Lock()
	gotOrder := append([]int(nil), completionOrder...)
	gotReport := reportArgs
	mu.Unlock()
	if len(gotOrder) != 3 {
		t.Fatalf("transcribed %d chunks, want 3", len(gotOrder))
	}
	if gotOrder[0] == 1 {
		t.Fatalf("expected out-of-order completion, got %v", gotOrder)
	}

	wantTranscript := "--- Part 1 ---\nsegment 1\n\n--- Part 2 ---\nsegment 2\n\n--- Part 3 ---\nsegment 3"
	if gotReport.transcript != wantTranscript {
		t.Fatalf("assembled transcript mismatch:\ngot:  %q\nwant: %q", gotReport.transcript, wantTranscript)
	}
	if !gotReport.multipart {
		t.Fatal("expected multipart report for a split recording")
	}
	if gotReport.language != "en" {
		t.Fatalf("report language = %q, want en", gotReport.language)
	}
	if result.TranscriptChars != len(wantTranscript) {
		t.Fatalf("transcript chars = %d, want %d", result.TranscriptChars, len(wantTranscript))
	}

	// Chunk temp files are gone, the original recording is not.
	leftovers, err := filepath.Glob(filepath.Join(files.RecordingsDir(), "*_part*.wav"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("chunk files left behind: %v", leftovers)
	}
	if _, err := os.Stat(m.RecordingPath); err != nil {
		t.Fatalf("original recording removed: %v", err)
	}

	final, err := svc.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want %s", final.Status, model.StatusCompleted)
	}
	if final.ReportPath != result.ReportPath {
		t.Fatalf("report path mismatch: %s vs %s", final.ReportPath, result.ReportPath)
	}
	content, err := os.ReadFile(result.ReportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if string(content) != "# Weekly Report\n\n- done" {
		t.Fatalf("report content mismatch: %q", content)
	}

	rep, err := svc.Report(ctx, m.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Content != "# Weekly Report\n\n- done" || rep.Language != model.LanguageEnglish {
		t.Fatalf("stored report mismatch: %+v", rep)
	}
}

func TestProcessSmallRecordingSkipsSplitting(t *testing.T) {
	repos := newRepositories()
	files := newFileStore(t)
	ctx := context.Background()

	pipeline := &fakePipeline{
		transcribe: func(ctx context.Context, filePath, language string) (string, error) {
			// Transcription always auto-detects; the meeting language must not
			// leak in as a hint.
			if language != "" {
				t.Errorf("transcription hint = %q, want empty", language)
			}
			return "whole meeting text", nil
		},
	}
	var gotTranscript, gotLanguage string
	var gotMultipart bool
	pipeline.report = func(ctx context.Context, transcript, template, language string, multipart bool) (string, error) {
		gotTranscript = transcript
		gotLanguage = language
		gotMultipart = multipart
		return "report", nil
	}

	svc := NewMeetingService(repos, files, audio.NewSplitter(audio.DefaultChunkThreshold), pipeline, 2)
	m := startStoppedMeeting(t, svc, wavBytes(t, 500))

	result, err := svc.Process(ctx, m.ID, model.LanguageRussian, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ChunkCount != 1 {
		t.Fatalf("chunks = %d, want 1", result.ChunkCount)
	}
	if gotTranscript != "whole meeting text" {
		t.Fatalf("single-part transcript changed: %q", gotTranscript)
	}
	if gotMultipart {
		t.Fatal("multipart must be false for an unsplit recording")
	}
	if gotLanguage != "ru" {
		t.Fatalf("report language = %q, want ru", gotLanguage)
	}
	if _, err := os.Stat(m.RecordingPath); err != nil {
		t.Fatalf("original recording removed: %v", err)
	}
}

func TestProcessUsesCurrentTemplateWhenNoneGiven(t *testing.T) {
	repos := newRepositories()
	files := newFileStore(t)
	ctx := context.Background()

	if err := repos.Templates.SetCurrent(ctx, model.NewTemplate("templates/weekly.md", "## Agenda\n## Decisions")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var gotTemplate string
	pipeline := &fakePipeline{
		transcribe: func(ctx context.Context, filePath, language string) (string, error) {
			return "text", nil
		},
		report: func(ctx context.Context, transcript, template, language string, multipart bool) (string, error) {
			gotTemplate = template
			return "report", nil
		},
	}
	svc := NewMeetingService(repos, files, audio.NewSplitter(audio.DefaultChunkThreshold), pipeline, 1)

	m := startStoppedMeeting(t, svc, wavBytes(t, 100))
	if _, err := svc.Process(ctx, m.ID, model.LanguagePolish, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTemplate != "## Agenda\n## Decisions" {
		t.Fatalf("template = %q, want current template content", gotTemplate)
	}

	final, err := svc.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.TemplatePath != "templates/weekly.md" {
		t.Fatalf("template path = %q", final.TemplatePath)
	}
}

func TestProcessExplicitTemplateWins(t *testing.T) {
	repos := newRepositories()
	ctx := context.Background()

	if err := repos.Templates.SetCurrent(ctx, model.NewTemplate("templates/weekly.md", "stored template")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var gotTemplate string
	pipeline := &fakePipeline{
		transcribe: func(ctx context.Context, filePath, language string) (string, error) { return "text", nil },
		report: func(ctx context.Context, transcript, template, language string, multipart bool) (string, error) {
			gotTemplate = template
			return "report", nil
		},
	}
	svc := NewMeetingService(repos, newFileStore(t), audio.NewSplitter(audio.DefaultChunkThreshold), pipeline, 1)

	m := startStoppedMeeting(t, svc, wavBytes(t, 100))
	if _, err := svc.Process(ctx, m.ID, model.LanguageEnglish, "request template"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTemplate != "request template" {
		t.Fatalf("template = %q, want request template", gotTemplate)
	}
}

func TestProcessStateAndLanguageValidation(t *testing.T) {
	repos := newRepositories()
	svc := NewMeetingService(repos, newFileStore(t), audio.NewSplitter(audio.DefaultChunkThreshold), &fakePipeline{}, 1)
	ctx := context.Background()

	if _, err := svc.Process(ctx, model.NewMeeting().ID, model.LanguageEnglish, ""); !errors.Is(err, ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}

	m, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Process(ctx, m.ID, model.LanguageEnglish, ""); !errors.Is(err, ErrMeetingNotStopped) {
		t.Fatalf("expected ErrMeetingNotStopped, got %v", err)
	}
	if _, err := svc.Process(ctx, m.ID, model.Language("xx"), ""); !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestProcessTranscriptionFailureCleansChunks(t *testing.T) {
	repos := newRepositories()
	files := newFileStore(t)
	ctx := context.Background()

	boom := errors.New("whisper down")
	pipeline := &fakePipeline{
		transcribe: func(ctx context.Context, filePath, language string) (string, error) {
			if chunkNumber(t, filePath) == 2 {
				return "", boom
			}
			return "ok", nil
		},
	}
	svc := NewMeetingService(repos, files, audio.NewSplitter(4096), pipeline, 2)

	m := startStoppedMeeting(t, svc, wavBytes(t, 2000))
	_, err := svc.Process(ctx, m.ID, model.LanguageEnglish, "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected transcription error, got %v", err)
	}

	leftovers, globErr := filepath.Glob(filepath.Join(files.RecordingsDir(), "*_part*.wav"))
	if globErr != nil {
		t.Fatalf("unexpected error: %v", globErr)
	}
	if len(leftovers) != 0 {
		t.Fatalf("chunk files left behind after failure: %v", leftovers)
	}
	if _, statErr := os.Stat(m.RecordingPath); statErr != nil {
		t.Fatalf("original recording removed: %v", statErr)
	}

	final, getErr := svc.Get(ctx, m.ID)
	if getErr != nil {
		t.Fatalf("unexpected error: %v", getErr)
	}
	if final.Status != model.StatusProcessing {
		t.Fatalf("status = %s, want %s", final.Status, model.StatusProcessing)
	}
}

func TestListNewestFirst(t *testing.T) {
	repos := newRepositories()
	svc := NewMeetingService(repos, newFileStore(t), audio.NewSplitter(0), &fakePipeline{}, 1)
	ctx := context.Background()

	first, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stopped, err := svc.Stop(ctx, first.ID, fileUpload(t, "audio", "a.wav", wavBytes(t, 50)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != stopped.ID {
		t.Fatalf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}
}
