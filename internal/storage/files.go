// Package storage manages the on-disk layout for recordings, generated
// reports and report templates.
package storage

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	recordingsDir = "recordings"
	reportsDir    = "reports"
	templatesDir  = "templates"

	timestampLayout = "2006-01-02_15-04-05"
)

// Service resolves and creates file paths under a single storage root.
type Service struct {
	root string
}

// New creates the storage service and bootstraps the directory tree.
func New(root string) (*Service, error) {
	s := &Service{root: root}
	for _, dir := range []string{s.RecordingsDir(), s.ReportsDir(), s.TemplatesDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// Root returns the storage root directory.
func (s *Service) Root() string {
	return s.root
}

// RecordingsDir returns the directory holding meeting recordings.
func (s *Service) RecordingsDir() string {
	return filepath.Join(s.root, recordingsDir)
}

// ReportsDir returns the directory holding generated reports.
func (s *Service) ReportsDir() string {
	return filepath.Join(s.root, reportsDir)
}

// TemplatesDir returns the directory holding uploaded report templates.
func (s *Service) TemplatesDir() string {
	return filepath.Join(s.root, templatesDir)
}

// RecordingPath returns a timestamped destination path for a meeting's audio.
func (s *Service) RecordingPath(meetingID uuid.UUID) string {
	name := fmt.Sprintf("%s_meeting_%s.wav", time.Now().Format(timestampLayout), shortID(meetingID))
	return filepath.Join(s.RecordingsDir(), name)
}

// ReportPath returns a timestamped destination path for a meeting's report.
func (s *Service) ReportPath(meetingID uuid.UUID) string {
	name := fmt.Sprintf("%s_report_%s.md", time.Now().Format(timestampLayout), shortID(meetingID))
	return filepath.Join(s.ReportsDir(), name)
}

// TemplatePath returns the destination path for an uploaded template file.
func (s *Service) TemplatePath(filename string) string {
	return filepath.Join(s.TemplatesDir(), filepath.Base(filename))
}

// TempAudioPath returns a unique path for a short-lived audio file.
func (s *Service) TempAudioPath(prefix string) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s_%d.wav", prefix, time.Now().UnixNano()))
}

// SaveReport writes report content to a fresh report path and returns it.
func (s *Service) SaveReport(meetingID uuid.UUID, content string) (string, error) {
	path := s.ReportPath(meetingID)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return path, nil
}

// SaveUpload writes an uploaded multipart file to dst and returns its size.
func (s *Service) SaveUpload(file *multipart.FileHeader, dst string) (int64, error) {
	src, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	n, err := out.ReadFrom(src)
	if err != nil {
		return 0, fmt.Errorf("failed to save file: %w", err)
	}
	return n, nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
