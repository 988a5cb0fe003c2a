// Package service implements the meeting, translation and template workflows
// on top of the AI pipeline, audio tools and file storage.
package service

import (
	"context"

	"meetscribe/internal/repository"
)

// Pipeline is the AI surface the services depend on. *ai.Client implements it.
type Pipeline interface {
	Transcribe(ctx context.Context, filePath, language string) (string, error)
	TranslateText(ctx context.Context, text, targetLanguage, sourceLanguage string) (string, error)
	GenerateReport(ctx context.Context, transcript, template, language string, multipart bool) (string, error)
}

// Repositories groups the persistence interfaces the services use.
type Repositories struct {
	Meetings   repository.MeetingRepository
	Recordings repository.RecordingRepository
	Reports    repository.ReportRepository
	Templates  repository.TemplateRepository
}
