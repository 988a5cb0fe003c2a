package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"meetscribe/internal/logging"
	"meetscribe/internal/model"
	"meetscribe/internal/repository"
)

// TemplateService manages the example report structure the generator follows.
type TemplateService struct {
	templates repository.TemplateRepository
	files     TemplateStore
	log       zerolog.Logger
}

// TemplateStore is the storage surface for uploaded template files.
// *storage.Service implements it.
type TemplateStore interface {
	TemplatePath(filename string) string
	SaveUpload(file *multipart.FileHeader, dst string) (int64, error)
}

// NewTemplateService wires template upload and lookup.
func NewTemplateService(templates repository.TemplateRepository, files TemplateStore) *TemplateService {
	return &TemplateService{
		templates: templates,
		files:     files,
		log:       logging.Component("template"),
	}
}

// templateParser returns the content reader for a template file, dispatched on
// the file extension.
func templateParser(filename string) (func(path string) (string, error), error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "txt", "md":
		return readTextTemplate, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTemplate, ext)
	}
}

func readTextTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}

// Upload stores an uploaded template file and makes it the active template.
func (s *TemplateService) Upload(ctx context.Context, file *multipart.FileHeader) (*model.Template, error) {
	parse, err := templateParser(file.Filename)
	if err != nil {
		return nil, err
	}

	dst := s.files.TemplatePath(file.Filename)
	if _, err := s.files.SaveUpload(file, dst); err != nil {
		return nil, fmt.Errorf("failed to store template: %w", err)
	}
	content, err := parse(dst)
	if err != nil {
		return nil, err
	}

	tpl := model.NewTemplate(dst, content)
	if err := s.templates.SetCurrent(ctx, tpl); err != nil {
		return nil, err
	}

	s.log.Info().Str("file", dst).Str("type", tpl.FileType).Msg("template loaded")
	return tpl, nil
}

// Current returns the active template.
func (s *TemplateService) Current(ctx context.Context) (*model.Template, error) {
	return s.templates.Current(ctx)
}
