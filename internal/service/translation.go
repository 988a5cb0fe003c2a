package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"meetscribe/internal/logging"
	"meetscribe/internal/model"
)

// TranslationService translates text and audio between the supported languages.
type TranslationService struct {
	pipeline Pipeline
	log      zerolog.Logger
}

// NewTranslationService wires the translation workflow.
func NewTranslationService(pipeline Pipeline) *TranslationService {
	return &TranslationService{
		pipeline: pipeline,
		log:      logging.Component("translation"),
	}
}

// TranslateText translates text into the target language. An empty source
// language lets the model detect it; the result then records English, the
// usual meeting language.
func (s *TranslationService) TranslateText(ctx context.Context, text string, target, source model.Language) (*model.TranslationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if !target.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, target)
	}
	if source != "" && !source.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, source)
	}

	translated, err := s.pipeline.TranslateText(ctx, text, string(target), string(source))
	if err != nil {
		return nil, err
	}

	resultSource := source
	if resultSource == "" {
		resultSource = model.LanguageEnglish
	}
	return model.NewTranslationResult(text, translated, resultSource, target), nil
}

// TranslateAudioFile transcribes an audio file and translates the transcript.
// The file is treated as temporary and removed before returning, whether or
// not the calls succeed.
func (s *TranslationService) TranslateAudioFile(ctx context.Context, filePath string, target, source model.Language) (*model.TranslationResult, error) {
	defer func() {
		if err := os.Remove(filePath); err != nil {
			s.log.Warn().Err(err).Str("file", filePath).Msg("failed to remove temp audio")
		}
	}()

	if !target.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, target)
	}
	if source != "" && !source.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, source)
	}

	text, err := s.pipeline.Transcribe(ctx, filePath, string(source))
	if err != nil {
		return nil, err
	}
	return s.TranslateText(ctx, text, target, source)
}
