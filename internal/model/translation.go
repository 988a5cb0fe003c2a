package model

import "time"

// TranslationResult holds one completed translation.
type TranslationResult struct {
	OriginalText   string    `json:"original_text"`
	TranslatedText string    `json:"translated_text"`
	SourceLanguage Language  `json:"source_language"`
	TargetLanguage Language  `json:"target_language"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewTranslationResult creates a translation result stamped with the current time.
func NewTranslationResult(original, translated string, source, target Language) *TranslationResult {
	return &TranslationResult{
		OriginalText:   original,
		TranslatedText: translated,
		SourceLanguage: source,
		TargetLanguage: target,
		CreatedAt:      time.Now(),
	}
}
