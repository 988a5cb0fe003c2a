package model

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Template is an example report structure loaded from a file. The report
// generator follows its layout when writing a meeting report.
type Template struct {
	ID       uuid.UUID `json:"id"`
	FilePath string    `json:"file_path"`
	Content  string    `json:"content"`
	FileType string    `json:"file_type"`
	LoadedAt time.Time `json:"loaded_at"`
}

// NewTemplate creates a template from a parsed file. The file type is taken
// from the extension, lowercased without the dot.
func NewTemplate(filePath, content string) *Template {
	fileType := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	return &Template{
		ID:       uuid.New(),
		FilePath: filePath,
		Content:  content,
		FileType: fileType,
		LoadedAt: time.Now(),
	}
}
