package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meetscribe/internal/ai"
	"meetscribe/internal/logging"
	"meetscribe/internal/model"
	"meetscribe/internal/service"
	"meetscribe/internal/storage"
	"meetscribe/internal/utils"
)

const (
	// maxRecordingUploadBytes caps full meeting recordings; they are split
	// before hitting the provider, so the cap is just a sanity bound.
	maxRecordingUploadBytes = 500 * 1024 * 1024

	// maxTranslateUploadBytes caps clips sent to transcription unsplit.
	maxTranslateUploadBytes = 25 * 1024 * 1024

	maxTemplateUploadBytes = 1 * 1024 * 1024
)

var recordingExts = []string{".wav"}
var translateAudioExts = []string{".wav", ".m4a", ".mp3", ".ogg"}

// Handler holds the services behind the HTTP endpoints.
type Handler struct {
	meetings    *service.MeetingService
	translation *service.TranslationService
	templates   *service.TemplateService
	files       *storage.Service
	pool        *ai.KeyPool
	log         zerolog.Logger
}

// NewHandler wires the HTTP layer to the application services.
func NewHandler(meetings *service.MeetingService, translation *service.TranslationService, templates *service.TemplateService, files *storage.Service, pool *ai.KeyPool) *Handler {
	return &Handler{
		meetings:    meetings,
		translation: translation,
		templates:   templates,
		files:       files,
		pool:        pool,
		log:         logging.Component("api"),
	}
}

// healthCheck returns server health status
func (h *Handler) healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":              "ok",
		"service":             "meetscribe-backend",
		"keys":                h.pool.Size(),
		"storage_root":        h.files.Root(),
		"supported_languages": model.SupportedLanguages(),
	})
}

// startMeeting begins a new meeting session
func (h *Handler) startMeeting(c *gin.Context) {
	m, err := h.meetings.Start(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"meeting_id": m.ID.String(),
		"status":     m.Status,
		"start_time": m.StartTime,
	})
}

// stopMeeting stores the uploaded recording and ends the session
func (h *Handler) stopMeeting(c *gin.Context) {
	id, ok := meetingID(c)
	if !ok {
		return
	}
	file, ok := formFile(c, "audio", recordingExts, maxRecordingUploadBytes)
	if !ok {
		return
	}

	m, err := h.meetings.Stop(c.Request.Context(), id, file)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"meeting_id":     m.ID.String(),
		"status":         m.Status,
		"recording_path": m.RecordingPath,
		"size_bytes":     file.Size,
	})
}

// ProcessRequest selects the report language and an optional inline template.
type ProcessRequest struct {
	Language string `json:"language" binding:"required"`
	Template string `json:"template"`
}

// processMeeting runs the transcription and report pipeline
func (h *Handler) processMeeting(c *gin.Context) {
	id, ok := meetingID(c)
	if !ok {
		return
	}
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "language is required")
		return
	}

	result, err := h.meetings.Process(c.Request.Context(), id, model.Language(req.Language), req.Template)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"meeting_id":       result.Meeting.ID.String(),
		"status":           result.Meeting.Status,
		"chunks":           result.ChunkCount,
		"transcript_chars": result.TranscriptChars,
		"report_path":      result.ReportPath,
	})
}

// listMeetings returns all meetings, newest first
func (h *Handler) listMeetings(c *gin.Context) {
	meetings, err := h.meetings.List(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"meetings": meetings,
		"count":    len(meetings),
	})
}

// getMeeting returns one meeting
func (h *Handler) getMeeting(c *gin.Context) {
	id, ok := meetingID(c)
	if !ok {
		return
	}
	m, err := h.meetings.Get(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{"meeting": m})
}

// getReport returns the generated report content for a meeting
func (h *Handler) getReport(c *gin.Context) {
	id, ok := meetingID(c)
	if !ok {
		return
	}
	rep, err := h.meetings.Report(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"meeting_id": rep.MeetingID.String(),
		"language":   rep.Language,
		"content":    rep.Content,
		"created_at": rep.CreatedAt,
	})
}

// TranslateRequest carries text translation input.
type TranslateRequest struct {
	Text           string `json:"text" binding:"required"`
	TargetLanguage string `json:"target_language" binding:"required"`
	SourceLanguage string `json:"source_language"`
}

// translateText translates a piece of text
func (h *Handler) translateText(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "text and target_language are required")
		return
	}

	result, err := h.translation.TranslateText(c.Request.Context(), req.Text,
		model.Language(req.TargetLanguage), model.Language(req.SourceLanguage))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"original_text":   result.OriginalText,
		"translated_text": result.TranslatedText,
		"source_language": result.SourceLanguage,
		"target_language": result.TargetLanguage,
	})
}

// translateAudio transcribes an uploaded clip and translates the transcript
func (h *Handler) translateAudio(c *gin.Context) {
	target := c.PostForm("target_language")
	if target == "" {
		utils.Error(c, http.StatusBadRequest, "target_language is required")
		return
	}
	source := c.PostForm("source_language")

	file, ok := formFile(c, "audio", translateAudioExts, maxTranslateUploadBytes)
	if !ok {
		return
	}

	tmp := h.files.TempAudioPath("translate")
	if _, err := h.files.SaveUpload(file, tmp); err != nil {
		h.log.Error().Err(err).Msg("failed to save uploaded clip")
		utils.Error(c, http.StatusInternalServerError, "failed to save audio file")
		return
	}

	result, err := h.translation.TranslateAudioFile(c.Request.Context(), tmp,
		model.Language(target), model.Language(source))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"original_text":   result.OriginalText,
		"translated_text": result.TranslatedText,
		"source_language": result.SourceLanguage,
		"target_language": result.TargetLanguage,
	})
}

// uploadTemplate stores a new report template and makes it active
func (h *Handler) uploadTemplate(c *gin.Context) {
	file, err := c.FormFile("template")
	if err != nil {
		if file, err = c.FormFile("file"); err != nil {
			utils.Error(c, http.StatusBadRequest, "template file is required")
			return
		}
	}
	if file.Size > maxTemplateUploadBytes {
		utils.Error(c, http.StatusBadRequest, "template file too large")
		return
	}

	tpl, err := h.templates.Upload(c.Request.Context(), file)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"file_path": tpl.FilePath,
		"file_type": tpl.FileType,
		"loaded_at": tpl.LoadedAt,
	})
}

// currentTemplate returns the active report template
func (h *Handler) currentTemplate(c *gin.Context) {
	tpl, err := h.templates.Current(c.Request.Context())
	if err != nil {
		utils.Error(c, http.StatusNotFound, "no template loaded")
		return
	}
	utils.Success(c, gin.H{
		"file_path": tpl.FilePath,
		"file_type": tpl.FileType,
		"content":   tpl.Content,
		"loaded_at": tpl.LoadedAt,
	})
}

// keyStats reports per-credential load with secrets masked
func (h *Handler) keyStats(c *gin.Context) {
	stats := h.pool.Stats()
	utils.Success(c, gin.H{
		"keys":  stats,
		"count": len(stats),
	})
}

// meetingID parses the meeting_id path parameter, answering 400 on garbage.
func meetingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("meeting_id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid meeting_id format")
		return uuid.Nil, false
	}
	return id, true
}

// formFile fetches an uploaded file, validating extension and size. It tries
// the preferred field name first and falls back to "file".
func formFile(c *gin.Context, field string, allowedExts []string, maxBytes int64) (*multipart.FileHeader, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		if file, err = c.FormFile("file"); err != nil {
			utils.Error(c, http.StatusBadRequest, field+" file is required")
			return nil, false
		}
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	valid := false
	for _, allowed := range allowedExts {
		if ext == allowed {
			valid = true
			break
		}
	}
	if !valid {
		utils.Error(c, http.StatusBadRequest, "unsupported audio format. Supported: "+strings.Join(allowedExts, ", "))
		return nil, false
	}
	if file.Size > maxBytes {
		utils.Error(c, http.StatusBadRequest, "file size exceeds limit")
		return nil, false
	}
	return file, true
}

// writeServiceError maps domain and pipeline errors onto HTTP statuses.
func (h *Handler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMeetingNotFound):
		utils.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrMeetingAlreadyStarted),
		errors.Is(err, service.ErrMeetingNotStarted),
		errors.Is(err, service.ErrMeetingNotStopped):
		utils.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmptyText),
		errors.Is(err, service.ErrUnknownLanguage),
		errors.Is(err, service.ErrUnsupportedTemplate):
		utils.Error(c, http.StatusBadRequest, err.Error())
	case ai.IsRateLimit(err):
		utils.Error(c, http.StatusTooManyRequests, err.Error())
	case ai.IsRequestFailed(err):
		utils.Error(c, http.StatusBadGateway, err.Error())
	default:
		h.log.Error().Err(err).Msg("request failed")
		utils.Error(c, http.StatusInternalServerError, err.Error())
	}
}
