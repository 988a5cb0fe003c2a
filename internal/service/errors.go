package service

import "errors"

var (
	// ErrMeetingNotFound is returned when the meeting ID is unknown.
	ErrMeetingNotFound = errors.New("meeting not found")

	// ErrMeetingAlreadyStarted is returned when a meeting is already being recorded.
	ErrMeetingAlreadyStarted = errors.New("a meeting is already being recorded")

	// ErrMeetingNotStarted is returned when stopping a meeting that is not recording.
	ErrMeetingNotStarted = errors.New("meeting is not being recorded")

	// ErrMeetingNotStopped is returned when processing a meeting that is not stopped.
	ErrMeetingNotStopped = errors.New("meeting is not stopped")

	// ErrEmptyText is returned when there is no text to translate.
	ErrEmptyText = errors.New("text to translate is empty")

	// ErrUnknownLanguage is returned for a language outside the supported set.
	ErrUnknownLanguage = errors.New("unsupported language")

	// ErrUnsupportedTemplate is returned for template files of an unknown format.
	ErrUnsupportedTemplate = errors.New("unsupported template format")
)
