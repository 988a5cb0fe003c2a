package ai

import (
	"fmt"
	"strings"
)

// languageNames maps the API language codes to the names written into
// prompts. Unknown codes are used verbatim.
var languageNames = map[string]string{
	"ru": "Russian",
	"pl": "Polish",
	"en": "English",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// translationPrompt asks for a bare translation with no commentary.
func translationPrompt(text, targetLanguage, sourceLanguage string) string {
	source := "the automatically detected language"
	if sourceLanguage != "" {
		source = languageName(sourceLanguage)
	}
	return fmt.Sprintf(
		"Translate the following text from %s into %s. Return only the translated text, without any additional comments:\n\n%s",
		source, languageName(targetLanguage), text)
}

// reportPrompt builds the report-generation prompt. When multipart is set the
// model is told the transcript covers chronological parts of one continuous
// meeting, so it writes a single coherent report instead of one per part.
func reportPrompt(transcript, template, language string, multipart bool) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Based on the following meeting transcript and the example report structure, create a complete meeting report in %s.\n\n",
		languageName(language))
	if multipart {
		b.WriteString("The transcript was assembled from multiple chronological parts of one continuous meeting. Treat them as a single session and write one coherent report, not a separate summary per part.\n\n")
	}
	fmt.Fprintf(&b, "Example report structure:\n%s\n\n", template)
	fmt.Fprintf(&b, "Meeting transcript:\n%s\n\n", transcript)
	b.WriteString("Follow the structure of the example, using the information from the transcript.")
	return b.String()
}
