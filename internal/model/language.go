package model

// Language is an ISO 639-1 code for one of the supported meeting languages.
type Language string

const (
	LanguageRussian Language = "ru"
	LanguagePolish  Language = "pl"
	LanguageEnglish Language = "en"
)

var languageNames = map[Language]string{
	LanguageRussian: "Russian",
	LanguagePolish:  "Polish",
	LanguageEnglish: "English",
}

// Name returns the English display name of the language, or the raw code when
// the language is not one of the supported set.
func (l Language) Name() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return string(l)
}

// Supported reports whether the language is one of the supported set.
func (l Language) Supported() bool {
	_, ok := languageNames[l]
	return ok
}

// SupportedLanguages returns the codes accepted by the translation and report
// endpoints.
func SupportedLanguages() []Language {
	return []Language{LanguageRussian, LanguagePolish, LanguageEnglish}
}
