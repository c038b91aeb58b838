package judge

// languageIDs maps the platform's language names to Judge0 language
// identifiers. Unmapped languages are rejected before any network call.
var languageIDs = map[string]int{
	"c":          50,
	"cpp":        54,
	"go":         60,
	"java":       62,
	"javascript": 63,
	"python":     71,
}

// LanguageID resolves a platform language name to its execution-service id.
func LanguageID(language string) (int, bool) {
	id, ok := languageIDs[language]
	return id, ok
}

// SupportedLanguages lists the language names the platform accepts.
func SupportedLanguages() []string {
	names := make([]string, 0, len(languageIDs))
	for name := range languageIDs {
		names = append(names, name)
	}
	return names
}
