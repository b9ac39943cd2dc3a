package extractor

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// The detector is expensive to build, so it is constructed once on first
// use and restricted to languages with distinctive models.
var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

func languageDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English,
				lingua.German,
				lingua.French,
				lingua.Spanish,
				lingua.Portuguese,
				lingua.Italian,
				lingua.Russian,
				lingua.Chinese,
				lingua.Japanese,
			).
			Build()
	})
	return detector
}

// DetectLanguage returns the ISO 639-1 code of the text's language, or ""
// when the text is too short or ambiguous to classify.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	language, ok := languageDetector().DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
