// Package language lists the languages the Whisper family of models accepts
// as an explicit transcription hint.
package language

import "sort"

// Language is an ISO 639-1 code with its English name.
type Language struct {
	Code string
	Name string
}

// AutoLabel is shown wherever an empty code means auto-detect.
const AutoLabel = "auto-detect"

var languages = []Language{
	{"af", "Afrikaans"},
	{"ar", "Arabic"},
	{"hy", "Armenian"},
	{"az", "Azerbaijani"},
	{"be", "Belarusian"},
	{"bs", "Bosnian"},
	{"bg", "Bulgarian"},
	{"ca", "Catalan"},
	{"zh", "Chinese"},
	{"hr", "Croatian"},
	{"cs", "Czech"},
	{"da", "Danish"},
	{"nl", "Dutch"},
	{"en", "English"},
	{"et", "Estonian"},
	{"fi", "Finnish"},
	{"fr", "French"},
	{"gl", "Galician"},
	{"de", "German"},
	{"el", "Greek"},
	{"he", "Hebrew"},
	{"hi", "Hindi"},
	{"hu", "Hungarian"},
	{"is", "Icelandic"},
	{"id", "Indonesian"},
	{"it", "Italian"},
	{"ja", "Japanese"},
	{"kn", "Kannada"},
	{"kk", "Kazakh"},
	{"ko", "Korean"},
	{"lv", "Latvian"},
	{"lt", "Lithuanian"},
	{"mk", "Macedonian"},
	{"ms", "Malay"},
	{"mr", "Marathi"},
	{"mi", "Maori"},
	{"ne", "Nepali"},
	{"no", "Norwegian"},
	{"fa", "Persian"},
	{"pl", "Polish"},
	{"pt", "Portuguese"},
	{"ro", "Romanian"},
	{"ru", "Russian"},
	{"sr", "Serbian"},
	{"sk", "Slovak"},
	{"sl", "Slovenian"},
	{"es", "Spanish"},
	{"sw", "Swahili"},
	{"sv", "Swedish"},
	{"tl", "Tagalog"},
	{"ta", "Tamil"},
	{"th", "Thai"},
	{"tr", "Turkish"},
	{"uk", "Ukrainian"},
	{"ur", "Urdu"},
	{"vi", "Vietnamese"},
	{"cy", "Welsh"},
}

var byCode = func() map[string]Language {
	m := make(map[string]Language, len(languages))
	for _, l := range languages {
		m[l.Code] = l
	}
	return m
}()

// Lookup finds a language by code. The empty code is not a language.
func Lookup(code string) (Language, bool) {
	l, ok := byCode[code]
	return l, ok
}

// Valid reports whether code can be passed as a transcription hint. The
// empty code is valid and means auto-detect.
func Valid(code string) bool {
	if code == "" {
		return true
	}
	_, ok := byCode[code]
	return ok
}

// Label renders a code for display, e.g. "English (en)".
func Label(code string) string {
	if code == "" {
		return AutoLabel
	}
	if l, ok := byCode[code]; ok {
		return l.Name + " (" + l.Code + ")"
	}
	return code
}

// Codes returns every supported code in alphabetical order.
func Codes() []string {
	codes := make([]string, 0, len(languages))
	for _, l := range languages {
		codes = append(codes, l.Code)
	}
	sort.Strings(codes)
	return codes
}
