package organizer

import (
	"regexp"
	"strings"
)

var numberedRe = regexp.MustCompile(`^\d+\.\s*`)

// ParseSection returns the text between "## heading" and the next "##" (or
// the end of the response), trimmed. ok is false when the heading is absent.
func ParseSection(text, heading string) (string, bool) {
	re, err := regexp.Compile(`(?s)## ` + regexp.QuoteMeta(heading) + `\s+(.*?)(?:##|\z)`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ExtractTodoItems returns the list lines of the TO-DO ITEMS section with
// their bullet or number stripped. It never returns nil.
func ExtractTodoItems(text string) []string {
	items := []string{}

	section, ok := ParseSection(text, HeadingTodoItems)
	if !ok || strings.Contains(section, NoTodosMarker) {
		return items
	}

	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		var item string
		switch {
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "*"):
			item = strings.TrimSpace(line[1:])
		case numberedRe.MatchString(line):
			item = strings.TrimSpace(numberedRe.ReplaceAllString(line, ""))
		default:
			continue
		}
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
