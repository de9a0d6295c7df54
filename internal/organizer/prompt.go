package organizer

import (
	"fmt"
	"strings"
)

// SystemPrompt is the system message sent with every organize request.
const SystemPrompt = "You are a helpful diary organization assistant that organizes entries and extracts to-do items."

const (
	HeadingCategorization = "ENTRY CATEGORIZATION"
	HeadingOrganizedEntry = "ORGANIZED ENTRY"
	HeadingTodoItems      = "TO-DO ITEMS"

	// NoTodosMarker is what the model writes when the entry holds no tasks.
	NoTodosMarker = "No to-do items detected"

	noPreviousEntries = "No previous entries exist yet."
)

// BuildPrompt generates the user prompt for one new entry given what was
// already written today.
func BuildPrompt(newEntry, priorEntries string) string {
	prior := strings.TrimSpace(priorEntries)
	if prior == "" {
		prior = noPreviousEntries
	}

	var b strings.Builder
	b.WriteString("You are an intelligent diary organizer. Your task is to analyze a new diary entry and determine how it relates to previous entries. You should categorize and organize the content.\n\n")
	fmt.Fprintf(&b, "# PREVIOUS DIARY ENTRIES:\n%s\n\n", prior)
	fmt.Fprintf(&b, "# NEW DIARY ENTRY:\n%s\n\n", strings.TrimSpace(newEntry))
	b.WriteString("Please provide a detailed analysis with the following structure:\n\n")
	fmt.Fprintf(&b, "## %s\n", HeadingCategorization)
	b.WriteString("- **Main Topics**: [Identify 1-2 main topics or themes in this entry]\n")
	b.WriteString("- **Emotional Tone**: [Analyze the emotional tone of the entry]\n")
	b.WriteString("- **Related Previous Entries**: [Identify any connections to previous entries]\n\n")
	fmt.Fprintf(&b, "## %s\n", HeadingOrganizedEntry)
	b.WriteString("[Rewrite the entry with proper formatting while preserving all original content]\n\n")
	fmt.Fprintf(&b, "## %s\n", HeadingTodoItems)
	fmt.Fprintf(&b, "[Extract any tasks, to-do items, or intentions mentioned in the entry as a bulleted list. If none are found, write \"%s.\"]\n", NoTodosMarker)
	return b.String()
}
