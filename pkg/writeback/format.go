// Package writeback renders stored summaries as plain text and writes them
// back next to, or into, the transcript they came from.
package writeback

import (
	"fmt"
	"strings"
	"time"

	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
)

const rule = "========================================"

// Render formats a summary as the plain-text block appended to transcripts.
// NEXT STEPS is rendered only when the summary carries a next-steps list.
func Render(s storage.SummaryContent, generatedOn time.Time) string {
	var b strings.Builder

	b.WriteString("\n\n" + rule + "\n")
	fmt.Fprintf(&b, "MEETING SUMMARY (Generated on %s)\n", generatedOn.Format("1/2/2006"))
	b.WriteString(rule + "\n\n")

	writeSection(&b, "ATTENDEES", numbered(s.Attendees), "No attendees recorded")
	writeSection(&b, "KEY DECISIONS", numbered(s.KeyDecisions), "No key decisions recorded")
	writeSection(&b, "ACTION ITEMS", actionItemLines(s.ActionItems), "No action items recorded")
	writeSection(&b, "DISCUSSION HIGHLIGHTS", numbered(s.DiscussionHighlights), "No discussion highlights recorded")
	if s.NextSteps != nil {
		writeSection(&b, "NEXT STEPS", numbered(s.NextSteps), "No next steps recorded")
	}

	b.WriteString("---\nThis summary was automatically generated by the Meeting Summary Bot.\n")
	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []string, empty string) {
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("-", len(title)) + "\n")
	if len(lines) == 0 {
		b.WriteString(empty)
	} else {
		b.WriteString(strings.Join(lines, "\n"))
	}
	b.WriteString("\n\n")
}

func numbered(items []string) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return lines
}

// FormatActionItem renders one action item without its number.
func FormatActionItem(item storage.ActionItem) string {
	if item.IsLegacy {
		return item.Legacy
	}

	text := item.Task
	if text == "" {
		text = "No task description"
	}
	if len(item.AssignedTo) > 0 {
		text += " (Assigned to: " + strings.Join(item.AssignedTo, ", ") + ")"
	}
	if item.DueDate != nil && *item.DueDate != "" {
		text += " [Due: " + *item.DueDate + "]"
	}
	return text
}

func actionItemLines(items []storage.ActionItem) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, FormatActionItem(item))
	}
	return lines
}
