package summarize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
)

var fencePattern = regexp.MustCompile("```(?:json)?\\s*")

// StripFences removes markdown code fences that models sometimes wrap JSON in.
func StripFences(content string) string {
	if !strings.Contains(content, "```") {
		return content
	}
	return strings.TrimSpace(fencePattern.ReplaceAllString(content, ""))
}

// ParseResponse decodes a model reply into a normalized Result.
func ParseResponse(content string) (*Result, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(StripFences(content)), &raw); err != nil {
		return nil, &pferrors.LLMParseError{Raw: content, Cause: err}
	}
	r := Normalize(raw)
	return &r, nil
}

// Normalize coerces a decoded reply into a Result. Missing or mistyped lists
// become empty, and action items that are not objects become structured items
// whose task is the original value. NextSteps stays nil unless the reply has a
// next_steps key.
func Normalize(raw map[string]interface{}) Result {
	r := Result{
		Attendees:            stringList(raw["attendees"]),
		KeyDecisions:         stringList(raw["key_decisions"]),
		ActionItems:          actionItems(raw["action_items"]),
		DiscussionHighlights: stringList(raw["discussion_highlights"]),
	}
	if v, ok := raw["next_steps"]; ok {
		r.NextSteps = stringList(v)
	}
	return r
}

func stringList(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		out = append(out, stringify(item))
	}
	return out
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64, bool:
		return fmt.Sprint(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func actionItems(v interface{}) []storage.ActionItem {
	list, ok := v.([]interface{})
	if !ok {
		return []storage.ActionItem{}
	}
	out := make([]storage.ActionItem, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			task := ""
			if item != nil {
				task = stringify(item)
			}
			out = append(out, storage.ActionItem{Task: task, AssignedTo: []string{}})
			continue
		}

		ai := storage.ActionItem{AssignedTo: []string{}}
		if task, ok := obj["task"].(string); ok {
			ai.Task = task
		}
		if assigned, ok := obj["assignedTo"].([]interface{}); ok {
			for _, a := range assigned {
				if s, ok := a.(string); ok {
					ai.AssignedTo = append(ai.AssignedTo, s)
				}
			}
		}
		if due, ok := obj["dueDate"].(string); ok && due != "" {
			ai.DueDate = &due
		}
		out = append(out, ai)
	}
	return out
}
