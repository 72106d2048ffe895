package ai

import (
	"encoding/json"
	"strings"
)

// BuildDecomposeUserPrompt формирует user-сообщение для первой фазы.
func BuildDecomposeUserPrompt(idea string) string {
	var b strings.Builder

	b.WriteString("idea: ")
	b.WriteString(idea)
	b.WriteString("\n")

	return b.String()
}

// BuildDateUserPrompt формирует user-сообщение для второй фазы.
// drafts may be empty when the caller only echoed the idea text.
func BuildDateUserPrompt(idea, dateAnswer string, drafts []TaskDraft) string {
	var b strings.Builder

	b.WriteString("idea: ")
	b.WriteString(idea)
	b.WriteString("\n")

	b.WriteString("user_timing_answer: ")
	b.WriteString(dateAnswer)
	b.WriteString("\n")

	if len(drafts) > 0 {
		plan, err := json.Marshal(map[string]any{"tasks": drafts})
		if err == nil {
			b.WriteString("current_plan: ")
			b.Write(plan)
			b.WriteString("\n")
		}
	}

	return b.String()
}
