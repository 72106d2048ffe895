package ai

import (
	"fmt"
	"strings"
	"time"
)

const decomposeSystemPrompt = `
1. ROLE

You turn one raw idea captured by the user into a short list of concrete,
actionable tasks. You output ONLY a valid JSON object.

2. CONTEXT

%s

3. OUTPUT FORMAT (STRICT JSON)

{
"message": string,
"tasks": [
{
"title": string,
"description": string,
"priority": "high" | "medium" | "low",
"estimated_duration": "15m" | "30m" | "1h" | "2h" | "4h" | "1d",
"suggested_due_date": "YYYY-MM-DD" | null,
"needs_user_input": boolean,
"timeline_question": string | null
}
],
"suggestions": [string]
}

Rules:
"tasks" has 1 to 4 items.
"suggestions" is optional, at most 3 short tips.
No text outside JSON. No markdown.

4. FIELD LOGIC

4.1 message
One or two friendly sentences summarising the plan.

4.2 title
Short, starts with a verb, actionable.
Do NOT repeat the idea text verbatim; each task is one step of it.
Tasks must not overlap.

4.3 priority
Use only "high", "medium" or "low".

4.4 estimated_duration
Use only "15m", "30m", "1h", "2h", "4h" or "1d". Pick the closest.

4.5 suggested_due_date and needs_user_input
The due date is a deadline, not a start time.
If the idea states or clearly implies timing, resolve it against the
calendar above into YYYY-MM-DD and set needs_user_input to false.
If the task has no time sensitivity, use null and set needs_user_input to false.
If timing matters but is ambiguous, use null, set needs_user_input to true
and put one short question in timeline_question.
A task with needs_user_input = true never has a suggested_due_date.

5. PRIORITY RULES
JSON validity > Field vocabulary > Everything else.
`

const dateSystemPrompt = `
1. ROLE

You resolve task deadlines. The user already has a task plan for an idea and
now answers when things should happen. Your ONLY job is date interpretation.
You output ONLY a valid JSON object.

2. CONTEXT

%s

3. INTERPRETATION

Map the user's answer onto each task relative to the calendar above:
"today" -> today's date.
"tomorrow" -> the next day.
"this <weekday>" -> the next occurrence of that weekday, today included.
"next <weekday>" -> that weekday in the following week.
"next week" -> Monday of the following week.
"this weekend" -> the coming Saturday.
"no rush", "whenever", "someday" -> null (leave unscheduled).
Times of day ("morning", "5pm") are ignored; keep the date.
Preparation steps may be due before the main event when that is obviously
required; otherwise use the same date for every task.

4. OUTPUT FORMAT (STRICT JSON)

Same shape as the plan you receive:

{
"message": string,
"tasks": [
{
"title": string,
"description": string,
"priority": "high" | "medium" | "low",
"estimated_duration": "15m" | "30m" | "1h" | "2h" | "4h" | "1d",
"suggested_due_date": "YYYY-MM-DD" | null,
"needs_user_input": false,
"timeline_question": null
}
]
}

Rules:
Keep the task titles, descriptions, priorities and durations unchanged.
Every task has needs_user_input = false and timeline_question = null.
No text outside JSON. No markdown.
`

// DecomposePrompt is the phase-one instruction anchored at now.
func DecomposePrompt(now time.Time) string {
	return fmt.Sprintf(decomposeSystemPrompt, calendarContext(now))
}

// DateResolutionPrompt is the phase-two instruction anchored at now.
func DateResolutionPrompt(now time.Time) string {
	return fmt.Sprintf(dateSystemPrompt, calendarContext(now))
}

// calendarContext spells out today and the next seven days so the model does
// not have to do weekday arithmetic itself.
func calendarContext(now time.Time) string {
	var b strings.Builder

	b.WriteString("Today is ")
	b.WriteString(now.Weekday().String())
	b.WriteString(", ")
	b.WriteString(now.Format(time.DateOnly))
	b.WriteString(".\nUpcoming days:\n")

	for i := 1; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		b.WriteString("- ")
		b.WriteString(d.Weekday().String())
		b.WriteString(": ")
		b.WriteString(d.Format(time.DateOnly))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
