package ai

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idea-tasks-backend/internal/tasks"
)

const validBody = `{
  "message": "Here is your plan.",
  "tasks": [
    {
      "title": "Buy cake ingredients",
      "description": "Flour, eggs, sugar",
      "priority": "high",
      "estimated_duration": "30m",
      "suggested_due_date": null,
      "needs_user_input": true,
      "timeline_question": "When is the cake needed?"
    },
    {
      "title": "Bake the cake",
      "description": "",
      "priority": "Medium",
      "estimated_duration": "2h",
      "suggested_due_date": "2026-10-18",
      "needs_user_input": false,
      "timeline_question": null
    }
  ],
  "suggestions": ["Preheat the oven", "  "]
}`

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"bare":           `{"a":1}`,
		"json fence":     "```json\n{\"a\":1}\n```",
		"plain fence":    "```\n{\"a\":1}\n```",
		"padded":         "\n\n  ```json\n{\"a\":1}\n```  \n",
		"single line":    "```json{\"a\":1}```",
		"no closing":     "```json\n{\"a\":1}",
		"surrounding ws": "   {\"a\":1}   ",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, `{"a":1}`, StripCodeFences(in))
		})
	}
}

func TestParseResponseValid(t *testing.T) {
	bare, err := ParseResponse(validBody)
	require.NoError(t, err)

	fenced, err := ParseResponse("```json\n" + validBody + "\n```")
	require.NoError(t, err)

	if diff := cmp.Diff(bare, fenced); diff != "" {
		t.Errorf("fenced output decoded differently (-bare +fenced):\n%s", diff)
	}

	assert.Equal(t, "Here is your plan.", bare.Message)
	assert.Equal(t, []string{"Preheat the oven"}, bare.Suggestions)
	require.Len(t, bare.Tasks, 2)

	first := bare.Tasks[0]
	assert.True(t, first.NeedsUserInput)
	assert.True(t, first.Unresolved())
	assert.Nil(t, first.SuggestedDueDate)
	require.NotNil(t, first.TimelineQuestion)
	assert.Equal(t, "When is the cake needed?", *first.TimelineQuestion)

	second := bare.Tasks[1]
	assert.Equal(t, tasks.PriorityMedium, second.Priority, "case is normalised")
	assert.Equal(t, tasks.Duration2h, second.EstimatedDuration)
	require.NotNil(t, second.DueDate())
	assert.Equal(t, "2026-10-18", second.DueDate().Format("2006-01-02"))
	assert.False(t, second.Unresolved())

	assert.True(t, bare.NeedsUserInput())
}

func TestParseResponseNormalisesTimestampDates(t *testing.T) {
	resp, err := ParseResponse(`{"message":"m","tasks":[{"title":"t","priority":"low","estimated_duration":"15m","suggested_due_date":"2026-10-18T09:00:00Z","needs_user_input":false}]}`)
	require.NoError(t, err)
	require.NotNil(t, resp.Tasks[0].SuggestedDueDate)
	assert.Equal(t, "2026-10-18", *resp.Tasks[0].SuggestedDueDate)
}

func TestParseResponseRejects(t *testing.T) {
	task := func(fields string) string {
		return `{"message":"m","tasks":[{` + fields + `}]}`
	}
	const base = `"title":"t","priority":"low","estimated_duration":"15m","needs_user_input":false`

	cases := map[string]string{
		"empty":                 "",
		"prose":                 "Sure! Here are your tasks.",
		"truncated":             `{"message":"m","tasks":[{"title":"t"`,
		"trailing text":         `{"message":"m","tasks":[{` + base + `}]} and more`,
		"missing message":       `{"tasks":[{` + base + `}]}`,
		"no tasks":              `{"message":"m","tasks":[]}`,
		"five tasks":            `{"message":"m","tasks":[{` + base + `},{` + base + `},{` + base + `},{` + base + `},{` + base + `}]}`,
		"missing title":         task(`"priority":"low","estimated_duration":"15m","needs_user_input":false`),
		"blank title":           task(`"title":"  ","priority":"low","estimated_duration":"15m","needs_user_input":false`),
		"bad priority":          task(`"title":"t","priority":"urgent","estimated_duration":"15m","needs_user_input":false`),
		"bad duration":          task(`"title":"t","priority":"low","estimated_duration":"45m","needs_user_input":false`),
		"missing duration":      task(`"title":"t","priority":"low","needs_user_input":false`),
		"missing needs input":   task(`"title":"t","priority":"low","estimated_duration":"15m"`),
		"bad date":              task(base + `,"suggested_due_date":"next Friday"`),
		"dated but needs input": task(`"title":"t","priority":"low","estimated_duration":"15m","needs_user_input":true,"suggested_due_date":"2026-10-18"`),
		"tasks not array":       `{"message":"m","tasks":{"title":"t"}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}
