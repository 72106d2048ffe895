package analytics

import (
	"encoding/json"
	"net/http"
	"strings"
)

// clientEvents are the events the app may report directly. Everything about
// ideas and tasks is emitted server side.
var clientEvents = map[string]func(raw map[string]any) map[string]any{
	// базовая метрика "открыли приложение"
	"app_opened": func(raw map[string]any) map[string]any {
		return map[string]any{
			"cold_start": raw["cold_start"] == true,
			"from":       oneOf(raw["from"], "push", "deeplink", "icon"),
		}
	},
	// пользователь открыл экран ввода идеи
	"capture_started": func(raw map[string]any) map[string]any {
		return map[string]any{"input_method": oneOf(raw["input_method"], "text", "voice")}
	},
	"date_prompt_shown": func(raw map[string]any) map[string]any {
		return map[string]any{}
	},
	"date_prompt_dismissed": func(raw map[string]any) map[string]any {
		return map[string]any{}
	},
}

// ClientEventHandler records one allowlisted client event. Properties are
// rebuilt from known keys so free text never reaches the table.
func ClientEventHandler(sink Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Event      string         `json:"event"`
			Properties map[string]any `json:"properties"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		name := strings.TrimSpace(body.Event)
		clean, ok := clientEvents[name]
		if !ok {
			http.Error(w, "unknown event", http.StatusBadRequest)
			return
		}

		Emit(r, sink, uid, name, clean(body.Properties))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func oneOf(v any, allowed ...string) string {
	s, _ := v.(string)
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	return "unknown"
}
