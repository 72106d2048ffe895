package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "JWT_SECRET", "HTTP_ADDR",
		"CORS_ORIGINS", "AI_TIMEOUT", "PURGE_INTERVAL", "PENDING_LIFETIME", "AI_MAX_TOKENS", "AI_TEMPERATURE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 30*time.Second, cfg.AITimeout.Duration)
	assert.Equal(t, 1000, cfg.AIMaxTokens)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "idea-tasks.toml")
	data := `
db_host = "db.internal"
db_port = 6543
openai_model = "gpt-4o"
ai_timeout = "10s"
cors_origins = ["https://app.example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("DB_PORT", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 6543, cfg.DBPort, "unparsable DB_PORT keeps the previous value")
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAIModel, "env overrides file")
	assert.Equal(t, 10*time.Second, cfg.AITimeout.Duration)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
}

func TestTemperatureRange(t *testing.T) {
	clearEnv(t)

	t.Setenv("AI_TEMPERATURE", "0.5")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.AITemperature)

	for _, v := range []string{"0", "0.2", "0.71", "1.5", "warm"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("AI_TEMPERATURE", v)
			_, err := Load("")
			assert.Error(t, err)
		})
	}

	t.Setenv("AI_TEMPERATURE", "")
	path := filepath.Join(t.TempDir(), "hot.toml")
	require.NoError(t, os.WriteFile(path, []byte("ai_temperature = 1.2\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err, "file values are range checked too")
}

func TestCORSOriginsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate())

	cfg.JWTSecret = "secret"
	cfg.OpenAIKey = "sk-test"
	require.NoError(t, cfg.Validate())
}

func TestConnString(t *testing.T) {
	cfg := Default()
	cfg.DBHost = "localhost"
	cfg.DBUser = "app"
	cfg.DBPassword = "pw"
	cfg.DBName = "ideas"

	assert.Equal(t, "host=localhost port=5432 user=app password=pw dbname=ideas sslmode=disable", cfg.ConnString())
}
