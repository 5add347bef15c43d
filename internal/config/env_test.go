package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "7071", env.HTTPPort)
	assert.Equal(t, 60*time.Second, env.TaskTimeout)
	assert.Equal(t, 120*time.Second, env.GradeTimeout)
	assert.Equal(t, 30*time.Second, env.PassTimeout)
	assert.Equal(t, 60*time.Second, env.RegisterTimeout)
	assert.Equal(t, []string{"*"}, env.AllowedOrigins)
}

func TestLoadEnvBackendKeys(t *testing.T) {
	t.Setenv("GameTaskFunctionUrl", "https://task.example.com/api/game-task?code=abc")
	t.Setenv("NPCGATE_GRADERFUNCTIONURL", "https://grader.example.com/api/grader?code=def")
	t.Setenv("NPCGATE_GRADE_TIMEOUT", "5s")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://task.example.com/api/game-task?code=abc", env.GameTaskURL)
	assert.Equal(t, "https://grader.example.com/api/grader?code=def", env.GraderURL)
	assert.Empty(t, env.PassTaskURL)
	assert.Equal(t, 5*time.Second, env.GradeTimeout)
}

func TestAppSettingsDoNotOverridePrefixed(t *testing.T) {
	b := BackendEnv{GraderURL: "https://prefixed"}
	b.applyAppSettings(func(key string) (string, bool) {
		return "https://bare/" + key, true
	})
	assert.Equal(t, "https://prefixed", b.GraderURL)
	assert.Equal(t, "https://bare/PassTaskFunctionUrl", b.PassTaskURL)
	assert.Equal(t, "https://bare/StudentRegistrationFunctionUrl", b.RegistrationURL)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e := &BaseEnv{LogLevel: tt.in}
			assert.Equal(t, tt.want, e.SlogLevel())
		})
	}

	var nilEnv *BaseEnv
	assert.Equal(t, slog.LevelDebug, nilEnv.SlogLevel())
}
