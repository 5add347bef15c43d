package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env            string   `envconfig:"ENV" default:"local"`
	HTTPHost       string   `envconfig:"HTTP_HOST" default:""`
	HTTPPort       string   `envconfig:"HTTP_PORT" default:"7071"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"debug"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// BackendEnv holds the upstream function URLs. Each key is read as
// NPCGATE_<KEY> first and then under its bare app setting name, so
// existing function app settings keep working. An empty URL is reported
// per request, never at startup.
type BackendEnv struct {
	GameTaskURL     string `envconfig:"GameTaskFunctionUrl"`
	GraderURL       string `envconfig:"GraderFunctionUrl"`
	PassTaskURL     string `envconfig:"PassTaskFunctionUrl"`
	RegistrationURL string `envconfig:"StudentRegistrationFunctionUrl"`
}

type TimeoutEnv struct {
	TaskTimeout     time.Duration `envconfig:"TASK_TIMEOUT" default:"60s"`
	GradeTimeout    time.Duration `envconfig:"GRADE_TIMEOUT" default:"120s"`
	PassTimeout     time.Duration `envconfig:"PASS_TIMEOUT" default:"30s"`
	RegisterTimeout time.Duration `envconfig:"REGISTER_TIMEOUT" default:"60s"`
}

type IdentityEnv struct {
	// PrincipalJWTSecret enables HS256 bearer tokens as a second identity
	// source next to the principal header.
	PrincipalJWTSecret string `envconfig:"PRINCIPAL_JWT_SECRET"`
}

type Env struct {
	BaseEnv
	TimeoutEnv
	IdentityEnv
	BackendEnv
}

const namespace = "NPCGATE"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	env.BackendEnv.applyAppSettings(os.LookupEnv)
	return &env, nil
}

// applyAppSettings fills empty URLs from the case sensitive app setting
// names, which envconfig only looks up upper cased.
func (b *BackendEnv) applyAppSettings(lookup func(string) (string, bool)) {
	for key, dst := range map[string]*string{
		"GameTaskFunctionUrl":            &b.GameTaskURL,
		"GraderFunctionUrl":              &b.GraderURL,
		"PassTaskFunctionUrl":            &b.PassTaskURL,
		"StudentRegistrationFunctionUrl": &b.RegistrationURL,
	} {
		if *dst != "" {
			continue
		}
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func (e *BaseEnv) IsLocal() bool {
	return e.Env == "local"
}
