package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", config.App.Port)
	assert.Equal(t, 3, config.Email.MaxRetries)
	assert.Equal(t, 5*time.Second, config.Email.RetryDelay)
	assert.Equal(t, 1000, config.Email.DailyLimit)
	assert.Equal(t, 24*time.Hour, config.Token.VerificationTTL)
	assert.Equal(t, time.Hour, config.Token.ResetTTL)
	assert.Equal(t, ReverifyConfirm, config.Token.ReverifyPolicy)
	assert.Equal(t, []string{"http://localhost:3000"}, config.CORS.AllowedOrigins)
	assert.Empty(t, config.Kafka.Brokers)
	assert.False(t, config.App.TrustProxy)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=9090\nFRONTEND_URL=https://app.example.com/\nEMAIL_DAILY_LIMIT=5\n" +
		"TOKEN_REVERIFY_POLICY=REJECT\nKAFKA_BROKERS=k1:9092, k2:9092\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("EMAIL_DAILY_LIMIT", "50")

	config, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", config.App.Port)
	assert.Equal(t, "https://app.example.com", config.Email.FrontendURL)
	assert.Equal(t, 50, config.Email.DailyLimit)
	assert.Equal(t, ReverifyReject, config.Token.ReverifyPolicy)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, config.Kafka.Brokers)
}

func TestLoadConfigUnknownPolicyFallsBack(t *testing.T) {
	t.Setenv("TOKEN_REVERIFY_POLICY", "whatever")

	config, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ReverifyConfirm, config.Token.ReverifyPolicy)
}

func TestConnString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", Name: "feedback", User: "app", Password: "p@ss word", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/feedback?sslmode=disable", d.ConnString())
}

func TestValidateForServe(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  string
		wantErr bool
	}{
		{name: "development keeps default secret", env: "development", secret: "change-me"},
		{name: "production with default secret", env: "production", secret: "change-me", wantErr: true},
		{name: "production with empty secret", env: "production", secret: "", wantErr: true},
		{name: "production with real secret", env: "production", secret: "s3cr3t-from-vault"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)
			t.Setenv("JWT_SECRET", tt.secret)

			config, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.env"))
			require.NoError(t, err)

			if tt.wantErr {
				assert.ErrorIs(t, config.ValidateForServe(), ErrInsecureJWTSecret)
			} else {
				assert.NoError(t, config.ValidateForServe())
			}
		})
	}
}
