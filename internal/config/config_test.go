package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/zalando/go-keyring"
)

// TestConstants_Integrity ensures critical constants are not empty or malformed.
func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", config.AppName},
		{"AppID", config.AppID},
		{"Version", config.Version},
		{"UserAgent", config.UserAgent},
		{"KeyringService", config.KeyringService},
		{"ICalProdid", config.ICalProdid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "Critical constant %s should not be empty", tt.name)
		})
	}
}

func TestPlaceholderPrefix(t *testing.T) {
	assert.Equal(t, "pracownik_", config.PlaceholderPrefix)
	assert.Equal(t, 1, strings.Count(config.PlaceholderPrefix, config.PlaceholderSeparator),
		"prefix must split into exactly base and number")
}

// TestTimeoutsAndLimits ensures that operational constraints are reasonable.
func TestTimeoutsAndLimits(t *testing.T) {
	t.Parallel()

	assert.Greater(t, config.HTTPTimeout, 0*time.Second)
	assert.Greater(t, config.ShutdownTimeout, 0*time.Second)
	// The server must not cut a run short before its own deadline fires.
	assert.Greater(t, config.ServerWriteTimeout, config.DefaultRunTimeout)
	assert.Greater(t, config.StoreMaxAttempts, 1)
	assert.Len(t, config.WeekdayKeys, 7)
}

func TestUserAgent_Format(t *testing.T) {
	assert.True(t, strings.HasPrefix(config.UserAgent, "Go-TaskDigest/"))
}

// setRequiredEnv sets the minimum environment for a valid OpenAI + GCS deployment.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("SHEET_NAME", "Grafik")
	t.Setenv("RECIPIENT_EMAIL", "boss@example.com")
	t.Setenv("GCS_BUCKET_NAME", "summaries")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("GOOGLE_REFRESH_TOKEN", "refresh-token")
}

func TestLoad_FromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TARGET_DAY_OFFSET", "1")
	t.Setenv("APPEND_NEXT_ROW", "false")
	t.Setenv("RUN_TIMEOUT", "45s")

	s, err := config.Load(config.NewViper(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", s.SpreadsheetID)
	assert.Equal(t, "Grafik", s.SheetName)
	assert.Equal(t, config.DefaultRedirectURI, s.GoogleRedirectURI)
	assert.Equal(t, config.ProviderOpenAI, s.LLMProvider)
	assert.Equal(t, config.DefaultOpenAIModel, s.OpenAIModel)
	assert.Equal(t, config.StoreModeGCS, s.StoreMode)
	assert.Equal(t, config.DefaultSummaryFileName, s.SummaryFileName)
	assert.Equal(t, 1, s.TargetDayOffset)
	assert.False(t, s.AppendNextRow)
	assert.Equal(t, 45*time.Second, s.RunTimeout)
	assert.Equal(t, ":"+config.DefaultPort, s.Addr())

	assert.NoError(t, s.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "taskdigest.toml")
	content := "sheet_name = \"FromFile\"\nstore_mode = \"local\"\nlocal_store_path = \"/tmp/s.json\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	// The environment still wins over the file.
	t.Setenv("SHEET_NAME", "")
	require.NoError(t, os.Unsetenv("SHEET_NAME"))

	s, err := config.Load(config.NewViper(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, "FromFile", s.SheetName)
	assert.Equal(t, config.StoreModeLocal, s.StoreMode)
	assert.Equal(t, "/tmp/s.json", s.LocalStorePath)
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	_, err := config.Load(config.NewViper(), filepath.Join(t.TempDir(), "nope.toml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrConfigRead)
}

func TestLoad_KeyringFallback(t *testing.T) {
	keyring.MockInit()
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	require.NoError(t, os.Unsetenv("OPENAI_API_KEY"))
	require.NoError(t, keyring.Set(config.KeyringService, config.KeyOpenAIAPIKey, "sk-from-keyring"))

	s, err := config.Load(config.NewViper(), "", config.KeyringLookup)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-keyring", s.OpenAIAPIKey)
	// Values present in the environment are not replaced.
	assert.Equal(t, "client-secret", s.GoogleClientSecret)
}

func TestLoad_SecretLookupErrorsAreIgnored(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_REFRESH_TOKEN", "")
	require.NoError(t, os.Unsetenv("GOOGLE_REFRESH_TOKEN"))

	lookup := func(string) (string, error) { return "", errors.New("dbus unavailable") }
	s, err := config.Load(config.NewViper(), "", lookup)
	require.NoError(t, err)
	assert.Empty(t, s.GoogleRefreshToken)
}

func TestValidate(t *testing.T) {
	valid := config.Settings{
		SpreadsheetID:      "id",
		SheetName:          "Grafik",
		RecipientEmail:     "a@b.c",
		GoogleClientID:     "cid",
		GoogleClientSecret: "secret",
		GoogleRedirectURI:  config.DefaultRedirectURI,
		GoogleRefreshToken: "token",
		LLMProvider:        config.ProviderOpenAI,
		OpenAIAPIKey:       "sk",
		StoreMode:          config.StoreModeGCS,
		GCSBucketName:      "bucket",
		SummaryFileName:    config.DefaultSummaryFileName,
		Timezone:           config.DefaultTimezone,
	}

	tests := []struct {
		name        string
		mutate      func(*config.Settings)
		wantMissing []string
		wantInvalid []string
	}{
		{
			name:   "Valid",
			mutate: func(*config.Settings) {},
		},
		{
			name: "Missing sheet and recipient",
			mutate: func(s *config.Settings) {
				s.SheetName = ""
				s.RecipientEmail = " "
			},
			wantMissing: []string{"SHEET_NAME", "RECIPIENT_EMAIL"},
		},
		{
			name: "Gemini needs its own key",
			mutate: func(s *config.Settings) {
				s.LLMProvider = config.ProviderGemini
			},
			wantMissing: []string{"GEMINI_API_KEY"},
		},
		{
			name: "Local store needs no bucket",
			mutate: func(s *config.Settings) {
				s.StoreMode = config.StoreModeLocal
				s.GCSBucketName = ""
				s.LocalStorePath = "/tmp/x.json"
			},
		},
		{
			name: "Unknown provider and zone",
			mutate: func(s *config.Settings) {
				s.LLMProvider = "markov"
				s.Timezone = "Mars/Olympus"
			},
			wantInvalid: []string{"LLM_PROVIDER", "TIMEZONE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)

			err := s.Validate()
			if tt.wantMissing == nil && tt.wantInvalid == nil {
				assert.NoError(t, err)
				return
			}

			var cerr *config.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.wantMissing, cerr.Missing)
			assert.Equal(t, tt.wantInvalid, cerr.Invalid)
		})
	}
}

func TestConfigError_Message(t *testing.T) {
	err := &config.ConfigError{Missing: []string{"A", "B"}, Invalid: []string{"C"}}
	assert.Equal(t,
		config.ErrConfigMissing+": A, B; "+config.ErrConfigInvalid+": C",
		err.Error())
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, config.Settings{Timezone: "Nowhere/Land"}.Location())
	assert.Equal(t, "Europe/Warsaw", config.Settings{Timezone: "Europe/Warsaw"}.Location().String())
}
