package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

// Settings is the deployment configuration, built once at startup and passed
// down explicitly.
type Settings struct {
	SpreadsheetID  string
	SheetName      string
	SheetRange     string
	RecipientEmail string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleRefreshToken string

	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	StoreMode       string
	GCSBucketName   string
	LocalStorePath  string
	SummaryFileName string

	TargetDayOffset int
	AppendNextRow   bool
	Language        string
	Timezone        string
	RunTimeout      time.Duration
	Port            string
}

// secretKeys may come from the OS keyring when their variable is unset.
var secretKeys = []string{
	KeyGoogleClientSecret,
	KeyGoogleRefreshToken,
	KeyOpenAIAPIKey,
	KeyGeminiAPIKey,
}

// SecretLookup reads a secret by key. KeyringLookup is the production one.
type SecretLookup func(key string) (string, error)

// KeyringLookup reads secrets stored under KeyringService.
func KeyringLookup(key string) (string, error) {
	return keyring.Get(KeyringService, key)
}

// ConfigError lists required settings that are missing or unusable.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", ErrConfigMissing, strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", ErrConfigInvalid, strings.Join(e.Invalid, ", ")))
	}
	return strings.Join(parts, "; ")
}

// NewViper returns a viper instance with defaults and environment binding.
// Environment variables use the upper-case key (SPREADSHEET_ID, ...).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyGoogleRedirectURI, DefaultRedirectURI)
	v.SetDefault(KeyLLMProvider, DefaultLLMProvider)
	v.SetDefault(KeyOpenAIModel, DefaultOpenAIModel)
	v.SetDefault(KeyOpenAIBaseURL, DefaultOpenAIBaseURL)
	v.SetDefault(KeyGeminiModel, DefaultGeminiModel)
	v.SetDefault(KeyStoreMode, DefaultStoreMode)
	v.SetDefault(KeySummaryFileName, DefaultSummaryFileName)
	v.SetDefault(KeyLocalStorePath, DefaultSummaryFileName)
	v.SetDefault(KeyTargetDayOffset, 0)
	v.SetDefault(KeyAppendNextRow, DefaultAppendNextRow)
	v.SetDefault(KeyLanguage, DefaultLanguage)
	v.SetDefault(KeyTimezone, DefaultTimezone)
	v.SetDefault(KeyRunTimeout, DefaultRunTimeout)
	v.SetDefault(KeyPort, DefaultPort)
	v.AutomaticEnv()
	return v
}

// Load reads settings from v, optionally merging configFile first.
// Secrets left empty are looked up with secrets (nil disables the lookup).
func Load(v *viper.Viper, configFile string, secrets SecretLookup) (Settings, error) {
	if v == nil {
		v = NewViper()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", ErrConfigRead, err)
		}
	}

	if secrets != nil {
		for _, key := range secretKeys {
			if v.GetString(key) != "" {
				continue
			}
			value, err := secrets(key)
			if err != nil {
				if !errors.Is(err, keyring.ErrNotFound) {
					slog.Debug(MsgSecretKeyringErr,
						LogKeyComponent, CompConfig,
						LogKeyKey, key,
						LogKeyError, err)
				}
				continue
			}
			v.Set(key, value)
			slog.Debug(MsgSecretKeyring, LogKeyComponent, CompConfig, LogKeyKey, key)
		}
	}

	return Settings{
		SpreadsheetID:      v.GetString(KeySpreadsheetID),
		SheetName:          v.GetString(KeySheetName),
		SheetRange:         v.GetString(KeySheetRange),
		RecipientEmail:     v.GetString(KeyRecipientEmail),
		GoogleClientID:     v.GetString(KeyGoogleClientID),
		GoogleClientSecret: v.GetString(KeyGoogleClientSecret),
		GoogleRedirectURI:  v.GetString(KeyGoogleRedirectURI),
		GoogleRefreshToken: v.GetString(KeyGoogleRefreshToken),
		LLMProvider:        strings.ToLower(v.GetString(KeyLLMProvider)),
		OpenAIAPIKey:       v.GetString(KeyOpenAIAPIKey),
		OpenAIModel:        v.GetString(KeyOpenAIModel),
		OpenAIBaseURL:      v.GetString(KeyOpenAIBaseURL),
		GeminiAPIKey:       v.GetString(KeyGeminiAPIKey),
		GeminiModel:        v.GetString(KeyGeminiModel),
		StoreMode:          strings.ToLower(v.GetString(KeyStoreMode)),
		GCSBucketName:      v.GetString(KeyGCSBucketName),
		LocalStorePath:     v.GetString(KeyLocalStorePath),
		SummaryFileName:    v.GetString(KeySummaryFileName),
		TargetDayOffset:    v.GetInt(KeyTargetDayOffset),
		AppendNextRow:      v.GetBool(KeyAppendNextRow),
		Language:           v.GetString(KeyLanguage),
		Timezone:           v.GetString(KeyTimezone),
		RunTimeout:         v.GetDuration(KeyRunTimeout),
		Port:               v.GetString(KeyPort),
	}, nil
}

// Validate reports every missing or invalid setting at once.
// It returns nil or a *ConfigError.
func (s Settings) Validate() error {
	cerr := &ConfigError{}
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			cerr.Missing = append(cerr.Missing, strings.ToUpper(key))
		}
	}

	require(KeySpreadsheetID, s.SpreadsheetID)
	require(KeySheetName, s.SheetName)
	require(KeyRecipientEmail, s.RecipientEmail)
	require(KeyGoogleClientID, s.GoogleClientID)
	require(KeyGoogleClientSecret, s.GoogleClientSecret)
	require(KeyGoogleRedirectURI, s.GoogleRedirectURI)
	require(KeyGoogleRefreshToken, s.GoogleRefreshToken)

	switch s.LLMProvider {
	case ProviderOpenAI:
		require(KeyOpenAIAPIKey, s.OpenAIAPIKey)
	case ProviderGemini:
		require(KeyGeminiAPIKey, s.GeminiAPIKey)
	default:
		cerr.Invalid = append(cerr.Invalid, strings.ToUpper(KeyLLMProvider))
	}

	switch s.StoreMode {
	case StoreModeGCS:
		require(KeyGCSBucketName, s.GCSBucketName)
		require(KeySummaryFileName, s.SummaryFileName)
	case StoreModeLocal:
		require(KeyLocalStorePath, s.LocalStorePath)
	default:
		cerr.Invalid = append(cerr.Invalid, strings.ToUpper(KeyStoreMode))
	}

	if _, err := time.LoadLocation(s.Timezone); err != nil {
		cerr.Invalid = append(cerr.Invalid, strings.ToUpper(KeyTimezone))
	}
	if s.RunTimeout < 0 {
		cerr.Invalid = append(cerr.Invalid, strings.ToUpper(KeyRunTimeout))
	}

	if len(cerr.Missing) == 0 && len(cerr.Invalid) == 0 {
		return nil
	}
	return cerr
}

// Location resolves Timezone, falling back to UTC.
func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr is the listen address for the HTTP server.
func (s Settings) Addr() string {
	return BindAddr + AddrSeparator + s.Port
}
