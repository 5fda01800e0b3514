package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-TaskDigest/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName        = "Go TaskDigest"
	AppID          = "com.github.tartampluch.go-taskdigest"
	KeyringService = "com.github.tartampluch.go-taskdigest"
	BinaryName     = "go-taskdigest"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for the local summary store.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Commands, Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	CmdServe   = "serve"
	CmdRun     = "run"
	CmdVersion = "version"

	FlagDebug  = "debug"
	FlagConfig = "config"
	FlagOffset = "offset"

	FlagDescDebug  = "Enable debug logging"
	FlagDescConfig = "Optional config file (toml, yaml or json)"
	FlagDescOffset = "Day offset of the target date (overrides TARGET_DAY_OFFSET)"

	CmdDescRoot    = "Daily task digest: spreadsheet -> anonymized LLM summary -> e-mail"
	CmdDescServe   = "Serve the HTTP trigger endpoints"
	CmdDescRun     = "Run the daily pipeline once and exit"
	CmdDescVersion = "Show application version"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
	MsgRunOutput     = "%s (status=%s, date=%s, run=%s)\n"
)

// -----------------------------------------------------------------------------
// Settings Keys (viper keys; environment variables are the upper-case form)
// -----------------------------------------------------------------------------

const (
	KeySpreadsheetID      = "spreadsheet_id"
	KeySheetName          = "sheet_name"
	KeySheetRange         = "sheet_range"
	KeyRecipientEmail     = "recipient_email"
	KeyGoogleClientID     = "google_client_id"
	KeyGoogleClientSecret = "google_client_secret"
	KeyGoogleRedirectURI  = "google_redirect_uri"
	KeyGoogleRefreshToken = "google_refresh_token"
	KeyLLMProvider        = "llm_provider"
	KeyOpenAIAPIKey       = "openai_api_key"
	KeyOpenAIModel        = "openai_model"
	KeyOpenAIBaseURL      = "openai_base_url"
	KeyGeminiAPIKey       = "gemini_api_key"
	KeyGeminiModel        = "gemini_model"
	KeyStoreMode          = "store_mode"
	KeyGCSBucketName      = "gcs_bucket_name"
	KeyLocalStorePath     = "local_store_path"
	KeySummaryFileName    = "summary_file_name"
	KeyTargetDayOffset    = "target_day_offset"
	KeyAppendNextRow      = "append_next_row"
	KeyLanguage           = "language"
	KeyTimezone           = "timezone"
	KeyRunTimeout         = "run_timeout"
	KeyPort               = "port"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	StoreModeGCS   = "gcs"
	StoreModeLocal = "local"

	DefaultRedirectURI     = "urn:ietf:wg:oauth:2.0:oob"
	DefaultLLMProvider     = ProviderOpenAI
	DefaultOpenAIModel     = "gpt-3.5-turbo"
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultStoreMode       = StoreModeGCS
	DefaultSummaryFileName = "daily_summaries.json"
	DefaultLanguage        = "pl"
	DefaultTimezone        = "Europe/Warsaw"
	DefaultPort            = "8080"
	DefaultRunTimeout      = 2 * time.Minute
	DefaultAppendNextRow   = true

	// SheetRangeSuffix turns a sheet name into the read range (columns A to Z).
	SheetRangeSuffix = "!A:Z"
	// SheetAppendSuffix anchors appends on the date column.
	SheetAppendSuffix = "!A:A"

	ValueInputUserEntered = "USER_ENTERED"
	InsertDataRows        = "INSERT_ROWS"

	// PlaceholderPrefix and PlaceholderSeparator build "pracownik_<N>".
	PlaceholderPrefix    = "pracownik" + PlaceholderSeparator
	PlaceholderSeparator = "_"

	// StoreMaxAttempts bounds optimistic retries of a summary append.
	StoreMaxAttempts = 5
	// StoreVersionAbsent is the version of a summary list that does not exist yet.
	StoreVersionAbsent = "absent"

	GmailUserMe = "me"
)

// SupportedLanguages defines the list of available catalog languages (ISO 639-1).
var SupportedLanguages = []string{"pl", "en"}

// -----------------------------------------------------------------------------
// LLM Request Parameters
// -----------------------------------------------------------------------------

const (
	LLMTemperature      = 0.7
	LLMMaxTokens        = 100
	LLMTopP             = 1.0
	LLMMaxRetries       = 3
	LLMRetryBaseBackoff = time.Second
	LLMRoleSystem       = "system"
	LLMRoleUser         = "user"
	OpenAIChatPath      = "/chat/completions"
	AuthBearerPrefix    = "Bearer "
	JSONIndent          = "  "
)

// -----------------------------------------------------------------------------
// Data Formats
// -----------------------------------------------------------------------------

const (
	// Accepted spreadsheet date layouts, tried in this order.
	DateFormatISO         = "2006-01-02"
	DateFormatRFC3339     = time.RFC3339
	DateFormatISOLocal    = "2006-01-02T15:04:05"
	DateFormatISOSpace    = "2006-01-02 15:04:05"
	DateFormatISOSlash    = "2006/01/02"
	DateFormatDotted      = "02.01.2006"
	DateFormatDottedShort = "2.1.2006"
	DateFormatUSSlash     = "1/2/2006"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & E-mail
// -----------------------------------------------------------------------------

const (
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go TaskDigest//Feed//PL"
	ICalCalName   = "Daily task summaries"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalDomain    = "taskdigest"
	FormatUID     = "%s@%s"
	UIDHashLength = 16

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	// StubVCalendar is the minimal valid iCalendar object used when no summary is stored yet.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MailHeaderTo          = "To"
	MailHeaderFrom        = "From"
	MailHeaderSubject     = "Subject"
	MailHeaderMIME        = "MIME-Version"
	MailHeaderContentType = "Content-Type"
	MailMIMEVersion       = "1.0"
	MailContentType       = `text/plain; charset="UTF-8"`
	MailCharset           = "utf-8"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	LLMTimeout          = 60 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 3 * time.Minute // must outlive DefaultRunTimeout
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	MaxHTTPResponseSize = 4 * 1024 * 1024 // 4MB
	BindAddr            = ""
	AddrSeparator       = ":"

	RouteLiveness = "GET /{$}"
	RouteRun      = "POST /run"
	RouteFeed     = "GET /summaries.ics"

	// RunFlightKey collapses concurrent /run calls in one process.
	RunFlightKey = "run"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderAuthorization   = "Authorization"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeJSON            = "application/json"
	MimeTextPlain       = "text/plain; charset=utf-8"
	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`

	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// -----------------------------------------------------------------------------
// Pipeline Operations (FetchError.Op)
// -----------------------------------------------------------------------------

const (
	OpSheetRead   = "sheet read"
	OpSheetAppend = "sheet append"
	OpSummarize   = "summarize"
	OpStoreAppend = "summary store append"
	OpMailSend    = "mail send"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrConfigMissing    = "configuration error: missing required settings"
	ErrConfigInvalid    = "configuration error: invalid settings"
	ErrConfigRead       = "failed to read config file"
	ErrTimezone         = "configuration error: unknown time zone"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrStoreConflict    = "summary list changed concurrently"
	ErrStoreRetries     = "summary append gave up after concurrent updates"
	ErrStoreRead        = "failed to read summary list"
	ErrStoreWrite       = "failed to write summary list"
	ErrStoreCorrupt     = "summary list is not a JSON array, starting a new one"
	ErrStoreVersion     = "malformed summary list version"
	ErrSheetRead        = "failed to read spreadsheet range"
	ErrSheetAppend      = "failed to append spreadsheet row"
	ErrSheetsClient     = "failed to create Sheets client"
	ErrGmailClient      = "failed to create Gmail client"
	ErrGCSClient        = "failed to create Cloud Storage client"
	ErrGeminiClient     = "failed to create Gemini client"
	ErrMailSend         = "failed to send e-mail"
	ErrMailBuild        = "failed to build e-mail"
	ErrTokenRefresh     = "failed to refresh Google access token"
	ErrLLMKeyMissing    = "LLM API key not configured"
	ErrLLMRequest       = "LLM request failed"
	ErrLLMStatus        = "LLM API returned unexpected status"
	ErrLLMDecode        = "failed to decode LLM response"
	ErrLLMRetries       = "LLM retries exhausted"
	ErrLLMRateLimit     = "LLM rate limit exceeded (429)"
	ErrPromptEncode     = "failed to encode tasks for prompt"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrFeedRefresh      = "failed to refresh summary feed"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrLocNotInit       = "localizer not initialized"
	ErrRunnerNotWired   = "runner is not configured"
	ErrUnknownProvider  = "unknown LLM provider"
	ErrUnknownStoreMode = "unknown store mode"
	ErrStoreClose       = "failed to close summary store"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Feed initializing, please try again shortly."
	HTTPMsgInternalErr  = "Internal Server Error"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackSubject = "Daily task summary for %s, %s"
	FallbackSummary = "No summary could be generated."

	MsgAppStarting      = "Starting application"
	MsgAppStop          = "Application stopped gracefully"
	MsgServerListen     = "HTTP server listening"
	MsgServerStop       = "Shutting down HTTP server..."
	MsgCacheUpdated     = "Feed cache updated"
	MsgRunRequested     = "Run requested"
	MsgRunShared        = "Run already in progress, sharing its result"
	MsgRunFailed        = "Run failed"
	MsgRunStarted       = "Daily run started"
	MsgRunFinished      = "Daily run finished"
	MsgRowsFetched      = "Spreadsheet rows fetched"
	MsgTasksMapped      = "Tasks mapped for target date"
	MsgAnonymized       = "Record anonymized"
	MsgSummaryRestored  = "Summary de-anonymized"
	MsgMailSent         = "Summary e-mail sent"
	MsgNextRowAppended  = "Next scheduling row appended"
	MsgStoreRetry       = "Summary list changed concurrently, retrying"
	MsgStoreLoaded      = "Summary list loaded"
	MsgStoreSaved       = "Summary list saved"
	MsgStoreMissing     = "Summary list does not exist yet"
	MsgLLMRequest       = "Sending summarization request"
	MsgLLMResponse      = "Summarization response received"
	MsgLLMEmpty         = "LLM returned no content, using fallback summary"
	MsgLLMRetry         = "LLM request retry"
	MsgTokenRefreshed   = "Google access token refreshed"
	MsgSkippedEntry     = "Skipping summary with invalid date"
	MsgGenSuccess       = "Feed generation successful"
	MsgLocaleSkip       = "Skipping non-locale file"
	MsgLocaleBadName    = "Skipping malformed locale filename"
	MsgLocaleLoaded     = "Locale loaded successfully"
	MsgTransMissing     = "Missing translation key"
	MsgSecretKeyring    = "Secret loaded from keyring"
	MsgSecretKeyringErr = "Keyring lookup failed"
	MsgConfigInvalid    = "Configuration incomplete, /run will fail until fixed"
	MsgLLMSelected      = "LLM provider selected"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWeekdaySunday    = "weekday_sunday"
	TKeyWeekdayMonday    = "weekday_monday"
	TKeyWeekdayTuesday   = "weekday_tuesday"
	TKeyWeekdayWednesday = "weekday_wednesday"
	TKeyWeekdayThursday  = "weekday_thursday"
	TKeyWeekdayFriday    = "weekday_friday"
	TKeyWeekdaySaturday  = "weekday_saturday"

	TKeyMailSubject     = "mail_subject" // Requires DayOfWeek, Date
	TKeyPromptSystem    = "prompt_system"
	TKeyPromptUser      = "prompt_user" // Requires DayOfWeek, Date, Tasks
	TKeySummaryFallback = "summary_fallback"

	TKeyStatusDone       = "status_done"
	TKeyStatusNoTasks    = "status_no_tasks"
	TKeyStatusEmptySheet = "status_empty_sheet"
	TKeyLiveness         = "http_liveness"
)

// WeekdayKeys is indexed by time.Weekday.
var WeekdayKeys = [7]string{
	TKeyWeekdaySunday,
	TKeyWeekdayMonday,
	TKeyWeekdayTuesday,
	TKeyWeekdayWednesday,
	TKeyWeekdayThursday,
	TKeyWeekdayFriday,
	TKeyWeekdaySaturday,
}

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent  = "component"
	LogKeyError      = "error"
	LogKeyURL        = "url"
	LogKeyStatus     = "status"
	LogKeyStatusCode = "status_code"
	LogKeyFile       = "file"
	LogKeyLang       = "lang"
	LogKeyKey        = "key"
	LogKeyPort       = "port"
	LogKeyValue      = "value"
	LogKeyCount      = "count"
	LogKeyDuration   = "duration_ms"
	LogKeyRunID      = "run_id"
	LogKeyTargetDate = "target_date"
	LogKeyRange      = "range"
	LogKeyRows       = "rows"
	LogKeyMatched    = "matched_rows"
	LogKeyPeople     = "people"
	LogKeySummary    = "summary"
	LogKeyAttempt    = "attempt"
	LogKeyModel      = "model"
	LogKeyProvider   = "provider"
	LogKeyBucket     = "bucket"
	LogKeyObject     = "object"
	LogKeyVersion    = "version"
	LogKeyEntries    = "entries"
	LogKeySizeBytes  = "size_bytes"
	LogKeyETag       = "etag"
	LogKeyMissing    = "missing"
	LogKeyInvalid    = "invalid"
	LogKeyShared     = "shared"
	LogKeyExpiry     = "expiry"

	// Startup Info Keys
	LogKeyBuild  = "build"
	LogKeyApp    = "app"
	LogKeyCommit = "commit"
	LogKeyGoVer  = "go_version"
	LogKeyEnv    = "env"
	LogKeyOS     = "os"
	LogKeyArch   = "arch"
	LogKeyPID    = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain   = "main"
	CompConfig = "config"
	CompEngine = "engine"
	CompServer = "server"
	CompSheets = "sheets"
	CompStore  = "store"
	CompLLM    = "llm"
	CompMailer = "mailer"
	CompFeed   = "feed"
	CompAuth   = "auth"
	CompI18n   = "i18n"
)
