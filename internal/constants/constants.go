package constants

const (
	AppName           = "nutriscan"
	DefaultConfigPath = "~/.config/nutriscan/nutriscan.db"
	Version           = "v0.3.0"

	// DateFormat is the day bucket format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the time-of-day display format (HH:MM)
	TimeFormat = "15:04"

	// Keyring entries
	KeyringSessionUser  = "session-token"
	KeyringUsernameUser = "username"

	// Durable storage keys
	KeyMeals = "nutriscan_meals"
	KeyStats = "nutriscan_stats"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "nutriscan-"
	BackupFileSuffix = ".db"

	// Vision service defaults
	DefaultVisionURL   = "http://127.0.0.1:8045/v1"
	DefaultVisionModel = "qwen3-vl-plus"
	VisionTemperature  = 0.7
	VisionMaxTokens    = 1024
	// VisionMaxRetries is the number of extra attempts made after a parse failure.
	VisionMaxRetries = 2
	// ErrorBodyPreview bounds how much of a failed response body is carried in errors.
	ErrorBodyPreview = 200

	// Account backend
	DefaultBackendURL = "https://wangzhibiao-nutriscan-api.hf.space"

	// Reports
	ReportWeekDays     = 7
	ReportMonthDays    = 30
	GoalToleranceRatio = 0.1
)

// MealWindow is a half-open [Start, End) range of hours mapped to a meal type.
type MealWindow struct {
	Start int
	End   int
	Type  string
}

// MealWindows are checked in order; any hour outside them is a snack.
var MealWindows = []MealWindow{
	{Start: 5, End: 10, Type: "breakfast"},
	{Start: 10, End: 14, Type: "lunch"},
	{Start: 17, End: 21, Type: "dinner"},
}
