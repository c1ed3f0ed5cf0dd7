package shared

type ServerConfig struct {
	Sqlite  SqliteConfig  `mapstructure:"sqlite" validate:"required"`
	SafeHer SafeHerConfig `mapstructure:"safeher" validate:"required"`
	Twilio  TwilioConfig  `mapstructure:"twilio"`
	Google  GoogleConfig  `mapstructure:"google"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type SafeHerConfig struct {
	PrivateKeyPem   string         `mapstructure:"privateKeyPem" validate:"required"`
	TokenExpirySecs int            `mapstructure:"tokenExpirySecs"`
	RateLimitPerMin int            `mapstructure:"rateLimitPerMin"`
	Cron            CronConfig     `mapstructure:"cron" validate:"required"`
	Listener        ListenerConfig `mapstructure:"listener" validate:"required"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	Bucket                    string      `mapstructure:"bucket" validate:"required_with=EnableSqliteBackupAndSync"`
	Prefix                    string      `mapstructure:"prefix" validate:"required_with=EnableSqliteBackupAndSync"`
	SqliteBackupSchedule      string      `mapstructure:"sqliteBackupSchedule" validate:"required_with=EnableSqliteBackupAndSync"`
	EnableSqliteBackupAndSync interface{} `mapstructure:"enableSqliteBackupAndSync" validate:"omitempty,bool"`
}

// AppConfig holds the client-side settings read from $HOME/.safeher.yaml
type AppConfig struct {
	Server    AppServerConfig   `mapstructure:"server" validate:"required"`
	Store     AppStoreConfig    `mapstructure:"store" validate:"required"`
	Emergency EmergencyConfig   `mapstructure:"emergency"`
	Location  AppLocationConfig `mapstructure:"location"`
}

type AppServerConfig struct {
	URL            string `mapstructure:"url" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
}

type AppStoreConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type EmergencyConfig struct {
	CountdownSeconds int `mapstructure:"countdownSeconds"`
}

// AppLocationConfig is the fallback coordinate pair used by the CLI's
// static location provider, when no --lat/--lng flags are given.
type AppLocationConfig struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}
