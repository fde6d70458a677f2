package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Broker   BrokerConfig   `mapstructure:"broker"   validate:"required"`
	Mail     MailConfig     `mapstructure:"mail"     validate:"required"`
	Task     TaskConfig     `mapstructure:"task"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// Domain is the public host name used in userids (acct:user@domain)
	// and in links embedded in notification emails.
	Domain string `mapstructure:"domain" validate:"required,hostname_port|hostname"`
	// Scheme is prefixed to links in emails.
	Scheme string `mapstructure:"scheme" validate:"required,oneof=http https"`
}

// BaseURL returns scheme://domain.
func (s ServerConfig) BaseURL() string {
	return s.Scheme + "://" + s.Domain
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url"                       validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"            validate:"gt=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"            validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=44640"`
	// AuthTicketLifetimeHours bounds login sessions; expired tickets are
	// removed by the hourly cleanup task.
	AuthTicketLifetimeHours int `mapstructure:"auth_ticket_lifetime_hours" validate:"required,gt=0"`
	// DeveloperTokenLifetimeDays bounds API tokens issued via /api/developer/token.
	DeveloperTokenLifetimeDays int `mapstructure:"developer_token_lifetime_days" validate:"required,gt=0"`
}

// BrokerConfig configures the Redis connection used by the task queue.
type BrokerConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
	// Concurrency is the number of tasks a worker processes at once.
	// The default of 1 keeps one task in flight per worker process.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1"`
}

// MailConfig holds SMTP settings for outgoing notification mail.
type MailConfig struct {
	Host     string `mapstructure:"host"     validate:"required"`
	Port     int    `mapstructure:"port"     validate:"required,gt=0,lt=65536"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Sender   string `mapstructure:"sender"   validate:"required,email"`
}

// TaskConfig controls the periodic schedule.
type TaskConfig struct {
	// CleanupIntervalMinutes is how often expired auth tickets and tokens
	// are purged.
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes" validate:"required,gt=0"`
}
