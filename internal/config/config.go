package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers understood by the persistence layer.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Directory    DirectoryConfig
	Helpdesk     HelpdeskConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// DatabaseConfig selects and configures the ticket store.
type DatabaseConfig struct {
	Driver        string
	RunMigrations bool
	Postgres      PostgresConfig
	SQLitePath    string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	// ConnectAttempts bounds the startup ping retries.
	ConnectAttempts int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr                    string
	Password                string
	DB                      int
	CategoryCacheTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// DirectoryConfig configures the corporate LDAP directory.
type DirectoryConfig struct {
	LDAPEnabled        bool
	ServerURI          string
	BindDN             string
	BindPassword       string
	UserSearchBase     string
	UserFilter         string
	GroupSearchBase    string
	InsecureSkipVerify bool
	MirrorGroupsExcept []string
	RequestTimeoutSec  int
}

// HelpdeskConfig holds the group and category names the lifecycle rules depend on.
type HelpdeskConfig struct {
	TechnicianGroup        string
	CommentLogGroup        string
	PrivilegedGroups       []string
	CriticalCategories     []string
	PendingEvaluationLimit int
}

// NotificationConfig holds notification sinks.
type NotificationConfig struct {
	EmailFrom     string
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaClientID string
	// QueueSize and DeliveryAttempts tune the background forwarder.
	QueueSize        int
	DeliveryAttempts int
}

var defaultMirrorGroupsExcept = []string{
	"Domain Controllers",
	"Domain Admins",
	"Domain Computers",
	"Users",
	"Group Policy Creator Owners",
	"HelpDesk",
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := strings.ToLower(getEnv("DB_DRIVER", DriverPostgres))
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("invalid DB_DRIVER %q", driver)
	}

	technicianGroup := getEnv("HELPDESK_TECHNICIAN_GROUP", "CPD")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Database: DatabaseConfig{
			Driver:        driver,
			RunMigrations: getEnvAsBool("DB_RUN_MIGRATIONS", true),
			Postgres: PostgresConfig{
				DSN:             os.Getenv("POSTGRES_DSN"),
				MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
				MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
				ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
				ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
				ConnectAttempts: getEnvAsInt("POSTGRES_CONNECT_ATTEMPTS", 5),
			},
			SQLitePath: getEnv("SQLITE_PATH", "helpdesk.db"),
		},
		Redis: RedisConfig{
			Addr:                    os.Getenv("REDIS_ADDR"),
			Password:                os.Getenv("REDIS_PASSWORD"),
			DB:                      redisDB,
			CategoryCacheTTLSeconds: getEnvAsInt("CATEGORY_CACHE_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Directory: DirectoryConfig{
			LDAPEnabled:        getEnvAsBool("LDAP_ENABLED", false),
			ServerURI:          os.Getenv("LDAP_SERVER_URI"),
			BindDN:             os.Getenv("LDAP_BIND_DN"),
			BindPassword:       os.Getenv("LDAP_BIND_PASSWORD"),
			UserSearchBase:     os.Getenv("LDAP_SEARCH_USERS_BASE"),
			UserFilter:         getEnv("LDAP_USER_FILTER", "(sAMAccountName=%s)"),
			GroupSearchBase:    os.Getenv("LDAP_SEARCH_GROUP_BASE"),
			InsecureSkipVerify: getEnvAsBool("LDAP_INSECURE_SKIP_VERIFY", false),
			MirrorGroupsExcept: getEnvAsList("LDAP_MIRROR_GROUPS_EXCEPT", defaultMirrorGroupsExcept),
			RequestTimeoutSec:  getEnvAsInt("LDAP_TIMEOUT_SECONDS", 10),
		},
		Helpdesk: HelpdeskConfig{
			TechnicianGroup:        technicianGroup,
			CommentLogGroup:        getEnv("HELPDESK_COMMENT_LOG_GROUP", technicianGroup),
			PrivilegedGroups:       getEnvAsList("HELPDESK_PRIVILEGED_GROUPS", []string{"Diretoria"}),
			CriticalCategories:     getEnvAsList("HELPDESK_CRITICAL_CATEGORIES", []string{"Parada Geral"}),
			PendingEvaluationLimit: getEnvAsInt("HELPDESK_PENDING_EVALUATION_LIMIT", 3),
		},
		Notification: NotificationConfig{
			EmailFrom:        getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			KafkaBrokers:     getEnvAsList("KAFKA_BROKERS", nil),
			KafkaTopic:       getEnv("KAFKA_TOPIC", "helpdesk.ticket-events"),
			KafkaClientID:    getEnv("KAFKA_CLIENT_ID", "helpdesk-service"),
			QueueSize:        getEnvAsInt("EVENT_QUEUE_SIZE", 256),
			DeliveryAttempts: getEnvAsInt("EVENT_DELIVERY_ATTEMPTS", 3),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CategoryCacheTTL returns how long the category tree stays cached.
func (r RedisConfig) CategoryCacheTTL() time.Duration {
	if r.CategoryCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.CategoryCacheTTLSeconds) * time.Second
}

// AccessTokenTTL returns the JWT lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
