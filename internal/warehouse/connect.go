package warehouse

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"
)

// Config holds warehouse connection parameters.
type Config struct {
	Account       string        `mapstructure:"account"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	Warehouse     string        `mapstructure:"warehouse"`
	Database      string        `mapstructure:"database"`
	Schema        string        `mapstructure:"schema"`
	Role          string        `mapstructure:"role"`
	Authenticator string        `mapstructure:"authenticator"`
	LoginTimeout  time.Duration `mapstructure:"login_timeout"`
}

func (c Config) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"account", c.Account}, {"user", c.User}, {"database", c.Database}, {"schema", c.Schema},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing snowflake settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func authType(name string) (sf.AuthType, error) {
	switch strings.ToLower(name) {
	case "", "snowflake":
		return sf.AuthTypeSnowflake, nil
	case "externalbrowser":
		return sf.AuthTypeExternalBrowser, nil
	case "username_password_mfa":
		return sf.AuthTypeUsernamePasswordMFA, nil
	default:
		return 0, fmt.Errorf("unsupported authenticator: %s", name)
	}
}

// Connect opens a single-connection handle to the warehouse. The pipeline is
// sequential and the driver session carries the temporary stage, so the pool
// is pinned to one connection.
func Connect(cfg Config, log *zap.Logger) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	auth, err := authType(cfg.Authenticator)
	if err != nil {
		return nil, err
	}

	urlConfig := sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Schema:        cfg.Schema,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: auth,
		Application:   "lite2flake",
	}
	if cfg.LoginTimeout > 0 {
		urlConfig.LoginTimeout = cfg.LoginTimeout
	}

	dsn, err := sf.DSN(&urlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build snowflake DSN: %w", err)
	}

	log.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema),
		zap.String("authenticator", strings.ToLower(cfg.Authenticator)))

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to snowflake: %w", err)
	}
	return db, nil
}
