package cmd

import (
	"fmt"

	"lite2flake/internal/schema"
	"lite2flake/internal/warehouse"

	"github.com/spf13/viper"
)

// GetWarehouseConfig returns the Snowflake connection settings. Keys are read
// one by one so that environment bindings are honoured.
func GetWarehouseConfig() (warehouse.Config, error) {
	cfg := warehouse.Config{
		Account:       viper.GetString("snowflake.account"),
		User:          viper.GetString("snowflake.user"),
		Password:      viper.GetString("snowflake.password"),
		Warehouse:     viper.GetString("snowflake.warehouse"),
		Database:      viper.GetString("snowflake.database"),
		Schema:        viper.GetString("snowflake.schema"),
		Role:          viper.GetString("snowflake.role"),
		Authenticator: viper.GetString("snowflake.authenticator"),
		LoginTimeout:  viper.GetDuration("snowflake.login_timeout"),
	}
	return cfg, cfg.Validate()
}

// GetOverrides returns the built-in schema overrides merged with the ones
// declared under "overrides" in the config file.
func GetOverrides() (*schema.Registry, error) {
	var configs []schema.Override
	if err := viper.UnmarshalKey("overrides", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse overrides config: %w", err)
	}

	registry := schema.DefaultRegistry()
	for _, o := range configs {
		if err := registry.Register(o); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func artifactDirs() (csvDir, sqlDir string) {
	return viper.GetString("paths.csv_dir"), viper.GetString("paths.sql_dir")
}
