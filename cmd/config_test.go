package cmd

import (
	"testing"

	"lite2flake/internal/dialect"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWarehouseConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("snowflake.account", "xy12345")
	viper.Set("snowflake.user", "loader")
	viper.Set("snowflake.database", "ANALYTICS")

	_, err := GetWarehouseConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")

	viper.Set("snowflake.schema", "PUBLIC")
	viper.Set("snowflake.login_timeout", "30s")
	cfg, err := GetWarehouseConfig()
	require.NoError(t, err)
	assert.Equal(t, "xy12345", cfg.Account)
	assert.Equal(t, "PUBLIC", cfg.Schema)
	assert.Equal(t, "30s", cfg.LoginTimeout.String())
}

func TestGetWarehouseConfigFromEnv(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("SNOWFLAKE_ACCOUNT", "env-account")
	t.Setenv("SNOWFLAKE_USER", "env-user")
	t.Setenv("SNOWFLAKE_DATABASE", "DB")
	t.Setenv("SNOWFLAKE_SCHEMA", "SCH")
	t.Setenv("SNOWFLAKE_AUTH_TYPE", "snowflake")
	for key, envs := range snowflakeEnv {
		require.NoError(t, viper.BindEnv(append([]string{key}, envs...)...))
	}

	cfg, err := GetWarehouseConfig()
	require.NoError(t, err)
	assert.Equal(t, "env-account", cfg.Account)
	assert.Equal(t, "snowflake", cfg.Authenticator)
}

func TestGetOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("overrides", []map[string]any{{
		"database":          "shop",
		"table":             "group",
		"lowercase_columns": true,
		"columns": []map[string]any{
			{"name": "GROUP_ID", "type": "NUMBER"},
			{"name": "LABEL", "type": "VARCHAR(100)"},
		},
	}})

	reg, err := GetOverrides()
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	spec, ok := reg.Lookup("shop", "group")
	require.True(t, ok)
	assert.Equal(t, `SHOP_TABLE_"GROUP"`, spec.QualifiedName)
	assert.True(t, spec.LowercaseLoadColumns)
	assert.Equal(t, dialect.TypeVarchar, spec.Columns[1].Type)

	_, ok = reg.Lookup("financial", "order")
	assert.True(t, ok)
}

func TestGetOverridesRejectsBadType(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("overrides", []map[string]any{{
		"database": "shop",
		"table":    "items",
		"columns":  []map[string]any{{"name": "GEOM", "type": "GEOGRAPHY"}},
	}})

	_, err := GetOverrides()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug", "json", "")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = newLogger("loud", "console", "")
	assert.Error(t, err)

	_, err = newLogger("info", "xml", "")
	assert.Error(t, err)
}
