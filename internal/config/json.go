package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophvault/internal/flagx"
	"github.com/dmitrijs2005/gophvault/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Only fields present in
// the file override the current values.
type JsonConfig struct {
	DatabaseDSN       *string         `json:"database_dsn"`
	LogLevel          *string         `json:"log_level"`
	AdminGroupID      *string         `json:"admin_group_id"`
	MaxHierarchyDepth *int            `json:"max_hierarchy_depth"`
	ConnectTimeout    *timex.Duration `json:"connect_timeout"`
}

// parseJson loads the file named by -c/-config, if any. An unreadable or
// invalid file panics, as a half-applied configuration is worse than none.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
	if c.AdminGroupID != nil {
		config.AdminGroupID = *c.AdminGroupID
	}
	if c.MaxHierarchyDepth != nil {
		config.MaxHierarchyDepth = *c.MaxHierarchyDepth
	}
	if c.ConnectTimeout != nil {
		config.ConnectTimeout = c.ConnectTimeout.Duration
	}
}
