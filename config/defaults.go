package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.gamedata_path", "data/gamedata")
	v.SetDefault("data.gamedata_repo", "")
	v.SetDefault("data.local_tables_path", "data/local")
	v.SetDefault("data.alias_db_path", "data/aliases.db")

	// Cache defaults
	v.SetDefault("cache.root", "data/cache/cards")

	// Template defaults
	v.SetDefault("templates.root", "data/templates")

	// Search defaults
	v.SetDefault("search.result_limit", 10)
	v.SetDefault("search.min_similarity", 0.2)
	v.SetDefault("search.exact_only", false)

	// Transform defaults
	v.SetDefault("transform.browser_path", "")
	v.SetDefault("transform.headless", true)
	v.SetDefault("transform.viewport_width", 900)
	v.SetDefault("transform.viewport_height", 520)
	v.SetDefault("transform.timeout_seconds", 30)

	// Server defaults
	v.SetDefault("server.addr", ":8480")
	v.SetDefault("server.base_url", "")

	// Log defaults
	v.SetDefault("log.json", false)
}
