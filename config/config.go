// Package config loads cardforge configuration from cardforge.toml files,
// environment variables (CARDFORGE_*) and built-in defaults, in that
// precedence order (highest first).
package config

// Config is the root configuration structure
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Search    SearchConfig    `mapstructure:"search"`
	Transform TransformConfig `mapstructure:"transform"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// DataConfig locates the gamedata checkout and the alias database
type DataConfig struct {
	// Root directory of the unpacked gamedata (contains excel/character_table.json)
	GamedataPath string `mapstructure:"gamedata_path"`
	// Remote git repository the gamedata is synchronized from
	GamedataRepo string `mapstructure:"gamedata_repo"`
	// Directory holding local_* override tables (glossary etc.)
	LocalTablesPath string `mapstructure:"local_tables_path"`
	// Path of the sqlite database holding nickname aliases
	AliasDBPath string `mapstructure:"alias_db_path"`
}

// CacheConfig controls the artifact cache
type CacheConfig struct {
	// Root directory for rendered artifacts: <root>/<template>/<payload_key>/artifact.<ext>
	Root string `mapstructure:"root"`
}

// TemplatesConfig locates the render templates
type TemplatesConfig struct {
	// Root directory containing text/, html/ and json/ template subdirectories
	Root string `mapstructure:"root"`
}

// SearchConfig carries resolution engine defaults
type SearchConfig struct {
	ResultLimit   int     `mapstructure:"result_limit"`
	MinSimilarity float64 `mapstructure:"min_similarity"`
	ExactOnly     bool    `mapstructure:"exact_only"`
}

// TransformConfig carries headless-browser defaults for raster output
type TransformConfig struct {
	BrowserPath    string   `mapstructure:"browser_path"`
	Headless       bool     `mapstructure:"headless"`
	BrowserArgs    []string `mapstructure:"browser_args"`
	ViewportWidth  int      `mapstructure:"viewport_width"`
	ViewportHeight int      `mapstructure:"viewport_height"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

// ServerConfig configures the card file server
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// External base URL used when building card links for bots
	BaseURL string `mapstructure:"base_url"`
}

// LogConfig configures logging output
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}
