// Package config loads leaptmpl configuration from defaults, a project
// file, the environment and command-line flags, in that order of precedence.
package config

// Config holds all leaptmpl configuration.
type Config struct {
	// ProjectRoot is the directory paths are resolved against. It is the
	// directory holding the config file when one is found, else the CWD.
	ProjectRoot string `koanf:"-"`

	TemplatesDir string   `koanf:"templates_dir"`
	Extension    string   `koanf:"extension"`
	Source       string   `koanf:"source"` // dir or store
	Data         []string `koanf:"data"`
	LogLevel     string   `koanf:"log_level"`
	LogFormat    string   `koanf:"log_format"`
	Output       string   `koanf:"output"`

	Store StoreConfig `koanf:"store"`
	Serve ServeConfig `koanf:"serve"`
	Check CheckConfig `koanf:"check"`
}

// StoreConfig configures the SQL template store.
type StoreConfig struct {
	Driver string `koanf:"driver"` // sqlite or postgres
	DSN    string `koanf:"dsn"`
}

// ServeConfig configures the HTTP render server.
type ServeConfig struct {
	Addr  string `koanf:"addr"`
	Watch bool   `koanf:"watch"`
}

// CheckConfig configures the check command.
type CheckConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// Default configuration values.
const (
	DefaultTemplatesDir = "templates"
	DefaultExtension    = ".tmpl"
	DefaultSource       = SourceDir
	DefaultStoreDriver  = DriverSQLite
	DefaultStoreDSN     = ".leaptmpl/templates.db"
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
	DefaultOutput       = "text"
	DefaultServeAddr    = "127.0.0.1:8080"
	DefaultConcurrency  = 4
)

// Template source kinds.
const (
	SourceDir   = "dir"
	SourceStore = "store"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// defaults is the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"templates_dir":     DefaultTemplatesDir,
		"extension":         DefaultExtension,
		"source":            DefaultSource,
		"log_level":         DefaultLogLevel,
		"log_format":        DefaultLogFormat,
		"output":            DefaultOutput,
		"store.driver":      DefaultStoreDriver,
		"store.dsn":         DefaultStoreDSN,
		"serve.addr":        DefaultServeAddr,
		"serve.watch":       false,
		"check.concurrency": DefaultConcurrency,
	}
}

// Default returns a Config populated with default values and rooted at dir.
func Default(dir string) *Config {
	return &Config{
		ProjectRoot:  dir,
		TemplatesDir: resolvePathRelativeTo(DefaultTemplatesDir, dir),
		Extension:    DefaultExtension,
		Source:       DefaultSource,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		Output:       DefaultOutput,
		Store: StoreConfig{
			Driver: DefaultStoreDriver,
			DSN:    resolvePathRelativeTo(DefaultStoreDSN, dir),
		},
		Serve: ServeConfig{Addr: DefaultServeAddr},
		Check: CheckConfig{Concurrency: DefaultConcurrency},
	}
}
