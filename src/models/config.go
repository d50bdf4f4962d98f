package models

// MConfig Structure
type MConfig struct {
	Name       string              `yaml:"name"`
	LogLevel   string              `yaml:"log_level"`
	Database   MDatabaseConfig     `yaml:"database"`
	APIKeys    map[string]string   `yaml:"api_keys"`
	Watchlists map[string][]string `yaml:"watchlists"`
	Quotas     map[string]MQuota   `yaml:"quotas"`
	Macro      MMacroConfig        `yaml:"macro"`
	Server     MServerConfig       `yaml:"server"`
	Network    MNetworkConfig      `yaml:"network"`
}

type MDatabaseConfig struct {
	Path      string `yaml:"path"`
	BackupDir string `yaml:"backup_dir"`
}

// MQuota caps calls to a quota-limited source inside a trailing window.
// Enforcement is caller-side: ingesters check the usage tracker before calling.
type MQuota struct {
	Limit       int `yaml:"limit"`
	WindowHours int `yaml:"window_hours"`
}

type MMacroConfig struct {
	Indicators []string `yaml:"indicators"`
}

type MServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	UserAgent      string `yaml:"user_agent"`
}
