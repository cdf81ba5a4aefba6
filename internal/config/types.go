package config

// Config is the top-level smartorder configuration.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	RefData RefDataConfig `mapstructure:"refdata"`
	Store   StoreConfig   `mapstructure:"store"`
	Session SessionConfig `mapstructure:"session"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	LogPath  string `mapstructure:"log_path"`
}

// RefDataConfig points at the desk-supplied reference files. Every file is
// optional; a missing file means the corresponding lookups degrade to
// documented defaults.
type RefDataConfig struct {
	Dir        string `mapstructure:"dir"`
	MarketJSON string `mapstructure:"market_json"`
	Watch      bool   `mapstructure:"watch"`
}

type StoreConfig struct {
	TicketDB string `mapstructure:"ticket_db"`
	AuditDB  string `mapstructure:"audit_db"`
}

// SessionConfig describes the synthetic trading session the parameter
// resolver clamps ticket times into.
type SessionConfig struct {
	CloseHour   int `mapstructure:"close_hour"`
	CloseMinute int `mapstructure:"close_minute"`
}
