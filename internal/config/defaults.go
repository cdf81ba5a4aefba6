package config

import "strings"

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":8085"
	defaultAppLogPath      = ""
	defaultRefDataDir      = "configs/refdata"
	defaultStoreTicketDB   = "data/tickets.db"
	defaultStoreAuditDB    = "data/audit.db"
	defaultSessCloseHour   = 16
	defaultSessCloseMinute = 0
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.RefData.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Session.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (r *RefDataConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("refdata.dir", &r.Dir, defaultRefDataDir),
		fieldDefault{
			key:   "refdata.watch",
			need:  func() bool { return true },
			apply: func() { r.Watch = true },
		},
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.ticket_db", &s.TicketDB, defaultStoreTicketDB),
		stringFieldDefault("store.audit_db", &s.AuditDB, defaultStoreAuditDB),
	)
}

func (s *SessionConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "session.close_hour",
			need:  func() bool { return s.CloseHour <= 0 },
			apply: func() { s.CloseHour = defaultSessCloseHour },
		},
		fieldDefault{
			key:   "session.close_minute",
			need:  func() bool { return s.CloseMinute < 0 },
			apply: func() { s.CloseMinute = defaultSessCloseMinute },
		},
	)
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
