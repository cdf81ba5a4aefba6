package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Session.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error")
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	return nil
}

func (s *SessionConfig) validate() error {
	if s.CloseHour < 0 || s.CloseHour > 23 {
		return fmt.Errorf("session.close_hour must be within 0-23")
	}
	if s.CloseMinute < 0 || s.CloseMinute > 59 {
		return fmt.Errorf("session.close_minute must be within 0-59")
	}
	return nil
}
