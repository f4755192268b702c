package db

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/smallbiznis/nel3/internal/config"
)

type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	Path            string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

// FromAppConfig maps the SQL settings of the application config.
func FromAppConfig(cfg config.Config) Config {
	return Config{
		Type:            strings.ToLower(strings.TrimSpace(cfg.StorageDriver)),
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		SSLMode:         cfg.DBSSLMode,
		Path:            cfg.DBPath,
		MaxIdleConn:     cfg.DBMaxIdleConn,
		MaxOpenConn:     cfg.DBMaxOpenConn,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}
}

// SQLitePath resolves the database file, defaulting to $XDG_DATA_HOME/nel3/nel3.db.
func (c Config) SQLitePath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	return xdg.DataFile(filepath.Join("nel3", "nel3.db"))
}
