package db

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	gormprom "gorm.io/plugin/prometheus"
)

// Open connects with the given dialector, applies pool settings and installs
// the tracing and connection-pool metrics plugins.
func Open(cfg Config, dialector gorm.Dialector, log gormlogger.Interface) (*gorm.DB, error) {
	gcfg := &gorm.Config{}
	if log != nil {
		gcfg.Logger = log
	}

	conn, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}

	if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Name))); err != nil {
		return nil, err
	}
	return conn, nil
}

// InstrumentPool registers connection pool gauges on the default prometheus registry.
func InstrumentPool(conn *gorm.DB, name string) error {
	return conn.Use(gormprom.New(gormprom.Config{
		DBName:          name,
		RefreshInterval: 15,
		StartServer:     false,
	}))
}
