package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of the kv_entries table.
type Entry struct {
	Key       string            `gorm:"column:entry_key;primaryKey;size:191"`
	Value     []byte            `gorm:"not null"`
	Meta      datatypes.JSONMap `gorm:"type:json"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "kv_entries" }

// SQL stores values in a relational database through gorm.
type SQL struct {
	db      *gorm.DB
	dialect string
}

// NewSQL migrates the kv_entries table and returns the backend.
func NewSQL(ctx context.Context, db *gorm.DB) (*SQL, error) {
	if err := db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &SQL{db: db, dialect: db.Dialector.Name()}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e.Value, true, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	e := Entry{
		Key:   key,
		Value: value,
		Meta: datatypes.JSONMap{
			"encoding": "snappy+json",
			"bytes":    len(value),
		},
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "meta", "updated_at"}),
	}).Create(&e).Error
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&Entry{}).Error
}

func (s *SQL) Name() string { return "sql:" + s.dialect }

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
