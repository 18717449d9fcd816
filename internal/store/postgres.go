package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvRecord is the row layout of the Postgres key-value table.
type kvRecord struct {
	Scope     string `gorm:"primaryKey;type:varchar(128)"`
	Key       string `gorm:"primaryKey;type:varchar(255)"`
	Value     []byte `gorm:"type:bytea;not null"`
	UpdatedAt time.Time
}

func (kvRecord) TableName() string { return "nexusdesk_kv" }

// PostgresStore implements Store on Postgres through GORM.
type PostgresStore struct {
	db    *gorm.DB
	scope string
}

// NewPostgresStore opens dsn and creates the key-value table if needed.
func NewPostgresStore(dsn, scope string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &PostgresStore{db: db, scope: scope}, nil
}

// List returns all entries in the store's scope.
func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	var rows []kvRecord
	if err := s.db.WithContext(ctx).Where("scope = ?", s.scope).Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{Key: r.Key, Value: r.Value}
	}
	return entries, nil
}

// Get retrieves the value stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row kvRecord
	err := s.db.WithContext(ctx).Where("scope = ? AND key = ?", s.scope, key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.Value, nil
}

func (s *PostgresStore) upsert(tx *gorm.DB, rows []kvRecord) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
}

// Put writes value under key, replacing any previous value.
func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	return s.upsert(s.db.WithContext(ctx), []kvRecord{{Scope: s.scope, Key: key, Value: value}})
}

// PutMany writes all entries in a single transaction.
func (s *PostgresStore) PutMany(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]kvRecord, len(entries))
	for i, e := range entries {
		rows[i] = kvRecord{Scope: s.scope, Key: e.Key, Value: e.Value}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.upsert(tx, rows)
	})
}

// Delete removes key and reports whether it existed.
func (s *PostgresStore) Delete(ctx context.Context, key string) (bool, error) {
	res := s.db.WithContext(ctx).Where("scope = ? AND key = ?", s.scope, key).Delete(&kvRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteMany removes keys with one statement.
func (s *PostgresStore) DeleteMany(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("scope = ? AND key IN ?", s.scope, keys).Delete(&kvRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
