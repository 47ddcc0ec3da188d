package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/models"
	"github.com/travigo/populate/pkg/records"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// GormStore writes records into relational tables.
type GormStore struct {
	db        *gorm.DB
	batchSize int
}

func NewGormStore(db *gorm.DB, batchSize int) *GormStore {
	return &GormStore{db: db, batchSize: batchSize}
}

// gormWriter sends gorm's own log lines through zerolog.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

func (s *GormStore) model(recordType records.Type) (records.Schema, interface{}, error) {
	recordSchema, err := schemaFor(recordType)
	if err != nil {
		return recordSchema, nil, err
	}

	model := models.New(recordType)
	if model == nil {
		return recordSchema, nil, fmt.Errorf("%w: %s", ErrUnknownType, recordType)
	}

	return recordSchema, model, nil
}

func (s *GormStore) Upsert(ctx context.Context, recordType records.Type, rows []records.Record) error {
	if len(rows) == 0 {
		return nil
	}

	recordSchema, model, err := s.model(recordType)
	if err != nil {
		return err
	}

	conflict := clause.OnConflict{}
	for _, column := range recordSchema.Key {
		conflict.Columns = append(conflict.Columns, clause.Column{Name: column})
	}

	if update := recordSchema.UpdateColumns(); len(update) > 0 {
		conflict.DoUpdates = clause.AssignmentColumns(update)
	} else {
		conflict.DoNothing = true
	}

	for _, batch := range batches(rows, s.batchSize) {
		values := make([]map[string]interface{}, 0, len(batch))
		for _, row := range batch {
			values = append(values, recordSchema.Normalise(row))
		}

		result := s.db.WithContext(ctx).Model(model).Clauses(conflict).Create(values)
		if result.Error != nil {
			return fmt.Errorf("upserting %s: %w", recordSchema.Table, result.Error)
		}
	}

	return nil
}

func (s *GormStore) FetchByKey(ctx context.Context, recordType records.Type, key records.Record) (records.Record, bool, error) {
	_, model, err := s.model(recordType)
	if err != nil {
		return nil, false, err
	}

	row := map[string]interface{}{}
	result := s.db.WithContext(ctx).Model(model).Where(map[string]interface{}(key)).Limit(1).Find(&row)
	if result.Error != nil {
		return nil, false, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, false, nil
	}

	return records.Record(row), true, nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, batchSize: s.batchSize})
	})
}

func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(models.All()...)
}

func (s *GormStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
