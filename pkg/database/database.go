// Package database connects the configured store: PostgreSQL or SQLite
// through gorm, or MongoDB.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the backend named by the configuration and migrates it when
// asked to.
func Connect(ctx context.Context, cfg config.DatabaseConfig, batchSize int) (Backend, error) {
	var backend Backend
	var err error

	switch cfg.Driver {
	case config.DriverPostgres:
		backend, err = ConnectPostgres(cfg.Connection, batchSize)
	case config.DriverSQLite:
		backend, err = ConnectSQLite(cfg.Connection, batchSize)
	case config.DriverMongoDB:
		backend, err = ConnectMongoDB(ctx, cfg.Connection, cfg.Database, batchSize)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if err != nil {
		return nil, err
	}

	log.Info().Str("driver", cfg.Driver).Msg("Connected to database")

	if cfg.Migrate {
		if err := backend.Migrate(ctx); err != nil {
			backend.Close(ctx)
			return nil, err
		}
	}

	return backend, nil
}

func ConnectPostgres(connectionString string, batchSize int) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(connectionString), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return NewGormStore(db, batchSize), nil
}

// ConnectSQLite opens a SQLite file, or an in-memory database for
// ":memory:". A single connection is kept so every query sees the same
// database.
func ConnectSQLite(path string, batchSize int) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)

	return NewGormStore(db, batchSize), nil
}

func ConnectMongoDB(ctx context.Context, connectionString string, database string, batchSize int) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return NewMongoStore(client, database, batchSize), nil
}
