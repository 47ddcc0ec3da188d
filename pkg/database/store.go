package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/travigo/populate/pkg/records"
)

var ErrUnknownType = errors.New("record type has no table")

// Store is the persistence boundary the importer writes through.
type Store interface {
	// Upsert inserts rows, overwriting the non-key columns of rows that
	// already exist under the same key.
	Upsert(ctx context.Context, recordType records.Type, rows []records.Record) error

	// FetchByKey returns the stored row with the given key column values.
	FetchByKey(ctx context.Context, recordType records.Type, key records.Record) (records.Record, bool, error)

	// Transaction runs fn against a store whose writes commit together or
	// not at all.
	Transaction(ctx context.Context, fn func(Store) error) error
}

// Backend is a connected store that can also manage its own lifetime.
type Backend interface {
	Store

	// Migrate creates missing tables and indexes.
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}

func schemaFor(recordType records.Type) (records.Schema, error) {
	schema, exists := records.Schemas[recordType]
	if !exists {
		return records.Schema{}, fmt.Errorf("%w: %s", ErrUnknownType, recordType)
	}

	return schema, nil
}

// batches splits rows into chunks of at most size.
func batches(rows []records.Record, size int) [][]records.Record {
	if size <= 0 {
		size = len(rows)
	}

	var chunks [][]records.Record
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}

		chunks = append(chunks, rows[start:end])
	}

	return chunks
}
