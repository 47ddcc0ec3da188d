package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/records"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexModels returns a unique index over the key of a table and a plain
// index for every reference column group.
func indexModels(recordSchema records.Schema) []mongo.IndexModel {
	keys := bson.D{}
	for _, column := range recordSchema.Key {
		keys = append(keys, bson.E{Key: column, Value: 1})
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    keys,
			Options: options.Index().SetUnique(true),
		},
	}

	for _, reference := range recordSchema.Refs {
		referenceKeys := bson.D{}
		for _, column := range reference.Columns {
			referenceKeys = append(referenceKeys, bson.E{Key: column, Value: 1})
		}

		indexes = append(indexes, mongo.IndexModel{Keys: referenceKeys})
	}

	return indexes
}

func createIndexes(ctx context.Context, database *mongo.Database) error {
	for _, recordType := range records.Order {
		recordSchema := records.Schemas[recordType]

		_, err := database.Collection(recordSchema.Table).Indexes().CreateMany(ctx, indexModels(recordSchema), options.CreateIndexes())
		if err != nil {
			return fmt.Errorf("creating %s indexes: %w", recordSchema.Table, err)
		}

		log.Debug().Str("collection", recordSchema.Table).Msg("Created indexes")
	}

	return nil
}
