package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/travigo/populate/pkg/records"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one collection per table with documents holding the
// record columns. Transactions need a replica set.
type MongoStore struct {
	client    *mongo.Client
	database  *mongo.Database
	batchSize int

	// session is set inside Transaction and replaces the caller's context.
	session mongo.SessionContext
}

func NewMongoStore(client *mongo.Client, database string, batchSize int) *MongoStore {
	return &MongoStore{
		client:    client,
		database:  client.Database(database),
		batchSize: batchSize,
	}
}

func (s *MongoStore) context(ctx context.Context) context.Context {
	if s.session != nil {
		return s.session
	}

	return ctx
}

func (s *MongoStore) collection(recordType records.Type) (records.Schema, *mongo.Collection, error) {
	recordSchema, err := schemaFor(recordType)
	if err != nil {
		return recordSchema, nil, err
	}

	return recordSchema, s.database.Collection(recordSchema.Table), nil
}

func keyFilter(recordSchema records.Schema, row records.Record) bson.M {
	filter := bson.M{}
	for _, column := range recordSchema.Key {
		filter[column] = row[column]
	}

	return filter
}

func (s *MongoStore) Upsert(ctx context.Context, recordType records.Type, rows []records.Record) error {
	if len(rows) == 0 {
		return nil
	}

	recordSchema, collection, err := s.collection(recordType)
	if err != nil {
		return err
	}

	for _, batch := range batches(rows, s.batchSize) {
		operations := make([]mongo.WriteModel, 0, len(batch))

		for _, row := range batch {
			bsonRep, err := bson.Marshal(bson.M{"$set": bson.M(recordSchema.Normalise(row))})
			if err != nil {
				return fmt.Errorf("encoding %s row: %w", recordSchema.Table, err)
			}

			updateModel := mongo.NewUpdateOneModel()
			updateModel.SetFilter(keyFilter(recordSchema, row))
			updateModel.SetUpdate(bsonRep)
			updateModel.SetUpsert(true)

			operations = append(operations, updateModel)
		}

		_, err := collection.BulkWrite(s.context(ctx), operations, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return fmt.Errorf("upserting %s: %w", recordSchema.Table, err)
		}
	}

	return nil
}

func (s *MongoStore) FetchByKey(ctx context.Context, recordType records.Type, key records.Record) (records.Record, bool, error) {
	_, collection, err := s.collection(recordType)
	if err != nil {
		return nil, false, err
	}

	var document bson.M
	err = collection.FindOne(
		s.context(ctx),
		bson.M(key),
		options.FindOne().SetProjection(bson.M{"_id": 0}),
	).Decode(&document)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	return records.Record(document), true, nil
}

func (s *MongoStore) Transaction(ctx context.Context, fn func(Store) error) error {
	if s.session != nil {
		return fn(s)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessionContext mongo.SessionContext) (interface{}, error) {
		return nil, fn(&MongoStore{
			client:    s.client,
			database:  s.database,
			batchSize: s.batchSize,
			session:   sessionContext,
		})
	})

	return err
}

func (s *MongoStore) Migrate(ctx context.Context) error {
	return createIndexes(ctx, s.database)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
