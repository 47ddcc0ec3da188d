package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/populate/pkg/models"
	"github.com/travigo/populate/pkg/records"
	"gorm.io/gorm"
)

func testStore(t *testing.T) *GormStore {
	store, err := ConnectSQLite(":memory:", 2)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		store.Close(context.Background())
	})

	return store
}

func count(t *testing.T, store *GormStore, model interface{}) int64 {
	var total int64
	require.NoError(t, store.db.Model(model).Count(&total).Error)

	return total
}

func TestModelsMatchSchemas(t *testing.T) {
	store := testStore(t)

	for _, recordType := range records.Order {
		recordSchema := records.Schemas[recordType]

		statement := &gorm.Statement{DB: store.db}
		require.NoError(t, statement.Parse(models.New(recordType)))

		assert.Equal(t, recordSchema.Table, statement.Schema.Table, recordType)

		for _, column := range recordSchema.Columns {
			assert.Contains(t, statement.Schema.FieldsByDBName, column, "%s.%s", recordSchema.Table, column)
		}

		var primaryKeys []string
		for _, field := range statement.Schema.PrimaryFields {
			primaryKeys = append(primaryKeys, field.DBName)
		}
		assert.ElementsMatch(t, recordSchema.Key, primaryKeys, recordType)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	regions := []records.Record{
		{"code": "Y", "name": "Yorkshire", "modified": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"code": "L", "name": "London"},
		{"code": "S", "name": "Scotland"},
	}

	require.NoError(t, store.Upsert(ctx, records.TypeRegion, regions))
	require.NoError(t, store.Upsert(ctx, records.TypeRegion, regions))
	assert.Equal(t, int64(3), count(t, store, &models.Region{}))

	require.NoError(t, store.Upsert(ctx, records.TypeRegion, []records.Record{
		{"code": "Y", "name": "Yorkshire and the Humber"},
	}))
	assert.Equal(t, int64(3), count(t, store, &models.Region{}))

	region, found, err := store.FetchByKey(ctx, records.TypeRegion, records.Record{"code": "Y"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Yorkshire and the Humber", region["name"])
	assert.Nil(t, region["modified"], "columns absent from the row are overwritten with null")
}

func TestUpsertKeyOnlyTable(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	holidays := []records.Record{{"name": "ChristmasDay"}, {"name": "BoxingDay"}}

	require.NoError(t, store.Upsert(ctx, records.TypeBankHoliday, holidays))
	require.NoError(t, store.Upsert(ctx, records.TypeBankHoliday, holidays))

	assert.Equal(t, int64(2), count(t, store, &models.BankHoliday{}))
}

func TestFetchByCompositeKey(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, records.TypeLocalOperator, []records.Record{
		{"region_ref": "Y", "code": "FLDS", "operator_ref": "FLDS", "name": "First Leeds"},
		{"region_ref": "S", "code": "FLDS", "operator_ref": "FGLA", "name": "First Glasgow"},
	}))

	operator, found, err := store.FetchByKey(ctx, records.TypeLocalOperator, records.Record{"region_ref": "S", "code": "FLDS"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "FGLA", operator["operator_ref"])

	_, found, err = store.FetchByKey(ctx, records.TypeLocalOperator, records.Record{"region_ref": "L", "code": "FLDS"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTransactionRollsBack(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	failure := errors.New("failed")

	err := store.Transaction(ctx, func(tx Store) error {
		if err := tx.Upsert(ctx, records.TypeRegion, []records.Record{{"code": "Y", "name": "Yorkshire"}}); err != nil {
			return err
		}

		_, found, err := tx.FetchByKey(ctx, records.TypeRegion, records.Record{"code": "Y"})
		require.NoError(t, err)
		assert.True(t, found, "writes are visible inside the transaction")

		return failure
	})
	assert.ErrorIs(t, err, failure)

	_, found, err := store.FetchByKey(ctx, records.TypeRegion, records.Record{"code": "Y"})
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Transaction(ctx, func(tx Store) error {
		return tx.Upsert(ctx, records.TypeRegion, []records.Record{{"code": "Y", "name": "Yorkshire"}})
	}))

	_, found, err = store.FetchByKey(ctx, records.TypeRegion, records.Record{"code": "Y"})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestUnknownType(t *testing.T) {
	store := testStore(t)

	err := store.Upsert(context.Background(), records.Type("Vehicle"), []records.Record{{"id": "1"}})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, _, err = store.FetchByKey(context.Background(), records.Type("Vehicle"), records.Record{"id": "1"})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestBatches(t *testing.T) {
	rows := []records.Record{{"code": "1"}, {"code": "2"}, {"code": "3"}, {"code": "4"}, {"code": "5"}}

	chunks := batches(rows, 2)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 1)

	assert.Len(t, batches(rows, 0), 1)
	assert.Empty(t, batches(nil, 2))
}

func TestIndexModels(t *testing.T) {
	indexes := indexModels(records.Schemas[records.TypeService])

	require.Len(t, indexes, 3)
	assert.True(t, *indexes[0].Options.Unique)
}
