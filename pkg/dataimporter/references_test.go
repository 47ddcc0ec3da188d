package dataimporter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/populate/pkg/config"
	"github.com/travigo/populate/pkg/database"
	"github.com/travigo/populate/pkg/records"
)

// countingStore counts the lookups that reach the store.
type countingStore struct {
	database.Store
	fetches int
}

func (s *countingStore) FetchByKey(ctx context.Context, recordType records.Type, key records.Record) (records.Record, bool, error) {
	s.fetches++
	return s.Store.FetchByKey(ctx, recordType, key)
}

func seed(t *testing.T, store database.Store, recordType records.Type, rows ...records.Record) {
	require.NoError(t, store.Upsert(context.Background(), recordType, rows))
}

func TestReferenceKey(t *testing.T) {
	reference := records.Reference{Columns: []string{"region_ref", "local_operator_ref"}, Target: records.TypeLocalOperator}

	key, set := referenceKey(records.Record{"region_ref": "Y", "local_operator_ref": "FLDS"}, reference)
	assert.Equal(t, records.Record{"region_ref": "Y", "code": "FLDS"}, key)
	assert.Equal(t, 2, set)

	_, set = referenceKey(records.Record{"region_ref": "Y", "local_operator_ref": ""}, reference)
	assert.Equal(t, 1, set)

	_, set = referenceKey(records.Record{}, reference)
	assert.Zero(t, set)
}

func TestResolveReferences(t *testing.T) {
	store := testStore(t)
	seed(t, store, records.TypeRegion, records.Record{"code": "Y", "name": "Yorkshire"})
	seed(t, store, records.TypeOperator, records.Record{"code": "FLDS", "name": "First Leeds"})

	document := records.NewDocument("test.xml")
	document.Add(records.TypeAdminArea, records.Record{"code": "099", "name": "West Yorkshire", "region_ref": "Y"})
	document.Add(records.TypeDistrict, records.Record{"code": "242", "name": "Leeds", "admin_area_ref": "099"})
	document.Add(records.TypeDistrict, records.Record{"code": "310", "name": "Bradford", "admin_area_ref": "100"})
	document.Add(records.TypeLocalOperator, records.Record{"region_ref": "Y", "code": "FLDS", "operator_ref": "FLDS"})
	document.Add(records.TypeLocalOperator, records.Record{"region_ref": "Y", "code": "KJTR", "operator_ref": "KJTR"})
	document.Add(records.TypeLocalOperator, records.Record{"region_ref": "Y", "code": "YRBS", "operator_ref": nil})
	document.Add(records.TypeService, records.Record{"code": "Y-1", "region_ref": "Y", "local_operator_ref": "FLDS"})
	document.Add(records.TypeService, records.Record{"code": "Y-2", "region_ref": "Y", "local_operator_ref": "KJTR"})
	document.Add(records.TypeService, records.Record{"code": "Y-3", "region_ref": "Z", "local_operator_ref": "FLDS"})
	document.Add(records.TypeService, records.Record{"code": "Y-4", "region_ref": nil, "local_operator_ref": nil})

	importer := &Importer{}

	var dropped int
	err := store.Transaction(context.Background(), func(tx database.Store) error {
		var err error
		dropped, err = importer.resolveReferences(context.Background(), tx, document)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 2, dropped, "local operators without a stored operator are dropped")

	districts := document.Get(records.TypeDistrict)
	require.Len(t, districts, 2)
	assert.Equal(t, "099", districts[0]["admin_area_ref"], "resolved within the document")
	assert.Nil(t, districts[1]["admin_area_ref"])

	localOperators := document.Get(records.TypeLocalOperator)
	require.Len(t, localOperators, 1)
	assert.Equal(t, "FLDS", localOperators[0]["code"])

	services := document.Get(records.TypeService)
	require.Len(t, services, 4)
	assert.Equal(t, "FLDS", services[0]["local_operator_ref"])
	assert.Nil(t, services[1]["local_operator_ref"], "dropped local operators are not referenced")
	assert.Nil(t, services[2]["region_ref"])
	assert.Nil(t, services[2]["local_operator_ref"], "a partial composite reference is cleared")
	assert.Nil(t, services[3]["region_ref"])
}

func TestStopPointAdminAreaRequired(t *testing.T) {
	store := testStore(t)
	seed(t, store, records.TypeRegion, records.Record{"code": "Y", "name": "Yorkshire"})
	seed(t, store, records.TypeAdminArea, records.Record{"code": "099", "name": "West Yorkshire", "region_ref": "Y"})

	document := records.NewDocument("Stops.xml")
	document.Add(records.TypeStopPoint, records.Record{"atco_code": "450012345", "name": "Infirmary Street", "admin_area_ref": "099", "locality_ref": "E0099999"})
	document.Add(records.TypeStopPoint, records.Record{"atco_code": "450012346", "name": "Park Row", "admin_area_ref": "110"})

	var dropped int
	err := store.Transaction(context.Background(), func(tx database.Store) error {
		var err error
		dropped, err = (&Importer{}).resolveReferences(context.Background(), tx, document)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, dropped, "a stop in an unknown area is dropped")

	stops := document.Get(records.TypeStopPoint)
	require.Len(t, stops, 1)
	assert.Equal(t, "450012345", stops[0]["atco_code"])
	assert.Nil(t, stops[0]["locality_ref"], "optional references are still nulled")
}

func TestRefCacheRemembersHits(t *testing.T) {
	store := testStore(t)
	seed(t, store, records.TypeRegion, records.Record{"code": "Y", "name": "Yorkshire"})

	counting := &countingStore{Store: store}
	refCache := NewRefCache(nil, "", 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		exists, err := refCache.Exists(ctx, counting, records.TypeRegion, records.Record{"code": "Y"})
		require.NoError(t, err)
		assert.True(t, exists)
	}
	assert.Equal(t, 1, counting.fetches)

	for i := 0; i < 2; i++ {
		exists, err := refCache.Exists(ctx, counting, records.TypeRegion, records.Record{"code": "L"})
		require.NoError(t, err)
		assert.False(t, exists)
	}
	assert.Equal(t, 3, counting.fetches, "misses are looked up every time")

	refCache.Remember(records.TypeRegion, []records.Record{{"code": "L", "name": "London"}})
	exists, err := refCache.Exists(ctx, counting, records.TypeRegion, records.Record{"code": "L"})
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 3, counting.fetches)
	assert.Equal(t, 2, refCache.Len())
}

func TestRefCacheSharesHits(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	store := testStore(t)
	seed(t, store, records.TypeOperator, records.Record{"code": "FLDS", "name": "First Leeds"})
	ctx := context.Background()

	first := &countingStore{Store: store}
	exists, err := NewRefCache(client, "leeds", time.Hour).Exists(ctx, first, records.TypeOperator, records.Record{"code": "FLDS"})
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, first.fetches)
	assert.True(t, server.Exists("populate:ref:leeds:Operator:FLDS"))

	second := &countingStore{Store: store}
	exists, err = NewRefCache(client, "leeds", time.Hour).Exists(ctx, second, records.TypeOperator, records.Record{"code": "FLDS"})
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Zero(t, second.fetches, "another importer finds the key in redis")

	server.FastForward(2 * time.Hour)
	assert.False(t, server.Exists("populate:ref:leeds:Operator:FLDS"))
}

func TestRefCacheNamespaces(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	store := testStore(t)
	seed(t, store, records.TypeOperator, records.Record{"code": "FLDS", "name": "First Leeds"})
	ctx := context.Background()

	exists, err := NewRefCache(client, "leeds", time.Hour).Exists(ctx, store, records.TypeOperator, records.Record{"code": "FLDS"})
	require.NoError(t, err)
	assert.True(t, exists)

	empty := &countingStore{Store: testStore(t)}
	exists, err = NewRefCache(client, "bradford", time.Hour).Exists(ctx, empty, records.TypeOperator, records.Record{"code": "FLDS"})
	require.NoError(t, err)
	assert.False(t, exists, "another database does not see the shared key")
	assert.Equal(t, 1, empty.fetches)
}

func TestNamespace(t *testing.T) {
	leeds := config.DatabaseConfig{Driver: "postgres", Connection: "host=leeds dbname=populate"}
	bradford := config.DatabaseConfig{Driver: "postgres", Connection: "host=bradford dbname=populate"}

	assert.Len(t, Namespace(leeds), 8)
	assert.Equal(t, Namespace(leeds), Namespace(leeds))
	assert.NotEqual(t, Namespace(leeds), Namespace(bradford))
}

func TestCacheKey(t *testing.T) {
	tests := []struct {
		namespace string
		expected  string
	}{
		{namespace: "", expected: "populate:ref:LocalOperator:Y:FLDS"},
		{namespace: "leeds", expected: "populate:ref:leeds:LocalOperator:Y:FLDS"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			refCache := NewRefCache(nil, test.namespace, 0)
			assert.Equal(t, test.expected, refCache.cacheKey(records.TypeLocalOperator, records.Record{"region_ref": "Y", "code": "FLDS"}))
		})
	}
}
