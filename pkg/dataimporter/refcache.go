package dataimporter

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/config"
	"github.com/travigo/populate/pkg/database"
	"github.com/travigo/populate/pkg/records"
)

const refCachePrefix = "populate:ref:"

// RefCache remembers which referenced keys exist in the store. Keys written
// during the run and keys found in the store are held in memory; found keys
// are also shared through Redis when a client is given. Misses are never
// cached since a later file may write the row. Shared keys are namespaced so
// importers writing to different databases never see each other's rows.
type RefCache struct {
	shared *cache.Cache[string]
	prefix string

	mutex sync.RWMutex
	known map[string]struct{}
}

// Namespace identifies a database by a short hash of its connection details.
func Namespace(cfg config.DatabaseConfig) string {
	identity := strings.Join([]string{cfg.Driver, cfg.Connection, cfg.Database}, "\x1f")

	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(identity)).String()[:8]
}

func NewRefCache(client *redis.Client, namespace string, ttl time.Duration) *RefCache {
	refCache := &RefCache{
		prefix: refCachePrefix,
		known:  map[string]struct{}{},
	}

	if namespace != "" {
		refCache.prefix += namespace + ":"
	}

	if client != nil {
		redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))
		refCache.shared = cache.New[string](redisStore)
	}

	return refCache
}

func (r *RefCache) cacheKey(recordType records.Type, key records.Record) string {
	schema := records.Schemas[recordType]

	return r.prefix + string(recordType) + ":" + strings.ReplaceAll(key.KeyString(schema.Key), "\x1f", ":")
}

// Exists reports whether a row of recordType with key is stored, asking the
// store only when the key is not already known.
func (r *RefCache) Exists(ctx context.Context, db database.Store, recordType records.Type, key records.Record) (bool, error) {
	refKey := r.cacheKey(recordType, key)

	r.mutex.RLock()
	_, known := r.known[refKey]
	r.mutex.RUnlock()

	if known {
		return true, nil
	}

	if r.shared != nil {
		if _, err := r.shared.Get(ctx, refKey); err == nil {
			r.remember(refKey)
			return true, nil
		}
	}

	_, found, err := db.FetchByKey(ctx, recordType, key)
	if err != nil || !found {
		return false, err
	}

	r.remember(refKey)

	if r.shared != nil {
		if err := r.shared.Set(ctx, refKey, "1"); err != nil {
			log.Debug().Err(err).Str("key", refKey).Msg("Failed to share reference")
		}
	}

	return true, nil
}

// Remember marks keys of a type as stored.
func (r *RefCache) Remember(recordType records.Type, rows []records.Record) {
	schema := records.Schemas[recordType]

	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, row := range rows {
		key, _ := row.Key(schema.Key)
		r.known[r.cacheKey(recordType, key)] = struct{}{}
	}
}

func (r *RefCache) remember(refKey string) {
	r.mutex.Lock()
	r.known[refKey] = struct{}{}
	r.mutex.Unlock()
}

func (r *RefCache) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.known)
}
