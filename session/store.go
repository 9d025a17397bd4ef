package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"

	"inkwell/database"
)

// Record is the server side state of one browser session.
type Record struct {
	UserID  uint     `json:"user_id,omitempty"`
	Flashes []string `json:"flashes,omitempty"`
}

// Store persists records by session id. Load returns nil, nil for unknown ids.
type Store interface {
	Load(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, id string, rec *Record) error
	Delete(ctx context.Context, id string) error
}

// DatabaseStore keeps sessions in the sessions table.
type DatabaseStore struct {
	db *database.Store
}

func NewDatabaseStore(db *database.Store) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Load(ctx context.Context, id string) (*Record, error) {
	row, err := s.db.LoadSession(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &Record{UserID: row.UserID}
	if len(row.Flashes) > 0 {
		if err := json.Unmarshal(row.Flashes, &rec.Flashes); err != nil {
			return nil, errors.Wrap(err, "decode flashes")
		}
	}
	return rec, nil
}

func (s *DatabaseStore) Save(ctx context.Context, id string, rec *Record) error {
	flashes, err := json.Marshal(rec.Flashes)
	if err != nil {
		return errors.Wrap(err, "encode flashes")
	}
	return s.db.SaveSession(ctx, &database.Session{
		ID:      id,
		UserID:  rec.UserID,
		Flashes: datatypes.JSON(flashes),
	})
}

func (s *DatabaseStore) Delete(ctx context.Context, id string) error {
	return s.db.DeleteSession(ctx, id)
}

// RedisStore keeps sessions under "session:<id>" keys. A zero ttl stores
// them without expiry.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(id string) string { return "session:" + id }

func (s *RedisStore) Load(ctx context.Context, id string) (*Record, error) {
	val, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get session")
	}

	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, rec *Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	return errors.Wrap(s.rdb.Set(ctx, redisKey(id), val, s.ttl).Err(), "redis set session")
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return errors.Wrap(s.rdb.Del(ctx, redisKey(id)).Err(), "redis del session")
}

// NewRedisClient creates a client and pings the server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}
	return rdb, nil
}
