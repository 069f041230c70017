// Package simredis persists simulation shipments in Redis so the MOCK
// courier keeps its state across process restarts and replicas.
package simredis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/wasel/courierhub/pkg/courier/mock"
)

const defaultKeyPrefix = "courierhub:sim:"

// Retries for optimistic Update transactions that lose a WATCH race.
const maxTxRetries = 3

// Config holds connection settings for the simulation store.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string

	// TTL bounds how long a simulated shipment is kept. Zero keeps
	// records forever.
	TTL time.Duration
}

// Store is a Redis-backed mock.Store.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis at cfg.Addr. The connection is lazy; use Ping to
// verify reachability at startup.
func New(cfg Config) *Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: prefix,
		ttl:    cfg.TTL,
	}
}

func (s *Store) key(waybill string) string {
	return s.prefix + waybill
}

func (s *Store) Save(ctx context.Context, shipment *mock.Shipment) error {
	data, err := json.Marshal(shipment)
	if err != nil {
		return errors.Wrap(err, "marshal shipment")
	}
	if err := s.rdb.Set(ctx, s.key(shipment.Waybill), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, waybill string) (*mock.Shipment, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(waybill)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	var shipment mock.Shipment
	if err := json.Unmarshal(val, &shipment); err != nil {
		return nil, false, errors.Wrap(err, "unmarshal shipment")
	}
	return &shipment, true, nil
}

// Update applies fn to the stored shipment inside a WATCH transaction so
// concurrent writers cannot drop each other's events.
func (s *Store) Update(ctx context.Context, waybill string, fn func(*mock.Shipment)) (bool, error) {
	key := s.key(waybill)
	var found bool

	txf := func(tx *redis.Tx) error {
		found = false
		val, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "redis get")
		}

		var shipment mock.Shipment
		if err := json.Unmarshal(val, &shipment); err != nil {
			return errors.Wrap(err, "unmarshal shipment")
		}
		fn(&shipment)

		data, err := json.Marshal(&shipment)
		if err != nil {
			return errors.Wrap(err, "marshal shipment")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return errors.Wrap(err, "redis set")
		}
		found = true
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return found, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return false, err
	}
	return false, errors.New("redis update: too many transaction conflicts")
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.rdb.Close()
}

var _ mock.Store = (*Store)(nil)
