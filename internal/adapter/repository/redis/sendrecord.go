package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"loanflow-backend/internal/domain/notification"

	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "notify:sent:"
	// RecordTTL expires records idle longer than this.
	RecordTTL = 7 * 24 * time.Hour
)

// SendRecordStore keeps notification send records in Redis. Every Put
// refreshes the TTL, so expiry tracks inactivity.
type SendRecordStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewSendRecordStore(rdb *goredis.Client) *SendRecordStore {
	return &SendRecordStore{rdb: rdb, ttl: RecordTTL}
}

func (s *SendRecordStore) Get(ctx context.Context, id string) (notification.Record, bool, error) {
	return load(ctx, s.rdb, keyPrefix+id)
}

func (s *SendRecordStore) Put(ctx context.Context, id string, rec notification.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+id, payload, s.ttl).Err()
}

// Claim writes claim under WATCH, so a concurrent writer of the same key
// aborts the transaction and the claim is reported as lost.
func (s *SendRecordStore) Claim(ctx context.Context, id string, claim notification.Record, window, lease time.Duration) (bool, error) {
	key := keyPrefix + id
	payload, err := json.Marshal(claim)
	if err != nil {
		return false, err
	}
	won := false
	err = s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, ok, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		if ok && cur.Blocks(claim.Version, claim.LastAttemptAt, window, lease) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key, payload, s.ttl)
			return nil
		})
		won = err == nil
		return err
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		return false, nil
	}
	return won, err
}

func (s *SendRecordStore) Release(ctx context.Context, id string, claim notification.Record) error {
	key := keyPrefix + id
	err := s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, ok, err := load(ctx, tx, key)
		if err != nil || !ok || !cur.Pending || cur.Version != claim.Version || !cur.LastAttemptAt.Equal(claim.LastAttemptAt) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		// someone else rewrote the key; it is no longer our claim
		return nil
	}
	return err
}

// getter is satisfied by both the client and a WATCH transaction.
type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func load(ctx context.Context, c getter, key string) (notification.Record, bool, error) {
	var rec notification.Record
	b, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, false, err
	}
	return rec, true, nil
}
