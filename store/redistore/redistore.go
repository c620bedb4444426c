// Package redistore implements the engine's CredentialStore on Redis.
//
// Each record lives as a JSON document under one key; the email
// secondary index is a set of userIds per address. Conditional updates
// run under WATCH with optimistic retry, which makes read-modify-write
// mutations (backup-code consumption, watermark bumps) atomic against
// concurrent writers of the same record.
package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/authcore-io/authcore"
)

const defaultPrefix = "acr"

// ErrUnavailable wraps every Redis transport failure so callers can
// distinguish collaborator outage from contract errors.
var ErrUnavailable = errors.New("credential store unavailable")

const updateMaxRetries = 4

// Store implements authcore.CredentialStore on a Redis client.
type Store struct {
	redis  *redis.Client
	prefix string
}

// New returns a Store using the given client and an optional key prefix
// (defaults to "acr").
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

// Get loads and decodes one record.
func (s *Store) Get(ctx context.Context, userID string) (*authcore.CredentialRecord, error) {
	data, err := s.redis.Get(ctx, s.userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, authcore.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decodeRecord(data)
}

// PutIfAbsent creates the record and registers its email in the
// secondary index. Creation is guarded by SETNX; the index write follows
// in a pipeline, so a crash between the two leaves a record reachable by
// id but not by email, which a re-run of the same sign-up surfaces as a
// conflict on the id.
func (s *Store) PutIfAbsent(ctx context.Context, record *authcore.CredentialRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	ok, err := s.redis.SetNX(ctx, s.userKey(record.UserID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return authcore.ErrRecordExists
	}

	if err := s.redis.SAdd(ctx, s.emailKey(record.Email), record.UserID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// UpdateIfExists applies the mutation atomically: the record key is
// watched, the closure runs against the decoded copy, and the write
// commits only if no concurrent writer touched the key. Contended
// updates retry a bounded number of times. The closure's error aborts
// the attempt and is returned unchanged.
func (s *Store) UpdateIfExists(ctx context.Context, userID string, apply func(*authcore.CredentialRecord) error) (*authcore.CredentialRecord, error) {
	key := s.userKey(userID)

	for i := 0; i < updateMaxRetries; i++ {
		var updated *authcore.CredentialRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return authcore.ErrRecordNotFound
			}
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}

			record, err := decodeRecord(data)
			if err != nil {
				return err
			}
			if err := apply(record); err != nil {
				return err
			}

			encoded, err := json.Marshal(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			if err != nil {
				return err
			}

			updated = record
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, fmt.Errorf("%w: update contention on %s", ErrUnavailable, key)
}

// QueryByEmail resolves the email index and loads every member record.
// Index entries whose record vanished are skipped.
func (s *Store) QueryByEmail(ctx context.Context, email string) ([]*authcore.CredentialRecord, error) {
	ids, err := s.redis.SMembers(ctx, s.emailKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.userKey(id)
	}
	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make([]*authcore.CredentialRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		record, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func decodeRecord(data []byte) (*authcore.CredentialRecord, error) {
	var record authcore.CredentialRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode credential record: %w", err)
	}
	return &record, nil
}
