// Package memstore provides an in-memory CredentialStore for tests and
// examples. All operations are linearized under one mutex, which gives
// UpdateIfExists its required atomicity trivially.
package memstore

import (
	"context"
	"sync"

	"github.com/authcore-io/authcore"
)

// Store implements authcore.CredentialStore in process memory.
type Store struct {
	mu      sync.Mutex
	records map[string]*authcore.CredentialRecord
	byEmail map[string][]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		records: make(map[string]*authcore.CredentialRecord),
		byEmail: make(map[string][]string),
	}
}

// Get returns a copy of the record or authcore.ErrRecordNotFound.
func (s *Store) Get(_ context.Context, userID string) (*authcore.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, authcore.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

// PutIfAbsent stores a copy of record, failing with
// authcore.ErrRecordExists when the userId is taken. The email index is
// appended unconditionally; uniqueness is the caller's concern.
func (s *Store) PutIfAbsent(_ context.Context, record *authcore.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.UserID]; ok {
		return authcore.ErrRecordExists
	}
	s.records[record.UserID] = record.Clone()
	s.byEmail[record.Email] = append(s.byEmail[record.Email], record.UserID)
	return nil
}

// UpdateIfExists applies the mutation to a copy of the current record
// and installs the result, all under the store mutex. The closure's
// error aborts the update and is returned unchanged. Updates never
// create records.
func (s *Store) UpdateIfExists(_ context.Context, userID string, apply func(*authcore.CredentialRecord) error) (*authcore.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[userID]
	if !ok {
		return nil, authcore.ErrRecordNotFound
	}

	next := current.Clone()
	if err := apply(next); err != nil {
		return nil, err
	}
	s.records[userID] = next
	return next.Clone(), nil
}

// QueryByEmail resolves the email secondary index to record copies.
func (s *Store) QueryByEmail(_ context.Context, email string) ([]*authcore.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byEmail[email]
	out := make([]*authcore.CredentialRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}
