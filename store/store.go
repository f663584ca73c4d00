// Package store provides keyed, filtered CRUD access to the record tables
// used by the contract pipeline. The production implementation speaks the
// Supabase (PostgREST) REST dialect; an in-memory implementation backs tests
// and credential-less development.
package store

import (
	"context"
	"errors"
)

// ErrNoRows is returned by Update when the target row does not exist.
var ErrNoRows = errors.New("store: no matching rows")

// Filter is an exact-match equality conjunction over column values.
type Filter map[string]string

// QueryOptions controls pagination and ordering for Select.
type QueryOptions struct {
	Limit      int
	Offset     int
	OrderBy    string
	Descending bool
}

// Store is the record store consumed by services. dest, where accepted, is a
// pointer the result rows are JSON-decoded into: a slice pointer for Select,
// a struct pointer (or nil to discard) elsewhere.
type Store interface {
	Insert(ctx context.Context, table string, record, dest any) error
	Select(ctx context.Context, table string, filter Filter, opts *QueryOptions, dest any) error
	Update(ctx context.Context, table, id string, patch, dest any) error
	Delete(ctx context.Context, table, id string) error
	Upsert(ctx context.Context, table, conflictColumn string, record, dest any) error
}
