package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and by credential-less
// development runs. Rows are held as decoded JSON objects per table so that
// the same record structs work against it and the Supabase client.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string][]map[string]any),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, table string, record, dest any) error {
	row, err := toRow(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if id, _ := row["id"].(string); id == "" {
		row["id"] = uuid.New().String()
	}
	if created, _ := row["created_at"].(string); created == "" {
		row["created_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	s.tables[table] = append(s.tables[table], row)
	s.mu.Unlock()

	return decodeRow(row, dest)
}

func (s *MemoryStore) Select(ctx context.Context, table string, filter Filter, opts *QueryOptions, dest any) error {
	// Matched rows alias the stored maps, so the lock is held until they are
	// encoded; concurrent Update/Upsert writes into those same maps.
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []map[string]any
	for _, row := range s.tables[table] {
		if rowMatches(row, filter) {
			matched = append(matched, row)
		}
	}

	if opts != nil && opts.OrderBy != "" {
		col := opts.OrderBy
		desc := opts.Descending
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := fmt.Sprint(matched[i][col]), fmt.Sprint(matched[j][col])
			if desc {
				return a > b
			}
			return a < b
		})
	}
	if opts != nil && opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[opts.Offset:]
		}
	}
	if opts != nil && opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	if dest == nil {
		return nil
	}
	if matched == nil {
		matched = []map[string]any{}
	}
	data, err := json.Marshal(matched)
	if err != nil {
		return fmt.Errorf("failed to encode %s rows: %w", table, err)
	}
	return json.Unmarshal(data, dest)
}

func (s *MemoryStore) Update(ctx context.Context, table, id string, patch, dest any) error {
	patchRow, err := toRow(patch)
	if err != nil {
		return err
	}

	s.mu.Lock()
	var updated map[string]any
	for _, row := range s.tables[table] {
		if fmt.Sprint(row["id"]) == id {
			for k, v := range patchRow {
				if v == nil {
					delete(row, k)
					continue
				}
				row[k] = v
			}
			updated = row
			break
		}
	}
	s.mu.Unlock()

	if updated == nil {
		return ErrNoRows
	}
	return decodeRow(updated, dest)
}

func (s *MemoryStore) Delete(ctx context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[table]
	for i, row := range rows {
		if fmt.Sprint(row["id"]) == id {
			s.tables[table] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, table, conflictColumn string, record, dest any) error {
	row, err := toRow(record)
	if err != nil {
		return err
	}
	key := fmt.Sprint(row[conflictColumn])

	s.mu.Lock()
	var stored map[string]any
	for _, existing := range s.tables[table] {
		if fmt.Sprint(existing[conflictColumn]) == key {
			for k, v := range row {
				if k == "id" || k == "created_at" {
					continue
				}
				existing[k] = v
			}
			stored = existing
			break
		}
	}
	if stored == nil {
		if id, _ := row["id"].(string); id == "" {
			row["id"] = uuid.New().String()
		}
		if created, _ := row["created_at"].(string); created == "" {
			row["created_at"] = time.Now().UTC().Format(time.RFC3339)
		}
		s.tables[table] = append(s.tables[table], row)
		stored = row
	}
	s.mu.Unlock()

	return decodeRow(stored, dest)
}

// Count returns the number of rows in a table.
func (s *MemoryStore) Count(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

func rowMatches(row map[string]any, filter Filter) bool {
	for col, want := range filter {
		if fmt.Sprint(row[col]) != want {
			return false
		}
	}
	return true
}

func toRow(record any) (map[string]any, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	return row, nil
}

func decodeRow(row map[string]any, dest any) error {
	if dest == nil {
		return nil
	}
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	return json.Unmarshal(data, dest)
}
