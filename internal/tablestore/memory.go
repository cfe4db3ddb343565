package tablestore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"creatorstribe/internal/ids"
)

// MemoryStore keeps tables in process. It backs tests and the "memory" table
// driver used for local development.
type MemoryStore struct {
	mu           sync.RWMutex
	tables       map[string]map[Key]Record
	defaultOwner string

	// NewID and NewTID are swappable so tests can pin insertion order.
	NewID  func() string
	NewTID func() string
}

func NewMemoryStore(defaultOwner string) *MemoryStore {
	return &MemoryStore{
		tables:       make(map[string]map[Key]Record),
		defaultOwner: defaultOwner,
		NewID:        ids.New,
		NewTID:       ids.New,
	}
}

func (s *MemoryStore) Query(ctx context.Context, table string, opts QueryOptions) (Page, error) {
	opts, err := normalize(opts)
	if err != nil {
		return Page{}, err
	}
	after, err := decodeCursor(opts.Cursor)
	if err != nil {
		return Page{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Record, 0)
	for key, record := range s.tables[table] {
		if after != "" {
			if opts.Order == OrderDesc && key.ID >= after {
				continue
			}
			if opts.Order == OrderAsc && key.ID <= after {
				continue
			}
		}
		if !matches(record, opts.Filter) {
			continue
		}
		matched = append(matched, record)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].Key().ID, matched[j].Key().ID
		if opts.Order == OrderAsc {
			return a < b
		}
		return a > b
	})

	page := Page{}
	if len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
		page.NextCursor = encodeCursor(matched[len(matched)-1].Key().ID)
	}
	page.Items = make([]Record, 0, len(matched))
	for _, record := range matched {
		page.Items = append(page.Items, clone(record))
	}
	return page, nil
}

func (s *MemoryStore) Insert(ctx context.Context, table string, record Record) (Key, error) {
	key := Key{UID: ownerFrom(ctx, s.defaultOwner), ID: s.NewID()}
	if key.UID == "" {
		return Key{}, fmt.Errorf("insert into %s: owner required", table)
	}

	stored := userFields(record)
	stored[FieldUID] = key.UID
	stored[FieldID] = key.ID
	stored[FieldTID] = s.NewTID()

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		rows = make(map[Key]Record)
		s.tables[table] = rows
	}
	rows[key] = stored
	return key, nil
}

func (s *MemoryStore) Replace(ctx context.Context, table string, record Record) error {
	key := record.Key()
	if !key.Valid() {
		return ErrMissingKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[table]
	if _, ok := rows[key]; !ok {
		return ErrNotFound
	}

	stored := userFields(record)
	stored[FieldUID] = key.UID
	stored[FieldID] = key.ID
	stored[FieldTID] = s.NewTID()
	rows[key] = stored
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, table string, key Key) error {
	if !key.Valid() {
		return ErrMissingKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables[table], key)
	return nil
}

func matches(record Record, filter map[string]any) bool {
	for field, want := range filter {
		got, ok := record[field]
		if !ok {
			return false
		}
		if !equalValues(got, want) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func clone(record Record) Record {
	out := make(Record, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}
