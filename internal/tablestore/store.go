// Package tablestore is the client side of the hosted table service: flat
// records addressed by an (owner, id) compound key, queried with a single
// equality filter, sorted and paginated with an opaque cursor.
package tablestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	FieldUID = "_uid"
	FieldID  = "_id"
	FieldTID = "_tid"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidCursor   = errors.New("invalid cursor")
	ErrUnsupportedSort = errors.New("unsupported sort field")
	ErrMissingKey      = errors.New("record key requires _uid and _id")
)

// Record is a stored row: user fields plus the store-managed _uid, _id and _tid.
type Record map[string]any

func (r Record) Key() Key {
	uid, _ := r[FieldUID].(string)
	id, _ := r[FieldID].(string)
	return Key{UID: uid, ID: id}
}

type Key struct {
	UID string
	ID  string
}

func (k Key) Valid() bool {
	return k.UID != "" && k.ID != ""
}

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

type QueryOptions struct {
	// Filter is an equality match. Callers send at most one user field; the
	// compound key lookup sends _uid and _id together.
	Filter map[string]any
	Sort   string
	Order  Order
	Limit  int
	Cursor string
}

type Page struct {
	Items      []Record
	NextCursor string
}

type Store interface {
	Query(ctx context.Context, table string, opts QueryOptions) (Page, error)
	Insert(ctx context.Context, table string, record Record) (Key, error)
	Replace(ctx context.Context, table string, record Record) error
	Remove(ctx context.Context, table string, key Key) error
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

func normalize(opts QueryOptions) (QueryOptions, error) {
	if opts.Sort == "" {
		opts.Sort = FieldID
	}
	if opts.Sort != FieldID {
		return opts, fmt.Errorf("%w: %s", ErrUnsupportedSort, opts.Sort)
	}
	if opts.Order != OrderAsc {
		opts.Order = OrderDesc
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}
	return opts, nil
}

func encodeCursor(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func decodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(raw) == 0 {
		return "", ErrInvalidCursor
	}
	return string(raw), nil
}

type ownerKey struct{}

// WithOwner attaches the owner id the store stamps on inserted records.
func WithOwner(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ownerKey{}, uid)
}

func ownerFrom(ctx context.Context, fallback string) string {
	if uid, ok := ctx.Value(ownerKey{}).(string); ok && uid != "" {
		return uid
	}
	return fallback
}

// userFields strips the store-managed fields from a record.
func userFields(record Record) Record {
	out := make(Record, len(record))
	for k, v := range record {
		switch k {
		case FieldUID, FieldID, FieldTID:
			continue
		}
		out[k] = v
	}
	return out
}
