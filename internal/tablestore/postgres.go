package tablestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"creatorstribe/internal/ids"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore keeps every table in table_records, one jsonb document per
// record. _uid/_id/_tid live in their own columns.
type PostgresStore struct {
	db           DB
	defaultOwner string
}

func NewPostgresStore(db DB, defaultOwner string) *PostgresStore {
	return &PostgresStore{db: db, defaultOwner: defaultOwner}
}

func (s *PostgresStore) Query(ctx context.Context, table string, opts QueryOptions) (Page, error) {
	opts, err := normalize(opts)
	if err != nil {
		return Page{}, err
	}
	after, err := decodeCursor(opts.Cursor)
	if err != nil {
		return Page{}, err
	}

	query, args, err := buildQuery(table, opts, after)
	if err != nil {
		return Page{}, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	items := make([]Record, 0, opts.Limit)
	for rows.Next() {
		var (
			uid, id, tid string
			data         []byte
		)
		if err := rows.Scan(&uid, &id, &tid, &data); err != nil {
			return Page{}, fmt.Errorf("scan %s: %w", table, err)
		}
		record := Record{}
		if err := json.Unmarshal(data, &record); err != nil {
			return Page{}, fmt.Errorf("decode %s/%s: %w", table, id, err)
		}
		record[FieldUID] = uid
		record[FieldID] = id
		record[FieldTID] = tid
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	page := Page{Items: items}
	if len(items) > opts.Limit {
		page.Items = items[:opts.Limit]
		page.NextCursor = encodeCursor(page.Items[opts.Limit-1].Key().ID)
	}
	return page, nil
}

func buildQuery(table string, opts QueryOptions, after string) (string, []any, error) {
	var (
		where = []string{"table_id = $1"}
		args  = []any{table}
		doc   = map[string]any{}
	)

	for field, value := range opts.Filter {
		switch field {
		case FieldUID:
			args = append(args, fmt.Sprint(value))
			where = append(where, fmt.Sprintf("uid = $%d", len(args)))
		case FieldID:
			args = append(args, fmt.Sprint(value))
			where = append(where, fmt.Sprintf("id = $%d", len(args)))
		case FieldTID:
			args = append(args, fmt.Sprint(value))
			where = append(where, fmt.Sprintf("tid = $%d", len(args)))
		default:
			doc[field] = value
		}
	}
	if len(doc) > 0 {
		encoded, err := json.Marshal(doc)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter: %w", err)
		}
		args = append(args, string(encoded))
		where = append(where, fmt.Sprintf("data @> $%d::jsonb", len(args)))
	}

	direction := "DESC"
	cmp := "<"
	if opts.Order == OrderAsc {
		direction = "ASC"
		cmp = ">"
	}
	if after != "" {
		args = append(args, after)
		where = append(where, fmt.Sprintf("id %s $%d", cmp, len(args)))
	}

	args = append(args, opts.Limit+1)
	query := fmt.Sprintf(`
		SELECT uid, id, tid, data
		FROM table_records
		WHERE %s
		ORDER BY id %s
		LIMIT $%d
	`, strings.Join(where, " AND "), direction, len(args))

	return query, args, nil
}

func (s *PostgresStore) Insert(ctx context.Context, table string, record Record) (Key, error) {
	key := Key{UID: ownerFrom(ctx, s.defaultOwner), ID: ids.New()}
	if key.UID == "" {
		return Key{}, fmt.Errorf("insert into %s: owner required", table)
	}

	data, err := json.Marshal(userFields(record))
	if err != nil {
		return Key{}, fmt.Errorf("encode record: %w", err)
	}

	const query = `
		INSERT INTO table_records (table_id, uid, id, tid, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	if _, err := s.db.Exec(ctx, query, table, key.UID, key.ID, ids.New(), data); err != nil {
		return Key{}, fmt.Errorf("insert into %s: %w", table, err)
	}
	return key, nil
}

func (s *PostgresStore) Replace(ctx context.Context, table string, record Record) error {
	key := record.Key()
	if !key.Valid() {
		return ErrMissingKey
	}

	data, err := json.Marshal(userFields(record))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	const query = `
		UPDATE table_records
		SET data = $4, tid = $5, updated_at = NOW()
		WHERE table_id = $1 AND uid = $2 AND id = $3
	`
	cmd, err := s.db.Exec(ctx, query, table, key.UID, key.ID, data, ids.New())
	if err != nil {
		return fmt.Errorf("replace in %s: %w", table, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, table string, key Key) error {
	if !key.Valid() {
		return ErrMissingKey
	}
	const query = `DELETE FROM table_records WHERE table_id = $1 AND uid = $2 AND id = $3`
	if _, err := s.db.Exec(ctx, query, table, key.UID, key.ID); err != nil {
		return fmt.Errorf("remove from %s: %w", table, err)
	}
	return nil
}
