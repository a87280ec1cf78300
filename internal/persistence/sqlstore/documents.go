package sqlstore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/persistence/docstore"
)

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type documentRow struct {
	Collection string `db:"collection"`
	ID         string `db:"id"`
	Data       string `db:"data"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

func (r documentRow) toDocument() (persistence.Document, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return persistence.Document{}, fmt.Errorf("sqlstore: parse created_at: %w", err)
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return persistence.Document{}, fmt.Errorf("sqlstore: parse updated_at: %w", err)
	}
	return persistence.Document{
		Collection: r.Collection,
		ID:         r.ID,
		Data:       []byte(r.Data),
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

// DocumentStore implements persistence.DocumentStore on the documents table.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a document store on an open database.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Get retrieves a document by id.
func (s *DocumentStore) Get(ctx context.Context, collection, id string) (persistence.Document, error) {
	query := s.db.db.Rebind(`
		SELECT collection, id, data, created_at, updated_at
		FROM documents
		WHERE collection = ? AND id = ?
	`)

	var row documentRow
	if err := s.db.db.GetContext(ctx, &row, query, collection, id); err != nil {
		return persistence.Document{}, mapError(err)
	}
	return row.toDocument()
}

// List returns the documents of a collection ordered by creation time.
func (s *DocumentStore) List(ctx context.Context, collection string, filter *persistence.Filter) ([]persistence.Document, error) {
	query := `
		SELECT collection, id, data, created_at, updated_at
		FROM documents
		WHERE collection = ?`
	args := []any{collection}

	if filter != nil {
		if !fieldNamePattern.MatchString(filter.Field) {
			return nil, fmt.Errorf("sqlstore: invalid filter field %q", filter.Field)
		}
		query += " AND " + s.db.dialect.fieldEquals
		args = append(args, s.db.dialect.fieldPath(filter.Field), filter.Value)
	}
	query += " ORDER BY created_at, id"

	var rows []documentRow
	if err := s.db.db.SelectContext(ctx, &rows, s.db.db.Rebind(query), args...); err != nil {
		return nil, mapError(err)
	}

	docs := make([]persistence.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Create inserts a new document, generating an id when none is supplied.
func (s *DocumentStore) Create(ctx context.Context, collection, id string, data []byte, at time.Time) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	stamp := formatTime(at)

	query := s.db.db.Rebind(`
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if _, err := s.db.db.ExecContext(ctx, query, collection, id, string(data), stamp, stamp); err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// Update merges partial into the stored document inside a transaction.
func (s *DocumentStore) Update(ctx context.Context, collection, id string, partial []byte, at time.Time) error {
	return s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		selectQuery := tx.Rebind(`SELECT data FROM documents WHERE collection = ? AND id = ?` + s.db.dialect.lockForUpdate)

		var current string
		if err := tx.GetContext(ctx, &current, selectQuery, collection, id); err != nil {
			return mapError(err)
		}

		merged, err := docstore.MergeFields([]byte(current), partial)
		if err != nil {
			return err
		}

		updateQuery := tx.Rebind(`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`)
		if _, err := tx.ExecContext(ctx, updateQuery, string(merged), formatTime(at), collection, id); err != nil {
			return mapError(err)
		}
		return nil
	})
}

// Delete removes a document.
func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	query := s.db.db.Rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`)
	result, err := s.db.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Parse(time.RFC3339Nano, value)
	}
	return t, nil
}

func parseTimePtr(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseTime(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
