package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/mrajende/vdmlio/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/vdmlio.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "open libsql").WithCause(err)
	}
	db.SetMaxOpenConns(1)

	// Some PRAGMAs return rows so QueryRow is used for all of them.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Documents ---

func (s *LibSQLStore) CreateDocument(ctx context.Context, doc *Document) error {
	if doc.Name == "" {
		return schema.NewError(schema.ErrCodeValidation, "document name is required")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.CreatedAt = timeOrNow(doc.CreatedAt)
	doc.UpdatedAt = timeOrNow(doc.UpdatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, target_namespace, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, nullStr(doc.TargetNamespace), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return schema.NewErrorf(schema.ErrCodeConflict, "document %q already exists", doc.Name).WithCause(err)
	}
	return err
}

const documentColumns = `id, name, target_namespace, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*Document, error) {
	d := &Document{}
	var ns sql.NullString
	if err := row.Scan(&d.ID, &d.Name, &ns, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.TargetNamespace = ns.String
	return d, nil
}

func (s *LibSQLStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeNotFound("document", id)
	}
	return d, err
}

func (s *LibSQLStore) GetDocumentByName(ctx context.Context, name string) (*Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeNotFound("document", name)
	}
	return d, err
}

// EnsureDocument returns the document called name, creating it first when
// it does not exist.
func (s *LibSQLStore) EnsureDocument(ctx context.Context, name string) (*Document, error) {
	d, err := s.GetDocumentByName(ctx, name)
	if err == nil {
		return d, nil
	}
	if !schema.IsCode(err, schema.ErrCodeNotFound) {
		return nil, err
	}
	d = &Document{Name: name}
	if err := s.CreateDocument(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *LibSQLStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var args []any
	if filter.Since != nil {
		query += " WHERE updated_at >= ?"
		args = append(args, *filter.Since)
	}
	query += " ORDER BY updated_at DESC, name"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *LibSQLStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "document", id)
}

// --- Revisions ---

// SaveRevision stores rev as the next revision of its document. Saving XML
// identical to the latest revision stores nothing and sets rev.Number to
// the latest number.
func (s *LibSQLStore) SaveRevision(ctx context.Context, rev *Revision) error {
	rev.Checksum = Checksum(rev.XML)
	rev.CreatedAt = timeOrNow(rev.CreatedAt)

	tx, err := beginImmediate(ctx, s.db)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var latest int64
	var checksum sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT number, checksum FROM revisions WHERE document_id = ? ORDER BY number DESC LIMIT 1`, rev.DocumentID,
	).Scan(&latest, &checksum)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read latest revision: %w", err)
	}
	if checksum.Valid && checksum.String == rev.Checksum {
		rev.Number = latest
		return nil
	}
	rev.Number = latest + 1

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO revisions (document_id, number, xml, checksum, warnings, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rev.DocumentID, rev.Number, rev.XML, rev.Checksum, rev.Warnings, rev.CreatedAt,
	); err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return storeNotFound("document", rev.DocumentID)
		}
		return fmt.Errorf("insert revision: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET updated_at = ? WHERE id = ?`, rev.CreatedAt, rev.DocumentID,
	); err != nil {
		return fmt.Errorf("touch document: %w", err)
	}
	return tx.Commit()
}

const revisionColumns = `document_id, number, xml, checksum, warnings, created_at`

func scanRevision(row interface{ Scan(...any) error }) (*Revision, error) {
	r := &Revision{}
	err := row.Scan(&r.DocumentID, &r.Number, &r.XML, &r.Checksum, &r.Warnings, &r.CreatedAt)
	return r, err
}

func (s *LibSQLStore) GetRevision(ctx context.Context, documentID string, number int64) (*Revision, error) {
	r, err := scanRevision(s.db.QueryRowContext(ctx,
		`SELECT `+revisionColumns+` FROM revisions WHERE document_id = ? AND number = ?`, documentID, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeNotFound("revision", fmt.Sprintf("%s#%d", documentID, number))
	}
	return r, err
}

func (s *LibSQLStore) LatestRevision(ctx context.Context, documentID string) (*Revision, error) {
	r, err := scanRevision(s.db.QueryRowContext(ctx,
		`SELECT `+revisionColumns+` FROM revisions WHERE document_id = ? ORDER BY number DESC LIMIT 1`, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeNotFound("revision", documentID)
	}
	return r, err
}

// ListRevisions returns the revisions of a document, newest first.
func (s *LibSQLStore) ListRevisions(ctx context.Context, documentID string, limit int) ([]*Revision, error) {
	query := `SELECT ` + revisionColumns + ` FROM revisions WHERE document_id = ? ORDER BY number DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []*Revision
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// --- Journal ---

// AppendEntry appends entry with the next per-document sequence number.
func (s *LibSQLStore) AppendEntry(ctx context.Context, entry *JournalEntry) error {
	tx, err := beginImmediate(ctx, s.db)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM journal WHERE document_id = ?`, entry.DocumentID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("get next sequence: %w", err)
	}
	entry.Sequence = seq
	entry.Timestamp = timeOrNow(entry.Timestamp)

	ids, err := nullableIDs(entry.ElementIDs)
	if err != nil {
		return fmt.Errorf("marshal element ids: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO journal (document_id, kind, command, element_ids, warnings, timestamp, sequence)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.DocumentID, entry.Kind, nullStr(entry.Command), ids, entry.Warnings, entry.Timestamp, seq,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return storeNotFound("document", entry.DocumentID)
		}
		return fmt.Errorf("insert journal entry: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal entry: %w", err)
	}
	return nil
}

func (s *LibSQLStore) GetEntries(ctx context.Context, documentID string, filter JournalFilter) ([]*JournalEntry, error) {
	where := []string{"document_id = ?", "sequence > ?"}
	args := []any{documentID, filter.AfterSequence}
	if len(filter.Kinds) > 0 {
		where = append(where, "kind IN (?"+strings.Repeat(", ?", len(filter.Kinds)-1)+")")
		for _, k := range filter.Kinds {
			args = append(args, k)
		}
	}

	query := `SELECT id, document_id, kind, command, element_ids, warnings, timestamp, sequence FROM journal WHERE ` +
		strings.Join(where, " AND ") + " ORDER BY sequence ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*JournalEntry
	for rows.Next() {
		e := &JournalEntry{}
		var command, ids sql.NullString
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Kind, &command, &ids, &e.Warnings, &e.Timestamp, &e.Sequence); err != nil {
			return nil, err
		}
		e.Command = command.String
		if ids.Valid && ids.String != "" {
			if err := json.Unmarshal([]byte(ids.String), &e.ElementIDs); err != nil {
				return nil, fmt.Errorf("unmarshal element ids: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Helpers ---

// beginImmediate starts a transaction and takes the write lock right away,
// so that reading the next sequence number and inserting it cannot
// interleave with another writer. In WAL mode BeginTx alone starts a
// deferred transaction.
func beginImmediate(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version, name) VALUES (-1, '_lock_noop')`); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("acquire write lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version WHERE version = -1`); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("cleanup write lock: %w", err)
	}
	return tx, nil
}

// Checksum returns the hex SHA-256 of xml.
func Checksum(xml string) string {
	sum := sha256.Sum256([]byte(xml))
	return hex.EncodeToString(sum[:])
}

func storeNotFound(resource, id string) *schema.VdmlError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableIDs(ids []string) (any, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

var _ Store = (*LibSQLStore)(nil)
