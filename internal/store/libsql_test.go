package store

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrajende/vdmlio/pkg/schema"
)

func newTestStore(t *testing.T) *LibSQLStore {
	t.Helper()
	s, err := NewLibSQLStore("file:" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedDocument(t *testing.T, s *LibSQLStore, name string) *Document {
	t.Helper()
	d, err := s.EnsureDocument(context.Background(), name)
	require.NoError(t, err)
	return d
}

// --- Documents ---

func TestCreateAndGetDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := &Document{Name: "orders.vdml", TargetNamespace: "http://vdmlio.dev/orders"}
	require.NoError(t, s.CreateDocument(ctx, d))
	require.NotEmpty(t, d.ID)

	got, err := s.GetDocument(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "orders.vdml", got.Name)
	assert.Equal(t, "http://vdmlio.dev/orders", got.TargetNamespace)

	byName, err := s.GetDocumentByName(ctx, "orders.vdml")
	require.NoError(t, err)
	assert.Equal(t, d.ID, byName.ID)
}

func TestCreateDocument_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, "dup.vdml")

	tests := []struct {
		name string
		doc  *Document
		code string
	}{
		{"missing name", &Document{}, schema.ErrCodeValidation},
		{"duplicate name", &Document{Name: "dup.vdml"}, schema.ErrCodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateDocument(ctx, tt.doc)
			require.Error(t, err)
			assert.True(t, schema.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetDocument(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeNotFound, schema.CodeOf(err))
}

func TestEnsureDocument_Idempotent(t *testing.T) {
	s := newTestStore(t)
	a := seedDocument(t, s, "a.vdml")
	b := seedDocument(t, s, "a.vdml")
	assert.Equal(t, a.ID, b.ID)

	docs, err := s.ListDocuments(context.Background(), DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestListDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.vdml", "b.vdml", "c.vdml"} {
		at := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.CreateDocument(ctx, &Document{Name: name, CreatedAt: at, UpdatedAt: at}))
	}

	docs, err := s.ListDocuments(ctx, DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "c.vdml", docs[0].Name)

	since := base.Add(90 * time.Minute)
	docs, err = s.ListDocuments(ctx, DocumentFilter{Since: &since})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "c.vdml", docs[0].Name)

	docs, err = s.ListDocuments(ctx, DocumentFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b.vdml", docs[0].Name)
}

func TestDeleteDocument_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := seedDocument(t, s, "gone.vdml")
	require.NoError(t, s.SaveRevision(ctx, &Revision{DocumentID: d.ID, XML: "<a/>"}))
	require.NoError(t, s.AppendEntry(ctx, &JournalEntry{DocumentID: d.ID, Kind: "save"}))

	require.NoError(t, s.DeleteDocument(ctx, d.ID))
	_, err := s.GetDocument(ctx, d.ID)
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))
	_, err = s.LatestRevision(ctx, d.ID)
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))

	err = s.DeleteDocument(ctx, d.ID)
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))
}

// --- Revisions ---

func TestSaveRevision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := seedDocument(t, s, "orders.vdml")

	first := &Revision{DocumentID: d.ID, XML: "<definitions/>", Warnings: 2}
	require.NoError(t, s.SaveRevision(ctx, first))
	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, Checksum("<definitions/>"), first.Checksum)

	same := &Revision{DocumentID: d.ID, XML: "<definitions/>"}
	require.NoError(t, s.SaveRevision(ctx, same))
	assert.Equal(t, int64(1), same.Number, "identical XML is not stored twice")

	second := &Revision{DocumentID: d.ID, XML: "<definitions id=\"x\"/>"}
	require.NoError(t, s.SaveRevision(ctx, second))
	assert.Equal(t, int64(2), second.Number)

	latest, err := s.LatestRevision(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.Number)
	assert.Equal(t, second.XML, latest.XML)

	got, err := s.GetRevision(ctx, d.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Warnings)

	revs, err := s.ListRevisions(ctx, d.ID, 0)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, int64(2), revs[0].Number)

	_, err = s.GetRevision(ctx, d.ID, 9)
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))
}

func TestSaveRevision_UnknownDocument(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveRevision(context.Background(), &Revision{DocumentID: "missing", XML: "<a/>"})
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound), "got %v", err)
}

// --- Maintenance ---

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestVacuum(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Vacuum(context.Background()))
}

func TestStatements(t *testing.T) {
	script := "-- header\nCREATE TABLE a (x INT);\n\n-- only a comment;\nCREATE INDEX i ON a(x);"
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a(x)"}, statements(script))
}

func TestLoadMigrations(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		want    []int
		wantErr string
	}{
		{
			name: "sorted by version",
			files: fstest.MapFS{
				"migrations/010_later.sql":  {Data: []byte("SELECT 1;")},
				"migrations/002_second.sql": {Data: []byte("SELECT 1;")},
			},
			want: []int{2, 10},
		},
		{
			name:    "bad name",
			files:   fstest.MapFS{"migrations/first.sql": {Data: []byte("SELECT 1;")}},
			wantErr: "NNN_name.sql",
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"migrations/001_a.sql": {Data: []byte("SELECT 1;")},
				"migrations/01_b.sql":  {Data: []byte("SELECT 1;")},
			},
			wantErr: "appears twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadMigrations(tt.files)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			var versions []int
			for _, m := range got {
				versions = append(versions, m.version)
			}
			assert.Equal(t, tt.want, versions)
		})
	}

	embedded, err := loadMigrations(migrationFiles)
	require.NoError(t, err)
	require.NotEmpty(t, embedded)
	assert.Equal(t, "initial_schema", embedded[0].name)
}
