package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/internal/providers/rag"
	"github.com/sandevgo/teambot/pkg/retry"
)

type paragraphSplitter struct{}

func (paragraphSplitter) Split(text string) []rag.Chunk {
	var chunks []rag.Chunk
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			chunks = append(chunks, rag.Chunk{Text: p, Index: len(chunks)})
		}
	}
	return chunks
}

type fakeStore struct {
	docs     []core.Document
	failures int
	calls    int
}

func (f *fakeStore) Upsert(ctx context.Context, docs []core.Document) error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("store unavailable")
	}
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeStore) SimilaritySearch(ctx context.Context, query string, k int) ([]core.Snippet, error) {
	return nil, nil
}

type fakeUploads struct {
	uploads []core.Upload
}

func (f *fakeUploads) RecordUpload(ctx context.Context, upload core.Upload) error {
	f.uploads = append(f.uploads, upload)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeUploads) {
	t.Helper()

	store := &fakeStore{}
	uploads := &fakeUploads{}
	s := NewService(store, uploads, paragraphSplitter{}, filepath.Join(t.TempDir(), "uploads"))
	s.retrier = retry.NewRetrier(&retry.Config{MaxRetries: 2, BackoffFactor: 1})

	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("doc-%d", n)
	}
	return s, store, uploads
}

func TestAddText(t *testing.T) {
	s, store, _ := newTestService(t)

	n, err := s.AddText(context.Background(), "Vacation is 20 days.\n\nOffice opens at 9.", "upd")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, store.docs, 2)
	assert.Equal(t, "doc-1", store.docs[0].ID)
	assert.Equal(t, "Office opens at 9.", store.docs[1].Text)
	assert.Equal(t, "upd", store.docs[1].Metadata[MetaSource])
	assert.Equal(t, 1, store.docs[1].Metadata[MetaChunk])
}

func TestAddText_Empty(t *testing.T) {
	s, store, _ := newTestService(t)

	_, err := s.AddText(context.Background(), "   ", "upd")
	assert.ErrorIs(t, err, ErrEmptyKnowledge)
	assert.Zero(t, store.calls)
}

func TestAddText_RetriesUpsert(t *testing.T) {
	s, store, _ := newTestService(t)
	store.failures = 2

	n, err := s.AddText(context.Background(), "fact", "upd")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, store.calls)
}

func TestAddText_GivesUp(t *testing.T) {
	s, store, _ := newTestService(t)
	store.failures = 10

	_, err := s.AddText(context.Background(), "fact", "upd")
	require.Error(t, err)
	assert.Equal(t, 3, store.calls)
	assert.Empty(t, store.docs)
}

func TestAddTable(t *testing.T) {
	s, store, _ := newTestService(t)

	rows := [][]string{
		{"How many vacation days?", "20"},
		{"", "orphan answer"},
		{"single column"},
		{" Where is the office? ", " Berlin "},
	}
	n, err := s.AddTable(context.Background(), rows, "faq.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "Q: Where is the office?\nA: Berlin", store.docs[1].Text)
	assert.Equal(t, "Berlin", store.docs[1].Metadata[MetaAnswer])
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name  string
		file  string
		body  string
		want  int
		check func(t *testing.T, docs []core.Document)
	}{
		{
			name: "markdown",
			file: "notes.md",
			body: "# Rules\n\nBe kind.",
			want: 2,
		},
		{
			name: "csv skips header",
			file: "faq.csv",
			body: "question,answer\nWho is the CTO?,Ann\n\"Lunch, when?\",13:00\n",
			want: 2,
			check: func(t *testing.T, docs []core.Document) {
				assert.Equal(t, "Lunch, when?", docs[1].Metadata[MetaQuestion])
			},
		},
		{
			name: "html",
			file: "page.html",
			body: "<html><body><p>Parking is free.</p></body></html>",
			want: 1,
			check: func(t *testing.T, docs []core.Document) {
				assert.Contains(t, docs[0].Text, "Parking is free.")
				assert.NotContains(t, docs[0].Text, "<p>")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store, _ := newTestService(t)

			n, err := s.ImportFile(context.Background(), write(tt.file, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, tt.file, store.docs[0].Metadata[MetaSource])
			if tt.check != nil {
				tt.check(t, store.docs)
			}
		})
	}
}

func TestImportFile_Unsupported(t *testing.T) {
	s, _, _ := newTestService(t)

	_, err := s.ImportFile(context.Background(), "report.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSaveUpload_CopySuffix(t *testing.T) {
	s, _, _ := newTestService(t)

	first, err := s.SaveUpload("handbook.txt", strings.NewReader("v1"))
	require.NoError(t, err)
	second, err := s.SaveUpload("../../handbook.txt", strings.NewReader("v2"))
	require.NoError(t, err)
	third, err := s.SaveUpload("handbook.txt", strings.NewReader("v3"))
	require.NoError(t, err)

	assert.Equal(t, "handbook.txt", filepath.Base(first))
	assert.Equal(t, "handbook_copy.txt", filepath.Base(second))
	assert.Equal(t, "handbook_copy_copy.txt", filepath.Base(third))
	assert.Equal(t, s.uploadsDir, filepath.Dir(second))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
}

func TestIngestUpload(t *testing.T) {
	s, store, uploads := newTestService(t)
	key := core.GroupKey(7, -100)

	n, err := s.IngestUpload(context.Background(), key, "rules.TXT", strings.NewReader("One.\n\nTwo."))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.docs, 2)

	require.Len(t, uploads.uploads, 1)
	assert.Equal(t, key, uploads.uploads[0].Key)
	assert.Equal(t, "rules.TXT", uploads.uploads[0].FileName)
	assert.Equal(t, "txt", uploads.uploads[0].FileType)
}

func TestIngestUpload_Unsupported(t *testing.T) {
	s, _, uploads := newTestService(t)

	_, err := s.IngestUpload(context.Background(), core.DirectKey(1), "photo.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, uploads.uploads)

	_, statErr := os.Stat(filepath.Join(s.uploadsDir, "photo.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}

type fakeImporter struct {
	fail map[string]bool
	seen []string
}

func (f *fakeImporter) ImportFile(ctx context.Context, path string) (int, error) {
	name := filepath.Base(path)
	f.seen = append(f.seen, name)
	if f.fail[name] {
		return 0, ErrUnsupportedFormat
	}
	return 1, nil
}

func TestInboxWorker_ProcessInbox(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{InboxImportedDir, InboxFailedDir} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.pdf"), []byte("x"), 0o644))

	importer := &fakeImporter{fail: map[string]bool{"bad.pdf": true}}
	w := NewInboxWorker(importer, dir)

	require.NoError(t, w.processInbox(context.Background()))
	assert.ElementsMatch(t, []string{"good.txt", "bad.pdf"}, importer.seen)

	assert.FileExists(t, filepath.Join(dir, InboxImportedDir, "good.txt"))
	assert.FileExists(t, filepath.Join(dir, InboxFailedDir, "bad.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "good.txt"))
}
