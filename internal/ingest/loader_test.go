package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryLoaderSplitsPages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("page one\fpage two\fpage three"), 0o644))

	docs, err := DirectoryLoader{Dir: dir}.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 3)
	for i, doc := range docs {
		assert.Equal(t, path, doc.Source)
		assert.Equal(t, i, doc.Page)
	}
	assert.Equal(t, "page two", docs[1].Text)
}

func TestDirectoryLoaderPlainFileSinglePage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))

	docs, err := DirectoryLoader{Dir: dir}.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, 0, docs[0].Page)
	assert.Equal(t, "hello", docs[0].Text)
}

func TestDirectoryLoaderEmptyDirFails(t *testing.T) {
	_, err := DirectoryLoader{Dir: t.TempDir()}.Load(context.Background())
	assert.Error(t, err)
}

func TestWebLoaderStripsMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><style>p{color:red}</style></head><body><p>visible text</p><script>alert(1)</script></body></html>`))
	}))
	defer srv.Close()

	docs, err := WebLoader{URL: srv.URL, Client: srv.Client()}.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, srv.URL, docs[0].Source)
	assert.Equal(t, 0, docs[0].Page)
	assert.Contains(t, docs[0].Text, "visible text")
	assert.NotContains(t, docs[0].Text, "alert")
	assert.NotContains(t, docs[0].Text, "color:red")
}

func TestWebLoaderNon200Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := WebLoader{URL: srv.URL, Client: srv.Client()}.Load(context.Background())
	assert.Error(t, err)
}
