package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cardiology.json", `[
		{"topic":"cardiology","title":"  Statins in the elderly ","abstract":"We reviewed..."},
		{"topic":"cardiology","title":"","abstract":"   "},
		{"title":null,"abstract":"Only an abstract."},
		{"topic":"cardiology"}
	]`)

	docs, err := NewDocumentSource().Load(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, domain.Document{
		ID:       "cardiology_000000",
		Title:    "Statins in the elderly",
		Abstract: "We reviewed...",
	}, docs[0])
	assert.Equal(t, "cardiology_000002", docs[1].ID, "positions count dropped records")
	assert.Empty(t, docs[1].Title)
}

func TestLoad_EmptyArray(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.json", `[]`)

	docs, err := NewDocumentSource().Load(context.Background(), path)

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := NewDocumentSource().Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))

	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"object instead of array", `{"title":"x"}`},
		{"array of strings", `["a","b"]`},
		{"truncated", `[{"title":"x"}`},
		{"wrong field type", `[{"title":42}]`},
		{"empty file", ``},
		{"trailing data", `[] []`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.json", tt.content)

			_, err := NewDocumentSource().Load(context.Background(), path)

			assert.ErrorIs(t, err, domain.ErrMalformedSource)
		})
	}
}

func TestLoad_Cancelled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "t.json", `[{"title":"x"}]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDocumentSource().Load(ctx, path)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "neurology.json", `[]`)
	writeFile(t, dir, "cardiology.json", `[]`)
	writeFile(t, dir, "notes.txt", `ignored`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	sources, err := NewDocumentSource().List(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "cardiology.json"),
		filepath.Join(dir, "neurology.json"),
	}, sources)
}

func TestList_MissingDir(t *testing.T) {
	_, err := NewDocumentSource().List(context.Background(), filepath.Join(t.TempDir(), "nope"))

	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}
