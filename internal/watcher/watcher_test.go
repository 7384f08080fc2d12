package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"semsearch/internal/chunker"
	"semsearch/internal/domain"
	"semsearch/internal/embedding/hash"
	"semsearch/internal/service"
	"semsearch/internal/vectorstore/memory"
)

func setup(t *testing.T) (string, *Watcher, *service.IngestService, domain.VectorIndex) {
	t.Helper()
	root := t.TempDir()
	emb := hash.NewEmbedder(64)
	idx, err := memory.NewIndex(64)
	require.NoError(t, err)
	ing := service.NewIngestService(chunker.NewWindowChunker(64, 0.1), emb, idx, 16, 2, zap.NewNop())
	t.Cleanup(ing.Close)
	return root, New(root, ing, idx, zap.NewNop()), ing, idx
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSyncIngestsSupportedFiles(t *testing.T) {
	root, w, _, idx := setup(t)
	write(t, filepath.Join(root, "a.md"), "# Heading\nsome markdown body")
	write(t, filepath.Join(root, "sub", "b.txt"), "a plain note")
	write(t, filepath.Join(root, "image.png"), "not text")

	require.NoError(t, w.Sync(context.Background()))
	assert.Equal(t, 2, idx.Len(), "one chunk per small file, png skipped")
}

func TestWriteEventReingestsFile(t *testing.T) {
	root, w, _, idx := setup(t)
	path := filepath.Join(root, "note.txt")
	write(t, path, "first version")
	require.NoError(t, w.Sync(context.Background()))
	require.Equal(t, 1, idx.Len())

	write(t, path, "second version with considerably more text than before, spilling over one chunk")
	w.handleEvent(context.Background(), noopAdder{}, fsnotify.Event{Name: path, Op: fsnotify.Write})

	matches, err := idx.Search(context.Background(), mustEmbed(t, "second version"), 10, domain.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.Equal(t, service.DocumentID(path), m.Chunk.DocumentID)
	}
}

func TestRemoveEventRetiresChunks(t *testing.T) {
	root, w, _, idx := setup(t)
	path := filepath.Join(root, "note.txt")
	write(t, path, "ephemeral content")
	require.NoError(t, w.Sync(context.Background()))
	require.Equal(t, 1, idx.Len())

	require.NoError(t, os.Remove(path))
	w.handleEvent(context.Background(), noopAdder{}, fsnotify.Event{Name: path, Op: fsnotify.Remove})
	assert.Zero(t, idx.Len())
}

func TestCreatedDirectoryJoinsWatchSet(t *testing.T) {
	root, w, _, idx := setup(t)
	dir := filepath.Join(root, "newdir")
	write(t, filepath.Join(dir, "note.txt"), "written before the directory was watched")
	write(t, filepath.Join(dir, "nested", "deep.md"), "# nested note")

	added := &recordingAdder{}
	w.handleEvent(context.Background(), added, fsnotify.Event{Name: dir, Op: fsnotify.Create})

	assert.ElementsMatch(t, []string{dir, filepath.Join(dir, "nested")}, added.paths)
	assert.Equal(t, 2, idx.Len(), "files already inside the new directory are ingested")
}

type noopAdder struct{}

func (noopAdder) Add(string) error { return nil }

type recordingAdder struct {
	paths []string
}

func (a *recordingAdder) Add(name string) error {
	a.paths = append(a.paths, name)
	return nil
}

func mustEmbed(t *testing.T, text string) []float64 {
	t.Helper()
	vec, err := hash.NewEmbedder(64).Embed(context.Background(), text)
	require.NoError(t, err)
	return vec
}
