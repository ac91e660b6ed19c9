package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-rag-server/rag"
)

type recordingIngester struct {
	mu   sync.Mutex
	docs []rag.Document
}

func (r *recordingIngester) Ingest(docs []rag.Document) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, docs...)
	return len(docs), nil
}

func (r *recordingIngester) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.docs))
	for i, d := range r.docs {
		out[i] = d.Name
	}
	return out
}

func TestWatcher_IngestsExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("already here"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.bin"), []byte{0, 1, 2}, 0o600))

	ing := &recordingIngester{}
	w := New(dir, 20*time.Millisecond, ing)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"existing.txt"}, ing.names())
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.md"), []byte("# fresh"), 0o600))
	require.Eventually(t, func() bool {
		return len(ing.names()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "new.md", ing.names()[1])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_CoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "burst.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))

	ing := &recordingIngester{}
	w := New(dir, 100*time.Millisecond, ing)

	for i := 0; i < 5; i++ {
		w.schedule(path)
	}
	require.Eventually(t, func() bool { return len(ing.names()) == 1 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Len(t, ing.names(), 1)
	w.shutdown()
}

func TestWatcher_ShutdownDropsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))

	ing := &recordingIngester{}
	w := New(dir, time.Hour, ing)
	w.schedule(path)
	w.shutdown()

	w.schedule(path)
	assert.Empty(t, ing.names())
	assert.Empty(t, w.pending)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), time.Millisecond, &recordingIngester{})
	assert.Error(t, w.Run(context.Background()))
}
