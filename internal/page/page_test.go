package page

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostPage = `<html>
<head><title>home</title></head>
<body>
  <footer>
    <span id="time"></span>
    <span id="cfs">点击查看节点信息</span>
  </footer>
</body>
</html>`

func writePage(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoadPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.xhtml")
	writePage(t, path, hostPage)

	text, err := LoadPlaceholder(path, "cfs")
	require.NoError(t, err)
	assert.Equal(t, "点击查看节点信息", text)

	text, err = LoadPlaceholder(path, "time")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestLoadPlaceholderErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.xhtml")
	writePage(t, path, hostPage)

	_, err := LoadPlaceholder(path, "nope")
	assert.ErrorContains(t, err, "not found")

	_, err = LoadPlaceholder(path, `a"b`)
	assert.ErrorContains(t, err, "invalid target id")

	_, err = LoadPlaceholder(filepath.Join(t.TempDir(), "missing.xhtml"), "cfs")
	assert.ErrorContains(t, err, "open host page")
}

func TestWatcherReloadsPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.xhtml")
	writePage(t, path, hostPage)

	var mu sync.Mutex
	var got []string
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := NewWatcher(path, "cfs", func(text string) {
		mu.Lock()
		got = append(got, text)
		mu.Unlock()
	}, logger)
	require.NoError(t, err)
	w.Debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		writePage(t, path, `<html><body><span id="cfs">updated</span></body></html>`)
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1] == "updated"
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestNewWatcherMissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing.xhtml"), "cfs", func(string) {}, nil)
	assert.Error(t, err)
}
