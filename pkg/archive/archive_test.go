package archive

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pindm/pkg/config"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/pin/111/", func(w http.ResponseWriter, r *http.Request) {
		page := fmt.Sprintf(`<html><body>
			<div data-test-id="closeup-image"><img src="%s/originals/aa.jpg"></div>
		</body></html>`, server.URL)
		fmt.Fprint(w, page)
	})
	mux.HandleFunc("/originals/aa.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	})

	return server
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.Output.FetchViewerAssets = false
	cfg.Pacing.InitialDelay = time.Millisecond
	cfg.Pacing.MaxDelay = 10 * time.Millisecond
	cfg.Resolve.Workers = 2
	cfg.Resolve.FetchTimeout = 5 * time.Second
	cfg.Resolve.MaxRetries = 0
	return cfg
}

func conversationPage(serverURL string) string {
	return fmt.Sprintf(`<html><body>
<div data-test-id="messages-container">
	<div data-test-id="message-item-container">
		<div>19:47</div>
		<div>Jane Doe</div>
	</div>
	<div data-test-id="message-item-container">
		<a href="%s/pin/111/?conversation_id=c1&message=m1&sender=s1"><img src="thumb.jpg"></a>
	</div>
</div>
</body></html>`, serverURL)
}

func TestArchiverEndToEnd(t *testing.T) {
	server := testServer(t)
	cfg := testConfig(t)

	archiver, err := New(cfg, Options{
		ProgressPath: filepath.Join(t.TempDir(), "progress.json"),
	})
	require.NoError(t, err)

	summary, err := archiver.Run(context.Background(), strings.NewReader(conversationPage(server.URL)))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Found)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, 0, summary.Errors)

	senderDir := filepath.Join(cfg.Output.BaseDirectory, "Pinterest-messages-from-s1")
	entries, err := os.ReadDir(senderDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "m1_pin_111.jpg")
	assert.Contains(t, entries[0].Name(), "Jane Doe")

	data, err := os.ReadFile(filepath.Join(senderDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	// One gallery for the message's month
	galleries, err := filepath.Glob(filepath.Join(cfg.Output.BaseDirectory, "pinterest_pins_*.html"))
	require.NoError(t, err)
	require.Len(t, galleries, 1)
}

func TestArchiverSecondRunSkips(t *testing.T) {
	server := testServer(t)
	cfg := testConfig(t)
	progressPath := filepath.Join(t.TempDir(), "progress.json")

	archiver, err := New(cfg, Options{ProgressPath: progressPath})
	require.NoError(t, err)

	_, err = archiver.Run(context.Background(), strings.NewReader(conversationPage(server.URL)))
	require.NoError(t, err)
	require.Equal(t, 1, archiver.Progress().Count())

	// Fresh archiver, same progress file: everything is a duplicate
	again, err := New(cfg, Options{ProgressPath: progressPath})
	require.NoError(t, err)

	summary, err := again.Run(context.Background(), strings.NewReader(conversationPage(server.URL)))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Downloaded)
	assert.Equal(t, 1, again.Progress().Count(), "dedup set must not grow on repeat scans")
}

func TestArchiverEmptyConversation(t *testing.T) {
	cfg := testConfig(t)

	archiver, err := New(cfg, Options{
		ProgressPath: filepath.Join(t.TempDir(), "progress.json"),
	})
	require.NoError(t, err)

	summary, err := archiver.Run(context.Background(), strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)
	assert.Zero(t, summary.Found)
}

func TestArchiverDryRun(t *testing.T) {
	server := testServer(t)
	cfg := testConfig(t)

	archiver, err := New(cfg, Options{
		DryRun:       true,
		ProgressPath: filepath.Join(t.TempDir(), "progress.json"),
	})
	require.NoError(t, err)

	summary, err := archiver.Run(context.Background(), strings.NewReader(conversationPage(server.URL)))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Downloaded)
	assert.Zero(t, archiver.Progress().Count())

	entries, err := os.ReadDir(cfg.Output.BaseDirectory)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run must not write media or galleries")
}
