package r2client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresConfig(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), Config{Endpoint: "https://x", AccessKeyID: "a", SecretAccessKey: "b"})
	assert.Error(t, err)
}

func TestEndpointForAccount(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://abc123.r2.cloudflarestorage.com", EndpointForAccount("abc123"))
}

// newTestClient points a client at a fake bucket served by handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		Endpoint:        srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
		BucketName:      "snapshots",
	})
	require.NoError(t, err)
	return c
}

func TestClient_Operations(t *testing.T) {
	t.Parallel()
	var uploaded []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/snapshots/cache.db.zst" && r.Method == http.MethodPut:
			uploaded, _ = io.ReadAll(r.Body)
			w.Header().Set("ETag", `"etag-1"`)
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/snapshots/cache.db.zst" && r.Method == http.MethodHead:
			w.Header().Set("ETag", `"etag-1"`)
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/snapshots/cache.db.zst" && r.Method == http.MethodGet:
			w.Header().Set("ETag", `"etag-1"`)
			_, _ = w.Write([]byte("payload"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	etag, err := c.Upload(ctx, "cache.db.zst", bytes.NewReader([]byte("payload")), "application/zstd")
	require.NoError(t, err)
	assert.Equal(t, "etag-1", etag)
	assert.NotEmpty(t, uploaded)

	etag, err = c.HeadObject(ctx, "cache.db.zst")
	require.NoError(t, err)
	assert.Equal(t, "etag-1", etag)

	body, etag, err := c.Download(ctx, "cache.db.zst")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, "etag-1", etag)

	_, err = c.HeadObject(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompressDecompress(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	content := strings.Repeat("มหาวิทยาลัย TCAS ", 2000)
	require.NoError(t, os.WriteFile(src, []byte(content), 0o600))

	compressed := filepath.Join(dir, "src.db.zst")
	require.NoError(t, CompressFile(src, compressed))

	info, err := os.Stat(compressed)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(content)))

	f, err := os.Open(compressed)
	require.NoError(t, err)
	defer f.Close()

	restored := filepath.Join(dir, "restored.db")
	require.NoError(t, DecompressStream(f, restored))

	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
	assert.NoFileExists(t, restored+".part")
}

func TestCompressFile_MissingSource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	assert.Error(t, CompressFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out")))
}

func TestDecompressStream_Corrupt(t *testing.T) {
	t.Parallel()
	dst := filepath.Join(t.TempDir(), "out.db")
	err := DecompressStream(strings.NewReader("not zstd data"), dst)
	assert.Error(t, err)
	assert.NoFileExists(t, dst)
	assert.NoFileExists(t, dst+".part")
}
