package fetch

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/ingestor/pkg/logger"
	"github.com/stretchr/testify/require"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestClientOpen(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/ok.txt":
			_, _ = w.Write([]byte("hello"))
		case "/grams.txt.gz":
			_, _ = w.Write(gzipBytes(t, "19950101\tCNN\t1\tfox\t3\n"))
		case "/broken.gz":
			_, _ = w.Write([]byte("not gzip"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(WithRate(0), WithUserAgent("test-agent"), WithTimeout(5*time.Second))
	ctx := context.Background()

	body, err := c.Open(ctx, "test", srv.URL+"/ok.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	require.Equal(t, "hello", string(data))
	require.Equal(t, "test-agent", gotUA)

	_, err = c.Open(ctx, "test", srv.URL+"/missing")
	require.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusNotFound, se.StatusCode)

	zr, err := c.OpenGzip(ctx, "tvnews", srv.URL+"/grams.txt.gz")
	require.NoError(t, err)
	data, err = io.ReadAll(zr)
	require.NoError(t, err)
	require.NoError(t, zr.Close())
	require.Equal(t, "19950101\tCNN\t1\tfox\t3\n", string(data))

	_, err = c.OpenGzip(ctx, "tvnews", srv.URL+"/broken.gz")
	require.Error(t, err)
}

func TestClientRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	c := New(WithRate(1))
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	body, err := c.Open(ctx, "test", srv.URL)
	require.NoError(t, err)
	require.NoError(t, body.Close())

	_, err = c.Open(ctx, "test", srv.URL)
	require.Error(t, err, "second request within the same second must wait past the deadline")
}

func TestDownloadAndExtract(t *testing.T) {
	archive := zipBytes(t, map[string]string{"20210101001500.export.CSV": "1\t2\n3\t4\n"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := New(WithRate(0))

	path, err := c.Download(context.Background(), "events", srv.URL+"/20210101001500.export.CSV.zip", dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20210101001500.export.CSV.zip"), path)

	files, err := ExtractZip(path, dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.Equal(t, "1\t2\n3\t4\n", string(data))
}

func TestExtractZipRejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(path, zipBytes(t, map[string]string{"../escape.txt": "x"}), 0o600))

	target := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(target, 0o755))
	_, err := ExtractZip(path, target)
	require.ErrorIs(t, err, ErrUnsafePath)
	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	require.True(t, os.IsNotExist(statErr))
}
