// Copyright 2021 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package deploy

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rescribe.xyz/webotron"
	"rescribe.xyz/webotron/internal/metrics"
)

func writeTree(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, contents := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0700))
		require.NoError(t, os.WriteFile(p, []byte(contents), 0600))
	}
	return dir
}

func Test_Sync(t *testing.T) {
	var slog StrLog
	conn := &webotron.LocalConn{TempDir: t.TempDir(), Logger: log.New(&slog, "", 0)}
	require.NoError(t, conn.Init())
	ctx := context.Background()
	require.NoError(t, conn.CreateBucket(ctx, "site"))

	dir := writeTree(t, map[string]string{
		"index.html":         "<html></html>",
		"error.html":         "oops",
		"css/main.css":       "body{}",
		"img/icons/logo.png": "png",
		".DS_Store":          "junk",
		".git/config":        "junk",
	})

	m := metrics.New()
	for _, concurrency := range []int{0, 1, 8} {
		n, err := Sync(ctx, conn, dir, "site", SyncOpts{Concurrency: concurrency, Metrics: m})
		require.NoError(t, err, "Log: %s", slog.log)
		assert.Equal(t, 4, n)
	}

	keys, err := conn.ListObjects(ctx, "site", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"css/main.css", "error.html", "img/icons/logo.png", "index.html"}, keys)

	assert.Equal(t, 12.0, testutil.ToFloat64(m.FilesUploaded))
	assert.Equal(t, 3*float64(len("<html></html>")+len("oops")+len("body{}")+len("png")), testutil.ToFloat64(m.BytesUploaded))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.UploadFailures))
}

func Test_SyncNotDir(t *testing.T) {
	conn := &failUploader{}
	dir := writeTree(t, map[string]string{"f": "x"})

	_, err := Sync(context.Background(), conn, filepath.Join(dir, "f"), "site", SyncOpts{Metrics: metrics.New()})
	assert.ErrorContains(t, err, "is not a directory")

	_, err = Sync(context.Background(), conn, filepath.Join(dir, "missing"), "site", SyncOpts{Metrics: metrics.New()})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// failUploader fails any upload of a key named "bad"
type failUploader struct {
	mu   sync.Mutex
	keys []string
}

func (f *failUploader) Log(v ...interface{}) {}

func (f *failUploader) Upload(ctx context.Context, bucket string, key string, path string) (int64, error) {
	if key == "bad" {
		return 0, errors.New("AccessDenied")
	}
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	return 1, nil
}

func Test_SyncFailure(t *testing.T) {
	dir := writeTree(t, map[string]string{"a": "1", "bad": "2"})
	m := metrics.New()

	_, err := Sync(context.Background(), &failUploader{}, dir, "site", SyncOpts{Concurrency: 1, Metrics: m})
	assert.ErrorContains(t, err, "AccessDenied")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadFailures))
}

func Test_SyncCancelled(t *testing.T) {
	dir := writeTree(t, map[string]string{"a": "1", "b": "2"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &failUploader{}
	_, err := Sync(ctx, f, dir, "site", SyncOpts{Metrics: metrics.New(), Rate: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.keys)
}
