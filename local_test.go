// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package webotron

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NullWriter is used so non-verbose logging may be discarded
type NullWriter bool

func (w NullWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

func newLocal(t *testing.T) *LocalConn {
	var n NullWriter
	conn := &LocalConn{TempDir: t.TempDir(), Logger: log.New(n, "", 0)}
	require.NoError(t, conn.Init())
	return conn
}

func Test_LocalBuckets(t *testing.T) {
	ctx := context.Background()
	conn := newLocal(t)

	require.NoError(t, conn.CreateBucket(ctx, "b1"))
	require.NoError(t, conn.CreateBucket(ctx, "b2"))
	require.NoError(t, conn.CreateBucket(ctx, "b1"), "recreating an owned bucket should be fine")

	buckets, err := conn.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, buckets)
}

func Test_LocalUploadAndList(t *testing.T) {
	ctx := context.Background()
	conn := newLocal(t)
	require.NoError(t, conn.CreateBucket(ctx, "site"))

	src := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0600))

	for _, key := range []string{"index.html", "css/main.css", "css/print.css", "img/a.png"} {
		n, err := conn.Upload(ctx, "site", key, src)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	}

	all, err := conn.ListObjects(ctx, "site", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"css/main.css", "css/print.css", "img/a.png", "index.html"}, all)

	css, err := conn.ListObjectsWithMeta(ctx, "site", "css/")
	require.NoError(t, err)
	require.Len(t, css, 2)
	assert.Equal(t, int64(5), css[0].Size)

	_, err = conn.ListObjects(ctx, "missing", "")
	assert.ErrorContains(t, err, "NoSuchBucket")
	_, err = conn.Upload(ctx, "missing", "k", src)
	assert.ErrorContains(t, err, "NoSuchBucket")
}

func Test_LocalWebsiteAndPolicy(t *testing.T) {
	ctx := context.Background()
	conn := newLocal(t)
	require.NoError(t, conn.CreateBucket(ctx, "site"))

	require.NoError(t, conn.DeletePublicAccessBlock(ctx, "site"))
	require.NoError(t, conn.PutBucketPolicy(ctx, "site", `{"Version":"2012-10-17"}`))
	assert.ErrorContains(t, conn.PutBucketPolicy(ctx, "site", `{`), "MalformedPolicy")
	require.NoError(t, conn.ConfigureWebsite(ctx, "site", IndexDocument, ErrorDocument))

	p, err := conn.BucketPolicy("site")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Version":"2012-10-17"}`, p)

	w, err := conn.Website("site")
	require.NoError(t, err)
	assert.Equal(t, WebsiteConfig{Index: "index.html", Error: "error.html"}, w)

	objs, err := conn.ListObjects(ctx, "site", "")
	require.NoError(t, err)
	assert.Empty(t, objs, "configuration should not show up as objects")
}

func Test_ContentType(t *testing.T) {
	cases := []struct {
		key, want string
	}{
		{"index.html", "text/html; charset=utf-8"},
		{"img/logo.png", "image/png"},
		{"noextension", "text/plain"},
		{"data.unknownext", "text/plain"},
	}
	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			assert.Equal(t, c.want, ContentType(c.key))
		})
	}
}

func Test_WebsiteURL(t *testing.T) {
	u, err := WebsiteURL("mybucket", "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, "http://mybucket.s3-website-us-east-1.amazonaws.com", u)

	u, err = WebsiteURL("mybucket", "eu-west-2")
	require.NoError(t, err)
	assert.Equal(t, "http://mybucket.s3-website.eu-west-2.amazonaws.com", u)

	_, err = WebsiteURL("mybucket", "mars-north-1")
	assert.ErrorIs(t, err, ErrUnknownRegion)
}
