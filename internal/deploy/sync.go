// Copyright 2021 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package deploy

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"rescribe.xyz/webotron/internal/metrics"
)

const DefaultConcurrency = 4

type SyncOpts struct {
	// Concurrency is the number of uploads to run at once
	Concurrency int
	// Rate limits uploads started per second; 0 is unlimited
	Rate float64
	// Metrics defaults to metrics.Default()
	Metrics *metrics.Metrics
}

type syncFile struct {
	path, key string
}

type fileWalk chan syncFile

// walker returns a WalkDirFunc which sends every file under root to f,
// along with its slash separated key relative to root. Files and
// directories starting with "." are skipped.
func (f fileWalk) walker(ctx context.Context, root string) fs.WalkDirFunc {
	return func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		select {
		case f <- syncFile{path: path, key: filepath.ToSlash(rel)}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}
}

// Sync uploads every file under dir to bucket, keyed by its path
// relative to dir. Uploads run concurrently, and the first failure
// stops the sync. It returns the number of files uploaded.
func Sync(ctx context.Context, conn Uploader, dir string, bucket string, opts SyncOpts) (int, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.Default()
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	files := make(fileWalk)
	walkerr := make(chan error, 1)
	go func() {
		walkerr <- filepath.WalkDir(root, files.walker(gctx, root))
		close(files)
	}()

	var uploaded int64
	for f := range files {
		f := f
		g.Go(func() error {
			err := limiter.Wait(gctx)
			if err != nil {
				return err
			}
			conn.Log("Uploading", f.key)
			n, err := conn.Upload(gctx, bucket, f.key, f.path)
			if err != nil {
				m.UploadFailures.Inc()
				return fmt.Errorf("Failed to upload %s: %w", f.path, err)
			}
			m.FilesUploaded.Inc()
			m.BytesUploaded.Add(float64(n))
			atomic.AddInt64(&uploaded, 1)
			return nil
		})
	}

	err = g.Wait()
	werr := <-walkerr
	if err != nil {
		return int(uploaded), err
	}
	if werr != nil {
		return int(uploaded), fmt.Errorf("Failed to read directory %s: %w", dir, werr)
	}
	return int(uploaded), nil
}
