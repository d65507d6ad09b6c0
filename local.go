// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package webotron

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const storageDir = "storage"
const metaDir = "meta"
const localRegion = "local"

// WebsiteConfig is the website hosting setup LocalConn records for a
// bucket.
type WebsiteConfig struct {
	Index string `json:"index"`
	Error string `json:"error"`
}

// LocalConn is a simple implementation of the bucket handling that
// doesn't rely on any "cloud" services, instead doing everything on
// the local machine. Each bucket is a directory. This is particularly
// useful for testing.
type LocalConn struct {
	// these should be set before running Init(), or left to defaults
	TempDir string
	Logger  *log.Logger
}

// MinimalInit does the bare minimum initialisation
func (a *LocalConn) MinimalInit() error {
	var err error
	if a.TempDir == "" {
		a.TempDir = filepath.Join(os.TempDir(), "webotron")
	}
	for _, d := range []string{a.TempDir, filepath.Join(a.TempDir, storageDir), filepath.Join(a.TempDir, metaDir)} {
		err = os.Mkdir(d, 0700)
		if err != nil && !os.IsExist(err) {
			return fmt.Errorf("Error creating directory %s: %v", d, err)
		}
	}

	if a.Logger == nil {
		a.Logger = log.New(os.Stdout, "", 0)
	}

	return nil
}

// Init just does the same as MinimalInit
func (a *LocalConn) Init() error {
	return a.MinimalInit()
}

func (a *LocalConn) GetRegion() string {
	return localRegion
}

func (a *LocalConn) bucketPath(bucket string) string {
	return filepath.Join(a.TempDir, storageDir, bucket)
}

func (a *LocalConn) bucketExists(bucket string) error {
	info, err := os.Stat(a.bucketPath(bucket))
	if err != nil || !info.IsDir() {
		return fmt.Errorf("NoSuchBucket: %s", bucket)
	}
	return nil
}

func (a *LocalConn) ListBuckets(ctx context.Context) ([]string, error) {
	var names []string
	entries, err := os.ReadDir(filepath.Join(a.TempDir, storageDir))
	if err != nil {
		return names, err
	}
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (a *LocalConn) ListObjects(ctx context.Context, bucket string, prefix string) ([]string, error) {
	var names []string
	list, err := a.ListObjectsWithMeta(ctx, bucket, prefix)
	if err != nil {
		return names, err
	}
	for _, v := range list {
		names = append(names, v.Name)
	}
	return names, nil
}

// ListObjectsWithMeta lists the objects in a bucket starting with
// prefix, sorted by key as S3 does.
func (a *LocalConn) ListObjectsWithMeta(ctx context.Context, bucket string, prefix string) ([]ObjMeta, error) {
	var list []ObjMeta
	err := a.bucketExists(bucket)
	if err != nil {
		return list, err
	}
	dir := a.bucketPath(bucket)
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		list = append(list, ObjMeta{Name: key, Date: info.ModTime(), Size: info.Size()})
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, err
}

// CreateBucket creates the bucket directory; an existing one is fine
func (a *LocalConn) CreateBucket(ctx context.Context, name string) error {
	err := os.Mkdir(a.bucketPath(name), 0700)
	if os.IsExist(err) {
		a.Logger.Println("Bucket already exists:", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("Error creating bucket %s: %v", name, err)
	}
	return os.MkdirAll(filepath.Join(a.TempDir, metaDir, name), 0700)
}

// DeletePublicAccessBlock is a no-op with LocalConn
func (a *LocalConn) DeletePublicAccessBlock(ctx context.Context, bucket string) error {
	return a.bucketExists(bucket)
}

func (a *LocalConn) writeMeta(bucket string, name string, b []byte) error {
	err := a.bucketExists(bucket)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(a.TempDir, metaDir, bucket, name), b, 0600)
}

// PutBucketPolicy saves the policy alongside the bucket
func (a *LocalConn) PutBucketPolicy(ctx context.Context, bucket string, policy string) error {
	if !json.Valid([]byte(policy)) {
		return fmt.Errorf("MalformedPolicy: policy for %s is not valid JSON", bucket)
	}
	return a.writeMeta(bucket, "policy.json", []byte(policy))
}

// BucketPolicy returns the policy saved by PutBucketPolicy
func (a *LocalConn) BucketPolicy(bucket string) (string, error) {
	b, err := os.ReadFile(filepath.Join(a.TempDir, metaDir, bucket, "policy.json"))
	return string(b), err
}

// ConfigureWebsite saves the website configuration alongside the bucket
func (a *LocalConn) ConfigureWebsite(ctx context.Context, bucket string, index string, errdoc string) error {
	b, err := json.Marshal(WebsiteConfig{Index: index, Error: errdoc})
	if err != nil {
		return err
	}
	return a.writeMeta(bucket, "website.json", b)
}

// Website returns the configuration saved by ConfigureWebsite
func (a *LocalConn) Website(bucket string) (WebsiteConfig, error) {
	var c WebsiteConfig
	b, err := os.ReadFile(filepath.Join(a.TempDir, metaDir, bucket, "website.json"))
	if err != nil {
		return c, err
	}
	err = json.Unmarshal(b, &c)
	return c, err
}

// Upload just copies the file from path to TempDir/storage/bucket/key
func (a *LocalConn) Upload(ctx context.Context, bucket string, key string, path string) (int64, error) {
	err := a.bucketExists(bucket)
	if err != nil {
		return 0, err
	}
	dest := filepath.Join(a.bucketPath(bucket), filepath.FromSlash(key))
	err = os.MkdirAll(filepath.Dir(dest), 0700)
	if err != nil {
		return 0, fmt.Errorf("Error creating directory: %v", err)
	}

	fin, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer fin.Close()

	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return io.Copy(f, fin)
}

func (a *LocalConn) GetLogger() *log.Logger {
	return a.Logger
}

// Log records an item in the with the Logger. Arguments are handled
// as with fmt.Println.
func (a *LocalConn) Log(v ...interface{}) {
	a.Logger.Println(v...)
}
