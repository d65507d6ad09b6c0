// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// uploadfile uploads a single file to an S3 bucket, for example a
// video to be labelled.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"rescribe.xyz/webotron"
)

const usage = `Usage: uploadfile -profile profile -pathname file -bucket bucket [-region region]

Uploads a file to an S3 bucket, using the file's base name as the key.
`

type Uploader interface {
	MinimalInit() error
	Upload(ctx context.Context, bucket string, key string, path string) (int64, error)
}

func main() {
	profile := flag.String("profile", "", "AWS profile to use")
	pathname := flag.String("pathname", "", "file to upload")
	bucket := flag.String("bucket", "", "S3 bucket to upload to")
	region := flag.String("region", webotron.DefaultRegion, "AWS region")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *profile == "" || *pathname == "" || *bucket == "" {
		flag.Usage()
		os.Exit(2)
	}

	path, err := filepath.Abs(*pathname)
	if err != nil {
		log.Fatalln(err)
	}
	key := filepath.Base(path)

	var conn Uploader
	conn = &webotron.AwsConn{Region: *region, Profile: *profile}
	err = conn.MinimalInit()
	if err != nil {
		log.Fatalln("Failed to set up cloud connection:", err)
	}

	_, err = conn.Upload(context.Background(), *bucket, key, path)
	if err != nil {
		log.Fatalln("Error uploading file:", err)
	}
	fmt.Printf("Uploaded %s to s3://%s/%s\n", *pathname, *bucket, key)
}
