// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package deploy

import (
	"context"
	"encoding/json"
	"fmt"

	"rescribe.xyz/webotron"
)

type policyStatement struct {
	Sid       string
	Effect    string
	Principal string
	Action    []string
	Resource  []string
}

type policy struct {
	Version   string
	Statement []policyStatement
}

// BucketPolicy returns a policy document allowing anyone to read any
// object in bucket.
func BucketPolicy(bucket string) (string, error) {
	b, err := json.Marshal(policy{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Sid:       "PublicReadGetObject",
				Effect:    "Allow",
				Principal: "*",
				Action:    []string{"s3:GetObject"},
				Resource:  []string{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
			},
		},
	})
	return string(b), err
}

// SetupBucket creates a bucket if needed and configures it to serve a
// public static website.
func SetupBucket(ctx context.Context, conn BucketSetuper, bucket string) error {
	conn.Log("Creating bucket", bucket)
	err := conn.CreateBucket(ctx, bucket)
	if err != nil {
		return err
	}

	conn.Log("Removing public access block from", bucket)
	err = conn.DeletePublicAccessBlock(ctx, bucket)
	if err != nil {
		return fmt.Errorf("Error removing public access block from %s: %w", bucket, err)
	}

	p, err := BucketPolicy(bucket)
	if err != nil {
		return err
	}
	conn.Log("Setting public read policy on", bucket)
	err = conn.PutBucketPolicy(ctx, bucket, p)
	if err != nil {
		return fmt.Errorf("Error setting policy on %s: %w", bucket, err)
	}

	conn.Log("Configuring website hosting for", bucket)
	err = conn.ConfigureWebsite(ctx, bucket, webotron.IndexDocument, webotron.ErrorDocument)
	if err != nil {
		return fmt.Errorf("Error configuring website for %s: %w", bucket, err)
	}

	return nil
}
