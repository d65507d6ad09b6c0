// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// deploy is a package used by the webotron command, which handles the
// sequences of calls needed to put a static website on S3, give it a
// domain name with Route 53, and serve it over https with CloudFront.
// Note that it is considered an "internal" package, not intended for
// external use, and no guarantee is made of the stability of any
// interfaces provided.
package deploy

import (
	"context"
	"errors"

	"rescribe.xyz/webotron"
	"rescribe.xyz/webotron/internal/resolve"
)

var ErrNoCertificate = errors.New("no issued certificate matches domain")

type BucketSetuper interface {
	CreateBucket(ctx context.Context, name string) error
	DeletePublicAccessBlock(ctx context.Context, bucket string) error
	PutBucketPolicy(ctx context.Context, bucket string, policy string) error
	ConfigureWebsite(ctx context.Context, bucket string, index string, errdoc string) error
	Log(v ...interface{})
}

type Uploader interface {
	Upload(ctx context.Context, bucket string, key string, path string) (int64, error)
	Log(v ...interface{})
}

type ZoneLister interface {
	ListHostedZones(ctx context.Context) ([]resolve.HostedZone, error)
}

type CertLister interface {
	ListIssuedCertificates(ctx context.Context) ([]resolve.Certificate, error)
}

type DomainSetuper interface {
	ZoneLister
	CreateHostedZone(ctx context.Context, name string) (resolve.HostedZone, error)
	UpsertAliasRecord(ctx context.Context, zoneId string, name string, target webotron.AliasTarget) error
	Log(v ...interface{})
}

type CDNSetuper interface {
	DomainSetuper
	CertLister
	ListDistributions(ctx context.Context) ([]webotron.Distribution, error)
	CreateDistribution(ctx context.Context, domain string, certArn string) (webotron.Distribution, error)
	WaitForDeploy(ctx context.Context, id string) (webotron.Distribution, error)
}
