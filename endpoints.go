// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package webotron

import (
	"errors"
	"fmt"
)

var ErrUnknownRegion = errors.New("unknown region")

// Endpoint is the S3 static website endpoint of a region, together
// with the hosted zone id Route 53 needs for alias records to it.
type Endpoint struct {
	Name   string
	Host   string
	ZoneId string
}

// https://docs.aws.amazon.com/general/latest/gr/s3.html#s3_website_region_endpoints
var websiteEndpoints = map[string]Endpoint{
	"us-east-2":      {"US East (Ohio)", "s3-website.us-east-2.amazonaws.com", "Z2O1EMRO9K5GLX"},
	"us-east-1":      {"US East (N. Virginia)", "s3-website-us-east-1.amazonaws.com", "Z3AQBSTGFYJSTF"},
	"us-west-1":      {"US West (N. California)", "s3-website-us-west-1.amazonaws.com", "Z2F56UZL2M1ACD"},
	"us-west-2":      {"US West (Oregon)", "s3-website-us-west-2.amazonaws.com", "Z3BJ6K6RIION7M"},
	"ap-south-1":     {"Asia Pacific (Mumbai)", "s3-website.ap-south-1.amazonaws.com", "Z11RGJOFQNVJUP"},
	"ap-northeast-2": {"Asia Pacific (Seoul)", "s3-website.ap-northeast-2.amazonaws.com", "Z3W03O7B5YMIYP"},
	"ap-southeast-1": {"Asia Pacific (Singapore)", "s3-website-ap-southeast-1.amazonaws.com", "Z3O0J2DXBE1FTB"},
	"ap-southeast-2": {"Asia Pacific (Sydney)", "s3-website-ap-southeast-2.amazonaws.com", "Z1WCIGYICN2BYD"},
	"ap-northeast-1": {"Asia Pacific (Tokyo)", "s3-website-ap-northeast-1.amazonaws.com", "Z2M4EHUR26P7ZW"},
	"ca-central-1":   {"Canada (Central)", "s3-website.ca-central-1.amazonaws.com", "Z1QDHH18159H29"},
	"eu-central-1":   {"Europe (Frankfurt)", "s3-website.eu-central-1.amazonaws.com", "Z21DNDUVLTQW6Q"},
	"eu-west-1":      {"Europe (Ireland)", "s3-website-eu-west-1.amazonaws.com", "Z1BKCTXD74EZPE"},
	"eu-west-2":      {"Europe (London)", "s3-website.eu-west-2.amazonaws.com", "Z3GKZC51ZF0DB4"},
	"eu-west-3":      {"Europe (Paris)", "s3-website.eu-west-3.amazonaws.com", "Z3R1K369G5AVDG"},
	"sa-east-1":      {"South America (Sao Paulo)", "s3-website-sa-east-1.amazonaws.com", "Z7KQH4QJS55SO"},
}

// WebsiteEndpoint returns the static website endpoint for a region
func WebsiteEndpoint(region string) (Endpoint, error) {
	e, ok := websiteEndpoints[region]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %s", ErrUnknownRegion, region)
	}
	return e, nil
}

// WebsiteURL returns the http address a bucket configured for website
// hosting is served from.
func WebsiteURL(bucket string, region string) (string, error) {
	e, err := WebsiteEndpoint(region)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s.%s", bucket, e.Host), nil
}
