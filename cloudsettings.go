// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package webotron

// This file contains various cloud account specific stuff; change this if
// you want to deploy with different defaults.

const (
	DefaultRegion  = "us-east-1"
	DefaultProfile = "default"
)

// Website documents
const (
	IndexDocument = "index.html"
	ErrorDocument = "error.html"
)

// CloudFrontZoneId is the fixed hosted zone id used for alias records
// that point at any CloudFront distribution.
const CloudFrontZoneId = "Z2FDTNDATAQYW2"

// Distribution defaults
const (
	distComment       = "Created by webotron"
	distMinTTL        = 3600
	distDefaultTTL    = 86400
	distProtocol      = "TLSv1.1_2016"
	distSSLSupport    = "sni-only"
	distViewerPolicy  = "redirect-to-https"
	distCookieForward = "all"
)

// Environment variables read by the lambda handlers
const (
	EnvVideoTopicArn = "VIDEO_PROCESSED_SNSTOPIC_ARN"
	EnvVideoRoleArn  = "REKOGNITION_PUBLISH_SNSTOPIC_ROLE_ARN"
	EnvVideoTable    = "VIDEOS_DYNAMODB_TABLE"
	EnvSlackWebhook  = "SLACK_WEBHOOK_URL"
)

// Autoscaling defaults for the notifon tools
const (
	ScalingGroup  = "Notifon Scaling Group"
	ScalingPolicy = "Scale Up"
)
