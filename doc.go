// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

/*
The webotron package contains tools and functions to deploy static
websites to AWS, and a few small handlers which use AWS to notify about
autoscaling and to label videos.

Introduction

Deploying a static website to AWS is a sequence of calls to several
services: S3 holds and serves the files, Route 53 gives them a domain
name, ACM provides a certificate and CloudFront serves the site over
https. The webotron command runs each step. Presuming you have the go
tools installed, you can install it, and the other tools, with this
command:
  go install rescribe.xyz/webotron/cmd/...@latest

All of the tools will give information on what they do and how they work
with the '-h' flag, so for example:
  webotron -h

Credentials are read from ~/.aws/credentials, using the profile given
with --profile (or 'default'). Account specific defaults are in
cloudsettings.go.

Deploying a site

A bucket is created and set up for website hosting with setup-bucket,
and the site's files uploaded with sync. For the site to be served from
a domain the bucket must have the same name as the domain:
  webotron setup-bucket www.example.com
  webotron sync ./public www.example.com
  webotron setup-domain www.example.com

setup-domain uses the first hosted zone in the account whose name is a
suffix of the domain. If there is none, a zone is created for the last
two labels of the domain, so for www.example.com the zone example.com.
is created. Note that the first matching zone is used, not the most
specific one.

Serving over https

  webotron setup-cdn www.example.com

setup-cdn needs an issued ACM certificate in us-east-1 with a subject
alternative name matching the domain, either exactly or as a wildcard
such as *.example.com. Note that a wildcard does not cover the bare
domain. A CloudFront distribution already aliased to the domain is
reused; otherwise one is created. Deployment takes a while, after which
the domain is pointed at the distribution. The certificate which would
be used can be checked beforehand with find-cert.

Videos

The startprocessingvideo and handleprocessedvideo commands are lambda
handlers. The first is triggered by uploads to a bucket, and starts a
Rekognition label detection job which reports to an SNS topic when it is
done. The second is subscribed to that topic, and stores the labels in a
DynamoDB table. Videos can be uploaded with uploadfile, and the stored
labels graphed with labelgraph.

Notifications

posttoslack is a lambda handler for autoscaling events, which posts a
short description of each event to a Slack webhook. executepolicy can be
used to trigger a scaling policy to check it is working.
*/
package webotron
