// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// posttoslack is a lambda handler which posts autoscaling events to
// Slack.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"rescribe.xyz/webotron"
	"rescribe.xyz/webotron/internal/notifier"
)

func main() {
	webhook := os.Getenv(webotron.EnvSlackWebhook)
	if webhook == "" {
		log.Fatalln("Missing environment variable", webotron.EnvSlackWebhook)
	}
	client := &http.Client{Timeout: 10 * time.Second}

	lambda.Start(func(ctx context.Context, event events.CloudWatchEvent) error {
		return notifier.PostToSlack(ctx, client, webhook, event)
	})
}
