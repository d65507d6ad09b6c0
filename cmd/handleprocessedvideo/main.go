// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// handleprocessedvideo is a lambda handler which stores the labels
// found by a finished label detection job.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"rescribe.xyz/webotron"
	"rescribe.xyz/webotron/internal/videolyzer"
)

func main() {
	cfg, err := videolyzer.ConfigFromEnv(webotron.EnvVideoTable)
	if err != nil {
		log.Fatalln(err)
	}

	conn := &webotron.AwsConn{Region: os.Getenv("AWS_REGION"), Logger: log.Default()}
	err = conn.Init()
	if err != nil {
		log.Fatalln("Failed to set up cloud connection:", err)
	}

	lambda.Start(func(ctx context.Context, event events.SNSEvent) error {
		return videolyzer.HandleProcessedVideo(ctx, conn, cfg, event)
	})
}
