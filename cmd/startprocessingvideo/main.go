// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// startprocessingvideo is a lambda handler which starts label
// detection for videos uploaded to S3.
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
	cfg, err := videolyzer.ConfigFromEnv(webotron.EnvVideoTopicArn, webotron.EnvVideoRoleArn)
	if err != nil {
		log.Fatalln(err)
	}

	conn := &webotron.AwsConn{Region: os.Getenv("AWS_REGION"), Logger: log.Default()}
	err = conn.Init()
	if err != nil {
		log.Fatalln("Failed to set up cloud connection:", err)
	}

	lambda.Start(func(ctx context.Context, event events.S3Event) error {
		return videolyzer.StartProcessingVideo(ctx, conn, cfg, event)
	})
}
