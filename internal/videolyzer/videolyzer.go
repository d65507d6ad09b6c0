// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// videolyzer contains the handlers of the video labelling pipeline.
// A video uploaded to S3 starts a Rekognition label detection job;
// when Rekognition reports the job done over SNS, the labels it found
// are collected and stored in DynamoDB.
package videolyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"rescribe.xyz/webotron"
)

const statusSucceeded = "SUCCEEDED"

type LabelStarter interface {
	StartLabelDetection(ctx context.Context, bucket string, key string, topicArn string, roleArn string) (string, error)
	Log(v ...interface{})
}

type LabelStorer interface {
	GetLabelDetection(ctx context.Context, jobId string) ([]webotron.Label, error)
	PutVideoLabels(ctx context.Context, table string, v webotron.VideoLabels) error
	Log(v ...interface{})
}

type Config struct {
	TopicArn string
	RoleArn  string
	Table    string
}

// ConfigFromEnv reads the handler settings from the environment,
// failing if any of the required variables are unset.
func ConfigFromEnv(required ...string) (Config, error) {
	c := Config{
		TopicArn: os.Getenv(webotron.EnvVideoTopicArn),
		RoleArn:  os.Getenv(webotron.EnvVideoRoleArn),
		Table:    os.Getenv(webotron.EnvVideoTable),
	}
	var missing []string
	for _, r := range required {
		if os.Getenv(r) == "" {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return c, fmt.Errorf("Missing environment variables: %s", strings.Join(missing, ", "))
	}
	return c, nil
}

// ObjectKey decodes a key as found in an S3 event notification, where
// spaces are sent as "+" and other characters are url escaped.
func ObjectKey(key string) string {
	k, err := url.QueryUnescape(key)
	if err != nil {
		return strings.ReplaceAll(key, "+", " ")
	}
	return k
}

// StartProcessingVideo starts label detection for each object in an
// S3 event.
func StartProcessingVideo(ctx context.Context, conn LabelStarter, cfg Config, event events.S3Event) error {
	for _, r := range event.Records {
		bucket := r.S3.Bucket.Name
		key := ObjectKey(r.S3.Object.Key)
		jobId, err := conn.StartLabelDetection(ctx, bucket, key, cfg.TopicArn, cfg.RoleArn)
		if err != nil {
			return fmt.Errorf("Error starting label detection for s3://%s/%s: %w", bucket, key, err)
		}
		conn.Log("Rekognition JobId:", jobId)
	}
	return nil
}

// JobMessage is the completion notification Rekognition publishes
type JobMessage struct {
	JobId  string
	Status string
	API    string
	Video  struct {
		S3ObjectName string
		S3Bucket     string
	}
}

// HandleProcessedVideo stores the labels of every successful job in an
// SNS event.
func HandleProcessedVideo(ctx context.Context, conn LabelStorer, cfg Config, event events.SNSEvent) error {
	for _, r := range event.Records {
		var msg JobMessage
		err := json.Unmarshal([]byte(r.SNS.Message), &msg)
		if err != nil {
			return fmt.Errorf("Error parsing job message: %w", err)
		}
		if msg.Status != statusSucceeded {
			conn.Log("Skipping job", msg.JobId, "with status", msg.Status)
			continue
		}

		labels, err := conn.GetLabelDetection(ctx, msg.JobId)
		if err != nil {
			return err
		}
		conn.Log("Storing", len(labels), "labels for", msg.Video.S3ObjectName)

		err = conn.PutVideoLabels(ctx, cfg.Table, webotron.VideoLabels{
			VideoName:   msg.Video.S3ObjectName,
			VideoBucket: msg.Video.S3Bucket,
			Labels:      labels,
		})
		if err != nil {
			return fmt.Errorf("Error storing labels for %s: %w", msg.Video.S3ObjectName, err)
		}
	}
	return nil
}
