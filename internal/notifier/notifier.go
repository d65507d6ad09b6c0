// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// notifier posts autoscaling events to a Slack channel through an
// incoming webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// the parts of an autoscaling event detail that are reported
type scalingDetail struct {
	StartTime   string
	Description string
}

type slackMessage struct {
	Text string `json:"text"`
}

// Message formats an autoscaling event for posting
func Message(event events.CloudWatchEvent) (string, error) {
	var d scalingDetail
	if len(event.Detail) > 0 {
		err := json.Unmarshal(event.Detail, &d)
		if err != nil {
			return "", fmt.Errorf("Error parsing event detail: %w", err)
		}
	}
	return fmt.Sprintf("From %s at %s: %s", event.Source, d.StartTime, d.Description), nil
}

// PostToSlack sends the message for event to a Slack webhook
func PostToSlack(ctx context.Context, client *http.Client, webhook string, event events.CloudWatchEvent) error {
	text, err := Message(event)
	if err != nil {
		return err
	}
	body, err := json.Marshal(slackMessage{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("Error posting to Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Slack returned %s: %s", resp.Status, b)
	}
	return nil
}
