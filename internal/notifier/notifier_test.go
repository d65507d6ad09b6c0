// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func launchEvent() events.CloudWatchEvent {
	return events.CloudWatchEvent{
		Source:     "aws.autoscaling",
		DetailType: "EC2 Instance Launch Successful",
		Detail:     json.RawMessage(`{"StartTime":"2020-01-02T03:04:05.000Z","Description":"Launching a new EC2 instance: i-0123"}`),
	}
}

func Test_Message(t *testing.T) {
	m, err := Message(launchEvent())
	require.NoError(t, err)
	assert.Equal(t, "From aws.autoscaling at 2020-01-02T03:04:05.000Z: Launching a new EC2 instance: i-0123", m)

	m, err = Message(events.CloudWatchEvent{Source: "aws.autoscaling"})
	require.NoError(t, err)
	assert.Equal(t, "From aws.autoscaling at : ", m)

	_, err = Message(events.CloudWatchEvent{Detail: json.RawMessage(`[1,2]`)})
	assert.Error(t, err)
}

func Test_PostToSlack(t *testing.T) {
	var got map[string]string
	var ctype string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctype = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, PostToSlack(context.Background(), srv.Client(), srv.URL, launchEvent()))
	assert.Equal(t, "application/json", ctype)
	assert.Equal(t, map[string]string{"text": "From aws.autoscaling at 2020-01-02T03:04:05.000Z: Launching a new EC2 instance: i-0123"}, got)
}

func Test_PostToSlackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	err := PostToSlack(context.Background(), srv.Client(), srv.URL, launchEvent())
	assert.ErrorContains(t, err, "403")
	assert.ErrorContains(t, err, "invalid_token")
}
