// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// metrics holds the prometheus counters recorded while deploying, and
// can expose them over http for long running syncs.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the counters for one registry
type Metrics struct {
	Registry *prometheus.Registry

	FilesUploaded  prometheus.Counter
	BytesUploaded  prometheus.Counter
	UploadFailures prometheus.Counter
	Lookups        *prometheus.CounterVec
}

var (
	defaultOnce sync.Once
	defaultM    *Metrics
	server      *http.Server
	serverMu    sync.Mutex
)

// New creates a set of counters registered with a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		FilesUploaded: f.NewCounter(prometheus.CounterOpts{
			Name: "webotron_files_uploaded_total",
			Help: "Total number of files uploaded to a bucket",
		}),
		BytesUploaded: f.NewCounter(prometheus.CounterOpts{
			Name: "webotron_bytes_uploaded_total",
			Help: "Total number of bytes uploaded to a bucket",
		}),
		UploadFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "webotron_upload_failures_total",
			Help: "Total number of failed uploads",
		}),
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "webotron_lookups_total",
			Help: "Hosted zone and certificate lookups by result",
		}, []string{"kind", "result"}),
	}
}

// Default returns the process wide metrics
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultM = New()
	})
	return defaultM
}

// Lookup records the result of a resolver lookup
func (m *Metrics) Lookup(kind string, found bool) {
	result := "notfound"
	if found {
		result = "found"
	}
	m.Lookups.WithLabelValues(kind, result).Inc()
}

// StartMetricsServer serves the default metrics on addr at /metrics
// in the background.
func StartMetricsServer(addr string) {
	serverMu.Lock()
	defer serverMu.Unlock()
	if server != nil {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Default().Registry, promhttp.HandlerOpts{}))
	server = &http.Server{Addr: addr, Handler: mux}
	srv := server

	go func() {
		log.Printf("Starting metrics server on %s", addr)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server error: %v", err)
		}
	}()
}

// ShutdownMetricsServer stops the server started by StartMetricsServer
func ShutdownMetricsServer(ctx context.Context) error {
	serverMu.Lock()
	defer serverMu.Unlock()
	if server == nil {
		return nil
	}
	err := server.Shutdown(ctx)
	server = nil
	return err
}
