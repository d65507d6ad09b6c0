// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func Test_Lookup(t *testing.T) {
	m := New()
	m.Lookup("zone", true)
	m.Lookup("zone", false)
	m.Lookup("zone", false)
	m.Lookup("certificate", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("zone", "found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Lookups.WithLabelValues("zone", "notfound")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("certificate", "found")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Lookups.WithLabelValues("certificate", "notfound")))
}

func Test_Independent(t *testing.T) {
	a := New()
	b := New()
	a.FilesUploaded.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.FilesUploaded))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FilesUploaded))
	assert.Same(t, Default(), Default())
}
