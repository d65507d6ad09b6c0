// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package webotron

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_TopLabels(t *testing.T) {
	labels := []Label{
		{Name: "Dog"}, {Name: "Cat"}, {Name: "Dog"}, {Name: "Tree"},
		{Name: "Cat"}, {Name: "Dog"}, {Name: "Ball"},
	}
	assert.Equal(t, []string{"Dog", "Cat"}, TopLabels(labels, 2))
	assert.Equal(t, []string{"Dog", "Cat", "Ball", "Tree"}, TopLabels(labels, 10))
	assert.Empty(t, TopLabels(nil, 3))
}

func Test_LabelGraph(t *testing.T) {
	var labels []Label
	for i := int64(0); i < 50; i++ {
		labels = append(labels, Label{Timestamp: i * 200, Name: "Dog", Confidence: 80 + float64(i%10)})
		if i%3 == 0 {
			labels = append(labels, Label{Timestamp: i * 200, Name: "Ball", Confidence: 60 + float64(i%7)})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, LabelGraph(labels, "dog.mp4", &buf))
	require.Greater(t, buf.Len(), 8)
	assert.Equal(t, []byte("\x89PNG"), buf.Bytes()[:4])
}

func Test_LabelGraphNotEnough(t *testing.T) {
	var buf bytes.Buffer
	err := LabelGraph([]Label{{Name: "Dog"}, {Name: "Cat"}}, "still.mp4", &buf)
	assert.EqualError(t, err, "Not enough labels at different times")
	assert.Zero(t, buf.Len())
}
