package aitovar

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitovar/photo-listing/ingest"
)

func TestMockAnalyzerBindsResultsToUploads(t *testing.T) {
	uploads := []ingest.UploadedImage{
		{ID: "u1", PreviewDataURI: "data:1", Filename: "a.jpg", SizeBytes: 10},
		{ID: "u2", PreviewDataURI: "data:2", Filename: "b.jpg", SizeBytes: 20},
	}

	results, err := NewMockAnalyzer().Analyze(context.Background(), uploads, "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, r := range results {
		assert.Equal(t, uploads[i].ID, r.ID)
		assert.Equal(t, []string{uploads[i].PreviewDataURI}, r.Images)
		assert.Equal(t, uploads[i].Filename, r.Filename)
		assert.True(t, strings.Contains(r.Description, "ТОВАР И КАТЕГОРИЯ:"))
	}

	// Different uploads get different rotating templates.
	assert.NotEqual(t, results[0].Description, results[1].Description)
}

func TestMockAnalyzerAppendsHintNote(t *testing.T) {
	uploads := []ingest.UploadedImage{{ID: "u1", PreviewDataURI: "p"}}

	without, err := NewMockAnalyzer().Analyze(context.Background(), uploads, "")
	require.NoError(t, err)
	with, err := NewMockAnalyzer().Analyze(context.Background(), uploads, "размер 42")
	require.NoError(t, err)

	assert.NotEqual(t, without[0].Description, with[0].Description)
	assert.Contains(t, with[0].Description, "владельцем")
}

func TestMockAnalyzerIsDeterministic(t *testing.T) {
	uploads := []ingest.UploadedImage{
		{ID: "u1", PreviewDataURI: "p1"},
		{ID: "u2", PreviewDataURI: "p2"},
	}

	first, err := NewMockAnalyzer().Analyze(context.Background(), uploads, "hint")
	require.NoError(t, err)
	second, err := NewMockAnalyzer().Analyze(context.Background(), uploads, "hint")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
