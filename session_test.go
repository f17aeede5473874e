package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitovar/photo-listing/aitovar"
	"github.com/aitovar/photo-listing/ingest"
	"github.com/aitovar/photo-listing/listing"
	"github.com/aitovar/photo-listing/storage"
)

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, []ingest.UploadedImage, string) ([]listing.AnalysisResult, error) {
	return nil, errors.New("service unavailable")
}

func newTestSession(t *testing.T, analyzer aitovar.Analyzer) *Session {
	t.Helper()
	return NewSession(analyzer, listing.DefaultTaxonomy(), storage.NewMemoryKV())
}

func stageImages(t *testing.T, s *Session, names ...string) {
	t.Helper()
	files := make([]ingest.File, 0, len(names))
	for _, name := range names {
		files = append(files, ingest.File{Name: name, ContentType: "image/jpeg", Data: []byte(name)})
	}
	accepted := s.Ingestor().Ingest(context.Background(), files)
	require.Len(t, accepted, len(names))
}

func TestSessionStartsInUpload(t *testing.T) {
	s := newTestSession(t, aitovar.NewMockAnalyzer())
	assert.Equal(t, StageUpload, s.Stage())
}

func TestSessionAnalyzeAdvancesToReview(t *testing.T) {
	s := newTestSession(t, aitovar.NewMockAnalyzer())
	stageImages(t, s, "a.jpg", "b.jpg")

	count, err := s.Analyze(context.Background(), "Кроссовки Nike, размер 42")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, StageReview, s.Stage())
	assert.Equal(t, 2, s.Store().Len())

	// Staged uploads are superseded by extraction results.
	assert.Equal(t, 0, s.Ingestor().Len())

	// The hint is preserved on every listing for traceability.
	for _, l := range s.Store().All() {
		assert.Equal(t, "Кроссовки Nike, размер 42", l.UserInput)
	}
}

func TestSessionAnalyzeWithoutUploads(t *testing.T) {
	s := newTestSession(t, aitovar.NewMockAnalyzer())
	_, err := s.Analyze(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, StageUpload, s.Stage())
}

func TestSessionAnalyzeFailureKeepsUploadsForRetry(t *testing.T) {
	s := newTestSession(t, failingAnalyzer{})
	stageImages(t, s, "a.jpg")

	_, err := s.Analyze(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, StageUpload, s.Stage())
	assert.Equal(t, 1, s.Ingestor().Len(), "staged uploads must survive a failed analysis")
	assert.Equal(t, 0, s.Store().Len(), "no partial results")
}

func TestSessionPublishAll(t *testing.T) {
	s := newTestSession(t, aitovar.NewMockAnalyzer())
	stageImages(t, s, "a.jpg", "b.jpg")
	_, err := s.Analyze(context.Background(), "")
	require.NoError(t, err)

	published := s.PublishAll()
	assert.Len(t, published, 2)
	assert.Equal(t, StagePromotion, s.Stage())
	for _, item := range published {
		assert.Equal(t, listing.PromotionStandard, item.PromotionType)
		assert.Equal(t, 0, item.Days)
	}
}

func TestSessionPublishSingle(t *testing.T) {
	s := newTestSession(t, aitovar.NewMockAnalyzer())
	stageImages(t, s, "a.jpg")
	_, err := s.Analyze(context.Background(), "")
	require.NoError(t, err)

	id := s.Store().All()[0].ID
	published, err := s.Publish(id)
	require.NoError(t, err)
	assert.Equal(t, id, published.ID)
	assert.Equal(t, StageReview, s.Stage(), "single publish stays in review")

	_, err = s.Publish("missing")
	assert.ErrorIs(t, err, listing.ErrListingNotFound)
}

func TestSessionBackNavigationDiscardsNothing(t *testing.T) {
	s := newTestSession(t, aitovar.NewMockAnalyzer())
	stageImages(t, s, "a.jpg")
	_, err := s.Analyze(context.Background(), "")
	require.NoError(t, err)
	s.PublishAll()

	s.GoTo(StageReview)
	assert.Equal(t, 1, s.Store().Len())
	assert.Len(t, s.Ledger().Published(), 1)

	s.GoTo(StageUpload)
	s.GoTo(StagePromotion)
	assert.Len(t, s.Ledger().Published(), 1)
}

func TestSessionRestoresPersistedListings(t *testing.T) {
	kv := storage.NewMemoryKV()
	taxonomy := listing.DefaultTaxonomy()

	first := NewSession(aitovar.NewMockAnalyzer(), taxonomy, kv)
	stageImages(t, first, "a.jpg")
	_, err := first.Analyze(context.Background(), "")
	require.NoError(t, err)

	second := NewSession(aitovar.NewMockAnalyzer(), taxonomy, kv)
	assert.Equal(t, 1, second.Store().Len())
	assert.Equal(t, StageReview, second.Stage())
}

func TestParseStage(t *testing.T) {
	tests := map[string]struct {
		name    string
		want    Stage
		wantErr bool
	}{
		"upload":    {"upload", StageUpload, false},
		"review":    {"review", StageReview, false},
		"promotion": {"promotion", StagePromotion, false},
		"unknown":   {"checkout", StageUpload, true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseStage(tc.name)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.name, got.String())
		})
	}
}
