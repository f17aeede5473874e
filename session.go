package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/aitovar/photo-listing/aitovar"
	"github.com/aitovar/photo-listing/ingest"
	"github.com/aitovar/photo-listing/listing"
	"github.com/aitovar/photo-listing/storage"
)

// Stage tracks where the session is in the listing workflow.
type Stage int

const (
	StageUpload Stage = iota
	StageReview
	StagePromotion
)

// String returns a human-readable name for the Stage.
func (s Stage) String() string {
	switch s {
	case StageUpload:
		return "upload"
	case StageReview:
		return "review"
	case StagePromotion:
		return "promotion"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseStage maps a stage name back to its Stage.
func ParseStage(name string) (Stage, error) {
	switch name {
	case "upload":
		return StageUpload, nil
	case "review":
		return StageReview, nil
	case "promotion":
		return StagePromotion, nil
	default:
		return StageUpload, fmt.Errorf("unknown stage %q", name)
	}
}

// Session owns the workflow state for one listing-creation session: the
// staged uploads, the editable listing collection and the promotion ledger.
// All mutation funnels through a single mutex; background work (image
// decode, analysis) merges its results back through Session methods only.
type Session struct {
	mu        sync.Mutex
	stage     Stage
	analyzing bool

	ingestor *ingest.Ingestor
	store    *listing.Store
	ledger   *listing.Ledger
	taxonomy *listing.Taxonomy
	analyzer aitovar.Analyzer
}

// NewSession creates a session and restores any persisted listing
// collection from kv.
func NewSession(analyzer aitovar.Analyzer, taxonomy *listing.Taxonomy, kv storage.KV) *Session {
	store := listing.NewStore(taxonomy, kv)
	store.Restore()

	stage := StageUpload
	if store.Len() > 0 {
		stage = StageReview
	}

	return &Session{
		stage:    stage,
		ingestor: ingest.NewIngestor(),
		store:    store,
		ledger:   listing.NewLedger(),
		taxonomy: taxonomy,
		analyzer: analyzer,
	}
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *Session) Ingestor() *ingest.Ingestor  { return s.ingestor }
func (s *Session) Store() *listing.Store       { return s.store }
func (s *Session) Ledger() *listing.Ledger     { return s.ledger }
func (s *Session) Taxonomy() *listing.Taxonomy { return s.taxonomy }

// Analyze runs the analyzer over the staged uploads, normalizes the results
// into listings and advances the workflow to review. On failure the staged
// uploads are kept so the user can retry; no partial results are stored.
// There is no way to abort an analysis once started.
func (s *Session) Analyze(ctx context.Context, hint string) (int, error) {
	s.mu.Lock()
	if s.analyzing {
		s.mu.Unlock()
		return 0, fmt.Errorf("analysis already in progress")
	}
	uploads := s.ingestor.Uploads()
	if len(uploads) == 0 {
		s.mu.Unlock()
		return 0, fmt.Errorf("no uploaded images to analyze")
	}
	s.analyzing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.analyzing = false
		s.mu.Unlock()
	}()

	results, err := s.analyzer.Analyze(ctx, uploads, hint)
	if err != nil {
		return 0, fmt.Errorf("analysis request failed: %w", err)
	}

	listings := listing.Extract(results, s.taxonomy, hint)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Add(listings)
	s.ingestor.Clear()
	if len(listings) > 0 {
		s.stage = StageReview
	}
	s.persistLocked()

	log.Info().Int("listings", len(listings)).Msg("analysis complete, session in review")
	return len(listings), nil
}

// PublishAll wraps every current listing via the ledger and advances the
// workflow to promotion.
func (s *Session) PublishAll() []listing.PublishedListing {
	s.mu.Lock()
	defer s.mu.Unlock()
	published := s.ledger.Publish(s.store.All())
	s.stage = StagePromotion
	log.Info().Int("published", len(published)).Msg("published all listings")
	return published
}

// Publish publishes a single listing by id without leaving review.
func (s *Session) Publish(id string) (listing.PublishedListing, error) {
	item, ok := s.store.Get(id)
	if !ok {
		return listing.PublishedListing{}, listing.ErrListingNotFound
	}
	published := s.ledger.Publish([]listing.Listing{item})
	return published[0], nil
}

// GoTo navigates the workflow. Backward navigation discards nothing; all
// listing and promotion state survives within the session.
func (s *Session) GoTo(stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Info().Stringer("from", s.stage).Stringer("to", stage).Msg("stage change")
	s.stage = stage
}

// Persist writes the listing collection to the key-value store.
func (s *Session) Persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

func (s *Session) persistLocked() {
	if err := s.store.Persist(); err != nil {
		log.Warn().Err(err).Msg("failed to persist listings")
	}
}
