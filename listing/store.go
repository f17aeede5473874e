package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/aitovar/photo-listing/storage"
)

// storeKey is the key the listing collection is persisted under.
const storeKey = "ai_tovar_results"

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrLastImage       = errors.New("cannot remove the last image of a listing")
	ErrSameListing     = errors.New("cannot move an image onto the same listing")
	ErrImageIndex      = errors.New("image index out of range")
)

// Store holds the mutable listing collection for the current session.
// Insertion order is preserved and duplicate ids are permitted; operations
// addressed by id apply to every matching listing, the way the review UI
// treats them.
type Store struct {
	mu       sync.Mutex
	listings []Listing
	taxonomy *Taxonomy
	kv       storage.KV
}

// NewStore creates a store backed by kv for persistence. The taxonomy drives
// the category/subcategory consistency rule on updates.
func NewStore(taxonomy *Taxonomy, kv storage.KV) *Store {
	return &Store{taxonomy: taxonomy, kv: kv}
}

// Add appends listings to the end of the collection. Ids are not
// deduplicated.
func (s *Store) Add(listings []Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = append(s.listings, listings...)
	log.Info().Int("added", len(listings)).Int("total", len(s.listings)).Msg("listings added to store")
}

// All returns a snapshot of the collection in insertion order.
func (s *Store) All() []Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

// Len returns the number of listings in the collection.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listings)
}

// Get returns the first listing with the given id.
func (s *Store) Get(id string) (Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listings {
		if l.ID == id {
			return l, true
		}
	}
	return Listing{}, false
}

// Update replaces one field on every listing with a matching id. An absent
// id is a no-op. Changing mainCategory resets subCategory to the taxonomy's
// first entry for the new category, or clears it when the category has none.
func (s *Store) Update(id, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.listings {
		if s.listings[i].ID != id {
			continue
		}
		if err := s.setField(&s.listings[i], field, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) setField(l *Listing, field, value string) error {
	switch field {
	case "title":
		l.Title = value
	case "description":
		l.Description = value
	case "mainCategory":
		l.MainCategory = value
		l.SubCategory = s.taxonomy.FirstSubcategoryOf(value)
	case "subCategory":
		if value != "" && s.taxonomy.Has(l.MainCategory) && !s.taxonomy.HasSubcategory(l.MainCategory, value) {
			return fmt.Errorf("subcategory %q does not belong to category %q", value, l.MainCategory)
		}
		l.SubCategory = value
	case "price":
		l.Price = sanitizePrice(value)
	case "currency":
		l.Currency = value
	case "brand":
		l.Brand = value
	case "condition":
		l.Condition = value
	case "color":
		l.Color = value
	case "location":
		l.Location = value
	default:
		return fmt.Errorf("unknown listing field %q", field)
	}
	return nil
}

// sanitizePrice keeps the price a non-negative integer-valued string.
func sanitizePrice(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "0"
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return "0"
		}
	}
	return value
}

// Delete removes every listing with the given id. Idempotent.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.listings[:0]
	for _, l := range s.listings {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	s.listings = kept
}

// RemoveImage removes one image from a listing by index. Removing the last
// image is refused so a listing never ends up without images.
func (s *Store) RemoveImage(id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.find(id)
	if l == nil {
		return ErrListingNotFound
	}
	if len(l.Images) <= 1 {
		return ErrLastImage
	}
	if index < 0 || index >= len(l.Images) {
		return ErrImageIndex
	}
	l.Images = append(l.Images[:index], l.Images[index+1:]...)
	return nil
}

// MoveImage atomically detaches the image at index from the source listing
// and appends it to the destination listing. The source must keep at least
// one image, and the destination's primary image (index 0) is unaffected by
// the append.
func (s *Store) MoveImage(fromID string, index int, toID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fromID == toID {
		return ErrSameListing
	}
	from := s.find(fromID)
	to := s.find(toID)
	if from == nil || to == nil {
		return ErrListingNotFound
	}
	if len(from.Images) <= 1 {
		return ErrLastImage
	}
	if index < 0 || index >= len(from.Images) {
		return ErrImageIndex
	}
	image := from.Images[index]
	from.Images = append(from.Images[:index], from.Images[index+1:]...)
	to.Images = append(to.Images, image)
	return nil
}

func (s *Store) find(id string) *Listing {
	for i := range s.listings {
		if s.listings[i].ID == id {
			return &s.listings[i]
		}
	}
	return nil
}

// Persist serializes the full collection to the key-value store.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(s.listings)
	if err != nil {
		return fmt.Errorf("failed to marshal listings: %w", err)
	}
	if err := s.kv.Set(storeKey, data); err != nil {
		return fmt.Errorf("failed to persist listings: %w", err)
	}
	return nil
}

// Restore replaces the collection with the persisted one. Missing or corrupt
// stored data yields an empty collection; the caller never sees an error.
func (s *Store) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = nil

	data, err := s.kv.Get(storeKey)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read persisted listings, starting empty")
		return
	}
	if data == nil {
		return
	}

	var listings []Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		log.Warn().Err(err).Msg("persisted listings are corrupt, starting empty")
		return
	}
	s.listings = listings
	log.Info().Int("count", len(listings)).Msg("restored listings from store")
}
