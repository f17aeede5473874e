package listing

import (
	"errors"
	"fmt"
	"sync"
)

// Per-day promotion rates in somoni. Standard placement is free.
const (
	topDayRate = 5
	vipDayRate = 10
)

var ErrNegativeDays = errors.New("promotion days cannot be negative")

// PromotionStats aggregates published listings by tier.
type PromotionStats struct {
	StandardCount int `json:"standardCount"`
	TopCount      int `json:"topCount"`
	VIPCount      int `json:"vipCount"`
	TotalCost     int `json:"totalCost"`
}

// Ledger tracks published listings and their promotion tiers.
type Ledger struct {
	mu        sync.Mutex
	published []PublishedListing
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Publish wraps each listing as a standard, zero-day published listing and
// appends them to the ledger, preserving order.
func (l *Ledger) Publish(listings []Listing) []PublishedListing {
	l.mu.Lock()
	defer l.mu.Unlock()
	wrapped := make([]PublishedListing, 0, len(listings))
	for _, item := range listings {
		wrapped = append(wrapped, PublishedListing{
			Listing:       item,
			PromotionType: PromotionStandard,
			Days:          0,
		})
	}
	l.published = append(l.published, wrapped...)
	return wrapped
}

// SetPromotion updates the tier and duration of every published listing with
// a matching id. The standard tier is free and durationless, so it forces
// days to zero regardless of the passed value.
func (l *Ledger) SetPromotion(id string, promotionType PromotionType, days int) error {
	switch promotionType {
	case PromotionStandard, PromotionTop, PromotionVIP:
	default:
		return fmt.Errorf("unknown promotion type %q", promotionType)
	}
	if days < 0 {
		return ErrNegativeDays
	}
	if promotionType == PromotionStandard {
		days = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	found := false
	for i := range l.published {
		if l.published[i].ID == id {
			l.published[i].PromotionType = promotionType
			l.published[i].Days = days
			found = true
		}
	}
	if !found {
		return ErrListingNotFound
	}
	return nil
}

// Published returns a snapshot of the published listings in publish order.
func (l *Ledger) Published() []PublishedListing {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]PublishedListing, len(l.published))
	copy(out, l.published)
	return out
}

// Stats computes tier counts and the total promotion cost for the ledger's
// contents.
func (l *Ledger) Stats() PromotionStats {
	return ComputeStats(l.Published())
}

// ComputeStats counts listings by tier and totals the promotion cost:
// 5 somoni per day for top placement, 10 per day for vip, 0 for standard.
func ComputeStats(published []PublishedListing) PromotionStats {
	var stats PromotionStats
	for _, item := range published {
		switch item.PromotionType {
		case PromotionTop:
			stats.TopCount++
			stats.TotalCost += topDayRate * item.Days
		case PromotionVIP:
			stats.VIPCount++
			stats.TotalCost += vipDayRate * item.Days
		default:
			stats.StandardCount++
		}
	}
	return stats
}
