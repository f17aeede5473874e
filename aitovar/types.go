// Package aitovar talks to the AIТовар analysis and category services.
package aitovar

import (
	"context"

	"github.com/aitovar/photo-listing/ingest"
	"github.com/aitovar/photo-listing/listing"
)

// Analyzer turns a batch of staged images (plus an optional free-text hint)
// into analysis results. Implementations: the hosted HTTP service (Client),
// the direct Gemini analyzer (vision package), and the offline MockAnalyzer.
type Analyzer interface {
	Analyze(ctx context.Context, uploads []ingest.UploadedImage, hint string) ([]listing.AnalysisResult, error)
}

// analyzeResponse covers both encodings of the analysis response: flat
// (one image_preview per result) and grouped (several images per result).
type analyzeResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Grouped bool            `json:"grouped"`
	Results []resultPayload `json:"results"`
}

type resultPayload struct {
	ID           string         `json:"id"`
	Description  string         `json:"description"`
	ImagePreview string         `json:"image_preview"`
	Images       []imagePayload `json:"images"`
	ImageIndexes []int          `json:"image_indexes"`
	Title        string         `json:"title"`
	Category     string         `json:"category"`
	Subcategory  string         `json:"subcategory"`
	Color        string         `json:"color"`
	Filename     string         `json:"filename"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	SizeBytes    int64          `json:"size_bytes"`
}

type imagePayload struct {
	ImagePreview string `json:"image_preview"`
}

// toResult flattens a wire result into the normalized record the extractor
// consumes. Grouped results carry their previews in images[]; flat ones in
// image_preview.
func (p resultPayload) toResult() listing.AnalysisResult {
	var previews []string
	for _, img := range p.Images {
		if img.ImagePreview != "" {
			previews = append(previews, img.ImagePreview)
		}
	}
	if len(previews) == 0 && p.ImagePreview != "" {
		previews = []string{p.ImagePreview}
	}

	return listing.AnalysisResult{
		ID:           p.ID,
		Description:  p.Description,
		Images:       previews,
		Title:        p.Title,
		Category:     p.Category,
		Subcategory:  p.Subcategory,
		Color:        p.Color,
		Filename:     p.Filename,
		Width:        p.Width,
		Height:       p.Height,
		SizeBytes:    p.SizeBytes,
		ImageIndexes: p.ImageIndexes,
	}
}
