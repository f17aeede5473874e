// Package ingest turns raw uploaded files into staged images with inline
// previews, ready for analysis.
package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// File is one raw uploaded blob as it arrives from the file picker or a
// drag-drop event.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadedImage is a staged image. PreviewDataURI is a fully-encoded data
// URL ready for direct display; Data keeps the original bytes for the
// analysis request.
type UploadedImage struct {
	ID             string `json:"id"`
	PreviewDataURI string `json:"preview"`
	Filename       string `json:"filename"`
	SizeBytes      int64  `json:"sizeBytes"`

	ContentType string `json:"-"`
	Data        []byte `json:"-"`
}

// Ingestor owns the staged upload set for a session.
type Ingestor struct {
	mu      sync.Mutex
	uploads []UploadedImage
}

func NewIngestor() *Ingestor {
	return &Ingestor{}
}

// Ingest decodes files concurrently and appends the accepted ones to the
// staged set. Files without an image MIME type are silently dropped, and a
// failure to decode one file never affects the others. Returns the images
// accepted from this batch.
func (n *Ingestor) Ingest(ctx context.Context, files []File) []UploadedImage {
	decoded := make([]*UploadedImage, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i := range files {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			img, err := decodeFile(files[i])
			if err != nil {
				log.Debug().Str("filename", files[i].Name).Err(err).Msg("dropping file")
				return nil
			}
			decoded[i] = img
			// Append as soon as this file is done so a slow decode does not
			// hold back the rest of the batch.
			n.append(*img)
			return nil
		})
	}
	// Decode errors are swallowed per file, so Wait only synchronizes.
	_ = g.Wait()

	accepted := make([]UploadedImage, 0, len(files))
	for _, img := range decoded {
		if img != nil {
			accepted = append(accepted, *img)
		}
	}
	log.Info().Int("received", len(files)).Int("accepted", len(accepted)).Msg("ingested upload batch")
	return accepted
}

func (n *Ingestor) append(img UploadedImage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.uploads = append(n.uploads, img)
}

// Uploads returns a snapshot of the staged set.
func (n *Ingestor) Uploads() []UploadedImage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]UploadedImage, len(n.uploads))
	copy(out, n.uploads)
	return out
}

// Remove deletes one staged image by id. Derived listings are unaffected.
func (n *Ingestor) Remove(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, img := range n.uploads {
		if img.ID == id {
			n.uploads = append(n.uploads[:i], n.uploads[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the staged set, typically after extraction results have
// superseded it.
func (n *Ingestor) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.uploads = nil
}

func (n *Ingestor) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.uploads)
}

func decodeFile(f File) (*UploadedImage, error) {
	if len(f.Data) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(f.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("not an image: %s", contentType)
	}

	preview := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(f.Data))

	return &UploadedImage{
		ID:             uuid.NewString(),
		PreviewDataURI: preview,
		Filename:       f.Name,
		SizeBytes:      int64(len(f.Data)),
		ContentType:    contentType,
		Data:           f.Data,
	}, nil
}
