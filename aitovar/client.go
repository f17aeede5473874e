package aitovar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/aitovar/photo-listing/ingest"
	"github.com/aitovar/photo-listing/listing"
)

const ApiBaseUrl = "https://aitovar.tj/api"

type ClientOpts struct {
	BaseURL string
	Auth    string
}

// Client calls the hosted analysis and category services.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	auth       string
}

func NewClient(opts ClientOpts) *Client {
	c := Client{baseURL: ApiBaseUrl}
	if opts.BaseURL != "" {
		c.baseURL = opts.BaseURL
	}
	if opts.Auth != "" {
		c.auth = opts.Auth
	}
	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(c.baseURL).
		SetHeaders(
			map[string]string{
				"Accept": "application/json",
			},
		)

	return &c
}

func (c *Client) req(ctx context.Context, result any) *resty.Request {
	request := c.httpClient.
		NewRequest().
		SetContext(ctx)

	if c.auth != "" {
		request.SetHeader("Authorization", c.auth)
	}
	if result != nil {
		request.SetResult(result)
	}

	return request
}

// Analyze sends the staged images and the optional hint to the analysis
// service. A transport failure, a non-2xx status or an explicit
// success:false all surface as a single error with no partial results.
func (c *Client) Analyze(ctx context.Context, uploads []ingest.UploadedImage, hint string) ([]listing.AnalysisResult, error) {
	result := &analyzeResponse{}

	request := c.req(ctx, result)
	for _, upload := range uploads {
		request.SetFileReader("files", upload.Filename, bytes.NewReader(upload.Data))
	}
	if hint != "" {
		request.SetFormData(map[string]string{"user_description": hint})
	}

	_, err := handleError(request.Post("/analyze-multiple"))
	if err != nil {
		return nil, err
	}
	if !result.Success {
		if result.Error != "" {
			return nil, fmt.Errorf("analysis failed: %s", result.Error)
		}
		return nil, fmt.Errorf("analysis failed without error detail")
	}

	results := make([]listing.AnalysisResult, 0, len(result.Results))
	for _, payload := range result.Results {
		results = append(results, payload.toResult())
	}
	log.Info().Int("results", len(results)).Bool("grouped", result.Grouped).Msg("analysis response received")
	return results, nil
}

// GetCategories fetches the category taxonomy from the category service,
// preserving the order of the response object's keys.
func (c *Client) GetCategories(ctx context.Context) (*listing.Taxonomy, error) {
	res, err := handleError(c.req(ctx, nil).Get("/categories"))
	if err != nil {
		return nil, err
	}
	return parseCategories(res.Body())
}

// LoadTaxonomy fetches the taxonomy and substitutes the built-in one on any
// failure. Taxonomy loading never blocks the rest of the workflow.
func LoadTaxonomy(ctx context.Context, c *Client) *listing.Taxonomy {
	if c == nil {
		return listing.DefaultTaxonomy()
	}
	taxonomy, err := c.GetCategories(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load categories, using built-in taxonomy")
		return listing.DefaultTaxonomy()
	}
	if taxonomy.Len() == 0 {
		log.Warn().Msg("category service returned an empty taxonomy, using built-in one")
		return listing.DefaultTaxonomy()
	}
	log.Info().Int("categories", taxonomy.Len()).Msg("loaded categories from service")
	return taxonomy
}

// parseCategories decodes {"success":true,"categories":{...}} with a token
// walk, because unmarshalling into a map would lose the category order.
func parseCategories(body []byte) (*listing.Taxonomy, error) {
	var envelope struct {
		Success    bool            `json:"success"`
		Error      string          `json:"error"`
		Categories json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse categories response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("category service failure: %s", envelope.Error)
	}

	taxonomy := listing.NewTaxonomy()
	dec := json.NewDecoder(bytes.NewReader(envelope.Categories))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read categories object: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("categories is not an object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read category name: %w", err)
		}
		category, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("category name is not a string")
		}

		var subcategories []string
		if err := dec.Decode(&subcategories); err != nil {
			return nil, fmt.Errorf("failed to read subcategories of %q: %w", category, err)
		}
		taxonomy.Add(category, subcategories...)
	}

	return taxonomy, nil
}

// handleError is a generic error handler for failing responses (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}

	return res, nil
}
