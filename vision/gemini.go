package vision

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/aitovar/photo-listing/ingest"
	"github.com/aitovar/photo-listing/listing"
)

const geminiModel = "gemini-3-flash-preview"

// Gemini 3.0 Flash pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.50 // $0.50 per 1M input tokens (text/image/video)
	geminiOutputPricePerMillion = 3.00 // $3.00 per 1M output tokens (including thinking)
)

// The prompt asks for the same sectioned free-text format the hosted service
// produces, so the downstream field extraction works unchanged.
var geminiPrompt = strings.TrimSpace(dedent.Dedent(`
	Проанализируй фотографию товара для продажи на доске объявлений.

	Ответь на русском языке в таком формате:

	ТОВАР И КАТЕГОРИЯ:
	- <короткое название товара, включая бренд и модель если видны>
	<2-3 предложения с описанием товара: бренд, состояние, особенности>
	<если можно оценить цену, добавь строку вида "Цена: <число> сомони">

	Отвечай только текстом в этом формате, без markdown.`))

// GeminiAnalyzer uses Google's Gemini API for image analysis.
type GeminiAnalyzer struct {
	client *genai.Client
}

// NewGeminiAnalyzer creates a new Gemini-based analyzer. It uses the
// GEMINI_API_KEY environment variable for authentication.
func NewGeminiAnalyzer(ctx context.Context) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAnalyzer{client: client}, nil
}

// Analyze runs one Gemini call per staged image and binds each result to its
// source upload's id and preview.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, uploads []ingest.UploadedImage, hint string) ([]listing.AnalysisResult, error) {
	results := make([]listing.AnalysisResult, len(uploads))

	eg, ctx := errgroup.WithContext(ctx)
	for i := range uploads {
		i := i
		eg.Go(func() error {
			description, usage, err := g.analyzeOne(ctx, uploads[i], hint)
			if err != nil {
				log.Error().Str("filename", uploads[i].Filename).Err(err).Msg("gemini analysis failed")
				return err
			}
			log.Info().
				Str("filename", uploads[i].Filename).
				Int64("tokens", usage.TotalTokens).
				Float64("costUSD", usage.CostUSD).
				Msg("gemini analysis done")
			results[i] = listing.AnalysisResult{
				ID:          uploads[i].ID,
				Description: description,
				Images:      []string{uploads[i].PreviewDataURI},
				Filename:    uploads[i].Filename,
				SizeBytes:   uploads[i].SizeBytes,
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (g *GeminiAnalyzer) analyzeOne(ctx context.Context, upload ingest.UploadedImage, hint string) (string, Usage, error) {
	prompt := geminiPrompt
	if hint != "" {
		prompt += "\n\nДополнительная информация от владельца:\n" + hint
	}

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		{InlineData: &genai.Blob{Data: upload.Data, MIMEType: upload.ContentType}},
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, contents, nil)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", Usage{}, fmt.Errorf("no response from Gemini")
	}

	text := strings.TrimSpace(result.Text())

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateGeminiCost(usage.InputTokens, usage.OutputTokens)
	}

	return text, usage, nil
}

func calculateGeminiCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * geminiInputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * geminiOutputPricePerMillion
	return inputCost + outputCost
}
