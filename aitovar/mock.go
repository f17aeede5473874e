package aitovar

import (
	"context"
	"strings"

	"github.com/lithammer/dedent"

	"github.com/aitovar/photo-listing/ingest"
	"github.com/aitovar/photo-listing/listing"
)

// mockTemplate is one canned analysis the offline analyzer rotates through.
type mockTemplate struct {
	title       string
	description string
}

var mockTemplates = []mockTemplate{
	{
		title: "Стильные кроссовки",
		description: `
			ТОВАР И КАТЕГОРИЯ:
			- Стильные кроссовки
			Удобные кроссовки Nike в отличном состоянии. Размер указан на фото.
			Цена: 250 сомони`,
	},
	{
		title: "Детское автокресло",
		description: `
			ТОВАР И КАТЕГОРИЯ:
			- Детское автокресло
			Безопасное автокресло MAXI-COSI для детей. Поворотное, с 5-точечными
			ремнями. Отличное состояние.
			Цена: 800 сомони`,
	},
	{
		title: "Ноутбук для работы",
		description: `
			ТОВАР И КАТЕГОРИЯ:
			- Ноутбук для работы
			Производительный ноутбук HP. Подходит для работы и учебы. Хорошее
			состояние.
			Цена: 1500 сомони`,
	},
	{
		title: "Бытовая техника",
		description: `
			ТОВАР И КАТЕГОРИЯ:
			- Бытовая техника
			Качественная техника Samsung для дома в хорошем состоянии.
			Цена: 400 сомони`,
	},
	{
		title: "Автозапчасти",
		description: `
			ТОВАР И КАТЕГОРИЯ:
			- Автозапчасти
			Оригинальные запчасти в отличном состоянии.
			Цена: 150 сомони`,
	},
}

// MockAnalyzer produces deterministic canned results without calling any
// external service. It binds each result to its source upload's id and
// preview, which keeps image-to-listing assignment correct.
type MockAnalyzer struct{}

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

func (m *MockAnalyzer) Analyze(_ context.Context, uploads []ingest.UploadedImage, hint string) ([]listing.AnalysisResult, error) {
	results := make([]listing.AnalysisResult, 0, len(uploads))
	for i, upload := range uploads {
		template := mockTemplates[i%len(mockTemplates)]

		description := strings.TrimSpace(dedent.Dedent(template.description))
		if hint != "" {
			description += "\nДополнительные детали указаны владельцем."
		}

		results = append(results, listing.AnalysisResult{
			ID:          upload.ID,
			Description: description,
			Images:      []string{upload.PreviewDataURI},
			Filename:    upload.Filename,
			SizeBytes:   upload.SizeBytes,
		})
	}
	return results, nil
}
