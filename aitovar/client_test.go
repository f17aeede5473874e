package aitovar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitovar/photo-listing/ingest"
)

func testUploads() []ingest.UploadedImage {
	return []ingest.UploadedImage{
		{ID: "u1", Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("aaa"), PreviewDataURI: "data:image/jpeg;base64,YWFh"},
	}
}

func TestAnalyzeFlatResponse(t *testing.T) {
	var req *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"results": [
				{"id": "r1", "description": "кроссовки", "image_preview": "p1", "filename": "a.jpg", "width": 640, "height": 480, "size_bytes": 1234}
			]
		}`))
	}))
	defer ts.Close()

	client := NewClient(ClientOpts{BaseURL: ts.URL})
	results, err := client.Analyze(context.Background(), testUploads(), "подсказка")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "r1", results[0].ID)
	assert.Equal(t, "кроссовки", results[0].Description)
	assert.Equal(t, []string{"p1"}, results[0].Images)
	assert.Equal(t, int64(1234), results[0].SizeBytes)

	assert.Equal(t, "/analyze-multiple", req.URL.Path)
	assert.Contains(t, req.Header.Get("Content-Type"), "multipart/form-data")
}

func TestAnalyzeGroupedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"grouped": true,
			"results": [
				{
					"id": "g1",
					"description": "ноутбук",
					"images": [{"image_preview": "p1"}, {"image_preview": "p2"}],
					"image_indexes": [0, 2],
					"title": "Ноутбук HP",
					"category": "Электроника и бытовая техника",
					"subcategory": "Компьютеры и оргтехника"
				}
			]
		}`))
	}))
	defer ts.Close()

	client := NewClient(ClientOpts{BaseURL: ts.URL})
	results, err := client.Analyze(context.Background(), testUploads(), "")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, []string{"p1", "p2"}, results[0].Images)
	assert.Equal(t, []int{0, 2}, results[0].ImageIndexes)
	assert.Equal(t, "Ноутбук HP", results[0].Title)
	assert.Equal(t, "Электроника и бытовая техника", results[0].Category)
}

func TestAnalyzeFailures(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
	}{
		"explicit failure":       {http.StatusOK, `{"success": false, "error": "анализ не удался"}`},
		"failure without detail": {http.StatusOK, `{"success": false}`},
		"server error":           {http.StatusInternalServerError, `boom`},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			client := NewClient(ClientOpts{BaseURL: ts.URL})
			results, err := client.Analyze(context.Background(), testUploads(), "")
			assert.Error(t, err)
			assert.Nil(t, results)
		})
	}
}

func TestGetCategoriesPreservesOrder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"categories": {
				"Транспорт": ["Легковые автомобили", "Мотоциклы"],
				"Авто-мото": [],
				"Работа": ["Вакансии"]
			}
		}`))
	}))
	defer ts.Close()

	client := NewClient(ClientOpts{BaseURL: ts.URL})
	taxonomy, err := client.GetCategories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Транспорт", "Авто-мото", "Работа"}, taxonomy.Categories())
	assert.Equal(t, []string{"Легковые автомобили", "Мотоциклы"}, taxonomy.SubcategoriesOf("Транспорт"))
	assert.Empty(t, taxonomy.SubcategoriesOf("Авто-мото"))
}

func TestLoadTaxonomyFallsBackOnFailure(t *testing.T) {
	tests := map[string]func(w http.ResponseWriter, r *http.Request){
		"http error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"failure envelope": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success": false, "error": "nope"}`))
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{{{`))
		},
		"empty taxonomy": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success": true, "categories": {}}`))
		},
	}
	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(handler))
			defer ts.Close()

			client := NewClient(ClientOpts{BaseURL: ts.URL})
			taxonomy := LoadTaxonomy(context.Background(), client)
			assert.Equal(t, 8, taxonomy.Len(), "expected the built-in taxonomy")
		})
	}

	t.Run("nil client", func(t *testing.T) {
		taxonomy := LoadTaxonomy(context.Background(), nil)
		assert.Equal(t, 8, taxonomy.Len())
	})
}
