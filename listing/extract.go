package listing

import (
	"regexp"
	"strings"
)

// titleMarker is the section header the analyzer puts in front of the item
// name in its free-text description.
const titleMarker = "ТОВАР И КАТЕГОРИЯ:"

var priceRe = regexp.MustCompile(`(?i)(\d+)\s*(сомони|доллар|евро)`)

// categoryKeywords maps categories to substrings that suggest them. Order
// matters: the first category with a matching keyword wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Одежда и личные вещи", []string{"кроссовки", "обувь", "одежда", "футболка", "джинсы", "платье"}},
	{"Электроника и бытовая техника", []string{"ноутбук", "телефон", "компьютер", "телевизор", "техника"}},
	{"Детский мир", []string{"детск", "автокресло", "коляска", "игрушка"}},
	{"Транспорт", []string{"автомобиль", "машина", "мотоцикл", "запчасти"}},
	{"Все для дома", []string{"мебель", "стол", "стул", "диван", "кровать"}},
}

// subcategoryKeywords works like categoryKeywords but only subcategories
// that belong to the detected main category are considered.
var subcategoryKeywords = []struct {
	subcategory string
	keywords    []string
}{
	{"Обувь", []string{"кроссовки", "обувь"}},
	{"Компьютеры и оргтехника", []string{"ноутбук", "компьютер"}},
	{"Телефоны и связь", []string{"телефон", "смартфон"}},
	{"Детские автокресла", []string{"автокресло"}},
	{"Детские коляски", []string{"коляска"}},
	{"Игрушки", []string{"игрушка"}},
	{"Мебель", []string{"мебель", "диван", "стол", "стул", "кровать"}},
	{"Автозапчасти", []string{"запчасти"}},
}

var brands = []string{"Nike", "Adidas", "Samsung", "Apple", "HP", "Dell", "Sony", "LG", "MAXI-COSI"}

// conditionKeywords are checked in priority order: new beats excellent beats
// good.
var conditionKeywords = []struct {
	condition string
	keywords  []string
}{
	{"Новое", []string{"новый", "новое"}},
	{"Отличное", []string{"отличное", "отлично"}},
	{"Хорошее", []string{"хорошее", "хорошо"}},
}

// Extract derives one Listing per analysis result. Structured fields the
// analyzer supplied are copied through; anything missing is filled from the
// free-text description with deterministic heuristics, so identical input
// always produces identical output.
func Extract(results []AnalysisResult, taxonomy *Taxonomy, hint string) []Listing {
	listings := make([]Listing, 0, len(results))
	for _, r := range results {
		listings = append(listings, extractOne(r, taxonomy, hint))
	}
	return listings
}

func extractOne(r AnalysisResult, taxonomy *Taxonomy, hint string) Listing {
	lowerDesc := strings.ToLower(r.Description)

	mainCategory := r.Category
	if mainCategory == "" {
		mainCategory = detectCategory(lowerDesc, taxonomy)
	}

	subCategory := r.Subcategory
	if subCategory == "" {
		subCategory = detectSubcategory(lowerDesc, taxonomy, mainCategory)
	}

	title := r.Title
	if title == "" {
		title = extractTitle(r.Description)
	}

	location := DefaultLocation

	images := make([]string, len(r.Images))
	copy(images, r.Images)

	return Listing{
		ID:           r.ID,
		Images:       images,
		Title:        title,
		Description:  r.Description,
		MainCategory: mainCategory,
		SubCategory:  subCategory,
		Price:        extractPrice(r.Description),
		Currency:     DefaultCurrency,
		Brand:        extractBrand(lowerDesc),
		Condition:    extractCondition(lowerDesc),
		Color:        r.Color,
		Location:     location,
		UserInput:    hint,
	}
}

// extractTitle returns the first non-empty line following the line that
// contains the title marker. The marker line itself is a section header, not
// the title. A leading "- " bullet is stripped.
func extractTitle(description string) string {
	lines := strings.Split(description, "\n")
	for i, line := range lines {
		if !strings.Contains(line, titleMarker) {
			continue
		}
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if next == "" {
				continue
			}
			return strings.TrimSpace(strings.TrimPrefix(next, "- "))
		}
	}
	return DefaultTitle
}

// detectCategory matches the description against the keyword table. Only
// categories present in the taxonomy can win; when nothing matches, the
// taxonomy's first category is the fallback.
func detectCategory(lowerDesc string, taxonomy *Taxonomy) string {
	for _, entry := range categoryKeywords {
		if !taxonomy.Has(entry.category) {
			continue
		}
		for _, keyword := range entry.keywords {
			if strings.Contains(lowerDesc, keyword) {
				return entry.category
			}
		}
	}
	if first := taxonomy.FirstCategory(); first != "" {
		return first
	}
	return "Все для дома"
}

func detectSubcategory(lowerDesc string, taxonomy *Taxonomy, mainCategory string) string {
	for _, entry := range subcategoryKeywords {
		if !taxonomy.HasSubcategory(mainCategory, entry.subcategory) {
			continue
		}
		for _, keyword := range entry.keywords {
			if strings.Contains(lowerDesc, keyword) {
				return entry.subcategory
			}
		}
	}
	return taxonomy.FirstSubcategoryOf(mainCategory)
}

// extractPrice returns the digits of the first "<number> <currency>" match,
// or "0" when the description names no price.
func extractPrice(description string) string {
	m := priceRe.FindStringSubmatch(description)
	if m == nil {
		return "0"
	}
	return m[1]
}

func extractBrand(lowerDesc string) string {
	for _, brand := range brands {
		if strings.Contains(lowerDesc, strings.ToLower(brand)) {
			return brand
		}
	}
	return ""
}

func extractCondition(lowerDesc string) string {
	for _, entry := range conditionKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowerDesc, keyword) {
				return entry.condition
			}
		}
	}
	return DefaultCondition
}
