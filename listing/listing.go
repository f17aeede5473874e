package listing

// Listing is one normalized, user-editable product record derived from one
// analysis result. Images is never empty while the listing exists; the first
// element is the primary image used as the thumbnail.
type Listing struct {
	ID           string   `json:"id"`
	Images       []string `json:"images"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	MainCategory string   `json:"mainCategory"`
	SubCategory  string   `json:"subCategory"`
	Price        string   `json:"price"`
	Currency     string   `json:"currency"`
	Brand        string   `json:"brand"`
	Condition    string   `json:"condition"`
	Color        string   `json:"color,omitempty"`
	Location     string   `json:"location"`
	UserInput    string   `json:"userInput,omitempty"`
}

// AnalysisResult is the normalized output of an image analyzer, the raw
// material a Listing is derived from. Every field except ID, Description and
// Images may be absent.
type AnalysisResult struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Images       []string `json:"images"`
	Title        string   `json:"title,omitempty"`
	Category     string   `json:"category,omitempty"`
	Subcategory  string   `json:"subcategory,omitempty"`
	Color        string   `json:"color,omitempty"`
	Filename     string   `json:"filename,omitempty"`
	Width        int      `json:"width,omitempty"`
	Height       int      `json:"height,omitempty"`
	SizeBytes    int64    `json:"sizeBytes,omitempty"`
	ImageIndexes []int    `json:"imageIndexes,omitempty"`
}

type PromotionType string

const (
	PromotionStandard PromotionType = "standard"
	PromotionTop      PromotionType = "top"
	PromotionVIP      PromotionType = "vip"
)

// PublishedListing is a Listing that has been published. PromotionType and
// Days are the only fields mutable after publishing; a published listing
// never reverts to a plain Listing.
type PublishedListing struct {
	Listing
	PromotionType PromotionType `json:"promotionType"`
	Days          int           `json:"days"`
}

const (
	DefaultTitle     = "Товар для продажи"
	DefaultCondition = "Хорошее"
	DefaultLocation  = "Душанбе"
	DefaultCurrency  = "сомони"
)

// Conditions a listing can be in, in the order the review UI offers them.
var Conditions = []string{"Новое", "Отличное", "Хорошее", "Удовлетворительное", "На запчасти"}

// Currencies accepted for the price field.
var Currencies = []string{"сомони", "доллар", "евро"}
