package listing

import (
	orderedmap "github.com/wk8/go-ordered-map"
)

// Taxonomy is an ordered mapping from category name to an ordered list of
// subcategory names. It is loaded once per session and replaced wholesale on
// reload; listing edits never mutate it.
type Taxonomy struct {
	m *orderedmap.OrderedMap
}

func NewTaxonomy() *Taxonomy {
	return &Taxonomy{m: orderedmap.New()}
}

// Add appends a category with its subcategories. Adding an existing category
// replaces its subcategory list but keeps its position.
func (t *Taxonomy) Add(category string, subcategories ...string) {
	subs := make([]string, len(subcategories))
	copy(subs, subcategories)
	t.m.Set(category, subs)
}

// Categories returns category names in insertion order.
func (t *Taxonomy) Categories() []string {
	categories := make([]string, 0, t.m.Len())
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		categories = append(categories, pair.Key.(string))
	}
	return categories
}

// SubcategoriesOf returns the ordered subcategories of a category, or an
// empty slice for an unknown category.
func (t *Taxonomy) SubcategoriesOf(category string) []string {
	v, ok := t.m.Get(category)
	if !ok {
		return nil
	}
	return v.([]string)
}

func (t *Taxonomy) Has(category string) bool {
	_, ok := t.m.Get(category)
	return ok
}

func (t *Taxonomy) Len() int {
	return t.m.Len()
}

// FirstCategory returns the first category in insertion order, or "" for an
// empty taxonomy.
func (t *Taxonomy) FirstCategory() string {
	pair := t.m.Oldest()
	if pair == nil {
		return ""
	}
	return pair.Key.(string)
}

// FirstSubcategoryOf returns the first subcategory of a category, or "" when
// the category is unknown or has none.
func (t *Taxonomy) FirstSubcategoryOf(category string) string {
	subs := t.SubcategoriesOf(category)
	if len(subs) == 0 {
		return ""
	}
	return subs[0]
}

// HasSubcategory reports whether subcategory is a member of the category's
// subcategory list.
func (t *Taxonomy) HasSubcategory(category, subcategory string) bool {
	for _, s := range t.SubcategoriesOf(category) {
		if s == subcategory {
			return true
		}
	}
	return false
}

// DefaultTaxonomy returns the built-in taxonomy used when no external
// category source is available or reachable.
func DefaultTaxonomy() *Taxonomy {
	t := NewTaxonomy()
	t.Add("Недвижимость", "Квартиры", "Дома", "Дачи", "Коммерческая недвижимость", "Земельные участки", "Гаражи")
	t.Add("Транспорт", "Легковые автомобили", "Грузовики", "Мотоциклы", "Автозапчасти", "Шины и диски")
	t.Add("Электроника и бытовая техника", "Телефоны и связь", "Компьютеры и оргтехника", "Телевизоры", "Аудиотехника", "Фото и видео")
	t.Add("Одежда и личные вещи", "Мужская одежда", "Женская одежда", "Детская одежда", "Обувь", "Аксессуары")
	t.Add("Все для дома", "Мебель", "Бытовая техника", "Посуда", "Текстиль", "Инструменты")
	t.Add("Детский мир", "Детская одежда", "Детская обувь", "Детская мебель", "Детские автокресла", "Детские коляски", "Игрушки")
	t.Add("Строительство, сырье и ремонт", "Стройматериалы", "Инструменты", "Сантехника", "Электрика")
	t.Add("Работа", "Вакансии", "Резюме", "Услуги")
	return t
}
