package core

// CategoryOther is the fallback for unknown category ids.
const CategoryOther = "other"

// Category is static display metadata for a spending category.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
	BgColor string `json:"bg_color"`
}

var catalog = []Category{
	{ID: "food", Name: "Food", Icon: "🍔", Color: "#f97316", BgColor: "#fff7ed"},
	{ID: "transport", Name: "Transport", Icon: "🚗", Color: "#3b82f6", BgColor: "#eff6ff"},
	{ID: "housing", Name: "Housing", Icon: "🏠", Color: "#6366f1", BgColor: "#eef2ff"},
	{ID: "entertainment", Name: "Entertainment", Icon: "🎬", Color: "#a855f7", BgColor: "#faf5ff"},
	{ID: "shopping", Name: "Shopping", Icon: "🛍️", Color: "#ec4899", BgColor: "#fdf2f8"},
	{ID: "bills", Name: "Bills", Icon: "📄", Color: "#14b8a6", BgColor: "#f0fdfa"},
	{ID: "health", Name: "Health", Icon: "❤️", Color: "#ef4444", BgColor: "#fef2f2"},
	{ID: "education", Name: "Education", Icon: "📚", Color: "#0ea5e9", BgColor: "#f0f9ff"},
	{ID: CategoryOther, Name: "Other", Icon: "📦", Color: "#64748b", BgColor: "#f8fafc"},
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, c := range catalog {
		idx[c.ID] = i
	}
	return idx
}()

// Categories returns the catalog in display order.
func Categories() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the category with the given id, or the "other" entry.
func Lookup(id string) Category {
	if i, ok := catalogIndex[id]; ok {
		return catalog[i]
	}
	return catalog[catalogIndex[CategoryOther]]
}

// IsKnownCategory reports whether id is in the catalog.
func IsKnownCategory(id string) bool {
	_, ok := catalogIndex[id]
	return ok
}

// NormalizeCategory maps unknown ids to CategoryOther.
func NormalizeCategory(id string) string {
	if IsKnownCategory(id) {
		return id
	}
	return CategoryOther
}
