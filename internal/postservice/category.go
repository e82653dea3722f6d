package postservice

import (
	"fmt"
	"strings"
)

var DefaultCategories = []string{"SEO", "Social", "Content", "Strategy", "Analytics", "ROI", "Trends"}

// newCategories builds the fixed category list from configured names. Blank
// and duplicate names are skipped.
func newCategories(names []string) []Category {
	if len(names) == 0 {
		names = DefaultCategories
	}

	seen := make(map[string]bool, len(names))
	categories := make([]Category, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		categories = append(categories, Category{
			ID:   fmt.Sprintf("cat%d", len(categories)+1),
			Name: name,
			Slug: slug,
		})
	}

	return categories
}
