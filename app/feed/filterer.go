package feed

import (
	"fmt"
	"strings"
)

// Filterer applies a feed's include/exclude rules to its items.
type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run returns the items with IsFiltered and FilterReason set. Order and all
// other fields are preserved.
func (f *Filterer) Run(items []Item, filters []Filter) []Item {
	if len(filters) == 0 {
		return items
	}

	marked := make([]Item, 0, len(items))
	for _, item := range items {
		item.IsFiltered, item.FilterReason = f.applyFilters(item, filters)
		marked = append(marked, item)
	}

	return marked
}

// Visible runs the filters and keeps only the items that passed.
func (f *Filterer) Visible(items []Item, filters []Filter) []Item {
	marked := f.Run(items, filters)

	visible := make([]Item, 0, len(marked))
	for _, item := range marked {
		if !item.IsFiltered {
			visible = append(visible, item)
		}
	}
	return visible
}

func (f *Filterer) applyFilters(item Item, filters []Filter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(item Item, field string) string {
	switch field {
	case "title":
		return item.Title
	case "description":
		return item.Description
	case "content":
		return item.Content
	case "authors":
		return strings.Join(item.Authors, " ")
	case "link":
		return item.Link
	case "categories":
		return strings.Join(item.Categories, " ")
	default:
		return ""
	}
}
