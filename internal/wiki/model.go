package wiki

import (
	"sort"
	"time"
)

// SortOrder is the advisory presentation order of a category's items.
// The stored item sequence is never re-sorted by the store.
type SortOrder string

const (
	SortAlphabetical SortOrder = "alphabetical"
	SortTags         SortOrder = "tags"
	SortDate         SortOrder = "date"
)

// validSortOrders is the set of recognized sort order values.
var validSortOrders = map[SortOrder]bool{
	SortAlphabetical: true,
	SortTags:         true,
	SortDate:         true,
}

// Item is a single tagged note entry owned by exactly one category.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Category is a named grouping owning an ordered sequence of items.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Items     []Item    `json:"items"`
	SortOrder SortOrder `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Dataset is the full set of categories persisted as one unit.
// LastBackup is nil until the first export.
type Dataset struct {
	Categories []Category `json:"categories"`
	LastBackup *time.Time `json:"lastBackup"`
}

// TotalItems returns the item count across all categories.
func (d *Dataset) TotalItems() int {
	total := 0
	for _, cat := range d.Categories {
		total += len(cat.Items)
	}
	return total
}

// Recent returns up to limit items ordered by updatedAt descending,
// ties broken by dataset iteration order, each paired with its owning
// category.
func (d *Dataset) Recent(limit int) []CategoryItem {
	all := []CategoryItem{}
	for _, cat := range d.Categories {
		for _, item := range cat.Items {
			all = append(all, CategoryItem{Category: cat, Item: item})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Item.UpdatedAt.After(all[j].Item.UpdatedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// category returns the category with the given ID, or nil.
func (d *Dataset) category(id string) *Category {
	for i := range d.Categories {
		if d.Categories[i].ID == id {
			return &d.Categories[i]
		}
	}
	return nil
}

// ItemFields are the caller-supplied fields of a new item.
type ItemFields struct {
	Name        string
	Tags        []string
	Description string
}

// CategoryPatch is a partial category update; nil fields are left unchanged.
type CategoryPatch struct {
	Name      *string
	SortOrder *SortOrder
}

// ItemPatch is a partial item update; nil fields are left unchanged.
type ItemPatch struct {
	Name        *string
	Tags        *[]string
	Description *string
}

// CategoryItem pairs an item with its owning category, as returned by
// search and the recent-items view.
type CategoryItem struct {
	Category Category `json:"category"`
	Item     Item     `json:"item"`
}
