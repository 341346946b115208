// Package wiki owns the canonical dataset of categories and items. All
// mutations are read-modify-write against the whole dataset: each call
// loads the current state from the durable slot, applies one change,
// stamps timestamps, and writes the full dataset back.
package wiki

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maokki/wikinotes/internal/slot"
)

// DefaultKey is the durable-slot key holding the serialized dataset.
const DefaultKey = "wikinotes_data"

// Store is the persistence and query layer. Construct exactly one per
// process and pass it by handle; consumers never build Category or Item
// values themselves.
type Store struct {
	slot   slot.Slot
	key    string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the durable-slot key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store over the given durable slot.
func NewStore(sl slot.Slot, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		slot:   sl,
		key:    DefaultKey,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the full dataset from the durable slot. An absent value
// yields an empty dataset; a read failure or malformed value is logged
// and also yields an empty dataset, never a partially reconstructed one.
func (s *Store) Load(ctx context.Context) *Dataset {
	value, found, err := s.slot.Get(ctx, s.key)
	if err != nil {
		s.logger.Error("reading durable slot", "key", s.key, "error", err)
		return emptyDataset()
	}
	if !found {
		return emptyDataset()
	}
	ds, err := DecodeDataset([]byte(value))
	if err != nil {
		s.logger.Error("stored dataset is malformed, falling back to empty", "key", s.key, "error", err)
		return emptyDataset()
	}
	return ds
}

// Save serializes the full dataset and replaces the durable value. On
// failure the previous durable value stays in place.
func (s *Store) Save(ctx context.Context, ds *Dataset) error {
	data, err := EncodeDataset(ds)
	if err != nil {
		return err
	}
	if err := s.slot.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Error("writing durable slot", "key", s.key, "error", err)
		return fmt.Errorf("writing dataset: %w", err)
	}
	return nil
}

// CreateCategory appends a new empty category and persists the dataset.
func (s *Store) CreateCategory(ctx context.Context, name string) (*Category, error) {
	now := s.now()
	cat := Category{
		ID:        newID(),
		Name:      name,
		Items:     []Item{},
		SortOrder: SortAlphabetical,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ds := s.Load(ctx)
	ds.Categories = append(ds.Categories, cat)
	if err := s.Save(ctx, ds); err != nil {
		return nil, err
	}
	return &cat, nil
}

// UpdateCategory merges the patch into the category, field by field.
// Returns ErrCategoryNotFound without persisting if the id is unknown.
func (s *Store) UpdateCategory(ctx context.Context, categoryID string, patch CategoryPatch) error {
	ds := s.Load(ctx)
	cat := ds.category(categoryID)
	if cat == nil {
		return ErrCategoryNotFound
	}
	if patch.Name != nil {
		cat.Name = *patch.Name
	}
	if patch.SortOrder != nil {
		if !validSortOrders[*patch.SortOrder] {
			return fmt.Errorf("%w: %q", ErrInvalidSortOrder, *patch.SortOrder)
		}
		cat.SortOrder = *patch.SortOrder
	}
	cat.UpdatedAt = s.now()
	return s.Save(ctx, ds)
}

// DeleteCategory removes the category and all its items. Deleting an
// unknown id is not an error; the call succeeds if the persist does.
func (s *Store) DeleteCategory(ctx context.Context, categoryID string) error {
	ds := s.Load(ctx)
	kept := ds.Categories[:0]
	for _, cat := range ds.Categories {
		if cat.ID != categoryID {
			kept = append(kept, cat)
		}
	}
	ds.Categories = kept
	return s.Save(ctx, ds)
}

// CreateItem appends a new item to the category and refreshes the
// category's updatedAt. Returns ErrCategoryNotFound if the category
// doesn't exist; no item is created in that case.
func (s *Store) CreateItem(ctx context.Context, categoryID string, fields ItemFields) (*Item, error) {
	ds := s.Load(ctx)
	cat := ds.category(categoryID)
	if cat == nil {
		return nil, ErrCategoryNotFound
	}

	now := s.now()
	item := Item{
		ID:          newID(),
		Name:        fields.Name,
		Tags:        normalizeTags(fields.Tags),
		Description: fields.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	cat.Items = append(cat.Items, item)
	cat.UpdatedAt = now
	if err := s.Save(ctx, ds); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem merges the patch into the item and refreshes updatedAt on
// both the item and its owning category.
func (s *Store) UpdateItem(ctx context.Context, categoryID, itemID string, patch ItemPatch) error {
	ds := s.Load(ctx)
	cat := ds.category(categoryID)
	if cat == nil {
		return ErrCategoryNotFound
	}
	item := findItem(cat, itemID)
	if item == nil {
		return ErrItemNotFound
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Tags != nil {
		item.Tags = normalizeTags(*patch.Tags)
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	now := s.now()
	item.UpdatedAt = now
	cat.UpdatedAt = now
	return s.Save(ctx, ds)
}

// DeleteItem removes the item from the category and refreshes the
// category's updatedAt. Returns ErrCategoryNotFound if the category
// doesn't exist; a missing item within an existing category is not an
// error.
func (s *Store) DeleteItem(ctx context.Context, categoryID, itemID string) error {
	ds := s.Load(ctx)
	cat := ds.category(categoryID)
	if cat == nil {
		return ErrCategoryNotFound
	}
	kept := cat.Items[:0]
	for _, item := range cat.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	cat.Items = kept
	cat.UpdatedAt = s.now()
	return s.Save(ctx, ds)
}

// Search returns all items whose name, description, or any tag contains
// the query, case-insensitively, paired with their owning category.
// Results follow dataset iteration order. An empty query matches every
// item: the empty string is a substring of everything.
func (s *Store) Search(ctx context.Context, query string) []CategoryItem {
	ds := s.Load(ctx)
	q := strings.ToLower(query)

	results := []CategoryItem{}
	for _, cat := range ds.Categories {
		for _, item := range cat.Items {
			if itemMatches(item, q) {
				results = append(results, CategoryItem{Category: cat, Item: item})
			}
		}
	}
	return results
}

// TotalItems returns the item count across all categories.
func (s *Store) TotalItems(ctx context.Context) int {
	return s.Load(ctx).TotalItems()
}

// RecentItems returns up to limit items ordered by updatedAt descending,
// ties broken by dataset iteration order, each paired with its owning
// category.
func (s *Store) RecentItems(ctx context.Context, limit int) []CategoryItem {
	return s.Load(ctx).Recent(limit)
}

// ExportBackup stamps lastBackup, persists the dataset, and returns the
// pretty-printed serialization for the caller to save externally.
func (s *Store) ExportBackup(ctx context.Context) (string, error) {
	ds := s.Load(ctx)
	now := s.now()
	ds.LastBackup = &now
	if err := s.Save(ctx, ds); err != nil {
		return "", err
	}
	data, err := EncodeBackup(ds)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportBackup replaces the entire dataset with the parsed payload.
// The import is destructive, never a merge. Any parse or validation
// failure returns ErrInvalidBackup and leaves the current dataset
// untouched.
func (s *Store) ImportBackup(ctx context.Context, text string) error {
	ds, err := DecodeBackup([]byte(text), s.now())
	if err != nil {
		s.logger.Warn("rejecting backup import", "error", err)
		return err
	}
	return s.Save(ctx, ds)
}

func emptyDataset() *Dataset {
	return &Dataset{Categories: []Category{}}
}

func findItem(cat *Category, itemID string) *Item {
	for i := range cat.Items {
		if cat.Items[i].ID == itemID {
			return &cat.Items[i]
		}
	}
	return nil
}

func itemMatches(item Item, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(item.Name), lowerQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Description), lowerQuery) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), lowerQuery) {
			return true
		}
	}
	return false
}

// newID returns a UUIDv7: time-ordered with a random component, so ids
// never collide in practice across the lifetime of a dataset.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
