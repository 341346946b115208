// Package view holds the consumer-side snapshot of the dataset. The
// store never pushes change notifications, so the adapter re-fetches
// after every mutating call; reads between mutations are served from the
// cached copy.
package view

import (
	"context"
	"sync"
	"time"

	"github.com/maokki/wikinotes/internal/wiki"
)

// RecentLimit is how many recently-updated items the overview shows.
const RecentLimit = 5

// Adapter caches a read-only dataset snapshot over a Store. It owns the
// only lock in the system: every operation is serialized through it, so
// callers sharing one adapter cannot lose updates to interleaved
// read-modify-write cycles within the process.
type Adapter struct {
	mu    sync.Mutex
	store *wiki.Store
	data  *wiki.Dataset
}

// NewAdapter creates an adapter and primes its snapshot.
func NewAdapter(ctx context.Context, store *wiki.Store) *Adapter {
	return &Adapter{
		store: store,
		data:  store.Load(ctx),
	}
}

// Refresh re-reads the dataset from the store.
func (a *Adapter) Refresh(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshLocked(ctx)
}

func (a *Adapter) refreshLocked(ctx context.Context) {
	a.data = a.store.Load(ctx)
}

// Categories returns the cached categories in stored order.
func (a *Adapter) Categories() []wiki.Category {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data.Categories
}

// TotalItems returns the cached item count across all categories.
func (a *Adapter) TotalItems() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data.TotalItems()
}

// RecentItems returns the most recently updated items from the cached
// snapshot, paired with their owning categories.
func (a *Adapter) RecentItems() []wiki.CategoryItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data.Recent(RecentLimit)
}

// LastBackup returns the cached backup stamp, or nil if never exported.
func (a *Adapter) LastBackup() *time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.data.LastBackup == nil {
		return nil
	}
	t := *a.data.LastBackup
	return &t
}

func (a *Adapter) CreateCategory(ctx context.Context, name string) (*wiki.Category, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cat, err := a.store.CreateCategory(ctx, name)
	a.refreshLocked(ctx)
	return cat, err
}

func (a *Adapter) UpdateCategory(ctx context.Context, categoryID string, patch wiki.CategoryPatch) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.store.UpdateCategory(ctx, categoryID, patch)
	a.refreshLocked(ctx)
	return err
}

func (a *Adapter) DeleteCategory(ctx context.Context, categoryID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.store.DeleteCategory(ctx, categoryID)
	a.refreshLocked(ctx)
	return err
}

func (a *Adapter) CreateItem(ctx context.Context, categoryID string, fields wiki.ItemFields) (*wiki.Item, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	item, err := a.store.CreateItem(ctx, categoryID, fields)
	a.refreshLocked(ctx)
	return item, err
}

func (a *Adapter) UpdateItem(ctx context.Context, categoryID, itemID string, patch wiki.ItemPatch) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.store.UpdateItem(ctx, categoryID, itemID, patch)
	a.refreshLocked(ctx)
	return err
}

func (a *Adapter) DeleteItem(ctx context.Context, categoryID, itemID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.store.DeleteItem(ctx, categoryID, itemID)
	a.refreshLocked(ctx)
	return err
}

// Search queries the store directly; results reflect durable state.
func (a *Adapter) Search(ctx context.Context, query string) []wiki.CategoryItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Search(ctx, query)
}

func (a *Adapter) ExportBackup(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	text, err := a.store.ExportBackup(ctx)
	a.refreshLocked(ctx)
	return text, err
}

func (a *Adapter) ImportBackup(ctx context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.store.ImportBackup(ctx, text)
	a.refreshLocked(ctx)
	return err
}
