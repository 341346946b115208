package wiki_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maokki/wikinotes/internal/slot"
	"github.com/maokki/wikinotes/internal/slot/mocks"
	"github.com/maokki/wikinotes/internal/wiki"
)

// testClock hands out strictly increasing UTC instants so timestamp
// ordering is deterministic.
type testClock struct {
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

func newTestStore(t *testing.T) (*wiki.Store, *slot.Memory) {
	t.Helper()
	mem := slot.NewMemory()
	store := wiki.NewStore(mem, nil, wiki.WithClock(newTestClock().Now))
	return store, mem
}

func TestStore_Load_EmptySlot(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	ds := store.Load(ctx)
	require.NotNil(t, ds)
	require.Empty(t, ds.Categories)
	require.Nil(t, ds.LastBackup)
}

func TestStore_Load_MalformedValueFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	store, mem := newTestStore(t)

	require.NoError(t, mem.Set(ctx, wiki.DefaultKey, "{not json"))
	ds := store.Load(ctx)
	require.Empty(t, ds.Categories)

	// The durable value is untouched by the fallback.
	value, found, err := mem.Get(ctx, wiki.DefaultKey)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "{not json", value)
}

func TestStore_Load_SlotReadFailureFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	sl := &mocks.Slot{}
	sl.On("Get", ctx, wiki.DefaultKey).Return("", false, errors.New("backend down"))

	store := wiki.NewStore(sl, nil)
	ds := store.Load(ctx)
	require.Empty(t, ds.Categories)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mem := newTestStore(t)

	cooking, err := store.CreateCategory(ctx, "Cooking")
	require.NoError(t, err)
	_, err = store.CreateItem(ctx, cooking.ID, wiki.ItemFields{
		Name:        "Soup",
		Tags:        []string{"dinner", "easy"},
		Description: "Tomato soup",
	})
	require.NoError(t, err)
	_, err = store.ExportBackup(ctx)
	require.NoError(t, err)

	saved := store.Load(ctx)

	// A fresh store over the same slot reconstructs the dataset
	// field-for-field, timestamps included.
	reread := wiki.NewStore(mem, nil)
	require.Equal(t, saved, reread.Load(ctx))
}

func TestStore_CreateCategory_Defaults(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cat, err := store.CreateCategory(ctx, "Reading")
	require.NoError(t, err)
	require.NotEmpty(t, cat.ID)
	require.Equal(t, "Reading", cat.Name)
	require.Empty(t, cat.Items)
	require.Equal(t, wiki.SortAlphabetical, cat.SortOrder)
	require.Equal(t, cat.CreatedAt, cat.UpdatedAt)

	ds := store.Load(ctx)
	require.Len(t, ds.Categories, 1)
	require.Equal(t, *cat, ds.Categories[0])
}

func TestStore_IDs_UniqueAcrossCategoriesAndItems(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		cat, err := store.CreateCategory(ctx, "cat")
		require.NoError(t, err)
		require.False(t, seen[cat.ID])
		seen[cat.ID] = true

		for j := 0; j < 5; j++ {
			item, err := store.CreateItem(ctx, cat.ID, wiki.ItemFields{Name: "note"})
			require.NoError(t, err)
			require.False(t, seen[item.ID])
			seen[item.ID] = true
		}
	}
}

func TestStore_UpdateCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cat, err := store.CreateCategory(ctx, "Old")
	require.NoError(t, err)

	name := "New"
	order := wiki.SortDate
	require.NoError(t, store.UpdateCategory(ctx, cat.ID, wiki.CategoryPatch{Name: &name, SortOrder: &order}))

	got := store.Load(ctx).Categories[0]
	require.Equal(t, "New", got.Name)
	require.Equal(t, wiki.SortDate, got.SortOrder)
	require.Equal(t, cat.CreatedAt, got.CreatedAt)
	require.True(t, got.UpdatedAt.After(cat.UpdatedAt))
}

func TestStore_UpdateCategory_NotFoundLeavesDatasetUnchanged(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.CreateCategory(ctx, "Keep")
	require.NoError(t, err)
	before := store.Load(ctx)

	name := "X"
	err = store.UpdateCategory(ctx, "nonexistent-id", wiki.CategoryPatch{Name: &name})
	require.ErrorIs(t, err, wiki.ErrCategoryNotFound)
	require.Equal(t, before, store.Load(ctx))
}

func TestStore_UpdateCategory_RejectsUnknownSortOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cat, err := store.CreateCategory(ctx, "Cooking")
	require.NoError(t, err)
	before := store.Load(ctx)

	bogus := wiki.SortOrder("random")
	err = store.UpdateCategory(ctx, cat.ID, wiki.CategoryPatch{SortOrder: &bogus})
	require.ErrorIs(t, err, wiki.ErrInvalidSortOrder)
	require.Equal(t, before, store.Load(ctx))
}

func TestStore_DeleteCategory_RemovesItsItems(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	keep, err := store.CreateCategory(ctx, "Keep")
	require.NoError(t, err)
	drop, err := store.CreateCategory(ctx, "Drop")
	require.NoError(t, err)
	_, err = store.CreateItem(ctx, drop.ID, wiki.ItemFields{Name: "gone"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteCategory(ctx, drop.ID))

	ds := store.Load(ctx)
	require.Len(t, ds.Categories, 1)
	require.Equal(t, keep.ID, ds.Categories[0].ID)
	require.Zero(t, ds.TotalItems())
	require.Empty(t, store.Search(ctx, "gone"))
}

func TestStore_DeleteCategory_UnknownIDSucceeds(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.DeleteCategory(ctx, "nonexistent-id"))
}

func TestStore_CreateItem(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cat, err := store.CreateCategory(ctx, "Cooking")
	require.NoError(t, err)

	item, err := store.CreateItem(ctx, cat.ID, wiki.ItemFields{
		Name:        "Soup",
		Tags:        []string{"dinner"},
		Description: "Tomato soup",
	})
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)
	require.Equal(t, item.CreatedAt, item.UpdatedAt)

	got := store.Load(ctx).Categories[0]
	require.Len(t, got.Items, 1)
	require.Equal(t, *item, got.Items[0])
	// Adding an item refreshes the owning category.
	require.True(t, got.UpdatedAt.After(cat.UpdatedAt))
}

func TestStore_CreateItem_UnknownCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	item, err := store.CreateItem(ctx, "nonexistent-id", wiki.ItemFields{Name: "Soup"})
	require.ErrorIs(t, err, wiki.ErrCategoryNotFound)
	require.Nil(t, item)
	require.Zero(t, store.TotalItems(ctx))
}

func TestStore_UpdateItem_ChangesOnlyPatchedFields(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cat, err := store.CreateCategory(ctx, "Cooking")
	require.NoError(t, err)
	item, err := store.CreateItem(ctx, cat.ID, wiki.ItemFields{
		Name:        "Soup",
		Tags:        []string{"dinner"},
		Description: "Tomato soup",
	})
	require.NoError(t, err)

	desc := "new"
	require.NoError(t, store.UpdateItem(ctx, cat.ID, item.ID, wiki.ItemPatch{Description: &desc}))

	gotCat := store.Load(ctx).Categories[0]
	gotItem := gotCat.Items[0]
	require.Equal(t, "new", gotItem.Description)
	require.Equal(t, "Soup", gotItem.Name)
	require.Equal(t, []string{"dinner"}, gotItem.Tags)
	require.Equal(t, item.CreatedAt, gotItem.CreatedAt)
	require.True(t, gotItem.UpdatedAt.After(item.UpdatedAt))
	require.Equal(t, gotItem.UpdatedAt, gotCat.UpdatedAt)
}

func TestStore_UpdateItem_NotFound(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cat, err := store.CreateCategory(ctx, "Cooking")
	require.NoError(t, err)

	name := "X"
	require.ErrorIs(t, store.UpdateItem(ctx, "nonexistent-id", "whatever", wiki.ItemPatch{Name: &name}), wiki.ErrCategoryNotFound)
	require.ErrorIs(t, store.UpdateItem(ctx, cat.ID, "nonexistent-id", wiki.ItemPatch{Name: &name}), wiki.ErrItemNotFound)
}

func TestStore_DeleteItem(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cat, err := store.CreateCategory(ctx, "Cooking")
	require.NoError(t, err)
	item, err := store.CreateItem(ctx, cat.ID, wiki.ItemFields{Name: "Soup"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteItem(ctx, cat.ID, item.ID))

	got := store.Load(ctx).Categories[0]
	require.Empty(t, got.Items)

	// A missing item inside an existing category is not an error,
	// but a missing category is.
	require.NoError(t, store.DeleteItem(ctx, cat.ID, item.ID))
	require.ErrorIs(t, store.DeleteItem(ctx, "nonexistent-id", item.ID), wiki.ErrCategoryNotFound)
}

func TestStore_Search(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cooking, err := store.CreateCategory(ctx, "Cooking")
	require.NoError(t, err)
	soup, err := store.CreateItem(ctx, cooking.ID, wiki.ItemFields{
		Name:        "Soup",
		Tags:        []string{"dinner"},
		Description: "Tomato soup",
	})
	require.NoError(t, err)

	byName := store.Search(ctx, "soup")
	require.Len(t, byName, 1)
	require.Equal(t, cooking.ID, byName[0].Category.ID)
	require.Equal(t, soup.ID, byName[0].Item.ID)

	require.Empty(t, store.Search(ctx, "zzz"))

	// Case-insensitive match through a tag.
	byTag := store.Search(ctx, "DINNER")
	require.Len(t, byTag, 1)
	require.Equal(t, soup.ID, byTag[0].Item.ID)
}

func TestStore_Search_EmptyQueryMatchesEverything(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cat, err := store.CreateCategory(ctx, "Cooking")
	require.NoError(t, err)
	for _, name := range []string{"Soup", "Salad", "Bread"} {
		_, err := store.CreateItem(ctx, cat.ID, wiki.ItemFields{Name: name})
		require.NoError(t, err)
	}

	require.Len(t, store.Search(ctx, ""), 3)
}

func TestStore_RecentItems(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	cat, err := store.CreateCategory(ctx, "Notes")
	require.NoError(t, err)
	ids := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		item, err := store.CreateItem(ctx, cat.ID, wiki.ItemFields{Name: "note"})
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	// Touch the first item so it becomes the most recent.
	name := "touched"
	require.NoError(t, store.UpdateItem(ctx, cat.ID, ids[0], wiki.ItemPatch{Name: &name}))

	recent := store.RecentItems(ctx, 5)
	require.Len(t, recent, 5)
	require.Equal(t, ids[0], recent[0].Item.ID)
	require.Equal(t, ids[6], recent[1].Item.ID)
	require.Equal(t, ids[5], recent[2].Item.ID)
}

func TestStore_TotalItems(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.Zero(t, store.TotalItems(ctx))

	first, err := store.CreateCategory(ctx, "A")
	require.NoError(t, err)
	second, err := store.CreateCategory(ctx, "B")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := store.CreateItem(ctx, first.ID, wiki.ItemFields{Name: "x"})
		require.NoError(t, err)
	}
	_, err = store.CreateItem(ctx, second.ID, wiki.ItemFields{Name: "y"})
	require.NoError(t, err)

	require.Equal(t, 4, store.TotalItems(ctx))
}

func TestStore_ExportBackup_StampsLastBackup(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.CreateCategory(ctx, "Cooking")
	require.NoError(t, err)
	require.Nil(t, store.Load(ctx).LastBackup)

	text, err := store.ExportBackup(ctx)
	require.NoError(t, err)
	require.Contains(t, text, "\n  \"categories\"")

	ds := store.Load(ctx)
	require.NotNil(t, ds.LastBackup)

	// The export payload carries the same stamp that was persisted.
	imported, err := wiki.DecodeBackup([]byte(text), time.Now())
	require.NoError(t, err)
	require.NotNil(t, imported.LastBackup)
	require.True(t, imported.LastBackup.Equal(*ds.LastBackup))
}

func TestStore_ImportBackup_ReplacesDataset(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	for _, name := range []string{"c1", "c2", "c3", "c4", "c5"} {
		_, err := store.CreateCategory(ctx, name)
		require.NoError(t, err)
	}

	err := store.ImportBackup(ctx, `{"categories":[{"id":"c1","name":"A","items":[]}]}`)
	require.NoError(t, err)

	ds := store.Load(ctx)
	require.Len(t, ds.Categories, 1)
	require.Equal(t, "c1", ds.Categories[0].ID)
	require.Equal(t, "A", ds.Categories[0].Name)
}

func TestStore_ImportBackup_InvalidPayloadLeavesDatasetUntouched(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.CreateCategory(ctx, "Keep")
	require.NoError(t, err)
	before := store.Load(ctx)

	for _, payload := range []string{
		"not json at all",
		`{"lastBackup":"2024-01-01T00:00:00Z"}`,
		`{"categories":"nope"}`,
		`{"categories":[42]}`,
	} {
		require.ErrorIs(t, store.ImportBackup(ctx, payload), wiki.ErrInvalidBackup, "payload: %s", payload)
		require.Equal(t, before, store.Load(ctx))
	}
}

func TestStore_SaveFailureSurfacesError(t *testing.T) {
	ctx := context.Background()

	sl := &mocks.Slot{}
	sl.On("Get", ctx, wiki.DefaultKey).Return("", false, nil)
	sl.On("Set", ctx, wiki.DefaultKey, mock.Anything).Return(errors.New("quota exceeded"))

	store := wiki.NewStore(sl, nil)
	_, err := store.CreateCategory(ctx, "Cooking")
	require.ErrorContains(t, err, "quota exceeded")
}
