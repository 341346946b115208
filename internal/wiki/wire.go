package wiki

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire representation of the dataset. Timestamps travel as RFC 3339
// strings so the payload stays readable and portable; they are
// reconstructed into time.Time values on decode.
type wireDataset struct {
	Categories *[]wireCategory `json:"categories"`
	LastBackup *string         `json:"lastBackup"`
}

type wireCategory struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Items     []wireItem `json:"items"`
	SortOrder string     `json:"sortOrder"`
	CreatedAt *string    `json:"createdAt"`
	UpdatedAt *string    `json:"updatedAt"`
}

type wireItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	CreatedAt   *string  `json:"createdAt"`
	UpdatedAt   *string  `json:"updatedAt"`
}

// EncodeDataset serializes the dataset to its compact wire form, the
// value written to the durable slot.
func EncodeDataset(d *Dataset) ([]byte, error) {
	data, err := json.Marshal(toWire(d))
	if err != nil {
		return nil, fmt.Errorf("encoding dataset: %w", err)
	}
	return data, nil
}

// EncodeBackup serializes the dataset as a pretty-printed export payload.
func EncodeBackup(d *Dataset) ([]byte, error) {
	data, err := json.MarshalIndent(toWire(d), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	return data, nil
}

// DecodeDataset parses a durable-slot value. It is strict: the payload
// was written by EncodeDataset, so malformed JSON, a missing categories
// array, empty ids, unknown sort orders, or unparseable timestamps all
// reject the whole payload. Callers fall back to an empty dataset; a
// partially reconstructed one is never returned.
func DecodeDataset(data []byte) (*Dataset, error) {
	var wire wireDataset
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	if wire.Categories == nil {
		return nil, fmt.Errorf("parsing dataset: missing categories")
	}

	ds := &Dataset{Categories: make([]Category, 0, len(*wire.Categories))}
	for _, wc := range *wire.Categories {
		if wc.ID == "" {
			return nil, fmt.Errorf("parsing dataset: category without id")
		}
		if !validSortOrders[SortOrder(wc.SortOrder)] {
			return nil, fmt.Errorf("parsing dataset: category %s: %w", wc.ID, ErrInvalidSortOrder)
		}
		createdAt, err := parseWireTime(wc.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing dataset: category %s createdAt: %w", wc.ID, err)
		}
		updatedAt, err := parseWireTime(wc.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing dataset: category %s updatedAt: %w", wc.ID, err)
		}

		cat := Category{
			ID:        wc.ID,
			Name:      wc.Name,
			Items:     make([]Item, 0, len(wc.Items)),
			SortOrder: SortOrder(wc.SortOrder),
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		}
		for _, wi := range wc.Items {
			if wi.ID == "" {
				return nil, fmt.Errorf("parsing dataset: item without id in category %s", wc.ID)
			}
			itemCreated, err := parseWireTime(wi.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("parsing dataset: item %s createdAt: %w", wi.ID, err)
			}
			itemUpdated, err := parseWireTime(wi.UpdatedAt)
			if err != nil {
				return nil, fmt.Errorf("parsing dataset: item %s updatedAt: %w", wi.ID, err)
			}
			cat.Items = append(cat.Items, Item{
				ID:          wi.ID,
				Name:        wi.Name,
				Tags:        normalizeTags(wi.Tags),
				Description: wi.Description,
				CreatedAt:   itemCreated,
				UpdatedAt:   itemUpdated,
			})
		}
		ds.Categories = append(ds.Categories, cat)
	}

	if wire.LastBackup != nil {
		lastBackup, err := parseWireTime(wire.LastBackup)
		if err != nil {
			return nil, fmt.Errorf("parsing dataset: lastBackup: %w", err)
		}
		ds.LastBackup = &lastBackup
	}

	return ds, nil
}

// DecodeBackup parses an import payload. External backups are treated as
// untrusted: the structure (an object whose categories field is an array
// of category objects) must hold, but missing fields are tolerated.
// Absent or unparseable timestamps default to now, unknown sort orders
// fall back to alphabetical, and an absent items array means an empty
// category.
func DecodeBackup(data []byte, now time.Time) (*Dataset, error) {
	var wire wireDataset
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if wire.Categories == nil {
		return nil, fmt.Errorf("%w: missing categories", ErrInvalidBackup)
	}

	ds := &Dataset{Categories: make([]Category, 0, len(*wire.Categories))}
	for _, wc := range *wire.Categories {
		sortOrder := SortOrder(wc.SortOrder)
		if !validSortOrders[sortOrder] {
			sortOrder = SortAlphabetical
		}
		cat := Category{
			ID:        wc.ID,
			Name:      wc.Name,
			Items:     make([]Item, 0, len(wc.Items)),
			SortOrder: sortOrder,
			CreatedAt: parseWireTimeOr(wc.CreatedAt, now),
			UpdatedAt: parseWireTimeOr(wc.UpdatedAt, now),
		}
		for _, wi := range wc.Items {
			cat.Items = append(cat.Items, Item{
				ID:          wi.ID,
				Name:        wi.Name,
				Tags:        normalizeTags(wi.Tags),
				Description: wi.Description,
				CreatedAt:   parseWireTimeOr(wi.CreatedAt, now),
				UpdatedAt:   parseWireTimeOr(wi.UpdatedAt, now),
			})
		}
		ds.Categories = append(ds.Categories, cat)
	}

	if wire.LastBackup != nil {
		if lastBackup, err := parseWireTime(wire.LastBackup); err == nil {
			ds.LastBackup = &lastBackup
		}
	}

	return ds, nil
}

func toWire(d *Dataset) wireDataset {
	categories := make([]wireCategory, 0, len(d.Categories))
	for _, cat := range d.Categories {
		wc := wireCategory{
			ID:        cat.ID,
			Name:      cat.Name,
			Items:     make([]wireItem, 0, len(cat.Items)),
			SortOrder: string(cat.SortOrder),
			CreatedAt: formatWireTime(cat.CreatedAt),
			UpdatedAt: formatWireTime(cat.UpdatedAt),
		}
		for _, item := range cat.Items {
			wc.Items = append(wc.Items, wireItem{
				ID:          item.ID,
				Name:        item.Name,
				Tags:        normalizeTags(item.Tags),
				Description: item.Description,
				CreatedAt:   formatWireTime(item.CreatedAt),
				UpdatedAt:   formatWireTime(item.UpdatedAt),
			})
		}
		categories = append(categories, wc)
	}

	wire := wireDataset{Categories: &categories}
	if d.LastBackup != nil {
		wire.LastBackup = formatWireTime(*d.LastBackup)
	}
	return wire
}

func formatWireTime(t time.Time) *string {
	s := t.Format(time.RFC3339Nano)
	return &s
}

func parseWireTime(s *string) (time.Time, error) {
	if s == nil {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", *s, err)
	}
	return t, nil
}

func parseWireTimeOr(s *string, fallback time.Time) time.Time {
	t, err := parseWireTime(s)
	if err != nil {
		return fallback
	}
	return t
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
