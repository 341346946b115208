package wiki

import "errors"

var (
	// ErrCategoryNotFound indicates the targeted category doesn't exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrItemNotFound indicates the targeted item doesn't exist in its category.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidBackup indicates an import payload failed parsing or validation.
	ErrInvalidBackup = errors.New("invalid backup data")
	// ErrInvalidSortOrder indicates an unrecognized sort order value.
	ErrInvalidSortOrder = errors.New("invalid sort order")
)
