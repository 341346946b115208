package mcp

import (
	"errors"
	"fmt"

	"github.com/maokki/wikinotes/internal/wiki"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// mapError maps store errors to MCP error codes.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, wiki.ErrCategoryNotFound):
		return &APIError{Code: "CATEGORY_NOT_FOUND", Message: "category not found", RecoveryHint: "Call list_categories for valid ids"}
	case errors.Is(err, wiki.ErrItemNotFound):
		return &APIError{Code: "ITEM_NOT_FOUND", Message: "item not found", RecoveryHint: "Call list_categories for valid ids"}
	case errors.Is(err, wiki.ErrInvalidSortOrder):
		return &APIError{Code: "INVALID_SORT_ORDER", Message: "sort order must be alphabetical, tags, or date"}
	case errors.Is(err, wiki.ErrInvalidBackup):
		return &APIError{Code: "INVALID_BACKUP", Message: "backup payload failed validation", RecoveryHint: "The current dataset is unchanged"}
	default:
		return err
	}
}
