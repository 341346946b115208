package mcp

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/maokki/wikinotes/internal/view"
	"github.com/maokki/wikinotes/internal/wiki"
)

type emptyInput struct{}

type statusOutput struct {
	Status string `json:"status"`
}

type listCategoriesOutput struct {
	Categories []wiki.Category `json:"categories"`
}

type overviewOutput struct {
	TotalItems  int                 `json:"total_items"`
	RecentItems []wiki.CategoryItem `json:"recent_items"`
	LastBackup  *time.Time          `json:"last_backup,omitempty"`
}

type createCategoryInput struct {
	Name string `json:"name" jsonschema:"category display name"`
}

type updateCategoryInput struct {
	CategoryID string  `json:"category_id" jsonschema:"id of the category to update"`
	Name       *string `json:"name,omitempty" jsonschema:"new display name"`
	SortOrder  *string `json:"sort_order,omitempty" jsonschema:"presentation order: alphabetical, tags, or date"`
}

type deleteCategoryInput struct {
	CategoryID string `json:"category_id" jsonschema:"id of the category to delete along with its items"`
}

type createItemInput struct {
	CategoryID  string   `json:"category_id" jsonschema:"id of the owning category"`
	Name        string   `json:"name" jsonschema:"item display name"`
	Tags        []string `json:"tags,omitempty" jsonschema:"tags attached to the item"`
	Description string   `json:"description,omitempty" jsonschema:"free-text description"`
}

type updateItemInput struct {
	CategoryID  string    `json:"category_id" jsonschema:"id of the owning category"`
	ItemID      string    `json:"item_id" jsonschema:"id of the item to update"`
	Name        *string   `json:"name,omitempty" jsonschema:"new display name"`
	Tags        *[]string `json:"tags,omitempty" jsonschema:"replacement tag list"`
	Description *string   `json:"description,omitempty" jsonschema:"new free-text description"`
}

type deleteItemInput struct {
	CategoryID string `json:"category_id" jsonschema:"id of the owning category"`
	ItemID     string `json:"item_id" jsonschema:"id of the item to delete"`
}

type searchItemsInput struct {
	Query string `json:"query" jsonschema:"substring matched case-insensitively against item names, descriptions, and tags; empty matches everything"`
}

type searchItemsOutput struct {
	Results []wiki.CategoryItem `json:"results"`
}

type exportBackupOutput struct {
	Backup string `json:"backup"`
}

type importBackupInput struct {
	Data string `json:"data" jsonschema:"a previously exported JSON backup; replaces the entire dataset"`
}

// registerTools wires every store operation to an MCP tool.
func registerTools(server *sdkmcp.Server, adapter *view.Adapter) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_categories",
		Description: "List all categories with their items, in stored order",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, listCategoriesOutput, error) {
		return nil, listCategoriesOutput{Categories: adapter.Categories()}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_overview",
		Description: "Get the total item count, the most recently updated items, and the last backup time",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, overviewOutput, error) {
		return nil, overviewOutput{
			TotalItems:  adapter.TotalItems(),
			RecentItems: adapter.RecentItems(),
			LastBackup:  adapter.LastBackup(),
		}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_category",
		Description: "Create a new empty category",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in createCategoryInput) (*sdkmcp.CallToolResult, wiki.Category, error) {
		cat, err := adapter.CreateCategory(ctx, in.Name)
		if err != nil {
			return nil, wiki.Category{}, mapError(err)
		}
		return nil, *cat, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_category",
		Description: "Update a category's name or sort order; omitted fields are left unchanged",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in updateCategoryInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		patch := wiki.CategoryPatch{Name: in.Name}
		if in.SortOrder != nil {
			order := wiki.SortOrder(*in.SortOrder)
			patch.SortOrder = &order
		}
		if err := adapter.UpdateCategory(ctx, in.CategoryID, patch); err != nil {
			return nil, statusOutput{}, mapError(err)
		}
		return nil, statusOutput{Status: "updated"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_category",
		Description: "Delete a category and all its items; deleting an unknown id succeeds",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in deleteCategoryInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		if err := adapter.DeleteCategory(ctx, in.CategoryID); err != nil {
			return nil, statusOutput{}, mapError(err)
		}
		return nil, statusOutput{Status: "deleted"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_item",
		Description: "Create a new item in a category",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in createItemInput) (*sdkmcp.CallToolResult, wiki.Item, error) {
		item, err := adapter.CreateItem(ctx, in.CategoryID, wiki.ItemFields{
			Name:        in.Name,
			Tags:        in.Tags,
			Description: in.Description,
		})
		if err != nil {
			return nil, wiki.Item{}, mapError(err)
		}
		return nil, *item, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_item",
		Description: "Update an item's name, tags, or description; omitted fields are left unchanged",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in updateItemInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		err := adapter.UpdateItem(ctx, in.CategoryID, in.ItemID, wiki.ItemPatch{
			Name:        in.Name,
			Tags:        in.Tags,
			Description: in.Description,
		})
		if err != nil {
			return nil, statusOutput{}, mapError(err)
		}
		return nil, statusOutput{Status: "updated"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_item",
		Description: "Delete an item from a category",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in deleteItemInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		if err := adapter.DeleteItem(ctx, in.CategoryID, in.ItemID); err != nil {
			return nil, statusOutput{}, mapError(err)
		}
		return nil, statusOutput{Status: "deleted"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_items",
		Description: "Search items by case-insensitive substring over name, description, and tags",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in searchItemsInput) (*sdkmcp.CallToolResult, searchItemsOutput, error) {
		return nil, searchItemsOutput{Results: adapter.Search(ctx, in.Query)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "export_backup",
		Description: "Stamp the backup time and return the full dataset as pretty-printed JSON",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, exportBackupOutput, error) {
		text, err := adapter.ExportBackup(ctx)
		if err != nil {
			return nil, exportBackupOutput{}, mapError(err)
		}
		return nil, exportBackupOutput{Backup: text}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "import_backup",
		Description: "Replace the entire dataset with an exported backup; invalid payloads are rejected and leave data untouched",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in importBackupInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		if err := adapter.ImportBackup(ctx, in.Data); err != nil {
			return nil, statusOutput{}, mapError(err)
		}
		return nil, statusOutput{Status: "imported"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "refresh",
		Description: "Re-read the dataset from durable storage into the cached snapshot",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		adapter.Refresh(ctx)
		return nil, statusOutput{Status: "refreshed"}, nil
	})
}
