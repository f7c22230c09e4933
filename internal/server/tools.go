package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/AbdouB/memorybox/internal/db"
	"github.com/AbdouB/memorybox/internal/models"
	"github.com/AbdouB/memorybox/internal/search"
)

// AddCommandInput is the MCP tool input for storing a command.
type AddCommandInput struct {
	Command     string   `json:"command" jsonschema:"the shell command to store"`
	Description string   `json:"description,omitempty" jsonschema:"what the command does"`
	Tags        []string `json:"tags,omitempty" jsonschema:"labels for categorization"`
	OS          string   `json:"os,omitempty" jsonschema:"operating system the command applies to"`
	ProjectType string   `json:"project_type,omitempty" jsonschema:"project type context"`
	Context     string   `json:"context,omitempty" jsonschema:"additional usage context"`
	Category    string   `json:"category,omitempty" jsonschema:"command category"`
	Status      string   `json:"status,omitempty" jsonschema:"execution status"`
}

// AddCommandResult is the MCP tool output for storing a command.
type AddCommandResult struct {
	ID string `json:"id" jsonschema:"identifier of the stored command"`
}

// AddCommandTool defines the MCP tool schema for storing commands.
func AddCommandTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "add_command",
		Description: "Store a shell command with metadata; secrets are redacted before storage",
	}
}

// AddCommandHandler executes an add_command request.
func AddCommandHandler(repo *db.CommandRepository) mcp.ToolHandlerFor[AddCommandInput, AddCommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AddCommandInput) (*mcp.CallToolResult, AddCommandResult, error) {
		id, err := repo.Create(&models.CommandInput{
			Command:     input.Command,
			Description: input.Description,
			Tags:        input.Tags,
			OS:          optional(input.OS),
			ProjectType: optional(input.ProjectType),
			Context:     optional(input.Context),
			Category:    optional(input.Category),
			Status:      optional(input.Status),
		})
		if err != nil {
			return nil, AddCommandResult{}, fmt.Errorf("add command failed: %w", err)
		}
		return nil, AddCommandResult{ID: id}, nil
	}
}

// SearchCommandsInput is the MCP tool input for searching commands.
type SearchCommandsInput struct {
	Query       string   `json:"query,omitempty" jsonschema:"text to search for"`
	Fuzzy       bool     `json:"fuzzy,omitempty" jsonschema:"enable typo-tolerant matching"`
	Threshold   int      `json:"threshold,omitempty" jsonschema:"minimum fuzzy score 0-100 (default 60)"`
	OS          string   `json:"os,omitempty" jsonschema:"filter by operating system"`
	ProjectType string   `json:"project_type,omitempty" jsonschema:"filter by project type"`
	Category    string   `json:"category,omitempty" jsonschema:"filter by category"`
	Tags        []string `json:"tags,omitempty" jsonschema:"filter by tags (all must match)"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum number of results (default 10)"`
}

// SearchCommandsResult is the MCP tool output for searching commands.
type SearchCommandsResult struct {
	Commands []*models.Command `json:"commands" jsonschema:"matching commands, best first"`
	Count    int               `json:"count" jsonschema:"number of results"`
}

// SearchCommandsTool defines the MCP tool schema for searching commands.
func SearchCommandsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_commands",
		Description: "Search stored commands by text and structural filters, exact or fuzzy",
	}
}

// SearchCommandsHandler executes a search_commands request.
func SearchCommandsHandler(engine *search.Engine) mcp.ToolHandlerFor[SearchCommandsInput, SearchCommandsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchCommandsInput) (*mcp.CallToolResult, SearchCommandsResult, error) {
		commands, err := engine.Search(search.Options{
			Query:       input.Query,
			Fuzzy:       input.Fuzzy,
			Threshold:   input.Threshold,
			OS:          input.OS,
			ProjectType: input.ProjectType,
			Category:    input.Category,
			Tags:        input.Tags,
			Limit:       input.Limit,
		})
		if err != nil {
			return nil, SearchCommandsResult{}, fmt.Errorf("search failed: %w", err)
		}
		return nil, SearchCommandsResult{Commands: commands, Count: len(commands)}, nil
	}
}

// GetCommandInput is the MCP tool input for fetching one command.
type GetCommandInput struct {
	ID string `json:"id" jsonschema:"identifier of the command to fetch"`
}

// GetCommandResult is the MCP tool output for fetching one command.
type GetCommandResult struct {
	Found   bool            `json:"found" jsonschema:"whether the command exists"`
	Command *models.Command `json:"command,omitempty" jsonschema:"the command, when found"`
}

// GetCommandTool defines the MCP tool schema for fetching one command.
func GetCommandTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_command",
		Description: "Fetch a command by id, recording the usage",
	}
}

// GetCommandHandler executes a get_command request.
func GetCommandHandler(repo *db.CommandRepository) mcp.ToolHandlerFor[GetCommandInput, GetCommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetCommandInput) (*mcp.CallToolResult, GetCommandResult, error) {
		cmd, err := repo.Get(input.ID)
		if err != nil {
			return nil, GetCommandResult{}, fmt.Errorf("get command failed: %w", err)
		}
		return nil, GetCommandResult{Found: cmd != nil, Command: cmd}, nil
	}
}

// DeleteCommandInput is the MCP tool input for deleting a command.
type DeleteCommandInput struct {
	ID string `json:"id" jsonschema:"identifier of the command to delete"`
}

// DeleteCommandResult is the MCP tool output for deleting a command.
type DeleteCommandResult struct {
	Deleted bool `json:"deleted" jsonschema:"whether a command was removed"`
}

// DeleteCommandTool defines the MCP tool schema for deleting commands.
func DeleteCommandTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_command",
		Description: "Delete a stored command and its tag links",
	}
}

// DeleteCommandHandler executes a delete_command request.
func DeleteCommandHandler(repo *db.CommandRepository) mcp.ToolHandlerFor[DeleteCommandInput, DeleteCommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DeleteCommandInput) (*mcp.CallToolResult, DeleteCommandResult, error) {
		deleted, err := repo.Delete(input.ID)
		if err != nil {
			return nil, DeleteCommandResult{}, fmt.Errorf("delete command failed: %w", err)
		}
		return nil, DeleteCommandResult{Deleted: deleted}, nil
	}
}

// ListTagsInput is the (empty) MCP tool input for listing tags.
type ListTagsInput struct{}

// ListTagsResult is the MCP tool output for listing tags.
type ListTagsResult struct {
	Tags []string `json:"tags" jsonschema:"all tag names in lexicographic order"`
}

// ListTagsTool defines the MCP tool schema for listing tags.
func ListTagsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_tags",
		Description: "List all tags used by stored commands",
	}
}

// ListTagsHandler executes a list_tags request.
func ListTagsHandler(repo *db.CommandRepository) mcp.ToolHandlerFor[ListTagsInput, ListTagsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListTagsInput) (*mcp.CallToolResult, ListTagsResult, error) {
		tags, err := repo.ListTags()
		if err != nil {
			return nil, ListTagsResult{}, fmt.Errorf("list tags failed: %w", err)
		}
		return nil, ListTagsResult{Tags: tags}, nil
	}
}

// ListCategoriesInput is the (empty) MCP tool input for listing categories.
type ListCategoriesInput struct{}

// ListCategoriesResult is the MCP tool output for listing categories.
type ListCategoriesResult struct {
	Categories []string `json:"categories" jsonschema:"all categories in lexicographic order"`
}

// ListCategoriesTool defines the MCP tool schema for listing categories.
func ListCategoriesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_categories",
		Description: "List all categories used by stored commands",
	}
}

// ListCategoriesHandler executes a list_categories request.
func ListCategoriesHandler(repo *db.CommandRepository) mcp.ToolHandlerFor[ListCategoriesInput, ListCategoriesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListCategoriesInput) (*mcp.CallToolResult, ListCategoriesResult, error) {
		categories, err := repo.ListCategories()
		if err != nil {
			return nil, ListCategoriesResult{}, fmt.Errorf("list categories failed: %w", err)
		}
		return nil, ListCategoriesResult{Categories: categories}, nil
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
