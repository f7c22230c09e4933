package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbdouB/memorybox/internal/db"
	"github.com/AbdouB/memorybox/internal/models"
	"github.com/AbdouB/memorybox/internal/search"
	"github.com/AbdouB/memorybox/internal/server"
)

var addCmd = &cobra.Command{
	Use:   "add [command]",
	Short: "Store a command",
	Long: `Store a shell command with optional metadata.

Secrets in the command text (password flags, key=value tokens, URL
credentials) are redacted before anything is written; the raw text is
discarded.

Example:
  memorybox add "docker ps -a" --description "List all containers" --tags docker,containers`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		osName, _ := cmd.Flags().GetString("os")
		projectType, _ := cmd.Flags().GetString("project-type")
		contextText, _ := cmd.Flags().GetString("context")
		category, _ := cmd.Flags().GetString("category")
		status, _ := cmd.Flags().GetString("status")

		repo := db.NewCommandRepository(database)
		id, err := repo.Create(&models.CommandInput{
			Command:     args[0],
			Description: description,
			Tags:        tags,
			OS:          optionalFlag(osName),
			ProjectType: optionalFlag(projectType),
			Context:     optionalFlag(contextText),
			Category:    optionalFlag(category),
			Status:      optionalFlag(status),
		})
		if err != nil {
			return fmt.Errorf("failed to add command: %w", err)
		}

		if outputText {
			fmt.Printf("Stored command %s\n", id)
		} else {
			outputResult(map[string]interface{}{"status": "ok", "id": id})
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored commands",
	Long: `Search stored commands by text and structural filters.

Without --fuzzy the query is an exact substring match against the
command, description and context fields. With --fuzzy the query is
scored for similarity and results under the threshold are dropped.

Example:
  memorybox search docker --tags containers
  memorybox search doker --fuzzy --threshold 60`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		fuzzy, _ := cmd.Flags().GetBool("fuzzy")
		threshold, _ := cmd.Flags().GetInt("threshold")
		limit, _ := cmd.Flags().GetInt("limit")
		osName, _ := cmd.Flags().GetString("os")
		projectType, _ := cmd.Flags().GetString("project-type")
		category, _ := cmd.Flags().GetString("category")
		tags, _ := cmd.Flags().GetStringSlice("tags")

		if threshold == 0 {
			threshold = settings.FuzzyThreshold
		}
		if limit == 0 {
			limit = settings.SearchLimit
		}

		engine := search.New(db.NewCommandRepository(database))
		commands, err := engine.Search(search.Options{
			Query:       query,
			Fuzzy:       fuzzy,
			Threshold:   threshold,
			Limit:       limit,
			OS:          osName,
			ProjectType: projectType,
			Category:    category,
			Tags:        tags,
		})
		if err != nil {
			return fmt.Errorf("failed to search commands: %w", err)
		}

		if outputText {
			if len(commands) == 0 {
				fmt.Println("No matching commands")
				return nil
			}
			for _, c := range commands {
				printCommand(c)
			}
			return nil
		}
		outputResult(map[string]interface{}{"count": len(commands), "commands": commands})
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Fetch a command by id",
	Long: `Fetch a single command by its identifier.

Fetching records the usage: the command's use counter goes up by one
and its last-used time is stamped. Search and list never do this.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := db.NewCommandRepository(database)
		command, err := repo.Get(args[0])
		if err != nil {
			return fmt.Errorf("failed to get command: %w", err)
		}
		if command == nil {
			if outputText {
				fmt.Println("Command not found")
			} else {
				outputResult(map[string]interface{}{"status": "not_found"})
			}
			return nil
		}

		if outputText {
			printCommand(command)
		} else {
			outputResult(command)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := db.NewCommandRepository(database)
		deleted, err := repo.Delete(args[0])
		if err != nil {
			return fmt.Errorf("failed to delete command: %w", err)
		}

		if outputText {
			if deleted {
				fmt.Println("Deleted")
			} else {
				fmt.Println("Command not found")
			}
			return nil
		}
		outputResult(map[string]interface{}{"deleted": deleted})
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List all tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := db.NewCommandRepository(database)
		tags, err := repo.ListTags()
		if err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}

		if outputText {
			for _, tag := range tags {
				fmt.Println(tag)
			}
			return nil
		}
		outputResult(map[string]interface{}{"tags": tags})
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List all categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := db.NewCommandRepository(database)
		categories, err := repo.ListCategories()
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}

		if outputText {
			for _, category := range categories {
				fmt.Println(category)
			}
			return nil
		}
		outputResult(map[string]interface{}{"categories": categories})
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Run Memory Box as an MCP server over stdio.

Exposes add_command, search_commands, get_command, delete_command,
list_tags and list_categories as MCP tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := server.New(db.NewCommandRepository(database))
		return srv.Run(cmd.Context())
	},
}

// printCommand writes one command in human-readable form
func printCommand(c *models.Command) {
	fmt.Printf("%s  (id: %s)\n", c.Command, c.ID)
	if c.Description != "" {
		fmt.Printf("  %s\n", c.Description)
	}
	if len(c.Tags) > 0 {
		fmt.Printf("  tags: %s\n", strings.Join(c.Tags, ", "))
	}
	details := []string{}
	if c.OS != nil {
		details = append(details, "os: "+*c.OS)
	}
	if c.Category != nil {
		details = append(details, "category: "+*c.Category)
	}
	details = append(details, fmt.Sprintf("used: %d", c.UseCount))
	fmt.Printf("  %s\n", strings.Join(details, "  "))
}

func optionalFlag(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func init() {
	addCmd.Flags().StringP("description", "d", "", "What the command does")
	addCmd.Flags().StringSliceP("tags", "t", nil, "Tags for categorization")
	addCmd.Flags().String("os", "", "Operating system the command applies to")
	addCmd.Flags().String("project-type", "", "Project type context")
	addCmd.Flags().String("context", "", "Additional usage context")
	addCmd.Flags().String("category", "", "Command category")
	addCmd.Flags().String("status", "", "Execution status")

	searchCmd.Flags().BoolP("fuzzy", "f", false, "Enable typo-tolerant matching")
	searchCmd.Flags().Int("threshold", 0, "Minimum fuzzy score 0-100 (default from settings)")
	searchCmd.Flags().IntP("limit", "n", 0, "Maximum number of results (default from settings)")
	searchCmd.Flags().String("os", "", "Filter by operating system")
	searchCmd.Flags().String("project-type", "", "Filter by project type")
	searchCmd.Flags().String("category", "", "Filter by category")
	searchCmd.Flags().StringSliceP("tags", "t", nil, "Filter by tags (all must match)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(serveCmd)
}
