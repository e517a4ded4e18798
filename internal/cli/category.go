package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terminally-online/typewriter/internal/service"
)

var (
	categoryTitle       string
	categorySlug        string
	categoryDescription string
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Read and write categories through the API",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := newClient().Categories(cmd.Context())
		if err != nil {
			return err
		}
		return printCategories(cmd.OutOrStdout(), categories)
	},
}

var categoryGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		category, err := newClient().Category(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printCategory(cmd.OutOrStdout(), category)
	},
}

var categoryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := newClient().CreateCategory(cmd.Context(), service.CreateCategoryInput{
			Title:       categoryTitle,
			Slug:        categorySlug,
			Description: categoryDescription,
		})
		if err != nil {
			return err
		}
		return printCategory(cmd.OutOrStdout(), category)
	},
}

var categoryUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		input := service.UpdateCategoryInput{ID: id}
		if cmd.Flags().Changed("title") {
			input.Title = &categoryTitle
		}
		if cmd.Flags().Changed("slug") {
			input.Slug = &categorySlug
		}
		if cmd.Flags().Changed("description") {
			input.Description = &categoryDescription
		}
		category, err := newClient().UpdateCategory(cmd.Context(), input)
		if err != nil {
			return err
		}
		return printCategory(cmd.OutOrStdout(), category)
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a category",
	Long:  `Delete a category. Posts tagged with it lose the tag but are kept.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		category, err := newClient().DeleteCategory(cmd.Context(), id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), category)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %d (%s).\n", category.ID, category.Title)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{categoryCreateCmd, categoryUpdateCmd} {
		cmd.Flags().StringVar(&categoryTitle, "title", "", "category title (2-50 characters)")
		cmd.Flags().StringVar(&categorySlug, "slug", "", "URL slug (2-50 characters)")
		cmd.Flags().StringVar(&categoryDescription, "description", "", "category description")
	}

	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryGetCmd)
	categoryCmd.AddCommand(categoryCreateCmd)
	categoryCmd.AddCommand(categoryUpdateCmd)
	categoryCmd.AddCommand(categoryDeleteCmd)
}
