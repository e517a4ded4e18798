package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terminally-online/typewriter/internal/service"
)

type postFields struct {
	title      string
	content    string
	author     string
	slug       string
	published  bool
	categories []int64
	clear      bool
}

// register adds the post form flags. Drafts carry no slug.
func (f *postFields) register(cmd *cobra.Command, withSlug bool) {
	cmd.Flags().StringVar(&f.title, "title", "", "post title (2-50 characters)")
	cmd.Flags().StringVar(&f.content, "content", "", "post body (markdown)")
	cmd.Flags().StringVar(&f.author, "author", "", "author name (default Anonymous)")
	if withSlug {
		cmd.Flags().StringVar(&f.slug, "slug", "", "URL slug (derived from the title when omitted)")
	}
	cmd.Flags().BoolVar(&f.published, "published", false, "mark the post as published")
	cmd.Flags().Int64SliceVar(&f.categories, "category", nil, "category id, repeatable or comma separated")
}

// createInput builds a createPost input. Flags left unset stay nil so the
// server applies its defaults.
func (f *postFields) createInput(cmd *cobra.Command) service.CreatePostInput {
	input := service.CreatePostInput{
		Title:       f.title,
		Content:     f.content,
		CategoryIDs: f.categories,
	}
	if cmd.Flags().Changed("author") {
		input.Author = &f.author
	}
	if cmd.Flags().Changed("slug") {
		input.Slug = &f.slug
	}
	if cmd.Flags().Changed("published") {
		input.Published = &f.published
	}
	if input.CategoryIDs == nil {
		input.CategoryIDs = []int64{}
	}
	return input
}

// updateInput carries only the flags that were set. --category replaces the
// post's categories and --clear-categories removes them all.
func (f *postFields) updateInput(cmd *cobra.Command, id int64) service.UpdatePostInput {
	input := service.UpdatePostInput{ID: id}
	changed := cmd.Flags().Changed
	if changed("title") {
		input.Title = &f.title
	}
	if changed("content") {
		input.Content = &f.content
	}
	if changed("author") {
		input.Author = &f.author
	}
	if changed("slug") {
		input.Slug = &f.slug
	}
	if changed("published") {
		input.Published = &f.published
	}
	if changed("category") || f.clear {
		ids := append([]int64{}, f.categories...)
		input.CategoryIDs = &ids
	}
	return input
}

var (
	newPost  postFields
	editPost postFields
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Read and write posts through the API",
}

var postListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		posts, err := newClient().Posts(cmd.Context())
		if err != nil {
			return err
		}
		return printPosts(cmd.OutOrStdout(), posts)
	},
}

var postGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		post, err := newClient().Post(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printPost(cmd.OutOrStdout(), post)
	},
}

var postCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a post",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		post, err := newClient().CreatePost(cmd.Context(), newPost.createInput(cmd))
		if err != nil {
			return err
		}
		return printPost(cmd.OutOrStdout(), post)
	},
}

var postUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a post",
	Long: `Update the given fields of a post. Fields without a flag keep their value.
--category replaces the post's categories and --clear-categories removes them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		post, err := newClient().UpdatePost(cmd.Context(), editPost.updateInput(cmd, id))
		if err != nil {
			return err
		}
		return printPost(cmd.OutOrStdout(), post)
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		post, err := newClient().DeletePost(cmd.Context(), id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), post)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %d (%s).\n", post.ID, post.Title)
		return nil
	},
}

var postByCategoryCmd = &cobra.Command{
	Use:   "by-category <category-id>",
	Short: "List the posts in a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		summaries, err := newClient().PostsByCategory(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printSummaries(cmd.OutOrStdout(), summaries)
	},
}

var postCategoriesCmd = &cobra.Command{
	Use:   "categories <post-id>",
	Short: "List the categories of a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		tags, err := newClient().PostCategories(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printTags(cmd.OutOrStdout(), tags)
	},
}

func init() {
	newPost.register(postCreateCmd, true)
	editPost.register(postUpdateCmd, true)
	postUpdateCmd.Flags().BoolVar(&editPost.clear, "clear-categories", false, "remove every category from the post")
	postUpdateCmd.MarkFlagsMutuallyExclusive("category", "clear-categories")
	postGetCmd.Flags().BoolVar(&rawContent, "raw", false, "print the body without markdown rendering")

	postCmd.AddCommand(postListCmd)
	postCmd.AddCommand(postGetCmd)
	postCmd.AddCommand(postCreateCmd)
	postCmd.AddCommand(postUpdateCmd)
	postCmd.AddCommand(postDeleteCmd)
	postCmd.AddCommand(postByCategoryCmd)
	postCmd.AddCommand(postCategoriesCmd)
}
