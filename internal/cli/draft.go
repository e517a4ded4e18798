package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terminally-online/typewriter/internal/client"
	"github.com/terminally-online/typewriter/internal/draft"
	"github.com/terminally-online/typewriter/internal/models"
	"github.com/terminally-online/typewriter/internal/service"
)

var (
	draftFields postFields
	draftPostID int64
)

// applyDraftFields copies the flags that were set onto values.
func applyDraftFields(cmd *cobra.Command, f *postFields, values draft.Values) draft.Values {
	changed := cmd.Flags().Changed
	if changed("title") {
		values.Title = f.title
	}
	if changed("content") {
		values.Content = f.content
	}
	if changed("author") {
		values.Author = f.author
	}
	if changed("published") {
		values.Published = f.published
	}
	if changed("category") {
		values.Categories = append([]int64{}, f.categories...)
	}
	if values.Categories == nil {
		values.Categories = []int64{}
	}
	return values
}

// startingValues returns what a new save builds on: the stored draft, or for
// an existing post with no draft yet, the post as the server has it.
func startingValues(ctx context.Context, c *client.Client, store draft.Store, key string) (draft.Values, error) {
	rec, err := store.Get(ctx, key)
	if err == nil {
		return rec.Values, nil
	}
	if !errors.Is(err, draft.ErrNotFound) {
		return draft.Values{}, err
	}

	postID, ok := draft.ParsePostKey(key)
	if !ok || c == nil {
		return draft.Values{Categories: []int64{}}, nil
	}

	post, err := c.Post(ctx, postID)
	if err != nil {
		return draft.Values{}, err
	}
	tags, err := c.PostCategories(ctx, postID)
	if err != nil {
		return draft.Values{}, err
	}
	values := draft.Values{
		Title:      post.Title,
		Content:    post.Content,
		Author:     post.Author,
		Published:  post.Published,
		Categories: make([]int64, 0, len(tags)),
	}
	for _, t := range tags {
		values.Categories = append(values.Categories, t.CategoryID)
	}
	return values, nil
}

// publishDraft submits a draft as a new post, or as an update when the key
// names an existing post. The draft is removed only after the server accepts
// it.
func publishDraft(ctx context.Context, c *client.Client, store draft.Store, key string) (*models.Post, error) {
	rec, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	v := rec.Values

	var post *models.Post
	if postID, ok := draft.ParsePostKey(key); ok {
		ids := append([]int64{}, v.Categories...)
		input := service.UpdatePostInput{
			ID:          postID,
			Title:       &v.Title,
			Content:     &v.Content,
			Published:   &v.Published,
			CategoryIDs: &ids,
		}
		if v.Author != "" {
			input.Author = &v.Author
		}
		post, err = c.UpdatePost(ctx, input)
	} else {
		input := service.CreatePostInput{
			Title:       v.Title,
			Content:     v.Content,
			Published:   &v.Published,
			CategoryIDs: v.Categories,
		}
		if v.Author != "" {
			input.Author = &v.Author
		}
		post, err = c.CreatePost(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Delete(ctx, key); err != nil {
		return post, fmt.Errorf("post %d published but draft %s was not removed: %w", post.ID, key, err)
	}
	return post, nil
}

// draftKey is the key named on the command line, or the latest draft's.
func draftKey(ctx context.Context, store draft.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	rec, err := store.Latest(ctx)
	if err != nil {
		if errors.Is(err, draft.ErrNotFound) {
			return "", fmt.Errorf("no drafts saved")
		}
		return "", err
	}
	return rec.Key, nil
}

func withDrafts(fn func(cmd *cobra.Command, args []string, store draft.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := openDrafts()
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close drafts", zap.Error(err))
			}
		}()
		return fn(cmd, args, store)
	}
}

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Keep unpublished posts on this machine",
	Long: `Drafts are stored in a local database file (drafts_path) and never leave
this machine until they are published.

A draft for a new post is stored under "draft-new"; a draft of changes to post
N is stored under "draft-post-N".`,
}

var draftSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save or amend a draft",
	Args:  cobra.NoArgs,
	RunE: withDrafts(func(cmd *cobra.Command, args []string, store draft.Store) error {
		ctx := cmd.Context()
		key := draft.NewPostKey
		var c *client.Client
		if draftPostID > 0 {
			key = draft.PostKey(draftPostID)
			c = newClient()
		}

		values, err := startingValues(ctx, c, store, key)
		if err != nil {
			return err
		}
		rec, err := store.Save(ctx, key, applyDraftFields(cmd, &draftFields, values))
		if err != nil {
			return err
		}
		logger.Debug("draft saved", zap.String("key", rec.Key))
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), rec)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s.\n", rec.Key)
		return nil
	}),
}

var draftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List drafts, most recent first",
	Args:  cobra.NoArgs,
	RunE: withDrafts(func(cmd *cobra.Command, args []string, store draft.Store) error {
		records, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		return printDrafts(cmd.OutOrStdout(), records)
	}),
}

var draftShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Show a draft (the latest by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withDrafts(func(cmd *cobra.Command, args []string, store draft.Store) error {
		key, err := draftKey(cmd.Context(), store, args)
		if err != nil {
			return err
		}
		rec, err := store.Get(cmd.Context(), key)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return printDraft(cmd.OutOrStdout(), rec)
	}),
}

var draftDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Discard a draft",
	Args:  cobra.ExactArgs(1),
	RunE: withDrafts(func(cmd *cobra.Command, args []string, store draft.Store) error {
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
		return nil
	}),
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard every draft",
	Args:  cobra.NoArgs,
	RunE: withDrafts(func(cmd *cobra.Command, args []string, store draft.Store) error {
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Drafts cleared.")
		return nil
	}),
}

var draftWatchCmd = &cobra.Command{
	Use:   "watch <file.md>",
	Short: "Autosave a markdown file into a draft while you edit it",
	Long: `Copy a markdown file into a draft now and after every save until
interrupted. A leading "# " heading becomes the title, the rest the content.
Categories, author and published flag are kept from the draft.`,
	Args: cobra.ExactArgs(1),
	RunE: withDrafts(func(cmd *cobra.Command, args []string, store draft.Store) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		key := draft.NewPostKey
		if draftPostID > 0 {
			key = draft.PostKey(draftPostID)
		}

		saver, err := draft.NewAutosaver(store, key, args[0], logger)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		saver.OnSave = func(rec draft.Record) {
			fmt.Fprintf(out, "%s saved %s\n", mutedStyle.Render(rec.SavedAt.Local().Format(timeLayout)), rec.Key)
		}

		fmt.Fprintf(out, "Watching %s. Press Ctrl+C to stop.\n", args[0])
		return saver.Run(ctx)
	}),
}

var draftPublishCmd = &cobra.Command{
	Use:   "publish [key]",
	Short: "Submit a draft to the API and remove it",
	Args:  cobra.MaximumNArgs(1),
	RunE: withDrafts(func(cmd *cobra.Command, args []string, store draft.Store) error {
		key, err := draftKey(cmd.Context(), store, args)
		if err != nil {
			return err
		}
		post, err := publishDraft(cmd.Context(), newClient(), store, key)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), post)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Published %s as post %d (%s).\n", key, post.ID, post.Slug)
		return nil
	}),
}

func init() {
	draftFields.register(draftSaveCmd, false)
	draftSaveCmd.Flags().Int64Var(&draftPostID, "post", 0, "draft changes to an existing post")
	draftWatchCmd.Flags().Int64Var(&draftPostID, "post", 0, "draft changes to an existing post")
	draftShowCmd.Flags().BoolVar(&rawContent, "raw", false, "print the body without markdown rendering")

	draftCmd.AddCommand(draftSaveCmd)
	draftCmd.AddCommand(draftListCmd)
	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftDeleteCmd)
	draftCmd.AddCommand(draftClearCmd)
	draftCmd.AddCommand(draftWatchCmd)
	draftCmd.AddCommand(draftPublishCmd)
}
