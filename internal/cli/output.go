package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/terminally-online/typewriter/internal/draft"
	"github.com/terminally-online/typewriter/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	headerStyle  = lipgloss.NewStyle().Bold(true)

	// rawContent skips markdown rendering of post bodies.
	rawContent bool
)

// renderContent renders a post body as terminal markdown. It falls back to
// the raw text when rendering fails.
func renderContent(content string) string {
	if rawContent {
		return content + "\n"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content + "\n"
	}
	out, err := r.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table renders rows in columns sized to their widest cell.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) error {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		var sb strings.Builder
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			if i == len(widths)-1 {
				sb.WriteString(style.Render(cell))
				continue
			}
			sb.WriteString(style.Width(widths[i] + 2).Render(cell))
		}
		return sb.String()
	}

	var sb strings.Builder
	sb.WriteString(line(t.headers, headerStyle) + "\n")
	for _, row := range t.rows {
		sb.WriteString(line(row, lipgloss.NewStyle()) + "\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func printPosts(w io.Writer, posts []models.Post) error {
	if jsonOutput {
		return printJSON(w, posts)
	}
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts.")
		return nil
	}
	tb := newTable("ID", "TITLE", "SLUG", "AUTHOR", "PUBLISHED", "CREATED")
	for _, p := range posts {
		tb.add(strconv.FormatInt(p.ID, 10), p.Title, p.Slug, p.Author, strconv.FormatBool(p.Published), p.CreatedAt.Format(timeLayout))
	}
	return tb.render(w)
}

func printPost(w io.Writer, p *models.Post) error {
	if jsonOutput {
		return printJSON(w, p)
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("#%d %s", p.ID, p.Title)))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("slug: %s  author: %s  published: %t", p.Slug, p.Author, p.Published)))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("created: %s  updated: %s",
		p.CreatedAt.Format(timeLayout), p.UpdatedAt.Format(timeLayout))))
	if p.Content != "" {
		fmt.Fprint(w, "\n"+renderContent(p.Content))
	}
	return nil
}

func printCategories(w io.Writer, categories []models.Category) error {
	if jsonOutput {
		return printJSON(w, categories)
	}
	if len(categories) == 0 {
		fmt.Fprintln(w, "No categories.")
		return nil
	}
	tb := newTable("ID", "TITLE", "SLUG", "DESCRIPTION")
	for _, c := range categories {
		tb.add(strconv.FormatInt(c.ID, 10), c.Title, c.Slug, c.Description)
	}
	return tb.render(w)
}

func printCategory(w io.Writer, c *models.Category) error {
	if jsonOutput {
		return printJSON(w, c)
	}
	return printCategories(w, []models.Category{*c})
}

func printSummaries(w io.Writer, summaries []models.PostSummary) error {
	if jsonOutput {
		return printJSON(w, summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No posts in this category.")
		return nil
	}
	tb := newTable("POST", "TITLE", "CREATED")
	for _, s := range summaries {
		tb.add(strconv.FormatInt(s.PostID, 10), s.Title, s.CreatedAt.Format(timeLayout))
	}
	return tb.render(w)
}

func printTags(w io.Writer, tags []models.PostCategoryTag) error {
	if jsonOutput {
		return printJSON(w, tags)
	}
	if len(tags) == 0 {
		fmt.Fprintln(w, "No categories for this post.")
		return nil
	}
	tb := newTable("CATEGORY", "TITLE")
	for _, t := range tags {
		tb.add(strconv.FormatInt(t.CategoryID, 10), t.CategoryTitle)
	}
	return tb.render(w)
}

func printDrafts(w io.Writer, records []draft.Record) error {
	if jsonOutput {
		return printJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No drafts.")
		return nil
	}
	tb := newTable("KEY", "TITLE", "CATEGORIES", "SAVED")
	for _, r := range records {
		tb.add(r.Key, r.Values.Title, joinIDs(r.Values.Categories), r.SavedAt.Format(timeLayout))
	}
	return tb.render(w)
}

func printDraft(w io.Writer, r draft.Record) error {
	if jsonOutput {
		return printJSON(w, r)
	}
	fmt.Fprintln(w, titleStyle.Render(r.Values.Title))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s saved %s", r.Key, r.SavedAt.Format(timeLayout))))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("author: %s  categories: [%s]  published: %t",
		r.Values.Author, joinIDs(r.Values.Categories), r.Values.Published)))
	if r.Values.Content != "" {
		fmt.Fprint(w, "\n"+renderContent(r.Values.Content))
	}
	return nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
