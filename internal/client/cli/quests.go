package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/models"
)

// parseQuestArgs splits "[category] [search...]". Category names contain
// spaces, so the longest category (or ALL) that prefixes the arguments
// case-insensitively wins; the rest is the search term.
func parseQuestArgs(args []string) (category, search string) {
	joined := strings.Join(args, " ")
	lower := strings.ToLower(joined)

	candidates := append([]string{models.CategoryAll}, models.Categories...)
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })

	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lower == lc || strings.HasPrefix(lower, lc+" ") {
			return c, strings.TrimSpace(joined[len(c):])
		}
	}
	return models.CategoryAll, joined
}

func printQuests(w io.Writer, quests []models.Quest) {
	if len(quests) == 0 {
		fmt.Fprintln(w, "No quests.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tAMOUNT\tDEADLINE\tBY\tQUEST")
	for _, q := range quests {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", q.ID, q.Category, q.Amount, q.Deadline, q.DisplayName, q.Heading())
	}
	tw.Flush()
}

func (a *App) quests(ctx context.Context, args []string) error {
	category, search := parseQuestArgs(args)
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	qs, err := a.qb.ListQuests(rctx, search, category)
	if err != nil {
		return err
	}
	printQuests(a.out, qs)
	return nil
}

func (a *App) mine(ctx context.Context, _ []string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	qs, err := a.qb.ListMyQuests(rctx)
	if err != nil {
		return err
	}
	printQuests(a.out, qs)
	return nil
}

func (a *App) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	q, err := a.qb.GetQuest(rctx, args[0])
	if err != nil {
		return err
	}

	if q.Title != "" {
		fmt.Fprintf(a.out, "Title:     %s\n", q.Title)
	}
	fmt.Fprintf(a.out, "Category:  %s\n", q.Category)
	fmt.Fprintf(a.out, "Skill:     %s\n", q.SkillRequired)
	fmt.Fprintf(a.out, "Amount:    %s\n", q.Amount)
	fmt.Fprintf(a.out, "Deadline:  %s\n", q.Deadline)
	fmt.Fprintf(a.out, "Reference: %s\n", q.ReferenceNumber)
	fmt.Fprintf(a.out, "Posted by: %s\n", q.DisplayName)
	fmt.Fprintf(a.out, "Status:    %s\n", q.Status)
	fmt.Fprintf(a.out, "\n%s\n", q.Content)
	return nil
}

// askCategory accepts either a number from the printed list or a name.
func (a *App) askCategory() (string, error) {
	fmt.Fprintln(a.out, "Categories:")
	for i, c := range models.Categories {
		fmt.Fprintf(a.out, "  %d. %s\n", i+1, c)
	}
	v, err := a.ask("Category")
	if err != nil {
		return "", err
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= len(models.Categories) {
		return models.Categories[n-1], nil
	}
	for _, c := range models.Categories {
		if strings.EqualFold(c, v) {
			return c, nil
		}
	}
	return v, nil
}

func (a *App) post(ctx context.Context, _ []string) error {
	var d models.QuestDraft
	var err error

	if d.Title, err = a.ask("Title (optional)"); err != nil {
		return err
	}
	if d.Content, err = GetMultiline(a.reader, "Describe the quest", a.out); err != nil {
		return err
	}
	if d.SkillRequired, err = a.ask("Skill required"); err != nil {
		return err
	}
	if d.Deadline, err = a.ask("Deadline (YYYY-MM-DD)"); err != nil {
		return err
	}
	if d.Amount, err = a.ask(fmt.Sprintf("Amount (at least %d)", common.MinQuestAmount)); err != nil {
		return err
	}
	if d.Category, err = a.askCategory(); err != nil {
		return err
	}
	if d.ReferenceNumber, err = a.ask("Payment reference number (13 digits)"); err != nil {
		return err
	}

	d = d.Trimmed()
	if err := d.Validate(a.now()); err != nil {
		return err
	}

	rctx, cancel := a.rpc(ctx)
	defer cancel()
	q, err := a.qb.PostQuest(rctx, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Quest posted: %s\n", q.ID)
	return nil
}

func (a *App) edit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	rctx, cancel := a.rpc(ctx)
	q, err := a.qb.GetQuest(rctx, args[0])
	cancel()
	if err != nil {
		return err
	}

	e := models.QuestEdit{Title: q.Title, Content: q.Content}
	title, err := a.ask(fmt.Sprintf("Title [%s]", q.Title))
	if err != nil {
		return err
	}
	if title != "" {
		e.Title = title
	}
	content, err := GetMultiline(a.reader, "Content (empty keeps the current text)", a.out)
	if err != nil {
		return err
	}
	if content != "" {
		e.Content = content
	}
	if err := e.Validate(); err != nil {
		return err
	}

	rctx, cancel = a.rpc(ctx)
	defer cancel()
	if _, err := a.qb.UpdateQuest(rctx, q.ID, e); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Quest updated.")
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if !Confirm(a.reader, "Are you sure you want to delete this post?", a.out) {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	if err := a.qb.DeleteQuest(rctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Quest deleted.")
	return nil
}

func (a *App) interest(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	n, err := a.qb.ExpressInterest(rctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Request sent for %q. You will be notified when the owner answers.\n", n.QuestTitle)
	return nil
}
