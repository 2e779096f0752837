package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/questboard/internal/feed"
	"github.com/dmitrijs2005/questboard/internal/models"
)

func printNotifications(w io.Writer, ns []models.Notification) {
	if len(ns) == 0 {
		fmt.Fprintln(w, "No notifications.")
		return
	}
	for _, n := range ns {
		switch {
		case n.Actionable():
			fmt.Fprintf(w, "[%s] %s wants to take %q (accept or decline)\n", n.ID, n.UserName, n.QuestTitle)
		case n.IsRequest():
			fmt.Fprintf(w, "[%s] %s: %s for %q", n.ID, n.Status, n.UserName, n.QuestTitle)
			if n.ConversationID != "" {
				fmt.Fprintf(w, ", chat %s", n.ConversationID)
			}
			fmt.Fprintln(w)
		default:
			fmt.Fprintf(w, "[%s] %s", n.ID, n.Message)
			if n.Date != "" {
				fmt.Fprintf(w, " (%s)", n.Date)
			}
			fmt.Fprintln(w)
		}
	}
}

func (a *App) notifications(ctx context.Context, _ []string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	ns, err := a.qb.ListNotifications(rctx)
	if err != nil {
		return err
	}
	printNotifications(a.out, ns)
	return nil
}

func (a *App) accept(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	conv, err := a.qb.AcceptInterest(rctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Request accepted. Say hello with: send %s <text>\n", conv)
	return nil
}

func (a *App) decline(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	if err := a.qb.DeclineInterest(rctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Request declined.")
	return nil
}

func formatTime(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func printInbox(w io.Writer, cs []models.ConversationSummary) {
	if len(cs) == 0 {
		fmt.Fprintln(w, "No conversations yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONVERSATION\tWITH\tWHEN\tLAST MESSAGE")
	for _, c := range cs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ConversationID, c.OtherUserName, formatTime(c.Timestamp), c.LastMessage)
	}
	tw.Flush()
}

func (a *App) inbox(ctx context.Context, _ []string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	cs, err := a.qb.Inbox(rctx)
	if err != nil {
		return err
	}
	printInbox(a.out, cs)
	return nil
}

// printTranscript labels the viewer's lines "You" and the other side's
// with otherName.
func printTranscript(w io.Writer, me, otherName string, ms []models.Message) {
	if len(ms) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	for _, m := range ms {
		who := otherName
		if m.Sender == me {
			who = "You"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", formatTime(m.Timestamp), who, m.Text)
	}
}

// otherName resolves the display name of the other participant of conv.
func (a *App) otherName(ctx context.Context, conv string) string {
	other := feed.Other(conv, a.me().UserID)
	if other == "" {
		return "Them"
	}
	p, err := a.qb.GetProfile(ctx, other)
	if err != nil {
		return other
	}
	return p.DisplayName()
}

func (a *App) chat(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	ms, err := a.qb.Conversation(rctx, args[0])
	if err != nil {
		return err
	}
	printTranscript(a.out, a.me().UserID, a.otherName(rctx, args[0]), ms)
	if d, ok := a.drafts[args[0]]; ok {
		fmt.Fprintf(a.out, "Unsent: %s\n", d)
	}
	return nil
}

// send delivers text to a conversation. Text that fails to send is kept as
// the conversation's draft; "send <conv>" alone retries it.
func (a *App) send(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	conv := args[0]
	text := strings.Join(args[1:], " ")
	if len(args) == 1 {
		text = a.drafts[conv]
	}
	if strings.TrimSpace(text) == "" {
		return errUsage
	}

	rctx, cancel := a.rpc(ctx)
	defer cancel()
	m, err := a.qb.SendMessage(rctx, conv, text)
	if err != nil {
		a.drafts[conv] = text
		fmt.Fprintf(a.out, "Message kept, retry with: send %s\n", conv)
		return err
	}
	delete(a.drafts, conv)
	fmt.Fprintf(a.out, "[%s] You: %s\n", formatTime(m.Timestamp), m.Text)
	return nil
}
