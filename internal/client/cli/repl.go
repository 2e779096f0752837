package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/questboard/internal/client/client"
)

var errUsage = errors.New("wrong arguments")

type command struct {
	name  string
	usage string
	help  string
	// auth commands need a signed-in user.
	auth bool
	run  func(a *App, ctx context.Context, args []string) error
}

var commandList = []command{
	{name: "register", usage: "register", help: "create an account", run: (*App).register},
	{name: "login", usage: "login [email]", help: "sign in", run: (*App).login},
	{name: "logout", usage: "logout", help: "sign out and forget the saved session", auth: true, run: (*App).logout},
	{name: "whoami", usage: "whoami", help: "show the signed-in user", run: (*App).whoami},
	{name: "quests", usage: "quests [category] [search...]", help: "list quests", auth: true, run: (*App).quests},
	{name: "mine", usage: "mine", help: "list quests you posted", auth: true, run: (*App).mine},
	{name: "show", usage: "show <questId>", help: "show one quest", auth: true, run: (*App).show},
	{name: "post", usage: "post", help: "post a new quest", auth: true, run: (*App).post},
	{name: "edit", usage: "edit <questId>", help: "edit the title and content of your quest", auth: true, run: (*App).edit},
	{name: "delete", usage: "delete <questId>", help: "delete your quest", auth: true, run: (*App).delete},
	{name: "interest", usage: "interest <questId>", help: "ask to take a quest", auth: true, run: (*App).interest},
	{name: "notifications", usage: "notifications", help: "list requests and notices", auth: true, run: (*App).notifications},
	{name: "accept", usage: "accept <notificationId>", help: "accept a request and open a chat", auth: true, run: (*App).accept},
	{name: "decline", usage: "decline <notificationId>", help: "decline a request", auth: true, run: (*App).decline},
	{name: "inbox", usage: "inbox", help: "list conversations", auth: true, run: (*App).inbox},
	{name: "chat", usage: "chat <conversationId>", help: "show a conversation", auth: true, run: (*App).chat},
	{name: "send", usage: "send <conversationId> [text...]", help: "send a message, or retry the unsent one", auth: true, run: (*App).send},
	{name: "profile", usage: "profile [userId]", help: "show a profile", auth: true, run: (*App).profile},
	{name: "editprofile", usage: "editprofile", help: "change name, bio or picture reference", auth: true, run: (*App).editProfile},
	{name: "picture", usage: "picture <file>", help: "upload a profile picture", auth: true, run: (*App).picture},
	{name: "watch", usage: "watch <topic> [arg...]", help: "follow a live view until Enter", auth: true, run: (*App).watch},
}

func findCommand(name string) (command, bool) {
	for _, c := range commandList {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Available commands:")
	for _, c := range commandList {
		fmt.Fprintf(w, "  %-34s %s\n", c.usage, c.help)
	}
	fmt.Fprintf(w, "  %-34s %s\n", "help", "show this list")
	fmt.Fprintf(w, "  %-34s %s\n", "exit | quit", "leave the program")
}

// runREPL reads commands until EOF or exit. A failing command prints its
// error and the loop carries on.
func (a *App) runREPL(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(a.out, a.prompt())
		line, err := a.reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(a.out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			printHelp(a.out)
			continue
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		}

		cmd, ok := findCommand(name)
		if !ok {
			fmt.Fprintln(a.out, "Unknown command:", name)
			continue
		}
		if cmd.auth && !a.me().SignedIn() {
			fmt.Fprintln(a.out, "Please log in first.")
			continue
		}
		if err := cmd.run(a, ctx, args); err != nil {
			a.report(ctx, cmd, err)
		}
	}
}

func (a *App) report(ctx context.Context, cmd command, err error) {
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(a.out, "Usage:", cmd.usage)
	case cmd.auth && errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(a.out, "Your session has expired, please log in again.")
		a.forget(ctx)
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
}
