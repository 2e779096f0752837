package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/questboard/internal/api"
	"github.com/dmitrijs2005/questboard/internal/client/client"
	"github.com/dmitrijs2005/questboard/internal/client/config"
	"github.com/dmitrijs2005/questboard/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/questboard/internal/session"
)

// uploader is the part of client.Uploader the picture command needs.
type uploader interface {
	Put(ctx context.Context, url, contentType string, body []byte) error
}

type App struct {
	config   *config.Config
	qb       client.Client
	sessions sessions.Repository
	session  *session.Session
	uploader uploader
	reader   *bufio.Reader
	out      io.Writer
	now      func() time.Time
	password func(prompt string) (string, error)
	closeFn  func() error

	// drafts holds unsent message text per conversation id.
	drafts map[string]string
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, c.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	qb, err := client.NewQuestBoardClient(c.ServerEndpointAddr)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := newApp(c, qb, sessions.NewSQLiteRepository(db), client.NewUploader(), os.Stdin, os.Stdout)
	a.closeFn = func() error {
		return errors.Join(qb.Close(), db.Close())
	}
	return a, nil
}

func newApp(c *config.Config, qb client.Client, repo sessions.Repository, up uploader, in io.Reader, out io.Writer) *App {
	a := &App{
		config:   c,
		qb:       qb,
		sessions: repo,
		session:  session.New(),
		uploader: up,
		reader:   bufio.NewReader(in),
		out:      out,
		now:      time.Now,
		drafts:   map[string]string{},
	}
	a.password = func(prompt string) (string, error) {
		return GetPassword(a.reader, prompt, a.out)
	}

	// Rotated refresh tokens must survive a restart.
	qb.OnTokens(func(t api.Tokens) {
		if t.RefreshToken == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.config.RequestTimeout)
		defer cancel()
		if err := a.sessions.SaveRefreshToken(ctx, t.RefreshToken); err != nil {
			fmt.Fprintf(a.out, "warning: could not save session: %v\n", err)
		}
	})
	return a
}

// Run resumes a saved session if there is one and then blocks in the REPL
// until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	fmt.Fprintln(a.out, "Welcome to Quest Board CLI (type 'help' for commands)")

	sub := a.session.Subscribe(a.announce())
	defer sub.Cancel()

	a.resume(ctx)
	a.runREPL(ctx)
}

func (a *App) close() {
	if a.closeFn == nil {
		return
	}
	if err := a.closeFn(); err != nil {
		fmt.Fprintf(a.out, "error closing: %v\n", err)
	}
}

// announce returns a session observer that reports sign-in transitions.
// The initial signed-out state is not reported.
func (a *App) announce() func(session.Identity) {
	var last session.Identity
	return func(id session.Identity) {
		if id == last {
			return
		}
		switch {
		case id.SignedIn() && id.UserID == last.UserID:
			fmt.Fprintf(a.out, "Now shown as %s\n", id.DisplayName)
		case id.SignedIn():
			fmt.Fprintf(a.out, "Signed in as %s\n", id.DisplayName)
		case last.SignedIn():
			fmt.Fprintln(a.out, "Signed out")
		}
		last = id
	}
}

// rpc bounds one server round trip by the configured request timeout.
func (a *App) rpc(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) me() session.Identity {
	return a.session.Current()
}

func (a *App) prompt() string {
	id := a.me()
	if !id.SignedIn() {
		return "qb> "
	}
	return fmt.Sprintf("qb (%s)> ", id.DisplayName)
}

func (a *App) ask(prompt string) (string, error) {
	return GetSimpleText(a.reader, prompt, a.out)
}
