package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/questboard/internal/api"
	"github.com/dmitrijs2005/questboard/internal/client/config"
	"github.com/dmitrijs2005/questboard/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/session"
)

type fakeClient struct {
	mu    sync.Mutex
	calls []string

	onTokens func(api.Tokens)

	loginErr    error
	resumeErr   error
	profiles    map[string]models.Profile
	profileErr  error
	quests      []models.Quest
	posted      []models.QuestDraft
	edits       map[string]models.QuestEdit
	deleted     []string
	listArgs    [2]string
	errs        map[string]error
	upload      api.PictureUpload
	updated     []models.ProfileEdit
	messages    []models.Message
	sent        []string
	watchReq    models.WatchRequest
	watchViews  []models.View
	watchErr    error
	watchReturn bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		profiles: map[string]models.Profile{
			"u-1": {ID: "u-1", Name: "Ana Cruz", Bio: "hi"},
			"u-2": {ID: "u-2", Name: "Ben Reyes"},
		},
		edits: map[string]models.QuestEdit{},
		errs:  map[string]error{},
	}
}

func (f *fakeClient) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.errs[call]
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) Close() error                 { return nil }
func (f *fakeClient) Ping(ctx context.Context) error { return f.record("ping") }

func (f *fakeClient) Register(ctx context.Context, reg models.Registration) (string, error) {
	return "u-1", f.record("register")
}

func (f *fakeClient) tokens(t api.Tokens) {
	if f.onTokens != nil {
		f.onTokens(t)
	}
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (api.Tokens, error) {
	f.record("login " + email + " " + password)
	if f.loginErr != nil {
		return api.Tokens{}, f.loginErr
	}
	t := api.Tokens{AccessToken: "a", RefreshToken: "r-login", UserID: "u-1"}
	f.tokens(t)
	return t, nil
}

func (f *fakeClient) Resume(ctx context.Context, refreshToken string) (api.Tokens, error) {
	f.record("resume " + refreshToken)
	if f.resumeErr != nil {
		return api.Tokens{}, f.resumeErr
	}
	t := api.Tokens{AccessToken: "a", RefreshToken: "r-rotated", UserID: "u-1"}
	f.tokens(t)
	return t, nil
}

func (f *fakeClient) Logout(ctx context.Context) error { return f.record("logout") }

func (f *fakeClient) OnTokens(fn func(api.Tokens)) { f.onTokens = fn }

func (f *fakeClient) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	f.record("profile " + userID)
	if f.profileErr != nil {
		return models.Profile{}, f.profileErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return models.Profile{ID: userID}, nil
	}
	return p, nil
}

func (f *fakeClient) UpdateProfile(ctx context.Context, edit models.ProfileEdit) (models.Profile, error) {
	if err := f.record("updateprofile"); err != nil {
		return models.Profile{}, err
	}
	f.updated = append(f.updated, edit)
	p := f.profiles["u-1"]
	p.Name, p.Bio, p.ProfilePicture = edit.Name, edit.Bio, edit.ProfilePicture
	f.profiles["u-1"] = p
	return p, nil
}

func (f *fakeClient) RequestPictureUpload(ctx context.Context) (api.PictureUpload, error) {
	return f.upload, f.record("requestupload")
}

func (f *fakeClient) PictureURL(ctx context.Context, key string) (string, error) {
	return "https://cdn.example/" + key, f.record("pictureurl " + key)
}

func (f *fakeClient) PostQuest(ctx context.Context, draft models.QuestDraft) (models.Quest, error) {
	if err := f.record("post"); err != nil {
		return models.Quest{}, err
	}
	f.posted = append(f.posted, draft)
	return models.Quest{ID: "q-new"}, nil
}

func (f *fakeClient) GetQuest(ctx context.Context, questID string) (models.Quest, error) {
	if err := f.record("getquest " + questID); err != nil {
		return models.Quest{}, err
	}
	for _, q := range f.quests {
		if q.ID == questID {
			return q, nil
		}
	}
	return models.Quest{ID: questID}, nil
}

func (f *fakeClient) ListQuests(ctx context.Context, search, category string) ([]models.Quest, error) {
	f.listArgs = [2]string{category, search}
	return f.quests, f.record("list")
}

func (f *fakeClient) ListMyQuests(ctx context.Context) ([]models.Quest, error) {
	return f.quests, f.record("mine")
}

func (f *fakeClient) UpdateQuest(ctx context.Context, questID string, edit models.QuestEdit) (models.Quest, error) {
	if err := f.record("updatequest " + questID); err != nil {
		return models.Quest{}, err
	}
	f.edits[questID] = edit
	return models.Quest{ID: questID, Title: edit.Title, Content: edit.Content}, nil
}

func (f *fakeClient) DeleteQuest(ctx context.Context, questID string) error {
	if err := f.record("delete " + questID); err != nil {
		return err
	}
	f.deleted = append(f.deleted, questID)
	return nil
}

func (f *fakeClient) ExpressInterest(ctx context.Context, questID string) (models.Notification, error) {
	return models.Notification{ID: "n-1", QuestID: questID, QuestTitle: "Print my thesis"}, f.record("interest " + questID)
}

func (f *fakeClient) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	return []models.Notification{
		{ID: "n-1", QuestID: "q-1", QuestTitle: "Print my thesis", UserName: "Ben Reyes", Status: models.NotificationPending},
		{ID: "n-2", QuestID: "q-2", QuestTitle: "Lost ID", UserName: "Cy", Status: models.NotificationAccepted, ConversationID: "u-1_u-3"},
		{ID: "n-3", UserID: "u-1", Status: models.NotificationMessage, Message: "Ana Cruz accepted your request to take the quest.", Date: "2025-02-01"},
	}, f.record("notifications")
}

func (f *fakeClient) AcceptInterest(ctx context.Context, notificationID string) (string, error) {
	return "u-1_u-2", f.record("accept " + notificationID)
}

func (f *fakeClient) DeclineInterest(ctx context.Context, notificationID string) error {
	return f.record("decline " + notificationID)
}

func (f *fakeClient) Inbox(ctx context.Context) ([]models.ConversationSummary, error) {
	return []models.ConversationSummary{
		{ConversationID: "u-1_u-2", OtherUserName: "Ben Reyes", LastMessage: "see you", Timestamp: 1},
	}, f.record("inbox")
}

func (f *fakeClient) Conversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	return f.messages, f.record("conversation " + conversationID)
}

func (f *fakeClient) SendMessage(ctx context.Context, conversationID, text string) (models.Message, error) {
	if err := f.record("send " + conversationID); err != nil {
		return models.Message{}, err
	}
	f.sent = append(f.sent, text)
	return models.Message{Sender: "u-1", Text: text, Timestamp: 1}, nil
}

func (f *fakeClient) Watch(ctx context.Context, req models.WatchRequest, fn func(models.View)) error {
	f.mu.Lock()
	f.watchReq = req
	f.mu.Unlock()
	if err := f.record("watch"); err != nil {
		return err
	}
	for _, v := range f.watchViews {
		fn(v)
	}
	if f.watchReturn {
		return f.watchErr
	}
	<-ctx.Done()
	return nil
}

type fakeSessions struct {
	saved   sessions.Saved
	ok      bool
	loadErr error
	cleared int
}

func (s *fakeSessions) Load(ctx context.Context) (sessions.Saved, bool, error) {
	return s.saved, s.ok, s.loadErr
}

func (s *fakeSessions) Save(ctx context.Context, saved sessions.Saved) error {
	s.saved, s.ok = saved, true
	return nil
}

func (s *fakeSessions) SaveRefreshToken(ctx context.Context, token string) error {
	s.saved.RefreshToken = token
	return nil
}

func (s *fakeSessions) Clear(ctx context.Context) error {
	s.saved, s.ok = sessions.Saved{}, false
	s.cleared++
	return nil
}

type fakeUploader struct {
	url, contentType string
	body             []byte
	err              error
}

func (u *fakeUploader) Put(ctx context.Context, url, contentType string, body []byte) error {
	u.url, u.contentType, u.body = url, contentType, body
	return u.err
}

// syncBuffer lets the watch goroutine and the REPL write concurrently.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	app      *App
	qb       *fakeClient
	sessions *fakeSessions
	uploader *fakeUploader
	out      *syncBuffer
}

// newFixture builds an App reading input lines. Passwords are read from
// the same input.
func newFixture(t *testing.T, input ...string) *fixture {
	t.Helper()
	f := &fixture{
		qb:       newFakeClient(),
		sessions: &fakeSessions{},
		uploader: &fakeUploader{},
		out:      &syncBuffer{},
	}
	cfg := &config.Config{RequestTimeout: time.Second, EmailDomain: "ustp.edu.ph"}
	in := strings.NewReader(strings.Join(input, "\n") + "\n")
	f.app = newApp(cfg, f.qb, f.sessions, f.uploader, in, f.out)
	f.app.now = func() time.Time { return time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC) }
	f.app.password = func(prompt string) (string, error) {
		return f.app.ask(prompt)
	}
	return f
}

func (f *fixture) signedIn() *fixture {
	f.app.session.SignIn(session.Identity{UserID: "u-1", DisplayName: "Ana Cruz"})
	return f
}
