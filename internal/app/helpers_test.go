package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shyabid/rolevia/internal/app"
	"github.com/shyabid/rolevia/internal/domain"
	"github.com/shyabid/rolevia/internal/infra/memory"
)

const testGuild = int64(1)

func testRoles() map[int64][]domain.Role {
	return map[int64][]domain.Role{
		testGuild: {
			{ID: 100, Name: "Member"},
			{ID: 101, Name: "Verified"},
			{ID: 102, Name: "Bots", Managed: true},
			{ID: 103, Name: "@everyone"},
		},
	}
}

type fixture struct {
	store     *countingStore
	roles     app.RoleManager
	messenger *memory.RecordingMessenger
	webhooks  *fakeWebhookSender
	service   *app.Service
}

func newFixture(roles app.RoleManager) *fixture {
	store := &countingStore{Store: memory.NewStore()}
	messenger := memory.NewRecordingMessenger()
	webhooks := &fakeWebhookSender{}
	if roles == nil {
		roles = memory.NewStaticRoleManager(testRoles())
	}
	service := app.NewService(store, roles, messenger, webhooks,
		memory.NewAuthoringRegistry(time.Hour), memory.NewTakingRegistry(time.Hour),
		"https://relay.example/api/webhooks/")
	return &fixture{store: store, roles: roles, messenger: messenger, webhooks: webhooks, service: service}
}

// countingStore counts quiz creations on top of the memory store.
type countingStore struct {
	*memory.Store
	mu      sync.Mutex
	creates int
}

func (s *countingStore) CreateQuiz(ctx context.Context, guildID int64, questions []domain.Question, roleID int64, pct int) (int64, error) {
	s.mu.Lock()
	s.creates++
	s.mu.Unlock()
	return s.Store.CreateQuiz(ctx, guildID, questions, roleID, pct)
}

func (s *countingStore) createCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

// failingRoleManager lists roles but cannot grant them.
type failingRoleManager struct {
	inner app.RoleManager
}

func newFailingRoleManager() *failingRoleManager {
	return &failingRoleManager{inner: memory.NewStaticRoleManager(testRoles())}
}

func (m *failingRoleManager) GrantRole(context.Context, int64, int64, int64) error {
	return errors.New("missing permission")
}

func (m *failingRoleManager) AssignableRoles(ctx context.Context, guildID int64) ([]domain.Role, error) {
	return m.inner.AssignableRoles(ctx, guildID)
}

func (m *failingRoleManager) GuildProfile(ctx context.Context, guildID int64) (domain.GuildProfile, error) {
	return m.inner.GuildProfile(ctx, guildID)
}

// fakeWebhookSender records sends and optionally fails every call.
type fakeWebhookSender struct {
	mu    sync.Mutex
	fail  bool
	sends []webhookSend
}

type webhookSend struct {
	url         string
	embed       domain.Embed
	displayName string
	avatarURL   string
	controls    []domain.Control
}

func (f *fakeWebhookSender) Send(_ context.Context, url string, embed domain.Embed, displayName, avatarURL string, controls []domain.Control) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("relay unreachable")
	}
	f.sends = append(f.sends, webhookSend{url: url, embed: embed, displayName: displayName, avatarURL: avatarURL, controls: controls})
	return int64(9000 + len(f.sends)), nil
}

func (f *fakeWebhookSender) sent() []webhookSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]webhookSend(nil), f.sends...)
}

// seedQuiz inserts a quiz with n identical two-option questions whose first
// option is correct.
func seedQuiz(f *fixture, n, pct int) int64 {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			Text:           "Pick the first option",
			Options:        []string{"right", "wrong"},
			CorrectAnswers: []int{1},
		}
	}
	id, err := f.store.CreateQuiz(context.Background(), testGuild, questions, 100, pct)
	if err != nil {
		panic(err)
	}
	return id
}
