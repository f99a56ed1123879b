package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shyabid/rolevia/internal/domain"
)

// StaticRoleManager serves a fixed role list per guild and records grants.
// It stands in for the chat platform's membership system in tests and demos.
type StaticRoleManager struct {
	mu       sync.Mutex
	roles    map[int64][]domain.Role
	profiles map[int64]domain.GuildProfile
	grants   map[int64][]int64 // user id -> granted role ids
}

func NewStaticRoleManager(roles map[int64][]domain.Role) *StaticRoleManager {
	return &StaticRoleManager{
		roles:    roles,
		profiles: make(map[int64]domain.GuildProfile),
		grants:   make(map[int64][]int64),
	}
}

func (m *StaticRoleManager) SetProfile(guildID int64, profile domain.GuildProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[guildID] = profile
}

func (m *StaticRoleManager) GrantRole(_ context.Context, _, userID, roleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[userID] = append(m.grants[userID], roleID)
	return nil
}

func (m *StaticRoleManager) AssignableRoles(_ context.Context, guildID int64) ([]domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Role(nil), m.roles[guildID]...), nil
}

func (m *StaticRoleManager) GuildProfile(_ context.Context, guildID int64) (domain.GuildProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[guildID], nil
}

// GrantedRoles returns the roles granted to a user, in grant order.
func (m *StaticRoleManager) GrantedRoles(userID int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.grants[userID]...)
}

// SentMessage is one message captured by the recording messenger.
type SentMessage struct {
	ChannelID int64
	Embed     domain.Embed
	Controls  []domain.Control
}

// RecordingMessenger captures direct channel sends instead of delivering
// them anywhere, assigning sequential message ids.
type RecordingMessenger struct {
	nextID int64

	mu   sync.Mutex
	sent []SentMessage
}

func NewRecordingMessenger() *RecordingMessenger {
	return &RecordingMessenger{}
}

func (m *RecordingMessenger) SendMessage(_ context.Context, channelID int64, embed domain.Embed, controls []domain.Control) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{ChannelID: channelID, Embed: embed, Controls: controls})
	return atomic.AddInt64(&m.nextID, 1), nil
}

// Sent returns a copy of every captured message.
func (m *RecordingMessenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}
