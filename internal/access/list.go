// Package access decides which users and chats the bot answers, and keeps
// the allow lists plus runtime feature toggles in a YAML file so admin
// changes survive restarts.
package access

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

type listData struct {
	AllowedUserIDs          []int64 `yaml:"allowed_user_ids"`
	AllowedChatIDs          []int64 `yaml:"allowed_chat_ids"`
	ReactionsEnabled        bool    `yaml:"reactions_enabled"`
	AlwaysAppendDateEnabled bool    `yaml:"always_append_date_enabled"`
}

// List is the persisted access state. Every mutation writes the file back
// so a crash never loses an admin change.
type List struct {
	mu   sync.Mutex
	path string
	data listData
}

// LoadList reads the access file at path, creating default state when the
// file does not exist yet.
func LoadList(path string) (*List, error) {
	l := &List{
		path: path,
		data: listData{
			ReactionsEnabled:        true,
			AlwaysAppendDateEnabled: true,
		},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to read access file: %w", err)
	}

	if err := yaml.Unmarshal(raw, &l.data); err != nil {
		return nil, fmt.Errorf("failed to parse access file %s: %w", path, err)
	}
	return l, nil
}

func (l *List) save() error {
	raw, err := yaml.Marshal(l.data)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(l.path, raw, 0o644)
}

func (l *List) IsAllowedUser(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.data.AllowedUserIDs, userID)
}

func (l *List) IsAllowedChat(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.data.AllowedChatIDs, chatID)
}

// AllowUser adds a user to the allow list. Returns false when already present.
func (l *List) AllowUser(userID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if slices.Contains(l.data.AllowedUserIDs, userID) {
		return false, nil
	}
	l.data.AllowedUserIDs = append(l.data.AllowedUserIDs, userID)
	return true, l.save()
}

// RemoveUser drops a user from the allow list. Returns false when absent.
func (l *List) RemoveUser(userID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := slices.Index(l.data.AllowedUserIDs, userID)
	if idx == -1 {
		return false, nil
	}
	l.data.AllowedUserIDs = slices.Delete(l.data.AllowedUserIDs, idx, idx+1)
	return true, l.save()
}

func (l *List) AllowChat(chatID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if slices.Contains(l.data.AllowedChatIDs, chatID) {
		return false, nil
	}
	l.data.AllowedChatIDs = append(l.data.AllowedChatIDs, chatID)
	return true, l.save()
}

func (l *List) RemoveChat(chatID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := slices.Index(l.data.AllowedChatIDs, chatID)
	if idx == -1 {
		return false, nil
	}
	l.data.AllowedChatIDs = slices.Delete(l.data.AllowedChatIDs, idx, idx+1)
	return true, l.save()
}

// Users returns a copy of the allowed user IDs.
func (l *List) Users() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.data.AllowedUserIDs)
}

// Chats returns a copy of the allowed chat IDs.
func (l *List) Chats() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.data.AllowedChatIDs)
}

func (l *List) ReactionsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.ReactionsEnabled
}

func (l *List) SetReactionsEnabled(enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data.ReactionsEnabled = enabled
	return l.save()
}

func (l *List) AlwaysAppendDateEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.AlwaysAppendDateEnabled
}

func (l *List) SetAlwaysAppendDateEnabled(enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data.AlwaysAppendDateEnabled = enabled
	return l.save()
}
