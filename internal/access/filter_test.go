package access

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/logger"
	"github.com/muratoffalex/telechat/internal/telegram"
)

func newTestFilter(t *testing.T) (*Filter, *List) {
	t.Helper()
	list, err := LoadList(filepath.Join(t.TempDir(), "allowed_users.yaml"))
	require.NoError(t, err)
	filter := NewFilter(list, config.AdminConfig{UserIDs: []int64{100}}, "testbot", logger.NewTestLogger())
	return filter, list
}

func privateMessage(userID int64, text string) *telegram.Message {
	return &telegram.Message{
		Chat: telegram.Chat{ID: userID, Type: "private"},
		From: telegram.User{ID: userID},
		Text: text,
	}
}

func groupMessage(chatID, userID int64, text string) *telegram.Message {
	return &telegram.Message{
		Chat: telegram.Chat{ID: chatID, Type: "group"},
		From: telegram.User{ID: userID},
		Text: text,
	}
}

func TestPrivateChatAccess(t *testing.T) {
	filter, list := newTestFilter(t)

	assert.False(t, filter.Check(privateMessage(5, "hi")))

	_, err := list.AllowUser(5)
	require.NoError(t, err)
	assert.True(t, filter.Check(privateMessage(5, "hi")))
}

func TestPrivateChatAdminAlwaysAllowed(t *testing.T) {
	filter, _ := newTestFilter(t)
	assert.True(t, filter.Check(privateMessage(100, "hi")))
}

func TestGroupChatRequiresAllowedChat(t *testing.T) {
	filter, list := newTestFilter(t)

	msg := groupMessage(-42, 5, "hello @testbot")
	assert.False(t, filter.Check(msg))

	_, err := list.AllowChat(-42)
	require.NoError(t, err)
	assert.True(t, filter.Check(msg))
}

func TestGroupChatRequiresDirectRequest(t *testing.T) {
	filter, list := newTestFilter(t)
	_, err := list.AllowChat(-42)
	require.NoError(t, err)

	assert.False(t, filter.Check(groupMessage(-42, 5, "just chatting")))
	assert.True(t, filter.Check(groupMessage(-42, 5, "hey @TestBot what's up")))
}

func TestReplyToBotIsDirectRequest(t *testing.T) {
	filter, list := newTestFilter(t)
	_, err := list.AllowChat(-42)
	require.NoError(t, err)

	msg := groupMessage(-42, 5, "continue please")
	msg.ReplyTo = &telegram.Message{
		From: telegram.User{ID: 999, UserName: "testbot", IsBot: true},
	}
	assert.True(t, filter.Check(msg))

	msg.ReplyTo.From = telegram.User{ID: 7, UserName: "someone", IsBot: false}
	assert.False(t, filter.Check(msg))
}

func TestUnknownChatTypeRejected(t *testing.T) {
	filter, _ := newTestFilter(t)
	msg := &telegram.Message{
		Chat: telegram.Chat{ID: 1, Type: "channel"},
		From: telegram.User{ID: 100},
	}
	assert.False(t, filter.Check(msg))
}

func TestStripMention(t *testing.T) {
	filter, _ := newTestFilter(t)

	assert.Equal(t, "what is Go?", filter.StripMention("@testbot what is Go?"))
	assert.Equal(t, "hello  there", filter.StripMention("hello @TestBot there"))
	assert.Equal(t, "no mention", filter.StripMention("no mention"))
}
