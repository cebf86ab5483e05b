package core

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/telechat/internal/access"
	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/logger"
	"github.com/muratoffalex/telechat/internal/service"
	"github.com/muratoffalex/telechat/internal/telegram"
)

type fakeClient struct {
	sentCh chan telegram.TextMessage
}

func (f *fakeClient) Send(msg telegram.MessageConfig) (*telegram.Message, error) {
	f.sentCh <- msg.(telegram.TextMessage)
	return &telegram.Message{MessageID: 1}, nil
}

func (f *fakeClient) Request(msg telegram.MessageConfig) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeClient) DeleteMessage(chatID int64, messageID int) error { return nil }
func (f *fakeClient) SendChatAction(chatID int64, action telegram.ChatAction) error {
	return nil
}
func (f *fakeClient) SetMessageReaction(chatID int64, messageID int, emoji string) error {
	return nil
}
func (f *fakeClient) GetUpdatesChan(config telegram.UpdateConfig) <-chan tgbotapi.Update {
	return nil
}
func (f *fakeClient) Self() telegram.User { return telegram.User{UserName: "testbot", IsBot: true} }

type recordingCommand struct {
	name    string
	aliases []string

	mu       sync.Mutex
	msgs     []*telegram.Message
	executed chan struct{}
}

func newRecordingCommand(name string, aliases ...string) *recordingCommand {
	return &recordingCommand{name: name, aliases: aliases, executed: make(chan struct{}, 8)}
}

func (c *recordingCommand) Name() string      { return c.name }
func (c *recordingCommand) Aliases() []string { return c.aliases }

func (c *recordingCommand) Execute(ctx context.Context, msg *telegram.Message) error {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
	c.executed <- struct{}{}
	return nil
}

func (c *recordingCommand) await(t *testing.T) *telegram.Message {
	t.Helper()
	select {
	case <-c.executed:
	case <-time.After(2 * time.Second):
		t.Fatal("command was not executed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msgs[len(c.msgs)-1]
}

func (c *recordingCommand) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func newTestBot(t *testing.T) (*Bot, *fakeClient, *access.List) {
	t.Helper()

	client := &fakeClient{sentCh: make(chan telegram.TextMessage, 8)}
	log := logger.NewTestLogger()

	localizer, err := service.NewLocalizer("en")
	require.NoError(t, err)

	list, err := access.LoadList(filepath.Join(t.TempDir(), "allowed_users.yaml"))
	require.NoError(t, err)
	filter := access.NewFilter(list, config.AdminConfig{UserIDs: []int64{1}}, "testbot", log)

	return NewBot(client, filter, nil, localizer, log), client, list
}

func TestHandleMessageDispatchesCommand(t *testing.T) {
	bot, _, _ := newTestBot(t)
	cmd := newRecordingCommand("start", "help")
	bot.RegisterCommand(cmd)

	bot.handleMessage(context.Background(), &telegram.Message{
		Chat:    telegram.Chat{ID: 1, Type: "private"},
		From:    telegram.User{ID: 1},
		Command: "start",
		Text:    "/start",
	})
	got := cmd.await(t)
	assert.Equal(t, "start", got.Command)

	bot.handleMessage(context.Background(), &telegram.Message{
		Chat:    telegram.Chat{ID: 1, Type: "private"},
		From:    telegram.User{ID: 1},
		Command: "help",
		Text:    "/help",
	})
	got = cmd.await(t)
	assert.Equal(t, "help", got.Command)
}

func TestHandleMessageIgnoresUnknownCommand(t *testing.T) {
	bot, _, _ := newTestBot(t)
	cmd := newRecordingCommand("start")
	bot.RegisterCommand(cmd)

	bot.handleMessage(context.Background(), &telegram.Message{
		Chat:    telegram.Chat{ID: 1, Type: "private"},
		From:    telegram.User{ID: 1},
		Command: "bogus",
		Text:    "/bogus",
	})

	assert.Equal(t, 0, cmd.count())
}

func TestHandleMessageDeniedUser(t *testing.T) {
	bot, _, _ := newTestBot(t)
	chat := newRecordingCommand("chat")
	bot.RegisterChatCommand(chat)

	bot.handleMessage(context.Background(), &telegram.Message{
		Chat: telegram.Chat{ID: 2, Type: "private"},
		From: telegram.User{ID: 2},
		Text: "hello",
	})

	assert.Equal(t, 0, chat.count())
}

func TestHandleMessageRoutesTextToChat(t *testing.T) {
	bot, _, _ := newTestBot(t)
	chat := newRecordingCommand("chat")
	bot.RegisterChatCommand(chat)

	bot.handleMessage(context.Background(), &telegram.Message{
		Chat: telegram.Chat{ID: 1, Type: "private"},
		From: telegram.User{ID: 1},
		Text: "hello there",
	})

	got := chat.await(t)
	assert.Equal(t, "hello there", got.Text)
}

func TestHandleMessageStripsMentionInGroup(t *testing.T) {
	bot, _, list := newTestBot(t)
	chat := newRecordingCommand("chat")
	bot.RegisterChatCommand(chat)

	_, err := list.AllowChat(-5)
	require.NoError(t, err)

	bot.handleMessage(context.Background(), &telegram.Message{
		Chat: telegram.Chat{ID: -5, Type: "group"},
		From: telegram.User{ID: 9},
		Text: "@testbot what is up",
	})

	got := chat.await(t)
	assert.Equal(t, "what is up", got.Text)
}

func TestHandleMessageCaptionedMediaTaggedWithKind(t *testing.T) {
	bot, _, _ := newTestBot(t)
	chat := newRecordingCommand("chat")
	bot.RegisterChatCommand(chat)

	bot.handleMessage(context.Background(), &telegram.Message{
		Chat: telegram.Chat{ID: 1, Type: "private"},
		From: telegram.User{ID: 1},
		Text: "look at this",
		Kind: telegram.ContentPhoto,
	})

	got := chat.await(t)
	assert.Equal(t, "[photo] look at this", got.Text)
}

func TestHandleMessageUnsupportedContent(t *testing.T) {
	bot, client, _ := newTestBot(t)
	chat := newRecordingCommand("chat")
	bot.RegisterChatCommand(chat)

	bot.handleMessage(context.Background(), &telegram.Message{
		MessageID: 3,
		Chat:      telegram.Chat{ID: 1, Type: "private"},
		From:      telegram.User{ID: 1},
		Kind:      telegram.ContentVoice,
	})

	select {
	case sent := <-client.sentCh:
		assert.Equal(t, int64(1), sent.ChatID)
		assert.Equal(t, 3, sent.ReplyTo)
		assert.NotEmpty(t, sent.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("no unsupported content notice sent")
	}
	assert.Equal(t, 0, chat.count())
}
