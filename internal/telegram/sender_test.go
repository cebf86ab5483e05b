package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/telechat/internal/logger"
)

type fakeClient struct {
	sendErrs    []error
	requestErrs []error
	sent        []TextMessage
	edited      []EditMessageTextConfig
}

func (f *fakeClient) Send(msg MessageConfig) (*Message, error) {
	f.sent = append(f.sent, msg.(TextMessage))
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &Message{MessageID: 42}, nil
}

func (f *fakeClient) Request(msg MessageConfig) (*tgbotapi.APIResponse, error) {
	f.edited = append(f.edited, msg.(EditMessageTextConfig))
	if len(f.requestErrs) > 0 {
		err := f.requestErrs[0]
		f.requestErrs = f.requestErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeClient) DeleteMessage(chatID int64, messageID int) error { return nil }
func (f *fakeClient) SendChatAction(chatID int64, action ChatAction) error {
	return nil
}
func (f *fakeClient) SetMessageReaction(chatID int64, messageID int, emoji string) error {
	return nil
}
func (f *fakeClient) GetUpdatesChan(config UpdateConfig) <-chan tgbotapi.Update {
	return nil
}
func (f *fakeClient) Self() User { return User{UserName: "testbot"} }

func newTestSender(client Client) (*Sender, *[]time.Duration) {
	s := NewSender(client, logger.NewTestLogger())
	slept := &[]time.Duration{}
	s.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return s, slept
}

func TestSafeSendSuccess(t *testing.T) {
	client := &fakeClient{}
	s, slept := newTestSender(client)

	msg, err := s.SafeSend(context.Background(), NewMessage(1, "hi", 0))

	require.NoError(t, err)
	assert.Equal(t, 42, msg.MessageID)
	assert.Len(t, client.sent, 1)
	assert.Empty(t, *slept)
}

func TestSafeSendRetryAfter(t *testing.T) {
	rateErr := errors.New("Too Many Requests: retry after 2")
	client := &fakeClient{sendErrs: []error{rateErr, rateErr, nil}}
	s, slept := newTestSender(client)

	msg, err := s.SafeSend(context.Background(), NewMessage(1, "hi", 0))

	require.NoError(t, err)
	assert.NotNil(t, msg)
	assert.Len(t, client.sent, 3)
	assert.Equal(t, []time.Duration{2500 * time.Millisecond, 2500 * time.Millisecond}, *slept)
}

func TestSafeSendRetriesExhausted(t *testing.T) {
	rateErr := errors.New("Too Many Requests: retry after 1")
	client := &fakeClient{sendErrs: []error{rateErr, rateErr, rateErr}}
	s, _ := newTestSender(client)

	msg, err := s.SafeSend(context.Background(), NewMessage(1, "hi", 0))

	assert.Error(t, err)
	assert.Nil(t, msg)
	assert.Len(t, client.sent, 3)
}

func TestSafeSendParseErrorFallsBackToPlainText(t *testing.T) {
	parseErr := errors.New("Bad Request: can't parse entities: character '_' is reserved")
	client := &fakeClient{sendErrs: []error{parseErr, nil}}
	s, _ := newTestSender(client)

	m := NewMessage(1, "broken _markdown", 0)
	m.ParseMode = ModeMarkdown
	msg, err := s.SafeSend(context.Background(), m)

	require.NoError(t, err)
	assert.NotNil(t, msg)
	require.Len(t, client.sent, 2)
	assert.Equal(t, ModeMarkdown, client.sent[0].ParseMode)
	assert.Equal(t, ModeNone, client.sent[1].ParseMode)
}

func TestSafeSendParseErrorOnPlainTextNotRetried(t *testing.T) {
	parseErr := errors.New("Bad Request: can't parse entities")
	client := &fakeClient{sendErrs: []error{parseErr}}
	s, _ := newTestSender(client)

	_, err := s.SafeSend(context.Background(), NewMessage(1, "hi", 0))

	assert.Error(t, err)
	assert.Len(t, client.sent, 1)
}

func TestSafeSendUnknownErrorNotRetried(t *testing.T) {
	client := &fakeClient{sendErrs: []error{errors.New("Bad Request: chat not found")}}
	s, slept := newTestSender(client)

	_, err := s.SafeSend(context.Background(), NewMessage(1, "hi", 0))

	assert.Error(t, err)
	assert.Len(t, client.sent, 1)
	assert.Empty(t, *slept)
}

func TestSafeEditSuccess(t *testing.T) {
	client := &fakeClient{}
	s, _ := newTestSender(client)

	err := s.SafeEdit(context.Background(), NewEditMessageText(1, 10, "updated"))

	require.NoError(t, err)
	assert.Len(t, client.edited, 1)
}

func TestSafeEditRetryAfterThenSuccess(t *testing.T) {
	rateErr := errors.New("Too Many Requests: retry after 2")
	client := &fakeClient{requestErrs: []error{rateErr, rateErr, nil}}
	s, slept := newTestSender(client)

	err := s.SafeEdit(context.Background(), NewEditMessageText(1, 10, "updated"))

	require.NoError(t, err)
	assert.Len(t, client.edited, 3)
	assert.Equal(t, []time.Duration{2500 * time.Millisecond, 2500 * time.Millisecond}, *slept)
}

func TestSafeEditNotModifiedIsSuccess(t *testing.T) {
	client := &fakeClient{requestErrs: []error{errors.New("Bad Request: message is not modified")}}
	s, _ := newTestSender(client)

	err := s.SafeEdit(context.Background(), NewEditMessageText(1, 10, "same"))

	assert.NoError(t, err)
	assert.Len(t, client.edited, 1)
}

func TestSafeEditParseErrorFallsBackToPlainText(t *testing.T) {
	parseErr := errors.New("Bad Request: can't parse entities")
	client := &fakeClient{requestErrs: []error{parseErr, nil}}
	s, _ := newTestSender(client)

	edit := NewEditMessageText(1, 10, "broken *markdown")
	edit.ParseMode = ModeMarkdown
	err := s.SafeEdit(context.Background(), edit)

	require.NoError(t, err)
	require.Len(t, client.edited, 2)
	assert.Equal(t, ModeNone, client.edited[1].ParseMode)
}

func TestExtractRetryAfter(t *testing.T) {
	assert.Equal(t, 5, extractRetryAfter("Too Many Requests: retry after 5"))
	assert.Equal(t, 0, extractRetryAfter("some other error"))
}

func TestClassifyContentString(t *testing.T) {
	assert.Equal(t, "text", ContentText.String())
	assert.Equal(t, "voice", ContentVoice.String())
	assert.Equal(t, "other", ContentOther.String())
}
