package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/muratoffalex/telechat/internal/logger"
)

const (
	// Telegram allows roughly one message per second per chat before it
	// starts answering with 429.
	perChatRate  = rate.Limit(1)
	perChatBurst = 3

	defaultMaxRetries = 3
)

// Sender wraps outbound send and edit calls with a per-chat rate limiter,
// bounded retry on "too many requests" and a one-time fallback to plain
// text when Telegram rejects the markdown.
type Sender struct {
	client     Client
	logger     logger.Logger
	maxRetries int

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewSender(client Client, logger logger.Logger) *Sender {
	return &Sender{
		client:     client,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		limiters:   make(map[int64]*rate.Limiter),
		sleep:      time.Sleep,
	}
}

func (s *Sender) limiter(chatID int64) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[chatID]
	if !ok {
		l = rate.NewLimiter(perChatRate, perChatBurst)
		s.limiters[chatID] = l
	}
	return l
}

// SafeSend sends msg, retrying on rate limits and falling back to plain
// text once if Telegram cannot parse the markdown. A nil message with nil
// error never happens; exhausted retries return the last error.
func (s *Sender) SafeSend(ctx context.Context, msg TextMessage) (*Message, error) {
	if err := s.limiter(msg.ChatID).Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		sent, err := s.client.Send(msg)
		if err == nil {
			return sent, nil
		}
		lastErr = err

		switch classifySendError(err) {
		case errRateLimited:
			wait := time.Duration(extractRetryAfter(err.Error()))*time.Second + 500*time.Millisecond
			s.logger.WithFields(logger.Fields{
				"chat_id": msg.ChatID,
				"wait":    wait,
				"attempt": attempt,
			}).Warn("Rate limited on send, backing off")
			if attempt < s.maxRetries {
				s.sleep(wait)
			}
		case errCantParse:
			if msg.ParseMode == ModeNone {
				return nil, err
			}
			s.logger.WithError(err).WithField("chat_id", msg.ChatID).
				Warn("Markdown rejected, resending as plain text")
			plain := msg
			plain.ParseMode = ModeNone
			return s.client.Send(plain)
		default:
			return nil, err
		}
	}

	return nil, lastErr
}

// SafeEdit edits a previously sent message in place. Editing to identical
// content is treated as success. Returns nil on success.
func (s *Sender) SafeEdit(ctx context.Context, edit EditMessageTextConfig) error {
	if err := s.limiter(edit.ChatID).Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		_, err := s.client.Request(edit)
		if err == nil {
			return nil
		}
		lastErr = err

		switch classifySendError(err) {
		case errNotModified:
			return nil
		case errRateLimited:
			wait := time.Duration(extractRetryAfter(err.Error()))*time.Second + 500*time.Millisecond
			s.logger.WithFields(logger.Fields{
				"chat_id":    edit.ChatID,
				"message_id": edit.MessageID,
				"wait":       wait,
				"attempt":    attempt,
			}).Warn("Rate limited on edit, backing off")
			if attempt < s.maxRetries {
				s.sleep(wait)
			}
		case errCantParse:
			if edit.ParseMode == ModeNone {
				return err
			}
			s.logger.WithError(err).WithFields(logger.Fields{
				"chat_id":    edit.ChatID,
				"message_id": edit.MessageID,
			}).Warn("Markdown rejected, editing as plain text")
			plain := edit
			plain.ParseMode = ModeNone
			_, err = s.client.Request(plain)
			return err
		default:
			return err
		}
	}

	return lastErr
}

type sendErrorKind int

const (
	errOther sendErrorKind = iota
	errRateLimited
	errNotModified
	errCantParse
)

func classifySendError(err error) sendErrorKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "too many requests"):
		return errRateLimited
	case strings.Contains(msg, "message is not modified"):
		return errNotModified
	case strings.Contains(msg, "can't parse entities"):
		return errCantParse
	default:
		return errOther
	}
}
