package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"textsummarizer/internal/domain"
	"textsummarizer/internal/ratelimiter"
	"textsummarizer/internal/source"
	"textsummarizer/internal/summarizer"
)

const updateProcessingTimeout = 5 * time.Minute

type sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error)
}

type runner interface {
	Run(ctx context.Context, inputText string) summarizer.Outcome
}

type extractor interface {
	SingleURL(text string) (string, bool)
	Extract(ctx context.Context, rawURL string) (*source.Document, error)
}

type journal interface {
	RecordAttempt(ctx context.Context, attempt domain.Attempt) error
	GetUserStats(ctx context.Context, userID int64) (*domain.UserStats, error)
}

type Bot struct {
	api          *tgbot.Bot
	sender       sender
	rateLimiter  *ratelimiter.RateLimiter
	summarizer   runner
	extractor    extractor
	journal      journal
	allowedUsers []int64
	busyMu       sync.Mutex
	busyChats    map[int64]struct{}
	now          func() time.Time
	log          *slog.Logger
}

func New(
	token string,
	client runner,
	ext extractor,
	j journal,
	allowedUsers []int64,
	log *slog.Logger,
) (*Bot, error) {
	token = strings.TrimSpace(token)

	b := newBot(nil, client, ext, j, allowedUsers, log)

	api, err := tgbot.New(token, tgbot.WithDefaultHandler(b.onUpdate))
	if err != nil {
		b.rateLimiter.Stop()
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	b.api = api
	b.sender = api

	return b, nil
}

func newBot(
	s sender,
	client runner,
	ext extractor,
	j journal,
	allowedUsers []int64,
	log *slog.Logger,
) *Bot {
	return &Bot{
		sender:       s,
		rateLimiter:  ratelimiter.New(log),
		summarizer:   client,
		extractor:    ext,
		journal:      j,
		allowedUsers: allowedUsers,
		busyChats:    make(map[int64]struct{}),
		now:          time.Now,
		log:          log,
	}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.api.Start(ctx)
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func (b *Bot) onUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	b.handleUpdate(ctx, update)
}

func (b *Bot) handleUpdate(ctx context.Context, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	message := update.Message
	chatID := message.Chat.ID

	if message.From == nil {
		b.log.DebugContext(updateCtx, "Message without sender is ignored",
			"chatID", chatID,
			"chatType", message.Chat.Type)

		return
	}

	userID := message.From.ID
	if !b.userAllowed(userID) {
		b.log.DebugContext(updateCtx, "User is not allowed",
			"userID", userID,
			"chatID", chatID,
			"username", message.From.Username,
			"chatType", message.Chat.Type)

		return
	}

	if err := b.handleMessage(updateCtx, message); err != nil {
		b.log.ErrorContext(updateCtx, "Failed to handle message",
			"error", err,
			"chatID", chatID,
			"userID", userID,
			"chatType", message.Chat.Type,
			"messageID", message.ID)
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

// tryAcquire marks chatID busy. It reports false when a summarization for
// the chat is already in flight.
func (b *Bot) tryAcquire(chatID int64) bool {
	b.busyMu.Lock()
	defer b.busyMu.Unlock()

	if _, busy := b.busyChats[chatID]; busy {
		return false
	}
	b.busyChats[chatID] = struct{}{}

	return true
}

func (b *Bot) release(chatID int64) {
	b.busyMu.Lock()
	defer b.busyMu.Unlock()

	delete(b.busyChats, chatID)
}
