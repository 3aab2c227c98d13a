package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot/models"

	"textsummarizer/internal/domain"
	"textsummarizer/internal/markdown"
	"textsummarizer/internal/summarizer"
)

// Telegram caps messages at 4096 characters; escaping can nearly double text.
const maxReplyRunes = 1800

const busyText = "⏳ Still working on your previous text\\. Please wait\\."

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		text = strings.TrimSpace(message.Caption)
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	switch {
	case isCommand(text, "/start"):
		return b.reply(ctx, chatID, 0, welcomeText)
	case isCommand(text, "/help"):
		return b.reply(ctx, chatID, 0, helpText)
	case isCommand(text, "/stats"):
		return b.handleStatsCommand(ctx, chatID, userID, message.ID)
	default:
		return b.handleSummarize(ctx, text, message)
	}
}

// isCommand matches "/cmd", "/cmd args" and "/cmd@botname".
func isCommand(text, command string) bool {
	rest, ok := strings.CutPrefix(text, command)
	if !ok {
		return false
	}

	return rest == "" || strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "@")
}

func (b *Bot) handleSummarize(ctx context.Context, text string, message *models.Message) error {
	chatID := message.Chat.ID

	if !b.tryAcquire(chatID) {
		if err := b.reply(ctx, chatID, message.ID, busyText); err != nil {
			return fmt.Errorf("send message: %w", err)
		}

		return nil
	}
	defer b.release(chatID)

	return b.withSpinner(ctx, chatID, func() error {
		title := ""

		if rawURL, ok := b.extractor.SingleURL(text); ok {
			doc, err := b.extractor.Extract(ctx, rawURL)
			if err != nil {
				errs := []error{fmt.Errorf("extract source: %w", err)}

				if sendErr := b.reply(ctx, chatID, message.ID, "❌ Could not read this link\\."); sendErr != nil {
					errs = append(errs, fmt.Errorf("send message: %w", sendErr))
				}

				return errors.Join(errs...)
			}

			text = doc.Text
			title = doc.Title
		}

		start := b.now()
		outcome := b.summarizer.Run(ctx, text)

		var errs []error

		if err := b.recordAttempt(ctx, message, text, outcome, start); err != nil {
			errs = append(errs, fmt.Errorf("record attempt: %w", err))
		}

		if err := b.reply(ctx, chatID, message.ID, formatOutcome(title, outcome)); err != nil {
			errs = append(errs, fmt.Errorf("send message: %w", err))
		}

		return errors.Join(errs...)
	})
}

func (b *Bot) recordAttempt(
	ctx context.Context,
	message *models.Message,
	text string,
	outcome summarizer.Outcome,
	start time.Time,
) error {
	kind := domain.KindSuccess
	if !outcome.OK() {
		kind = string(outcome.Kind())
	}

	return b.journal.RecordAttempt(ctx, domain.Attempt{
		UserID:       message.From.ID,
		ChatID:       message.Chat.ID,
		Kind:         kind,
		InputChars:   utf8.RuneCountInString(text),
		SummaryChars: utf8.RuneCountInString(outcome.Summary),
		Duration:     b.now().Sub(start),
		CreatedAt:    start.UTC(),
	})
}

func formatOutcome(title string, outcome summarizer.Outcome) string {
	if !outcome.OK() {
		message := "❌ " + markdown.EscapeV2(truncate(outcome.Failure.Message))
		if outcome.Kind().Transient() {
			message += "\n\n🔁 Send the text again to retry\\."
		}

		return message
	}

	header := "📝 *Summary*"
	if title = strings.TrimSpace(title); title != "" {
		header = "📝 *" + markdown.EscapeV2(truncate(title)) + "*"
	}

	return header + "\n\n" + markdown.EscapeV2(truncate(outcome.Summary))
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxReplyRunes {
		return s
	}

	return string([]rune(s)[:maxReplyRunes]) + "…"
}
