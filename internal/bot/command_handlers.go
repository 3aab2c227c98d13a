package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"textsummarizer/internal/domain"
	"textsummarizer/internal/markdown"
)

const welcomeText = `🤖 *Welcome to Text Summarizer\!*

Send me any text and I'll reply with a concise summary\.

– Paste an article, notes or any long text
– Send a single link to summarize a web page or the newest post of a feed
– Get your usage with /stats`

const helpText = `❔ *How it works*

Every message that is not a command is summarized as is\.

A message that consists of one http\(s\) link is fetched first, and the page text or the newest feed post is summarized instead\.

If the model is still loading or busy, just send the text again in a minute\.`

func (b *Bot) handleStatsCommand(ctx context.Context, chatID int64, userID int64, replyTo int) error {
	stats, err := b.journal.GetUserStats(ctx, userID)
	if err != nil {
		errs := []error{fmt.Errorf("get user stats: %w", err)}

		if sendErr := b.reply(ctx, chatID, replyTo, "❌ Failed\\."); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if err = b.reply(ctx, chatID, replyTo, formatStats(stats)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func formatStats(stats *domain.UserStats) string {
	if stats == nil || stats.Total == 0 {
		return "📊 You have not summarized anything yet\\."
	}

	var message strings.Builder
	fmt.Fprintf(&message, "📊 *Your summaries: %d*\n\n", stats.Total)

	for _, kc := range stats.Kinds {
		fmt.Fprintf(&message, "– %s: %d\n", markdown.EscapeV2(kc.Kind), kc.Count)
	}

	if !stats.LastAt.IsZero() {
		last := stats.LastAt.UTC().Format("2006-01-02 15:04")
		fmt.Fprintf(&message, "\nLast request: %s UTC", markdown.EscapeV2(last))
	}

	return message.String()
}
