package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/execution-hub/commission-bot/internal/domain/notification"
)

func (b *Bot) Channel() notification.Channel {
	return notification.ChannelDiscord
}

// Publish tells the submitter what happened. Channel announcements go
// through the publisher returned by Announcer so a failed announcement is
// retried without repeating the DM.
func (b *Bot) Publish(ctx context.Context, n *notification.Notification, event notification.Event) error {
	if b.messages == nil {
		return errors.New("discord session not configured")
	}
	if event.UserID == "" {
		return errors.New("notification has no recipient")
	}

	switch event.Kind {
	case notification.KindSubmissionCompleted:
		if event.Record == nil {
			return errors.New("completion notification without record")
		}
		return b.sendDM(event.UserID, &discordgo.MessageSend{
			Content: "Your commission submission is complete.",
			Embeds:  []*discordgo.MessageEmbed{completionEmbed(event)},
		})

	case notification.KindRecheckFinished:
		return b.sendDM(event.UserID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "Still waiting for your documents",
				Description: "I checked your upload form again and nothing has arrived yet. Upload your documents, then run /status.",
				Color:       colorWarning,
			}},
		})
	}

	b.logger.Debug().Str("kind", string(event.Kind)).Str("notification_id", n.NotificationID.String()).Msg("no discord rendering for event")
	return nil
}

// Announcer returns the publisher that posts announced completions to the
// announcement channel.
func (b *Bot) Announcer() notification.Publisher {
	return announcer{bot: b}
}

type announcer struct {
	bot *Bot
}

func (a announcer) Channel() notification.Channel {
	return notification.ChannelAnnounce
}

func (a announcer) Publish(ctx context.Context, n *notification.Notification, event notification.Event) error {
	b := a.bot
	if event.Kind != notification.KindSubmissionCompleted || !event.Announce || b.opts.AnnounceChannelID == "" {
		return nil
	}
	if b.messages == nil {
		return errors.New("discord session not configured")
	}
	if event.Record == nil {
		return errors.New("completion notification without record")
	}
	_, err := b.messages.ChannelMessageSendComplex(b.opts.AnnounceChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{announceEmbed(event)},
	})
	if err != nil {
		return fmt.Errorf("failed to announce submission: %w", err)
	}
	return nil
}

func (b *Bot) sendDM(userID string, msg *discordgo.MessageSend) error {
	ch, err := b.messages.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("failed to open DM with %s: %w", userID, err)
	}
	if _, err := b.messages.ChannelMessageSendComplex(ch.ID, msg); err != nil {
		return fmt.Errorf("failed to DM %s: %w", userID, err)
	}
	return nil
}
