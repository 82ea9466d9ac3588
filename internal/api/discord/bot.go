package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	appWorkflow "github.com/execution-hub/commission-bot/internal/application/workflow"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

const interactionTimeout = 2 * time.Minute

// Workflow is the submission state machine the bot drives.
type Workflow interface {
	Start(ctx context.Context, userID, displayName string) (*submission.Draft, bool, error)
	Draft(ctx context.Context, userID string) (*submission.Draft, error)
	SubmitProject(ctx context.Context, userID string, info submission.ProjectInfo) (*submission.Draft, error)
	SetParticipant(ctx context.Context, userID string, slot int, p submission.Participant) (*submission.Draft, error)
	Advance(ctx context.Context, userID string) (*submission.Draft, error)
	SubmitCustomer(ctx context.Context, userID string, info submission.CustomerInfo) (*submission.Draft, error)
	Edit(ctx context.Context, userID string, section submission.Section) (*submission.Draft, error)
	Summary(ctx context.Context, userID string) (*submission.Draft, error)
	Confirm(ctx context.Context, userID string) (*submission.Draft, error)
	CheckStatus(ctx context.Context, userID string) (appWorkflow.Outcome, *submission.Draft, error)
	Cancel(ctx context.Context, userID string) error
}

// Records is the administrative view of the backup repository.
type Records interface {
	Load(ctx context.Context) ([]submission.Record, error)
	Get(ctx context.Context, index int) (*submission.Record, error)
	Delete(ctx context.Context, index int) (*submission.Record, error)
	BulkDelete(ctx context.Context, indices []int) (int, error)
	FastCommission(ctx context.Context, project string) (decimal.Decimal, error)
	SetFastCommission(ctx context.Context, project string, percent decimal.Decimal) error
}

type messenger interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Options configures the bot.
type Options struct {
	AppID             string
	GuildID           string
	AnnounceChannelID string
	IsAdmin           func(userID string) bool
}

// Bot is the chat surface: slash commands, buttons and modals in, embeds out.
type Bot struct {
	session  *discordgo.Session
	messages messenger
	workflow Workflow
	records  Records
	opts     Options
	logger   zerolog.Logger
}

// New creates a bot for token. Call Open to connect.
func New(token string, workflow Workflow, records Records, opts Options, logger zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages
	b := newBot(session, workflow, records, opts, logger)
	session.AddHandler(b.onInteraction)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord session ready")
	})
	return b, nil
}

func newBot(session *discordgo.Session, workflow Workflow, records Records, opts Options, logger zerolog.Logger) *Bot {
	if opts.IsAdmin == nil {
		opts.IsAdmin = func(string) bool { return false }
	}
	b := &Bot{
		session:  session,
		workflow: workflow,
		records:  records,
		opts:     opts,
		logger:   logger.With().Str("component", "discord").Logger(),
	}
	if session != nil {
		b.messages = session
	}
	return b
}

// Open connects the gateway and registers the slash commands.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	appID := b.opts.AppID
	if appID == "" && b.session.State != nil && b.session.State.User != nil {
		appID = b.session.State.User.ID
	}
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.opts.GuildID, commands()); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	b.logger.Info().Str("guild_id", b.opts.GuildID).Msg("slash commands registered")
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	i := ic.Interaction

	if !isSlow(i) {
		if err := s.InteractionRespond(i, b.handle(ctx, i)); err != nil {
			b.logger.Warn().Err(err).Str("interaction_id", i.ID).Msg("interaction response failed")
		}
		return
	}

	// Form creation and record writes retry past the interaction deadline.
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Warn().Err(err).Str("interaction_id", i.ID).Msg("deferring interaction failed")
		return
	}
	resp := b.handle(ctx, i)
	if _, err := s.InteractionResponseEdit(i, webhookEdit(resp)); err != nil {
		b.logger.Warn().Err(err).Str("interaction_id", i.ID).Msg("interaction edit failed")
	}
}

// handle routes one interaction to its response.
func (b *Bot) handle(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	user := interactionUser(i)
	if user == nil {
		return reply("Unable to identify you.", nil)
	}
	who := actor{ID: user.ID, Name: displayName(i, user)}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return b.handleCommand(ctx, i, who)
	case discordgo.InteractionMessageComponent:
		id, ok := parseCustomID(i.MessageComponentData().CustomID)
		if !ok || id.prefix != idPrefixButton {
			return reply("That button is no longer valid.", nil)
		}
		return b.handleButton(ctx, id, who)
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		id, ok := parseCustomID(data.CustomID)
		if !ok || id.prefix != idPrefixModal {
			return reply("That form is no longer valid.", nil)
		}
		return b.handleModal(ctx, id, who, modalValues(data.Components))
	}
	return reply("Unsupported interaction.", nil)
}

func isSlow(i *discordgo.Interaction) bool {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		return name == commandStatus || name == commandAdmin
	case discordgo.InteractionMessageComponent:
		id, ok := parseCustomID(i.MessageComponentData().CustomID)
		return ok && (id.action == actionConfirm || id.action == actionStatus)
	}
	return false
}

func webhookEdit(resp *discordgo.InteractionResponse) *discordgo.WebhookEdit {
	edit := &discordgo.WebhookEdit{}
	if resp.Data == nil {
		return edit
	}
	content := resp.Data.Content
	embeds := resp.Data.Embeds
	components := resp.Data.Components
	edit.Content = &content
	edit.Embeds = &embeds
	edit.Components = &components
	return edit
}

type actor struct {
	ID   string
	Name string
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func displayName(i *discordgo.Interaction, u *discordgo.User) string {
	if i.Member != nil && i.Member.Nick != "" {
		return i.Member.Nick
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// modalValues flattens submitted text inputs by custom id.
func modalValues(components []discordgo.MessageComponent) map[string]string {
	out := make(map[string]string)
	for _, c := range components {
		var children []discordgo.MessageComponent
		switch r := c.(type) {
		case *discordgo.ActionsRow:
			children = r.Components
		case discordgo.ActionsRow:
			children = r.Components
		}
		for _, child := range children {
			switch in := child.(type) {
			case *discordgo.TextInput:
				out[in.CustomID] = in.Value
			case discordgo.TextInput:
				out[in.CustomID] = in.Value
			}
		}
	}
	return out
}
