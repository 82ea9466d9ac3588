package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"github.com/execution-hub/commission-bot/internal/application/records"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

const (
	optAction     = "action"
	optIndex      = "index"
	optRange      = "range"
	optProject    = "project"
	optPercentage = "percentage"

	adminList           = "list"
	adminView           = "view"
	adminDelete         = "delete"
	adminBulkDelete     = "bulk-delete"
	adminFastCommission = "fast-commission"

	listLimit = 20
)

func (b *Bot) handleAdmin(ctx context.Context, data discordgo.ApplicationCommandInteractionData, who actor) *discordgo.InteractionResponse {
	if !b.opts.IsAdmin(who.ID) {
		b.logger.Warn().Str("user_id", who.ID).Msg("admin command refused")
		return reply("You are not allowed to use this command.", nil)
	}
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, o := range data.Options {
		opts[o.Name] = o
	}
	action := ""
	if o, ok := opts[optAction]; ok {
		action = o.StringValue()
	}
	log := b.logger.With().Str("user_id", who.ID).Str("action", action).Logger()

	switch action {
	case adminList:
		recs, err := b.records.Load(ctx)
		if err != nil {
			return b.adminError(err)
		}
		if len(recs) == 0 {
			return reply("No records yet.", nil)
		}
		return reply(RecordTable(recs, listLimit), nil)

	case adminView:
		index, ok := indexOption(opts)
		if !ok {
			return reply("Give the record number with the index option.", nil)
		}
		rec, err := b.records.Get(ctx, index)
		if err != nil {
			return b.adminError(err)
		}
		return reply("", []*discordgo.MessageEmbed{recordEmbed(rec, index)})

	case adminDelete:
		index, ok := indexOption(opts)
		if !ok {
			return reply("Give the record number with the index option.", nil)
		}
		rec, err := b.records.Delete(ctx, index)
		if err != nil {
			return b.adminError(err)
		}
		log.Info().Int("index", index).Str("submission_id", rec.SubmissionID).Msg("record deleted")
		return reply(fmt.Sprintf("Deleted record #%d (%s %s).", index+1, rec.Project.Name, rec.Project.Unit), nil)

	case adminBulkDelete:
		o, ok := opts[optRange]
		if !ok {
			return reply("Give the record numbers with the range option, e.g. 1-3,5.", nil)
		}
		indices, err := records.ParseIndexRange(o.StringValue())
		if err != nil {
			return b.adminError(err)
		}
		n, err := b.records.BulkDelete(ctx, indices)
		if err != nil {
			return b.adminError(err)
		}
		log.Info().Int("deleted", n).Msg("records bulk deleted")
		return reply(fmt.Sprintf("Deleted %d record(s).", n), nil)

	case adminFastCommission:
		o, ok := opts[optProject]
		if !ok || strings.TrimSpace(o.StringValue()) == "" {
			return reply("Give the project with the project option.", nil)
		}
		project := strings.TrimSpace(o.StringValue())
		if p, ok := opts[optPercentage]; ok {
			pct := decimal.NewFromFloat(p.FloatValue())
			if err := b.records.SetFastCommission(ctx, project, pct); err != nil {
				return b.adminError(err)
			}
			log.Info().Str("project", project).Str("percent", pct.String()).Msg("fast commission updated")
			return reply(fmt.Sprintf("Fast commission for %s set to %s%%.", project, pct.String()), nil)
		}
		pct, err := b.records.FastCommission(ctx, project)
		if err != nil {
			return b.adminError(err)
		}
		return reply(fmt.Sprintf("Fast commission for %s is %s%%.", project, pct.String()), nil)
	}
	return reply("Unknown admin action.", nil)
}

// indexOption reads the 1-based index option as a 0-based index.
func indexOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (int, bool) {
	o, ok := opts[optIndex]
	if !ok {
		return 0, false
	}
	n := int(o.IntValue())
	if n < 1 {
		return 0, false
	}
	return n - 1, true
}

func (b *Bot) adminError(err error) *discordgo.InteractionResponse {
	switch {
	case errors.Is(err, records.ErrIndexOutOfRange):
		return reply("No record with that number.", nil)
	case errors.Is(err, records.ErrInvalidRange):
		return reply(sentence(err.Error()), nil)
	case errors.Is(err, records.ErrInvalidPercent):
		return reply(sentence(err.Error()), nil)
	case errors.Is(err, records.ErrSaveExhausted):
		b.logger.Error().Err(err).Msg("backup write gave up")
		return reply("The backup was changed by someone else too many times. Please try again.", nil)
	}
	b.logger.Error().Err(err).Msg("admin command failed")
	return reply("Something went wrong talking to the backup. Please try again.", nil)
}

// RecordTable renders the newest records as a fixed-width table, numbered
// the way the admin commands address them.
func RecordTable(recs []submission.Record, limit int) string {
	start := 0
	if limit > 0 && len(recs) > limit {
		start = len(recs) - limit
	}
	var sb strings.Builder
	sb.WriteString("```\n")
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tPROJECT\tUNIT\tSUBMITTER\tTOTAL")
	for i := start; i < len(recs); i++ {
		r := recs[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			r.SubmittedAt.Format("2006-01-02"),
			truncate(r.Project.Name, 24),
			truncate(r.Project.Unit, 12),
			truncate(r.SubmitterName, 20),
			r.TotalCommission,
		)
	}
	_ = tw.Flush()
	sb.WriteString("```")
	if start > 0 {
		fmt.Fprintf(&sb, "\nShowing the newest %d of %d records.", len(recs)-start, len(recs))
	}
	return sb.String()
}
