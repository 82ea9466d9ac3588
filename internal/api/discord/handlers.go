package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	appWorkflow "github.com/execution-hub/commission-bot/internal/application/workflow"
	"github.com/execution-hub/commission-bot/internal/domain/commission"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

const (
	commandSubmit = "submit"
	commandStatus = "status"
	commandAdmin  = "admin"
)

func commands() []*discordgo.ApplicationCommand {
	minPct := 0.0
	return []*discordgo.ApplicationCommand{
		{
			Name:        commandSubmit,
			Description: "Submit a commission for a closed sale",
		},
		{
			Name:        commandStatus,
			Description: "Check whether your uploaded documents have arrived",
		},
		{
			Name:        commandAdmin,
			Description: "Manage submission records",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optAction,
					Description: "What to do",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "list", Value: adminList},
						{Name: "view", Value: adminView},
						{Name: "delete", Value: adminDelete},
						{Name: "bulk-delete", Value: adminBulkDelete},
						{Name: "fast-commission", Value: adminFastCommission},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        optIndex,
					Description: "Record number as shown by list",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optRange,
					Description: "Record numbers, e.g. 1-3,5",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optProject,
					Description: "Project name",
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        optPercentage,
					Description: "Fast commission percentage",
					MinValue:    &minPct,
					MaxValue:    100,
				},
			},
		},
	}
}

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.Interaction, who actor) *discordgo.InteractionResponse {
	data := i.ApplicationCommandData()
	switch data.Name {
	case commandSubmit:
		d, resumed, err := b.workflow.Start(ctx, who.ID, who.Name)
		if err != nil {
			return b.errorView(err, "")
		}
		if !resumed {
			return projectModal(d)
		}
		return stageView(d, "You already have a submission in progress.")
	case commandStatus:
		return b.status(ctx, who)
	case commandAdmin:
		return b.handleAdmin(ctx, data, who)
	}
	return reply("Unknown command.", nil)
}

func (b *Bot) handleButton(ctx context.Context, id customID, who actor) *discordgo.InteractionResponse {
	switch id.action {
	case actionParticipant:
		slot, ok := id.slot()
		if !ok {
			return reply("That button is no longer valid.", nil)
		}
		d, err := b.workflow.Draft(ctx, who.ID)
		if err != nil {
			return b.errorView(err, "")
		}
		return participantModal(d, slot)

	case actionNext:
		d, err := b.workflow.Advance(ctx, who.ID)
		if err != nil {
			return b.errorView(err, submission.SectionParticipants)
		}
		return customerModal(d)

	case actionConfirm:
		d, err := b.workflow.Confirm(ctx, who.ID)
		if err != nil {
			return b.errorView(err, "")
		}
		return formView(d, "Your upload form is ready. Submit your documents there, then press Check status.")

	case actionEdit:
		section := submission.Section(id.arg)
		d, err := b.workflow.Edit(ctx, who.ID, section)
		if err != nil {
			return b.errorView(err, "")
		}
		switch section {
		case submission.SectionProject:
			return projectModal(d)
		case submission.SectionCustomer:
			return customerModal(d)
		}
		return participantsView(d, "Update participants. Shares must total 100%.")

	case actionCancel:
		if err := b.workflow.Cancel(ctx, who.ID); err != nil {
			return b.errorView(err, "")
		}
		return reply("Submission cancelled.", nil)

	case actionRestart:
		// Nothing to cancel is the usual case here.
		_ = b.workflow.Cancel(ctx, who.ID)
		d, _, err := b.workflow.Start(ctx, who.ID, who.Name)
		if err != nil {
			return b.errorView(err, "")
		}
		return projectModal(d)

	case actionStatus:
		return b.status(ctx, who)
	}
	return reply("That button is no longer valid.", nil)
}

func (b *Bot) handleModal(ctx context.Context, id customID, who actor, values map[string]string) *discordgo.InteractionResponse {
	switch id.action {
	case actionProject:
		d, err := b.workflow.SubmitProject(ctx, who.ID, submission.ProjectInfo{
			Name:           strings.TrimSpace(values[fieldProjectName]),
			Unit:           strings.TrimSpace(values[fieldUnit]),
			ListedPrice:    strings.TrimSpace(values[fieldListedPrice]),
			NetPrice:       strings.TrimSpace(values[fieldNetPrice]),
			CommissionRate: strings.TrimSpace(values[fieldRate]),
		})
		if err != nil {
			return b.errorView(err, submission.SectionProject)
		}
		return participantsView(d, "Project saved. Add up to four participants; shares must total 100%.")

	case actionParticipant:
		slot, ok := id.slot()
		if !ok {
			return reply("That form is no longer valid.", nil)
		}
		d, err := b.workflow.SetParticipant(ctx, who.ID, slot, submission.Participant{
			Name:  values[fieldParticipantName],
			Code:  values[fieldParticipantCode],
			Share: commission.ParseAmount(values[fieldParticipantShare]),
		})
		if err != nil {
			return b.errorView(err, submission.SectionParticipants)
		}
		return participantsView(d, fmt.Sprintf("Participant %d saved.", slot+1))

	case actionCustomer:
		d, err := b.workflow.SubmitCustomer(ctx, who.ID, submission.CustomerInfo{
			Name:             strings.TrimSpace(values[fieldCustomerName]),
			Phone:            strings.TrimSpace(values[fieldPhone]),
			Address:          strings.TrimSpace(values[fieldAddress]),
			ContractDate:     strings.TrimSpace(values[fieldContractDate]),
			LoanApprovalDate: strings.TrimSpace(values[fieldLoanApproval]),
		})
		if err != nil {
			return b.errorView(err, submission.SectionCustomer)
		}
		return confirmView(d, "Please review the summary and confirm.")
	}
	return reply("That form is no longer valid.", nil)
}

func (b *Bot) status(ctx context.Context, who actor) *discordgo.InteractionResponse {
	outcome, d, err := b.workflow.CheckStatus(ctx, who.ID)
	if err != nil {
		return b.errorView(err, "")
	}
	switch outcome {
	case appWorkflow.OutcomeCompleted:
		return reply("Documents received and your submission is recorded. A receipt is on its way to your DMs.", nil)
	case appWorkflow.OutcomeAlreadyProcessed:
		return reply("This submission has already been recorded.", nil)
	case appWorkflow.OutcomeAlreadyProcessing:
		return reply("Your documents are being processed right now. Check again shortly.", nil)
	case appWorkflow.OutcomeNoFiles:
		return formView(d, "Your form arrived without any documents. Please upload them; I will check again in a minute.")
	case appWorkflow.OutcomePending:
		return formView(d, "No upload yet. I will check again in a minute, or press Check status once you have submitted.")
	}
	return reply(fmt.Sprintf("Status: %s", outcome), nil)
}

// errorView turns workflow errors into a message with a way forward.
// section names the modal a validation failure should reopen.
func (b *Bot) errorView(err error, section submission.Section) *discordgo.InteractionResponse {
	var shareErr *appWorkflow.ShareError
	switch {
	case errors.Is(err, submission.ErrSessionExpired):
		return reply("Your session has expired. Start over to submit again.", nil, restartRow())

	case errors.As(err, &shareErr):
		return reply(fmt.Sprintf("Participant shares total %s%%. They must add up to 100%%.", shareErr.Sum.String()), nil,
			row(button("Edit participants", discordgo.PrimaryButton, buttonID(actionEdit, string(submission.SectionParticipants)))))

	case errors.Is(err, submission.ErrNoParticipants):
		return reply("Add at least one participant first.", nil,
			row(button("Add participant 1", discordgo.PrimaryButton, buttonID(actionParticipant, "0"))))

	case errors.Is(err, submission.ErrMissingField), errors.Is(err, submission.ErrInvalidDate), errors.Is(err, submission.ErrSlotOutOfRange):
		msg := sentence(err.Error())
		if section == "" {
			return reply(msg, nil)
		}
		return reply(msg, nil, row(button("Fix "+string(section), discordgo.PrimaryButton, buttonID(actionEdit, string(section)))))

	case errors.Is(err, appWorkflow.ErrFormCreationFailed):
		b.logger.Error().Err(err).Msg("upload form unavailable")
		return reply("The upload form could not be created. Please try again in a moment.", nil,
			row(
				button("Try again", discordgo.PrimaryButton, buttonID(actionConfirm)),
				button("Cancel", discordgo.DangerButton, buttonID(actionCancel)),
			))

	case errors.Is(err, submission.ErrInvalidTransition):
		return reply("That step is not available right now. Use /submit to see where you left off.", nil)
	}

	b.logger.Error().Err(err).Msg("interaction failed")
	return reply("Something went wrong. Please try again.", nil)
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
