package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/execution-hub/commission-bot/internal/domain/notification"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

const (
	colorInfo    = 0x3498db
	colorSuccess = 0x2ecc71
	colorWarning = 0xf1c40f
)

// Text input ids inside modals.
const (
	fieldProjectName = "project_name"
	fieldUnit        = "unit"
	fieldListedPrice = "listed_price"
	fieldNetPrice    = "net_price"
	fieldRate        = "commission_rate"

	fieldParticipantName  = "participant_name"
	fieldParticipantCode  = "participant_code"
	fieldParticipantShare = "participant_share"

	fieldCustomerName = "customer_name"
	fieldPhone        = "phone"
	fieldAddress      = "address"
	fieldContractDate = "contract_date"
	fieldLoanApproval = "loan_approval_date"
)

func reply(content string, embeds []*discordgo.MessageEmbed, rows ...discordgo.MessageComponent) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     embeds,
			Components: rows,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	}
}

func row(buttons ...discordgo.MessageComponent) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: buttons}
}

func button(label string, style discordgo.ButtonStyle, customID string) discordgo.Button {
	return discordgo.Button{Label: label, Style: style, CustomID: customID}
}

func restartRow() discordgo.ActionsRow {
	return row(button("Start over", discordgo.PrimaryButton, buttonID(actionRestart)))
}

func textInput(id, label, value string, required bool, style discordgo.TextInputStyle) discordgo.ActionsRow {
	return row(discordgo.TextInput{
		CustomID: id,
		Label:    label,
		Style:    style,
		Value:    value,
		Required: required,
	})
}

func modal(customID, title string, rows ...discordgo.MessageComponent) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	}
}

func projectModal(d *submission.Draft) *discordgo.InteractionResponse {
	var p submission.ProjectInfo
	if d != nil {
		p = d.Project
	}
	return modal(modalID(actionProject), "Project details",
		textInput(fieldProjectName, "Project name", p.Name, true, discordgo.TextInputShort),
		textInput(fieldUnit, "Unit", p.Unit, true, discordgo.TextInputShort),
		textInput(fieldListedPrice, "Listed price", p.ListedPrice, false, discordgo.TextInputShort),
		textInput(fieldNetPrice, "Net price", p.NetPrice, true, discordgo.TextInputShort),
		textInput(fieldRate, "Commission rate (%)", p.CommissionRate, true, discordgo.TextInputShort),
	)
}

func participantModal(d *submission.Draft, slot int) *discordgo.InteractionResponse {
	var p submission.Participant
	if d != nil {
		p = d.Participants[slot]
	}
	share := ""
	if !p.IsEmpty() {
		share = p.Share.String()
	}
	return modal(modalID(actionParticipant, strconv.Itoa(slot)), fmt.Sprintf("Participant %d", slot+1),
		textInput(fieldParticipantName, "Name", p.Name, true, discordgo.TextInputShort),
		textInput(fieldParticipantCode, "Consultant code", p.Code, false, discordgo.TextInputShort),
		textInput(fieldParticipantShare, "Share (%)", share, true, discordgo.TextInputShort),
	)
}

func customerModal(d *submission.Draft) *discordgo.InteractionResponse {
	var c submission.CustomerInfo
	if d != nil {
		c = d.Customer
	}
	return modal(modalID(actionCustomer), "Customer details",
		textInput(fieldCustomerName, "Customer name", c.Name, true, discordgo.TextInputShort),
		textInput(fieldPhone, "Phone", c.Phone, false, discordgo.TextInputShort),
		textInput(fieldAddress, "Address", c.Address, false, discordgo.TextInputParagraph),
		textInput(fieldContractDate, "Contract date (YYYY-MM-DD)", c.ContractDate, true, discordgo.TextInputShort),
		textInput(fieldLoanApproval, "Loan approval date (YYYY-MM-DD)", c.LoanApprovalDate, false, discordgo.TextInputShort),
	)
}

// participantsView lists the slots with a button each.
func participantsView(d *submission.Draft, content string) *discordgo.InteractionResponse {
	slots := make([]discordgo.MessageComponent, 0, submission.MaxParticipants)
	for i, p := range d.Participants {
		label := fmt.Sprintf("Add participant %d", i+1)
		style := discordgo.SecondaryButton
		if !p.IsEmpty() {
			label = fmt.Sprintf("%d. %s", i+1, truncate(p.Name, 40))
			style = discordgo.PrimaryButton
		}
		slots = append(slots, button(label, style, buttonID(actionParticipant, strconv.Itoa(i))))
	}
	return reply(content, []*discordgo.MessageEmbed{draftEmbed(d)},
		row(slots...),
		row(
			button("Next: customer", discordgo.SuccessButton, buttonID(actionNext)),
			button("Edit project", discordgo.SecondaryButton, buttonID(actionEdit, string(submission.SectionProject))),
			button("Cancel", discordgo.DangerButton, buttonID(actionCancel)),
		),
	)
}

func confirmView(d *submission.Draft, content string) *discordgo.InteractionResponse {
	return reply(content, []*discordgo.MessageEmbed{draftEmbed(d)},
		row(
			button("Confirm", discordgo.SuccessButton, buttonID(actionConfirm)),
			button("Edit project", discordgo.SecondaryButton, buttonID(actionEdit, string(submission.SectionProject))),
			button("Edit participants", discordgo.SecondaryButton, buttonID(actionEdit, string(submission.SectionParticipants))),
			button("Edit customer", discordgo.SecondaryButton, buttonID(actionEdit, string(submission.SectionCustomer))),
			button("Cancel", discordgo.DangerButton, buttonID(actionCancel)),
		),
	)
}

func formView(d *submission.Draft, content string) *discordgo.InteractionResponse {
	return reply(content, []*discordgo.MessageEmbed{draftEmbed(d)},
		row(
			discordgo.Button{Label: "Upload documents", Style: discordgo.LinkButton, URL: d.FormURL},
			button("Check status", discordgo.PrimaryButton, buttonID(actionStatus)),
			button("Cancel", discordgo.DangerButton, buttonID(actionCancel)),
		),
	)
}

// stageView renders whatever the draft's current stage needs next.
func stageView(d *submission.Draft, content string) *discordgo.InteractionResponse {
	switch d.Status {
	case submission.StatusCollecting:
		if d.Project.Validate() != nil {
			return reply(content, []*discordgo.MessageEmbed{draftEmbed(d)},
				row(
					button("Enter project details", discordgo.PrimaryButton, buttonID(actionEdit, string(submission.SectionProject))),
					button("Cancel", discordgo.DangerButton, buttonID(actionCancel)),
				))
		}
		return participantsView(d, content)
	case submission.StatusAwaitingCustomer:
		return reply(content, []*discordgo.MessageEmbed{draftEmbed(d)},
			row(
				button("Enter customer details", discordgo.PrimaryButton, buttonID(actionEdit, string(submission.SectionCustomer))),
				button("Edit participants", discordgo.SecondaryButton, buttonID(actionEdit, string(submission.SectionParticipants))),
				button("Cancel", discordgo.DangerButton, buttonID(actionCancel)),
			))
	case submission.StatusAwaitingConfirmation, submission.StatusConfirmed:
		return confirmView(d, content)
	case submission.StatusAwaitingExternalForm, submission.StatusAwaitingDocument:
		return formView(d, content)
	default:
		return reply(content, []*discordgo.MessageEmbed{draftEmbed(d)})
	}
}

func draftEmbed(d *submission.Draft) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Commission submission",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Project", Value: orDash(d.Project.Name), Inline: true},
			{Name: "Unit", Value: orDash(d.Project.Unit), Inline: true},
			{Name: "Status", Value: statusLabel(d.Status), Inline: true},
			{Name: "Listed price", Value: orDash(d.Project.ListedPrice), Inline: true},
			{Name: "Net price", Value: orDash(d.Project.NetPrice), Inline: true},
			{Name: "Commission rate", Value: percent(d.Project.CommissionRate), Inline: true},
		},
	}
	if parts := participantLines(d.FilledParticipants()); parts != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Participants", Value: parts})
	}
	if d.TotalCommission != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Total commission", Value: d.TotalCommission, Inline: true})
	}
	if !d.Customer.IsEmpty() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Customer", Value: customerLines(d.Customer)})
	}
	return embed
}

func recordEmbed(rec *submission.Record, index int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Record #%d", index+1),
		Color:     colorInfo,
		Timestamp: rec.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Project", Value: orDash(rec.Project.Name), Inline: true},
			{Name: "Unit", Value: orDash(rec.Project.Unit), Inline: true},
			{Name: "Submitted by", Value: orDash(rec.SubmitterName), Inline: true},
			{Name: "Net price", Value: orDash(rec.Project.NetPrice), Inline: true},
			{Name: "Commission rate", Value: percent(rec.Project.CommissionRate), Inline: true},
			{Name: "Total commission", Value: orDash(rec.TotalCommission), Inline: true},
		},
	}
	if parts := participantLines(rec.Participants); parts != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Participants", Value: parts})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Customer", Value: customerLines(rec.Customer)})
	if files := fileLines(rec.Files); files != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Documents", Value: files})
	}
	return embed
}

// completionEmbed is the submitter's receipt.
func completionEmbed(event notification.Event) *discordgo.MessageEmbed {
	embed := recordEmbed(event.Record, event.RecordIndex)
	embed.Title = "Submission received"
	embed.Color = colorSuccess
	if event.FastCommission != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Fast commission",
			Value: fmt.Sprintf("%s (%s%%)", event.FastCommission, event.FastPercent),
		})
	}
	return embed
}

// announceEmbed omits customer details and documents.
func announceEmbed(event notification.Event) *discordgo.MessageEmbed {
	rec := event.Record
	return &discordgo.MessageEmbed{
		Title:     "New commission submitted",
		Color:     colorSuccess,
		Timestamp: rec.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Project", Value: orDash(rec.Project.Name), Inline: true},
			{Name: "Unit", Value: orDash(rec.Project.Unit), Inline: true},
			{Name: "Submitted by", Value: orDash(rec.SubmitterName), Inline: true},
			{Name: "Total commission", Value: orDash(rec.TotalCommission), Inline: true},
			{Name: "Participants", Value: orDash(participantLines(rec.Participants))},
		},
	}
}

func participantLines(parts []submission.Participant) string {
	var b strings.Builder
	for i, p := range parts {
		fmt.Fprintf(&b, "%d. %s", i+1, p.Name)
		if p.Code != "" {
			fmt.Fprintf(&b, " (%s)", p.Code)
		}
		fmt.Fprintf(&b, " %s%%", p.Share.String())
		if p.Payout != "" {
			fmt.Fprintf(&b, " = %s", p.Payout)
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func customerLines(c submission.CustomerInfo) string {
	lines := []string{orDash(c.Name)}
	if c.Phone != "" {
		lines = append(lines, c.Phone)
	}
	if c.Address != "" {
		lines = append(lines, c.Address)
	}
	lines = append(lines, "Contract: "+orDash(c.ContractDate))
	if c.LoanApprovalDate != "" {
		lines = append(lines, "Loan approved: "+c.LoanApprovalDate)
	}
	return strings.Join(lines, "\n")
}

func fileLines(files []submission.UploadedFile) string {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("[%s](%s)", f.OriginalName, f.Link))
	}
	return truncate(strings.Join(lines, "\n"), 1024)
}

func statusLabel(s submission.Status) string {
	switch s {
	case submission.StatusCollecting:
		return "Collecting details"
	case submission.StatusAwaitingCustomer:
		return "Awaiting customer details"
	case submission.StatusAwaitingConfirmation:
		return "Awaiting confirmation"
	case submission.StatusConfirmed:
		return "Confirmed"
	case submission.StatusAwaitingExternalForm:
		return "Awaiting upload"
	case submission.StatusAwaitingDocument:
		return "Awaiting documents"
	case submission.StatusCompleted:
		return "Completed"
	case submission.StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

func percent(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return strings.TrimSuffix(strings.TrimSpace(v), "%") + "%"
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
