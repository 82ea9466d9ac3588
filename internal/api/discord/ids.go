package discord

import (
	"strconv"
	"strings"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

// Component and modal custom IDs are "<kind>:<action>[:<arg>]".
const (
	idPrefixButton = "sub"
	idPrefixModal  = "modal"

	actionProject     = "project"
	actionParticipant = "participant"
	actionNext        = "next"
	actionCustomer    = "customer"
	actionConfirm     = "confirm"
	actionEdit        = "edit"
	actionCancel      = "cancel"
	actionRestart     = "restart"
	actionStatus      = "status"
)

type customID struct {
	prefix string
	action string
	arg    string
}

func buttonID(action string, arg ...string) string {
	return joinID(idPrefixButton, action, arg)
}

func modalID(action string, arg ...string) string {
	return joinID(idPrefixModal, action, arg)
}

func joinID(prefix, action string, arg []string) string {
	parts := append([]string{prefix, action}, arg...)
	return strings.Join(parts, ":")
}

func parseCustomID(raw string) (customID, bool) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || parts[1] == "" {
		return customID{}, false
	}
	if parts[0] != idPrefixButton && parts[0] != idPrefixModal {
		return customID{}, false
	}
	id := customID{prefix: parts[0], action: parts[1]}
	if len(parts) == 3 {
		id.arg = parts[2]
	}
	return id, true
}

// slot parses a 0-based participant slot argument.
func (c customID) slot() (int, bool) {
	n, err := strconv.Atoi(c.arg)
	if err != nil || n < 0 || n >= submission.MaxParticipants {
		return 0, false
	}
	return n, true
}
