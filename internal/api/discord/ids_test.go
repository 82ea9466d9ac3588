package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomID_RoundTrip(t *testing.T) {
	id, ok := parseCustomID(buttonID(actionParticipant, "2"))
	assert.True(t, ok)
	assert.Equal(t, customID{prefix: idPrefixButton, action: actionParticipant, arg: "2"}, id)

	slot, ok := id.slot()
	assert.True(t, ok)
	assert.Equal(t, 2, slot)

	id, ok = parseCustomID(modalID(actionCustomer))
	assert.True(t, ok)
	assert.Equal(t, customID{prefix: idPrefixModal, action: actionCustomer}, id)
}

func TestCustomID_Rejects(t *testing.T) {
	for _, raw := range []string{"", "sub", "sub:", "other:next", "nonsense"} {
		_, ok := parseCustomID(raw)
		assert.False(t, ok, raw)
	}
}

func TestCustomID_SlotBounds(t *testing.T) {
	for _, arg := range []string{"-1", "4", "x", ""} {
		_, ok := customID{arg: arg}.slot()
		assert.False(t, ok, arg)
	}
}
