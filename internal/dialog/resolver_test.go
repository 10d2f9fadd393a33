package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/internal/session"
)

func sessionWithButtons(state session.State, buttons ...session.Button) *session.Session {
	sess := session.New("clinic-1", "5511999990000")
	sess.State = state
	sess.DynamicButtons = buttons
	return sess
}

func TestResolve_ButtonIDWins(t *testing.T) {
	sess := sessionWithButtons(session.StateMainMenu)

	// An explicit button reply resolves to its id even when the content
	// would match a shortcut or a number.
	msg := delivery.InboundMessage{ButtonID: "schedule", Content: "menu"}
	assert.Equal(t, "schedule", Resolve(msg, sess))

	msg = delivery.InboundMessage{ButtonID: "day_2026-02-10", Content: "1"}
	assert.Equal(t, "day_2026-02-10", Resolve(msg, sess))
}

func TestResolve_ShortcutsAreStateIndependent(t *testing.T) {
	states := []session.State{
		session.StateMainMenu,
		session.StateSelectTime,
		session.StateCancelConfirm,
		session.StateFAQMenu,
	}
	for _, state := range states {
		sess := sessionWithButtons(state)
		assert.Equal(t, TokenMainMenu, Resolve(delivery.InboundMessage{Content: "oi"}, sess), "state %s", state)
		assert.Equal(t, TokenMainMenu, Resolve(delivery.InboundMessage{Content: "Bom Dia"}, sess), "state %s", state)
		assert.Equal(t, TokenBack, Resolve(delivery.InboundMessage{Content: "voltar"}, sess), "state %s", state)
		assert.Equal(t, TokenBack, Resolve(delivery.InboundMessage{Content: "0"}, sess), "state %s", state)
		assert.Equal(t, TokenHuman, Resolve(delivery.InboundMessage{Content: "atendente"}, sess), "state %s", state)
	}
}

func TestResolve_NumericIndex(t *testing.T) {
	sess := sessionWithButtons(session.StateAvailableDays,
		session.Button{ID: "day_2026-02-09", Label: "Seg 09/02"},
		session.Button{ID: "day_2026-02-10", Label: "Ter 10/02"},
		session.Button{ID: "day_2026-02-11", Label: "Qua 11/02"},
	)

	assert.Equal(t, "day_2026-02-09", Resolve(delivery.InboundMessage{Content: "1"}, sess))
	assert.Equal(t, "day_2026-02-11", Resolve(delivery.InboundMessage{Content: "3"}, sess))
	assert.Equal(t, "day_2026-02-10", Resolve(delivery.InboundMessage{Content: " 2 "}, sess))

	// Out of range falls through as raw text.
	assert.Equal(t, "4", Resolve(delivery.InboundMessage{Content: "4"}, sess))
	assert.Equal(t, "-1", Resolve(delivery.InboundMessage{Content: "-1"}, sess))
}

func TestResolve_NumericIndexUsesDefaultButtons(t *testing.T) {
	sess := session.New("clinic-1", "5511999990000")
	sess.State = session.StateMainMenu

	// No dynamic buttons loaded: numbers index the state's fixed options.
	assert.Equal(t, "schedule", Resolve(delivery.InboundMessage{Content: "1"}, sess))
	assert.Equal(t, "faq", Resolve(delivery.InboundMessage{Content: "4"}, sess))
	assert.Equal(t, "6", Resolve(delivery.InboundMessage{Content: "6"}, sess))
}

func TestResolve_FuzzyMatchRequiresExclusivity(t *testing.T) {
	sess := sessionWithButtons(session.StateSelectServices,
		session.Button{ID: "svc_botox", Label: "Botox"},
		session.Button{ID: "svc_laser", Label: "Depilação a Laser"},
		session.Button{ID: "svc_laser_face", Label: "Laser Facial"},
	)

	// Exactly one label contains the input.
	assert.Equal(t, "svc_botox", Resolve(delivery.InboundMessage{Content: "botox"}, sess))
	// Two labels match: ambiguous, raw text comes back.
	assert.Equal(t, "laser", Resolve(delivery.InboundMessage{Content: "laser"}, sess))
	// Input containing a label also counts as a match.
	assert.Equal(t, "svc_botox", Resolve(delivery.InboundMessage{Content: "quero botox hoje"}, sess))
	// No match at all.
	assert.Equal(t, "massagem", Resolve(delivery.InboundMessage{Content: "massagem"}, sess))
}

func TestResolve_EmptyInput(t *testing.T) {
	sess := sessionWithButtons(session.StateMainMenu)
	assert.Equal(t, "", Resolve(delivery.InboundMessage{Content: ""}, sess))
	assert.Equal(t, "", Resolve(delivery.InboundMessage{Content: "   "}, sess))
}
