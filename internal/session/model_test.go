package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetStateTracksPrevious(t *testing.T) {
	sess := New("clinic-1", "5511999990000")
	sess.SetState(StateSelectServices)
	assert.Equal(t, StateMainMenu, sess.PrevState)

	sess.SetState(StateAvailableDays)
	assert.Equal(t, StateSelectServices, sess.PrevState)

	// Re-entering the same state keeps the previous one.
	sess.SetState(StateAvailableDays)
	assert.Equal(t, StateSelectServices, sess.PrevState)
}

func TestResetClearsEverything(t *testing.T) {
	sess := New("clinic-1", "5511999990000")
	sess.SetState(StateConfirmBooking)
	sess.Selected = Selections{ServiceID: "svc_botox", Date: "2026-02-10", Time: "14:30"}
	sess.SetButtons([]Button{{ID: "confirm", Label: "Confirmar"}})

	sess.Reset()

	assert.Equal(t, StateMainMenu, sess.State)
	assert.Equal(t, Selections{}, sess.Selected)
	assert.Nil(t, sess.DynamicButtons)
}

func TestButtonByID(t *testing.T) {
	sess := New("clinic-1", "5511999990000")
	sess.SetButtons([]Button{
		{ID: "svc_botox", Label: "Botox"},
		{ID: "svc_laser", Label: "Laser"},
	})

	found := sess.ButtonByID("svc_laser")
	assert.NotNil(t, found)
	assert.Equal(t, "Laser", found.Label)
	assert.Nil(t, sess.ButtonByID("missing"))
}
