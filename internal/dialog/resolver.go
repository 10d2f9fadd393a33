package dialog

import (
	"strconv"
	"strings"

	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/internal/session"
)

// Control tokens produced by the global shortcut vocabulary.
const (
	TokenBack     = "back"
	TokenMainMenu = "main_menu"
	TokenHuman    = "human"
)

// shortcuts maps normalized input to control tokens in every dialog state.
var shortcuts = map[string]string{
	"voltar": TokenBack,
	"back":   TokenBack,
	"0":      TokenBack,

	"menu":      TokenMainMenu,
	"oi":        TokenMainMenu,
	"ola":       TokenMainMenu,
	"olá":       TokenMainMenu,
	"hi":        TokenMainMenu,
	"hello":     TokenMainMenu,
	"hey":       TokenMainMenu,
	"bom dia":   TokenMainMenu,
	"boa tarde": TokenMainMenu,
	"boa noite": TokenMainMenu,
	"start":     TokenMainMenu,
	"começar":   TokenMainMenu,

	"humano":      TokenHuman,
	"atendente":   TokenHuman,
	"atendimento": TokenHuman,
	"human":       TokenHuman,
	"attendant":   TokenHuman,
}

// Resolve turns an inbound message into an action token. Priority order,
// first match wins: explicit button selection, global shortcut, numeric
// index into the current options, exclusive fuzzy label match. Anything
// unresolved returns the raw text unchanged; empty input returns "".
func Resolve(msg delivery.InboundMessage, sess *session.Session) string {
	if msg.ButtonID != "" {
		return msg.ButtonID
	}

	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return ""
	}
	normalized := strings.ToLower(text)

	if token, ok := shortcuts[normalized]; ok {
		return token
	}

	buttons := currentButtons(sess)

	if n, err := strconv.Atoi(normalized); err == nil {
		if n >= 1 && n <= len(buttons) {
			return buttons[n-1].ID
		}
		// Out of range falls through unresolved.
		return text
	}

	// All-or-nothing fuzzy match: an input shared by two labels is ambiguous
	// and must not be guessed at.
	var matched string
	matches := 0
	for _, b := range buttons {
		label := strings.ToLower(b.Label)
		if strings.Contains(label, normalized) || strings.Contains(normalized, label) {
			matched = b.ID
			matches++
		}
	}
	if matches == 1 {
		return matched
	}
	return text
}

// currentButtons returns the options numeric and fuzzy input resolve
// against: the dynamic set when present, else the state's fixed defaults.
func currentButtons(sess *session.Session) []session.Button {
	if len(sess.DynamicButtons) > 0 {
		return sess.DynamicButtons
	}
	return DefaultButtons(sess.State)
}
