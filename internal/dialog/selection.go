package dialog

import (
	"strings"

	"github.com/zapagenda/zapagenda-backend/internal/session"
)

// selectionRule binds a token prefix to the session slot its suffix fills.
type selectionRule struct {
	prefix string
	assign func(*session.Selections, string)
}

// selectionRules is the closed, ordered set of dynamic-selection prefixes.
// This is how choices made through offer-specific buttons (a list of open
// days, say) reach the booking logic without per-offer state machinery.
var selectionRules = []selectionRule{
	{"day_", func(s *session.Selections, v string) { s.Date = v }},
	{"time_", func(s *session.Selections, v string) { s.Time = v }},
	{"newday_", func(s *session.Selections, v string) { s.NewDate = v }},
	{"newtime_", func(s *session.Selections, v string) { s.NewTime = v }},
	{"faq_", func(s *session.Selections, v string) { s.FAQKey = v }},
}

// ExtractDynamicSelection writes the suffix of a recognized prefixed token
// into its session slot. Tokens without a recognized prefix leave the
// session unchanged.
func ExtractDynamicSelection(token string, sess *session.Session) {
	for _, rule := range selectionRules {
		if strings.HasPrefix(token, rule.prefix) {
			rule.assign(&sess.Selected, strings.TrimPrefix(token, rule.prefix))
			return
		}
	}
}
