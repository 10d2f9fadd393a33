package templates

import (
	"context"
	"strings"

	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// Template is a renderable message: body text with {{token}} placeholders
// and optional structured buttons.
type Template struct {
	Key     string            `json:"key"`
	Body    string            `json:"body"`
	Buttons []delivery.Button `json:"buttons,omitempty"`
}

// OverrideStore looks up a clinic-specific template. A (nil, nil) return
// means no override exists.
type OverrideStore interface {
	Lookup(ctx context.Context, clinicID, key string) (*Template, error)
}

// Resolver resolves templates: clinic override first, then the built-in
// default set. A render never fails because an override is missing or the
// override store errors; the default always wins in those cases.
type Resolver struct {
	overrides OverrideStore
	logger    *logging.Logger
}

// NewResolver creates a template resolver. overrides may be nil, in which
// case only the default set is used.
func NewResolver(overrides OverrideStore, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{overrides: overrides, logger: logger}
}

// Render resolves the template for (clinic, key) and substitutes data into
// {{token}} placeholders. Unknown keys with no default render empty.
func (r *Resolver) Render(ctx context.Context, clinicID, key string, data map[string]string) Template {
	tmpl := r.resolve(ctx, clinicID, key)
	tmpl.Body = Substitute(tmpl.Body, data)
	return tmpl
}

func (r *Resolver) resolve(ctx context.Context, clinicID, key string) Template {
	if r.overrides != nil {
		override, err := r.overrides.Lookup(ctx, clinicID, key)
		if err != nil {
			r.logger.Warn("templates: override lookup failed, using default",
				"clinic_id", clinicID, "key", key, "error", err)
		} else if override != nil {
			return *override
		}
	}
	if tmpl, ok := defaults[key]; ok {
		return tmpl
	}
	return Template{Key: key}
}

// Substitute replaces {{token}} placeholders with values from data. Tokens
// without a value are left in place so broken renders are visible in logs.
func Substitute(body string, data map[string]string) string {
	if len(data) == 0 {
		return body
	}
	pairs := make([]string, 0, len(data)*2)
	for token, value := range data {
		pairs = append(pairs, "{{"+token+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}
