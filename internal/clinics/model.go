package clinics

import "time"

// Clinic is the read model for a tenant. Clinic CRUD lives in the admin
// platform; this service only loads profiles to route and send messages.
type Clinic struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Timezone              string    `json:"timezone"`
	ContactNumber         string    `json:"contact_number"`
	ContactEmail          string    `json:"contact_email,omitempty"`
	WhatsAppPhoneNumberID string    `json:"whatsapp_phone_number_id"`
	WhatsAppToken         string    `json:"-"`
	Active                bool      `json:"active"`
	Sandbox               bool      `json:"sandbox"`
	AllowedRecipients     []string  `json:"allowed_recipients,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// RecipientAllowed reports whether outbound sends to the recipient are
// permitted. An empty allowlist means every recipient is allowed; sandbox
// clinics with a populated allowlist only reach the listed numbers.
func (c *Clinic) RecipientAllowed(recipient string) bool {
	if len(c.AllowedRecipients) == 0 {
		return true
	}
	for _, allowed := range c.AllowedRecipients {
		if allowed == recipient {
			return true
		}
	}
	return false
}
