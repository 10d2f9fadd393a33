package delivery

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// webhookEnvelope mirrors the Cloud API webhook shape far enough to extract
// messages and status callbacks.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []rawMessage `json:"messages"`
				Statuses []rawStatus  `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type rawMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Context   *struct {
		ID string `json:"id"`
	} `json:"context"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
	Image    *rawMedia `json:"image"`
	Audio    *rawMedia `json:"audio"`
	Video    *rawMedia `json:"video"`
	Document *rawMedia `json:"document"`
}

type rawMedia struct {
	ID      string `json:"id"`
	Caption string `json:"caption"`
}

type rawStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// ParseWebhookPayload normalizes a Cloud API webhook body into inbound
// messages and status updates. Each message is classified as exactly one
// type: interactive replies are checked before plain text, text before media.
func ParseWebhookPayload(payload []byte) ([]InboundMessage, []StatusUpdate, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, nil, fmt.Errorf("delivery: decode webhook payload: %w", err)
	}

	var messages []InboundMessage
	var statuses []StatusUpdate
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			phoneNumberID := change.Value.Metadata.PhoneNumberID
			for _, raw := range change.Value.Messages {
				messages = append(messages, normalizeMessage(raw, phoneNumberID))
			}
			for _, raw := range change.Value.Statuses {
				statuses = append(statuses, StatusUpdate{
					ProviderMessageID: raw.ID,
					PhoneNumberID:     phoneNumberID,
					Recipient:         raw.RecipientID,
					Status:            raw.Status,
					Timestamp:         epochTime(raw.Timestamp),
				})
			}
		}
	}
	return messages, statuses, nil
}

func normalizeMessage(raw rawMessage, phoneNumberID string) InboundMessage {
	msg := InboundMessage{
		ProviderMessageID: raw.ID,
		PhoneNumberID:     phoneNumberID,
		From:              raw.From,
		Timestamp:         epochTime(raw.Timestamp),
	}
	if raw.Context != nil {
		msg.ReplyToID = raw.Context.ID
	}

	switch {
	case raw.Interactive != nil && raw.Interactive.ButtonReply != nil:
		msg.Type = TypeButtonResponse
		msg.ButtonID = raw.Interactive.ButtonReply.ID
		msg.ButtonLabel = raw.Interactive.ButtonReply.Title
		msg.Content = raw.Interactive.ButtonReply.Title
	case raw.Interactive != nil && raw.Interactive.ListReply != nil:
		msg.Type = TypeListResponse
		msg.ButtonID = raw.Interactive.ListReply.ID
		msg.ButtonLabel = raw.Interactive.ListReply.Title
		msg.Content = raw.Interactive.ListReply.Title
	case raw.Button != nil:
		// Template quick-reply; payload carries the button id.
		msg.Type = TypeButtonResponse
		msg.ButtonID = raw.Button.Payload
		msg.ButtonLabel = raw.Button.Text
		msg.Content = raw.Button.Text
	case raw.Text != nil:
		msg.Type = TypeText
		msg.Content = raw.Text.Body
	case raw.Image != nil:
		msg.Type = TypeImage
		msg.Content = raw.Image.Caption
	case raw.Audio != nil:
		msg.Type = TypeAudio
	case raw.Video != nil:
		msg.Type = TypeVideo
		msg.Content = raw.Video.Caption
	case raw.Document != nil:
		msg.Type = TypeDocument
		msg.Content = raw.Document.Caption
	default:
		msg.Type = TypeText
	}
	return msg
}

func epochTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
