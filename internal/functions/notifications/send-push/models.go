// internal/functions/notifications/send-push/models.go
package sendpush

type Input struct {
	NotificationID string `json:"notificationId"`
	UserID         string `json:"userId"`
	Title          string `json:"title,omitempty"`
	Body           string `json:"body,omitempty"`
	Type           string `json:"type,omitempty"`
	OrderID        string `json:"orderId,omitempty"`
	StoreID        string `json:"storeId,omitempty"`
	Sent           bool   `json:"sent"`
}

type Output struct {
	Status    string `json:"status"` // "sent", "no_token", "failed", "skipped"
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Statuses
const (
	StatusSent    = "sent"
	StatusNoToken = "no_token"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Fixed message copy and routing markers expected by the mobile client.
const (
	DefaultTitle     = "BytePlus"
	DefaultBody      = "You have a new notification"
	DefaultType      = "general"
	ClickAction      = "FLUTTER_NOTIFICATION_CLICK"
	AndroidChannelID = "byteplus_orders"
)

// FromRecord builds the dispatch input from a created record's key and
// field map as delivered by the document-create event.
func FromRecord(key string, fields map[string]interface{}) *Input {
	input := &Input{NotificationID: key}

	if v, ok := fields["userId"].(string); ok {
		input.UserID = v
	}
	if v, ok := fields["title"].(string); ok {
		input.Title = v
	}
	if v, ok := fields["body"].(string); ok {
		input.Body = v
	}
	if v, ok := fields["type"].(string); ok {
		input.Type = v
	}
	if v, ok := fields["orderId"].(string); ok {
		input.OrderID = v
	}
	if v, ok := fields["storeId"].(string); ok {
		input.StoreID = v
	}
	if v, ok := fields["sent"].(bool); ok {
		input.Sent = v
	}

	return input
}
