// internal/workers/communication/send-notification/models.go
package sendnotification

type Input struct {
	AccountID        string                 `json:"accountId"`
	NotificationType string                 `json:"notificationType"`
	Priority         string                 `json:"priority,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "skipped"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeSubscriptionActivated = "subscription_activated"
	TypeSubscriptionUpgraded  = "subscription_upgraded"
	TypeReferralSettled       = "referral_settled"
)

// Statuses
const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

const PriorityHigh = "high"
