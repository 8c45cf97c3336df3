package valueobject

type NotificationType string

const (
	NotificationOrderCreated       NotificationType = "order_created"
	NotificationOrderAssigned      NotificationType = "order_assigned"
	NotificationOrderStatusChanged NotificationType = "order_status_changed"
	NotificationOrderCompleted     NotificationType = "order_completed"
	NotificationOrderCancelled     NotificationType = "order_cancelled"
	NotificationLivrableUploaded   NotificationType = "livrable_uploaded"
	NotificationLivrableReviewed   NotificationType = "livrable_reviewed"
	NotificationLivrableAccepted   NotificationType = "livrable_accepted"
	NotificationLivrableRejected   NotificationType = "livrable_rejected"
	NotificationPaymentReminder    NotificationType = "payment_reminder"
	NotificationDeadlineReminder   NotificationType = "deadline_reminder"
	NotificationReviewReminder     NotificationType = "review_reminder"
	NotificationUserBlacklisted    NotificationType = "user_blacklisted"
	NotificationAccountCreated     NotificationType = "account_created"
	NotificationSystemMessage      NotificationType = "system_message"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Channel - канал доставки уведомления.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)
