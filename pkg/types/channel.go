package types

// DeliveryChannel identifies one way a weather update can reach a subscriber.
type DeliveryChannel string

const (
	DeliveryChannelEmail   DeliveryChannel = "email"
	DeliveryChannelWebhook DeliveryChannel = "webhook"
)

type DeliveryOutcome string

const (
	DeliveryOutcomeSent    DeliveryOutcome = "sent"
	DeliveryOutcomeFailed  DeliveryOutcome = "failed"
	DeliveryOutcomeSkipped DeliveryOutcome = "skipped"
)
