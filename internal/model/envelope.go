package model

// Envelope is the payload published to Kafka for queued sends.
type Envelope struct {
	ID          string `json:"id"` // record ULID, also used as customSmsId
	Mobile      string `json:"mobile"`
	Content     string `json:"content"`
	CustomSmsID string `json:"custom_sms_id,omitempty"`
}
