package model

import "time"

type RecordStatus string

const (
	StatusQueued      RecordStatus = "queued"
	StatusSent        RecordStatus = "sent"
	StatusFailed      RecordStatus = "failed"
	StatusDelivered   RecordStatus = "delivered"
	StatusUndelivered RecordStatus = "undelivered"
)

func (s RecordStatus) String() string {
	return string(s)
}

func (s RecordStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusSent, StatusFailed, StatusDelivered, StatusUndelivered:
		return true
	default:
		return false
	}
}

// DeliveredState is the report state the gateway uses for a handset delivery.
const DeliveredState = "DELIVRD"

// StatusFromReport maps a status report state onto a record status.
func StatusFromReport(state string) RecordStatus {
	if state == DeliveredState {
		return StatusDelivered
	}
	return StatusUndelivered
}

// Record is one message row in the sms_records table.
type Record struct {
	ID          string       `db:"id" json:"id"`
	Mobile      string       `db:"mobile" json:"mobile"`
	Content     string       `db:"content" json:"content"`
	CustomSmsID string       `db:"custom_sms_id" json:"customSmsId,omitempty"`
	Mode        Mode         `db:"mode" json:"mode"`
	Status      RecordStatus `db:"status" json:"status"`
	SmsID       *string      `db:"sms_id" json:"smsId,omitempty"`
	Code        *string      `db:"code" json:"code,omitempty"`
	ReportState *string      `db:"report_state" json:"reportState,omitempty"`
	Client      string       `db:"client" json:"client"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}

// RecordResult is the outcome of one gateway attempt for a record.
type RecordResult struct {
	ID     string
	Status RecordStatus // sent | failed
	SmsID  string
	Code   string
}
