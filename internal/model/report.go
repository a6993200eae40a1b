package model

import "time"

// Report is a delivery status report archived in ClickHouse.
type Report struct {
	SmsID        string    `db:"sms_id" json:"smsId"`
	CustomSmsID  string    `db:"custom_sms_id" json:"customSmsId"`
	Mobile       string    `db:"mobile" json:"mobile"`
	State        string    `db:"state" json:"state"`
	Desc         string    `db:"description" json:"desc"`
	ExtendedCode string    `db:"extended_code" json:"extendedCode"`
	SubmitTime   string    `db:"submit_time" json:"submitTime"`
	ReceiveTime  string    `db:"receive_time" json:"receiveTime"`
	PulledAt     time.Time `db:"pulled_at" json:"pulledAt"`
}

// Mo is an inbound message archived in ClickHouse.
type Mo struct {
	Mobile       string    `db:"mobile" json:"mobile"`
	ExtendedCode string    `db:"extended_code" json:"extendedCode"`
	Content      string    `db:"content" json:"content"`
	MoTime       string    `db:"mo_time" json:"moTime"`
	PulledAt     time.Time `db:"pulled_at" json:"pulledAt"`
}
