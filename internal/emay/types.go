package emay

import "encoding/json"

// Envelope carries the protocol fields every encrypted request shares.
// Zero values are replaced by the client before sending.
type Envelope struct {
	// RequestTime is the creation time in epoch milliseconds.
	RequestTime int64 `json:"requestTime,omitempty"`
	// RequestValidPeriod is how many seconds the gateway should honor the request.
	RequestValidPeriod int `json:"requestValidPeriod,omitempty"`
}

// Schedule is the optional delayed-send time (yyyy-MM-dd HH:mm:ss) and extension code.
type Schedule struct {
	TimerTime    string `json:"timerTime,omitempty"`
	ExtendedCode string `json:"extendedCode,omitempty"`
}

type SingleRequest struct {
	Envelope
	Schedule
	Mobile      string `json:"mobile"`
	Content     string `json:"content"`
	CustomSmsID string `json:"customSmsId,omitempty"`
}

// BatchOnlyRequest broadcasts one content to every mobile.
type BatchOnlyRequest struct {
	Envelope
	Schedule
	Mobiles []string `json:"mobiles"`
	Content string   `json:"content"`
}

type BatchTarget struct {
	Mobile      string `json:"mobile"`
	CustomSmsID string `json:"customSmsId,omitempty"`
}

// BatchRequest shares content but lets each mobile carry its own correlation id.
type BatchRequest struct {
	Envelope
	Schedule
	Smses   []BatchTarget `json:"smses"`
	Content string        `json:"content"`
}

type PersonalTarget struct {
	Mobile      string `json:"mobile"`
	Content     string `json:"content"`
	CustomSmsID string `json:"customSmsId,omitempty"`
}

type PersonalityRequest struct {
	Envelope
	Schedule
	Smses []PersonalTarget `json:"smses"`
}

type PersonalAllTarget struct {
	Schedule
	Mobile      string `json:"mobile"`
	Content     string `json:"content"`
	CustomSmsID string `json:"customSmsId,omitempty"`
}

// PersonalityAllRequest has no request-wide schedule; each target carries its own.
type PersonalityAllRequest struct {
	Envelope
	Smses []PersonalAllTarget `json:"smses"`
}

type BalanceRequest struct {
	Envelope
}

// ReportRequest asks for up to Number pending items. Values above MaxFetch are clamped.
type ReportRequest struct {
	Envelope
	Number int `json:"number"`
}

type MoRequest struct {
	Envelope
	Number int `json:"number"`
}

// RetrieveReportRequest re-fetches reports in a time window. Times are yyyyMMddHHmmss.
// SmsID may hold several ids separated by commas.
type RetrieveReportRequest struct {
	StartTime string
	EndTime   string
	SmsID     string
}

// SmsResponse is one per-target outcome. An empty SmsID means the gateway rejected the target.
type SmsResponse struct {
	SmsID       string `json:"smsId,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
	CustomSmsID string `json:"customSmsId,omitempty"`
}

// Accepted reports whether the gateway assigned a message id.
func (r SmsResponse) Accepted() bool { return r.SmsID != "" }

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// ReportEntry is a delivery status report. Which fields are present depends on the report type.
type ReportEntry struct {
	// InterSmsID is the gateway's internal id.
	InterSmsID  string `json:"interSmsId,omitempty"`
	SmsID       string `json:"smsId,omitempty"`
	CustomSmsID string `json:"customSmsId,omitempty"`
	// State is DELIVRD on success, otherwise an operator error code.
	State        string `json:"state,omitempty"`
	Desc         string `json:"desc,omitempty"`
	Mobile       string `json:"mobile,omitempty"`
	ReceiveTime  string `json:"receiveTime,omitempty"`
	SubmitTime   string `json:"submitTime,omitempty"`
	ExtendedCode string `json:"extendedCode,omitempty"`
}

// MoEntry is an inbound (mobile originated) message.
type MoEntry struct {
	Mobile       string `json:"mobile,omitempty"`
	ExtendedCode string `json:"extendedCode,omitempty"`
	Content      string `json:"content,omitempty"`
	MoTime       string `json:"moTime,omitempty"`
}

// FormReply is the unencrypted reply of the form endpoint. JSON is set only when Text parses.
type FormReply struct {
	Text string          `json:"text"`
	JSON json.RawMessage `json:"json,omitempty"`
}
