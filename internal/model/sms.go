package model

import "strings"

// SendType selects how a single-recipient API request builds its content.
type SendType string

const (
	SendTypeCustom SendType = "custom"
	SendTypeVerify SendType = "verify"
	SendTypeNotify SendType = "notify"
)

func (t SendType) String() string { return string(t) }

// ParseSendType normalizes input; empty => custom.
// Returns (value, true) if valid; otherwise (custom, false).
func ParseSendType(s string) (SendType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "custom":
		return SendTypeCustom, true
	case "verify":
		return SendTypeVerify, true
	case "notify":
		return SendTypeNotify, true
	default:
		return SendTypeCustom, false
	}
}

// BatchType is "same" (one content for all) or "personal" (content per recipient).
type BatchType string

const (
	BatchTypeSame     BatchType = "same"
	BatchTypePersonal BatchType = "personal"
)

func ParseBatchType(s string) (BatchType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "same":
		return BatchTypeSame, true
	case "personal":
		return BatchTypePersonal, true
	default:
		return BatchTypeSame, false
	}
}

// Mode records which gateway call produced a record.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeBatch    Mode = "batch"
	ModePersonal Mode = "personal"
	ModeQueue    Mode = "queue"
)

func (m Mode) String() string { return string(m) }
