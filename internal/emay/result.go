package emay

// Code is the result code the gateway returns in the "result" response header.
type Code string

const (
	Success          Code = "SUCCESS"
	System           Code = "SYSTEM"
	ParamError       Code = "PARAM_ERROR"
	SignError        Code = "SIGN_ERROR"
	AppIDError       Code = "APPID_ERROR"
	BalanceNotEnough Code = "BALANCE_NOT_ENOUGH"
	IPError          Code = "IP_ERROR"
	MobileError      Code = "MOBILE_ERROR"
	ContentError     Code = "CONTENT_ERROR"
	TemplateError    Code = "TEMPLATE_ERROR"
	KeywordError     Code = "KEYWORD_ERROR"
	FrequencyError   Code = "FREQUENCY_ERROR"
	BlacklistError   Code = "BLACKLIST_ERROR"
	TimeError        Code = "TIME_ERROR"
	EmptyError       Code = "EMPTY_ERROR"
)

var descriptions = map[Code]string{
	Success:          "success",
	System:           "system error",
	ParamError:       "parameter error",
	SignError:        "signature error",
	AppIDError:       "invalid appId",
	BalanceNotEnough: "insufficient balance",
	IPError:          "IP address not allowed",
	MobileError:      "invalid mobile number",
	ContentError:     "invalid message content",
	TemplateError:    "template error",
	KeywordError:     "content contains blocked keywords",
	FrequencyError:   "sending too frequently",
	BlacklistError:   "mobile number is blacklisted",
	TimeError:        "invalid time format",
	EmptyError:       "content is empty",
}

// Known reports whether c is one of the codes the gateway documents.
func (c Code) Known() bool {
	_, ok := descriptions[c]
	return ok
}

// Description returns a human readable message for c. Unknown codes still get one.
func (c Code) Description() string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return "unknown result code: " + string(c)
}

func (c Code) String() string { return string(c) }

// Result is what every gateway operation returns. Result is set only when Code is Success.
type Result[T any] struct {
	Code   Code `json:"code"`
	Result *T   `json:"result"`
}

// IsSuccess is the one success predicate callers should branch on.
func IsSuccess[T any](r Result[T]) bool {
	return r.Code == Success && r.Result != nil
}
