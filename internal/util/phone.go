package util

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidMobile = errors.New("invalid mobile number")

	nonDigits = regexp.MustCompile(`[^\d\+]+`)
	cnMobile  = regexp.MustCompile(`^1[3-9]\d{9}$`)
)

// NormalizeMobile strips separators and the +86 / 0086 / 86 country prefix
// so the result is the bare 11-digit mainland number the gateway expects.
func NormalizeMobile(raw string) string {
	s := nonDigits.ReplaceAllString(strings.TrimSpace(raw), "")

	switch {
	case strings.HasPrefix(s, "+86"):
		s = s[3:]
	case strings.HasPrefix(s, "0086"):
		s = s[4:]
	case strings.HasPrefix(s, "86") && len(s) == 13:
		s = s[2:]
	}

	return s
}

func ValidMobile(s string) bool {
	return cnMobile.MatchString(s)
}

// ParseMobile normalizes raw and rejects anything that is not a mainland mobile number.
func ParseMobile(raw string) (string, error) {
	s := NormalizeMobile(raw)
	if !ValidMobile(s) {
		return "", ErrInvalidMobile
	}
	return s, nil
}

// ParseMobiles is ParseMobile over a list; it drops duplicates and keeps order.
// The returned slice holds the rejected inputs.
func ParseMobiles(raw []string) (valid, rejected []string) {
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		m, err := ParseMobile(r)
		if err != nil {
			rejected = append(rejected, r)
			continue
		}

		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		valid = append(valid, m)
	}

	return valid, rejected
}
