package carrier

import "strings"

// normalizePhone strips non-digits and the leading 55 country code, and
// reports whether the remainder is a valid 11-digit national number.
func normalizePhone(raw string) (string, bool) {
	digits := keepDigits(raw)
	if strings.HasPrefix(digits, "55") && len(digits) > 11 {
		digits = digits[2:]
	}
	return digits, len(digits) == 11
}

// internationalMSISDN returns the number in full international form with the
// 55 prefix, as required by the android-channel authentication endpoints.
func internationalMSISDN(raw string) string {
	digits := keepDigits(raw)
	if strings.HasPrefix(digits, "55") && len(digits) >= 12 {
		return digits
	}
	if len(digits) == 10 || len(digits) == 11 {
		return "55" + digits
	}
	return digits
}

// validCode reports whether the verification code is exactly 6 digits.
func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// phoneShaped reports whether an identity value looks like a phone number.
// Tracker identities must be carrier-internal ids; sending a phone number
// silently credits nothing, so it is rejected up front.
func phoneShaped(identity string) bool {
	if len(identity) < 10 {
		return false
	}
	for _, r := range identity {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
