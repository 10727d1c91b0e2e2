package forms

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const MinPasswordLength = 8

var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		123456 123456789 12345678 1234567890 password password1 password123 qwerty qwerty123
		qwertyuiop 111111 123123 abc123 1q2w3e4r 1q2w3e4r5t iloveyou admin admin123 welcome
		welcome1 letmein monkey dragon sunshine princess football baseball starwars master
		passw0rd trustno1 superman whatever zaq12wsx 000000 654321 987654321 asdfghjkl
		travel travelling`) {
		commonPasswords[p] = struct{}{}
	}
}

// ValidatePassword applies the password policy and returns one message per
// failed rule. username and email are used to reject passwords that merely
// repeat them.
func ValidatePassword(password, username, email string) []string {
	var problems []string

	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf(
			"This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}

	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		problems = append(problems, "This password is too common.")
	}

	if isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}

	if similar(password, username) {
		problems = append(problems, "The password is too similar to the username.")
	} else if local, _, _ := strings.Cut(email, "@"); similar(password, local) {
		problems = append(problems, "The password is too similar to the email address.")
	}

	return problems
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// similar reports whether one string contains the other, ignoring case.
// Attributes shorter than three characters are too weak a signal to reject on.
func similar(password, attr string) bool {
	p := strings.ToLower(password)
	a := strings.ToLower(strings.TrimSpace(attr))
	if utf8.RuneCountInString(a) < 3 || p == "" {
		return false
	}
	return strings.Contains(p, a) || strings.Contains(a, p)
}
