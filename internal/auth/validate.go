// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package auth

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Registration field limits, counted in characters (runes).
const (
	MinUsernameLength = 1
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// Registration is a payload that passed ValidateRegistration.
// It is safe to hash and persist.
type Registration struct {
	Username string
	Password string
	Fullname string
}

var (
	requiredFields = []string{"username", "password"}
	stringFields   = []string{"username", "password", "fullname"}
	trimmedFields  = []string{"username", "password"}
)

// ValidateRegistration checks a raw registration body. Checks run in order
// (presence, type, trimming, length) and the first violation is returned as
// a *ValidationError wrapped with code VALIDATION_FAILED.
// fullname is trimmed silently and never length-checked.
func ValidateRegistration(payload map[string]any) (Registration, error) {
	for _, field := range requiredFields {
		if _, ok := payload[field]; !ok {
			return Registration{}, validationFailed(missingField(field))
		}
	}

	values := make(map[string]string, len(stringFields))
	for _, field := range stringFields {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return Registration{}, validationFailed(wrongType(field))
		}
		values[field] = s
	}

	for _, field := range trimmedFields {
		if values[field] != strings.TrimSpace(values[field]) {
			return Registration{}, validationFailed(notTrimmed(field))
		}
	}

	username, password := values["username"], values["password"]

	if utf8.RuneCountInString(username) < MinUsernameLength {
		return Registration{}, validationFailed(tooShort("username", MinUsernameLength))
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return Registration{}, validationFailed(tooShort("password", MinPasswordLength))
	}
	if utf8.RuneCountInString(password) > MaxPasswordLength {
		return Registration{}, validationFailed(tooLong("password", MaxPasswordLength))
	}

	return Registration{
		Username: username,
		Password: password,
		Fullname: strings.TrimSpace(values["fullname"]),
	}, nil
}

func validationFailed(verr *ValidationError) error {
	return oops.Code(CodeValidationFailed).
		With("location", verr.Field).
		Wrap(verr)
}
