// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/certkeep/certkeep/internal/errors"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// dnsLabelRegex matches a single DNS label (letters, digits, hyphens, no
	// leading/trailing hyphen)
	dnsLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// IsEmail validates an email address format.
var IsEmail = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_email", "email must be a string")
	}
	if !emailRegex.MatchString(s) {
		return validation.NewError("validation_email", "must be a valid email address")
	}
	return nil
})

// IsDomainName validates a fully qualified domain name. A single leading
// wildcard label is accepted ("*.example.com").
var IsDomainName = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_domain", "domain must be a string")
	}
	return checkDomain(s, true)
})

// IsDomainSuffix validates a registered provider suffix. Suffixes are matched
// tail-first against issued domains, so a bare registrable domain
// ("example.com") or a wildcard form ("*.example.com") are both accepted.
var IsDomainSuffix = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_domain_suffix", "suffix must be a string")
	}
	if err := checkDomain(s, true); err != nil {
		return validation.NewError("validation_domain_suffix", "must be a valid domain suffix")
	}
	return nil
})

// checkDomain validates the label structure of a domain name.
func checkDomain(s string, allowWildcard bool) error {
	if s == "" || len(s) > 253 {
		return validation.NewError("validation_domain", "must be a valid domain name")
	}

	labels := strings.Split(strings.TrimSuffix(s, "."), ".")
	if len(labels) < 2 {
		return validation.NewError("validation_domain", "must be a fully qualified domain name")
	}

	for i, label := range labels {
		if label == "*" {
			if allowWildcard && i == 0 {
				continue
			}
			return validation.NewError("validation_domain", "wildcard is only allowed as the leftmost label")
		}
		if !dnsLabelRegex.MatchString(label) {
			return validation.NewError("validation_domain", "must be a valid domain name")
		}
	}

	return nil
}
