package internal

import (
	"fmt"
	"net/url"
	"strings"

	pkgerrs "github.com/jamesprial/go-smstats/pkg/errors"
	"github.com/jamesprial/go-smstats/pkg/validation"
)

const (
	// User agent constraints
	maxUserAgentLength = 256

	// Identity field constraints
	maxIdentityFieldLength = 256
)

// Validator provides validation operations for client settings.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateMaxPage checks that at least one page may be fetched.
func (v *Validator) ValidateMaxPage(maxPage int) error {
	if maxPage < 1 {
		return &pkgerrs.ConfigError{Field: "MaxPage", Message: fmt.Sprintf("must be at least 1 (got %d)", maxPage)}
	}
	return nil
}

// ValidateEndpoint checks that an endpoint is an absolute http or https URL.
func (v *Validator) ValidateEndpoint(field, endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return &pkgerrs.ConfigError{Field: field, Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &pkgerrs.ConfigError{Field: field, Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &pkgerrs.ConfigError{Field: field, Message: "missing host"}
	}
	return nil
}

// ValidateIdentity checks the optional registration fields. Empty values are
// allowed since they are left out of the registration body; anything else
// printable is sent as given.
func (v *Validator) ValidateIdentity(id Identity) error {
	fields := []struct {
		name  string
		value string
	}{
		{"ClientID", id.ClientID},
		{"Name", id.Name},
		{"Email", id.Email},
	}
	for _, f := range fields {
		if len(f.value) > maxIdentityFieldLength {
			return &pkgerrs.ConfigError{Field: f.name, Message: fmt.Sprintf("cannot exceed %d characters", maxIdentityFieldLength)}
		}
		if validation.HasControlChars(f.value) {
			return &pkgerrs.ConfigError{Field: f.name, Message: "cannot contain control characters"}
		}
	}

	if id.Email != "" && !validation.IsValidEmail(id.Email) {
		return &pkgerrs.ConfigError{Field: "Email", Message: fmt.Sprintf("invalid email address %q", id.Email)}
	}
	return nil
}

// ValidateUserAgent validates the User-Agent string to prevent header injection attacks.
func (v *Validator) ValidateUserAgent(ua string) error {
	if strings.ContainsAny(ua, "\r\n") {
		return &pkgerrs.ConfigError{Field: "UserAgent", Message: "cannot contain newline characters"}
	}
	if len(ua) > maxUserAgentLength {
		return &pkgerrs.ConfigError{Field: "UserAgent", Message: fmt.Sprintf("too long (max %d characters)", maxUserAgentLength)}
	}
	return nil
}
