// Package credentials defines the onboarding credential set and the stores that persist it.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

var (
	// ErrNotFound is returned when a credential set does not exist
	ErrNotFound = errors.New("credential set not found")

	// ErrValidation matches every *ValidationError
	ErrValidation = errors.New("invalid credential set")
)

// CredentialSet holds the Glean and NetSuite credentials collected during onboarding.
// JSON field names match the onboarding form payload.
type CredentialSet struct {
	GleanAccount   string `json:"gleanAccount" yaml:"gleanAccount"`
	GleanToken     string `json:"gleanToken" yaml:"gleanToken"`
	AccountID      string `json:"accountId" yaml:"accountId"`
	ConsumerKey    string `json:"consumerKey" yaml:"consumerKey"`
	ConsumerSecret string `json:"consumerSecret" yaml:"consumerSecret"`
	Token          string `json:"token" yaml:"token"`
	TokenSecret    string `json:"tokenSecret" yaml:"tokenSecret"`
}

// ValidationError lists the required fields that were missing or blank.
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", "))
}

// Is reports whether target is ErrValidation
func (*ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Normalize returns a copy with surrounding whitespace removed from every field.
func (c CredentialSet) Normalize() CredentialSet {
	return CredentialSet{
		GleanAccount:   strings.TrimSpace(c.GleanAccount),
		GleanToken:     strings.TrimSpace(c.GleanToken),
		AccountID:      strings.TrimSpace(c.AccountID),
		ConsumerKey:    strings.TrimSpace(c.ConsumerKey),
		ConsumerSecret: strings.TrimSpace(c.ConsumerSecret),
		Token:          strings.TrimSpace(c.Token),
		TokenSecret:    strings.TrimSpace(c.TokenSecret),
	}
}

// Validate returns a *ValidationError naming every blank field, in form order.
func (c CredentialSet) Validate() error {
	n := c.Normalize()
	fields := []struct {
		name  string
		value string
	}{
		{"gleanAccount", n.GleanAccount},
		{"gleanToken", n.GleanToken},
		{"accountId", n.AccountID},
		{"consumerKey", n.ConsumerKey},
		{"consumerSecret", n.ConsumerSecret},
		{"token", n.Token},
		{"tokenSecret", n.TokenSecret},
	}

	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{MissingFields: missing}
	}
	return nil
}

// Realm is the OAuth realm NetSuite expects: the account id upper-cased with '-' replaced by '_'.
func (c CredentialSet) Realm() string {
	return strings.ToUpper(strings.ReplaceAll(c.AccountID, "-", "_"))
}

// HostAccountID is the account id in the form NetSuite uses in hostnames.
func (c CredentialSet) HostAccountID() string {
	return strings.ToLower(strings.ReplaceAll(c.AccountID, "_", "-"))
}

// String never includes secret values.
func (c CredentialSet) String() string {
	return fmt.Sprintf("CredentialSet{gleanAccount=%s, accountId=%s, secrets=%s}",
		c.GleanAccount, c.AccountID, redacted)
}

// GoString keeps %#v from printing secrets.
func (c CredentialSet) GoString() string {
	return c.String()
}

// LogValue implements slog.LogValuer so secrets never reach the logs.
func (c CredentialSet) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("glean_account", c.GleanAccount),
		slog.String("account_id", c.AccountID),
		slog.String("secrets", redacted),
	)
}

// MarshalJSON writes only non-secret fields.
func (c CredentialSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"gleanAccount":   c.GleanAccount,
		"accountId":      c.AccountID,
		"gleanToken":     redacted,
		"consumerKey":    redacted,
		"consumerSecret": redacted,
		"token":          redacted,
		"tokenSecret":    redacted,
	})
}
