package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/gleansync/ns-glean-sync/internal/credentials"
)

// secretReader reads one secret value for the named field
type secretReader func(field string) (string, error)

// terminalSecretReader reads from the controlling terminal without echo
func terminalSecretReader(prompts io.Writer) secretReader {
	return func(field string) (string, error) {
		_, _ = fmt.Fprintf(prompts, "%s: ", field)
		value, err := term.ReadPassword(int(os.Stdin.Fd()))
		_, _ = fmt.Fprintln(prompts)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", field, err)
		}
		return string(value), nil
	}
}

// fillMissingSecrets asks for every secret left blank in the credentials
// file, so tokens need not be written to disk.
func fillMissingSecrets(creds *credentials.CredentialSet, read secretReader) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"gleanToken", &creds.GleanToken},
		{"consumerKey", &creds.ConsumerKey},
		{"consumerSecret", &creds.ConsumerSecret},
		{"token", &creds.Token},
		{"tokenSecret", &creds.TokenSecret},
	}

	for _, f := range fields {
		if strings.TrimSpace(*f.value) != "" {
			continue
		}
		value, err := read(f.name)
		if err != nil {
			return err
		}
		*f.value = strings.TrimSpace(value)
	}
	return nil
}
