package drive

import (
	"time"

	driveapi "google.golang.org/api/drive/v3"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// toMessage converts a Drive file and its exported text to the domain
// record. The document title maps to the subject and the owner to the
// sender so provenance renders uniformly across sources.
func toMessage(file *driveapi.File, body string) domain.Message {
	m := domain.Message{
		ID:      file.Id,
		Subject: file.Name,
		Body:    body,
		Source:  domain.SourceDrive,
	}

	if len(file.Owners) > 0 {
		m.Sender = ownerAddress(file.Owners[0])
	}

	if file.ModifiedTime != "" {
		if ts, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
			m.Timestamp = ts.UTC()
		}
	}

	return m
}

// ownerAddress prefers the email address, falling back to display name
// for files shared from accounts that hide their address.
func ownerAddress(owner *driveapi.User) string {
	if owner == nil {
		return ""
	}
	if owner.EmailAddress != "" {
		return owner.EmailAddress
	}
	return owner.DisplayName
}
