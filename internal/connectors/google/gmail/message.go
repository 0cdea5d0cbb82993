package gmail

import (
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// toMessage converts a full-format Gmail message to the domain record.
// Header parsing and MIME flattening happen here so the core only ever
// sees plain text.
func toMessage(msg *gmailapi.Message) domain.Message {
	m := domain.Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Labels:   msg.LabelIds,
		Source:   domain.SourceEmail,
	}

	if msg.InternalDate > 0 {
		m.Timestamp = time.UnixMilli(msg.InternalDate).UTC()
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				m.Subject = h.Value
			case "from":
				m.Sender = h.Value
			case "to":
				m.Recipients = parseAddressList(h.Value)
			case "date":
				if m.Timestamp.IsZero() {
					if ts, err := mail.ParseDate(h.Value); err == nil {
						m.Timestamp = ts.UTC()
					}
				}
			}
		}
		m.Body = extractPlainText(msg.Payload)
		if m.Body == "" {
			m.Body = extractHTMLText(msg.Payload)
		}
	}

	if m.Body == "" {
		m.Body = msg.Snippet
	}

	return m
}

// extractPlainText walks the MIME tree collecting text/plain parts.
// Multipart containers are descended recursively; other leaf types
// (text/html, attachments) are skipped here.
func extractPlainText(part *gmailapi.MessagePart) string {
	if part == nil {
		return ""
	}

	if strings.HasPrefix(part.MimeType, "text/plain") {
		return decodeBody(part.Body)
	}

	if strings.HasPrefix(part.MimeType, "multipart/") {
		var sections []string
		for _, child := range part.Parts {
			if text := extractPlainText(child); text != "" {
				sections = append(sections, text)
			}
		}
		return strings.Join(sections, "\n")
	}

	return ""
}

// extractHTMLText is the fallback for HTML-only messages: it walks the
// MIME tree for text/html parts and strips the markup.
func extractHTMLText(part *gmailapi.MessagePart) string {
	if part == nil {
		return ""
	}

	if strings.HasPrefix(part.MimeType, "text/html") {
		return htmlToText(decodeBody(part.Body))
	}

	if strings.HasPrefix(part.MimeType, "multipart/") {
		var sections []string
		for _, child := range part.Parts {
			if text := extractHTMLText(child); text != "" {
				sections = append(sections, text)
			}
		}
		return strings.Join(sections, "\n")
	}

	return ""
}

// decodeBody decodes the base64url-encoded part body.
// Gmail emits unpadded base64url, but padded payloads appear in the
// wild, so both forms are accepted.
func decodeBody(body *gmailapi.MessagePartBody) string {
	if body == nil || body.Data == "" {
		return ""
	}

	data, err := base64.RawURLEncoding.DecodeString(body.Data)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(body.Data)
		if err != nil {
			return ""
		}
	}
	return string(data)
}

// parseAddressList extracts bare addresses from a To header.
// Falls back to a comma split when the header is not RFC 5322 clean.
func parseAddressList(header string) []string {
	if header == "" {
		return nil
	}

	if addrs, err := mail.ParseAddressList(header); err == nil {
		out := make([]string, 0, len(addrs))
		for _, a := range addrs {
			out = append(out, a.Address)
		}
		return out
	}

	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
