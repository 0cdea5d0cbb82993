package domain

import "time"

// Message is the raw record returned by a mailbox or document source
// collaborator. Content extraction (MIME traversal, header parsing) happens
// entirely on the collaborator side; the core treats Body as opaque text.
type Message struct {
	// ID is the source-system identifier (e.g. Gmail message ID).
	ID string

	// ThreadID groups related messages, if the source has threads.
	ThreadID string

	// Subject is the message subject or document title.
	Subject string

	// Sender is the From address or document owner.
	Sender string

	// Recipients are the To addresses, if any.
	Recipients []string

	// Body is the extracted plain-text content.
	Body string

	// Timestamp is when the message was produced at the source.
	Timestamp time.Time

	// Labels are source-side labels (e.g. INBOX, SENT).
	Labels []string

	// Source is the kind of system the message came from.
	Source SourceKind
}

// Metadata builds the provenance map stored alongside each of the
// message's chunks.
func (m *Message) Metadata() map[string]any {
	md := map[string]any{
		"subject":   m.Subject,
		"sender":    m.Sender,
		"timestamp": m.Timestamp.UnixMilli(),
	}
	if m.ThreadID != "" {
		md["thread_id"] = m.ThreadID
	}
	return md
}

// SourceDocument derives the processing-state record for this message.
func (m *Message) SourceDocument(userID string) SourceDocument {
	return SourceDocument{
		UserID:     userID,
		Source:     m.Source,
		SourceID:   m.ID,
		ThreadID:   m.ThreadID,
		Subject:    m.Subject,
		Sender:     m.Sender,
		Recipients: m.Recipients,
		Timestamp:  m.Timestamp,
		Labels:     m.Labels,
	}
}
