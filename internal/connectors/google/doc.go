// Package google holds the plumbing shared by the gmail, drive, and
// calendar connectors: a TokenSource bridging the TokenProvider port to
// oauth2, factories for the generated API clients, sentinel errors for
// the interesting HTTP statuses, and per-service rate limiting.
//
// A connector wires itself up in two lines:
//
//	ts := google.NewTokenSource(ctx, tokenProvider)
//	svc, err := google.NewGmailService(ctx, ts)
//
// All scopes are read-only plus userinfo.email:
//
//	https://www.googleapis.com/auth/userinfo.email
//	https://www.googleapis.com/auth/gmail.readonly
//	https://www.googleapis.com/auth/drive.readonly
//	https://www.googleapis.com/auth/calendar.readonly
package google
