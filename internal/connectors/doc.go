// Package connectors provides implementations of the MailboxSource
// interface for upstream accounts. Each connector knows how to fetch
// recent content from a specific source (Gmail, Drive, Calendar).
package connectors
