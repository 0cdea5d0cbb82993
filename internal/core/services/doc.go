// Package services implements the core application logic.
//
// Services implement the driving port interfaces and depend only on
// the driven port interfaces and the domain package. All infrastructure
// concerns (HTTP, SQLite, upstream APIs) live behind driven ports.
package services
