// Package driven holds the secondary ports: the interfaces core
// services call out through. Adapters under internal/adapters/driven
// and internal/connectors implement them.
//
// The package imports only domain. Nothing here may depend on an
// adapter, a connector, or a third-party SDK type.
package driven
