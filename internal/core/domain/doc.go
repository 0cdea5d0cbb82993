// Package domain contains the core business entities for mailrag.
//
// The domain layer has no dependencies on adapters or infrastructure.
// It defines chunks, source documents, query contexts and the error
// taxonomy shared across the retrieval pipeline.
package domain
