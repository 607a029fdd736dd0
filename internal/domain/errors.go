package domain

import "errors"

// Domain errors represent pipeline-level failure conditions.
// They are wrapped with context by the layers that detect them and matched
// with errors.Is by callers.
var (
	// Descriptor errors. Both are recovered per entry by the assembler.
	ErrMalformedDescriptor = errors.New("malformed descriptor")
	ErrEncodingMismatch    = errors.New("descriptor encoding mismatch")
	ErrUnknownEncoding     = errors.New("unknown text encoding")

	// Identity errors
	ErrExhaustedKeyspace = errors.New("identifier keyspace exhausted")
	ErrUnstampedEntry    = errors.New("entry has no assigned identifier")
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// Enrichment errors
	ErrInvalidEntry    = errors.New("invalid entry")
	ErrInvalidTemplate = errors.New("invalid url template")

	// Manifest errors
	ErrInvalidManifest = errors.New("invalid manifest document")
)
