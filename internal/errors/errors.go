package errors

import "errors"

// Tracking errors.
var (
	// ErrNoTrackingRecord is returned when an operation requires an
	// existing tracking record and none has been written for the asset.
	ErrNoTrackingRecord = errors.New("no tracking record for asset")

	// ErrNoMetadataForKind is returned when a metadata path is requested
	// for an asset kind that carries no on-disk tracking record
	// (directories, style files, snippets).
	ErrNoMetadataForKind = errors.New("asset kind has no tracking metadata")
)

// Matching/catalog errors.
var (
	// ErrElementsUnsupported signals that the target server does not
	// advertise the element-listing capability. Callers must treat this
	// as "cannot know", not as "element does not exist".
	ErrElementsUnsupported = errors.New("element listing not supported by server")

	ErrCatalogLoad = errors.New("catalog load failed")
)

// Server/transport errors.
var (
	ErrAPIRequest  = errors.New("API request failed")
	ErrAPIResponse = errors.New("unexpected API response")
)
