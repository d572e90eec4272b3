package domain

import "errors"

// Failure taxonomy for the ingestion and provisioning pipelines. Callers
// classify with errors.Is; per-record failures are caught at the batch-loop
// boundary while session-level failures abort the current page's run.
var (
	// ErrNavigation: the page failed to load or returned a non-OK status.
	ErrNavigation = errors.New("navigation failed")

	// ErrChallengeTimeout: the anti-bot interstitial never cleared within budget.
	ErrChallengeTimeout = errors.New("challenge interstitial did not clear")

	// ErrIdentifier: identifier derivation produced an empty id.
	ErrIdentifier = errors.New("invalid identifier")

	// ErrFetch: a remote image fetch failed.
	ErrFetch = errors.New("fetch failed")

	// ErrStore: a document or object store operation failed.
	ErrStore = errors.New("store operation failed")

	// ErrNotFound: the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrEncode: QR payload encoding failed.
	ErrEncode = errors.New("qr encode failed")

	// ErrRaster: QR rasterization or transcoding failed.
	ErrRaster = errors.New("qr raster failed")
)
