package domain

const (
	// QRPayloadField is the only key a scanning client ever needs to parse.
	QRPayloadField = "product_id"

	// SparePartIDPrefix namespaces derived spare-part identifiers.
	SparePartIDPrefix = "SPARE_"

	// Object storage namespaces
	DefaultQRNamespace    = "qr-codes"
	DefaultPartsNamespace = "spare-parts"

	// Redis key patterns
	RedisKeyVisited = "ingest:%s:visited"

	// Scrape job statuses
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)
