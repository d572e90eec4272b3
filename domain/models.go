package domain

import (
	"time"
)

// CatalogRecord represents one product in the catalog store.
// The document key in the store is always CanonicalID.
type CatalogRecord struct {
	CanonicalID    string            `json:"canonical_id" dynamodbav:"canonical_id"`
	Model          string            `json:"model" dynamodbav:"model"`
	Name           string            `json:"name" dynamodbav:"name"`
	Description    string            `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Category       string            `json:"category" dynamodbav:"category"`
	Subcategory    string            `json:"subcategory,omitempty" dynamodbav:"subcategory,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty" dynamodbav:"specifications,omitempty"`
	// ProductID is a legacy identifier field carried by documents written by
	// earlier ingestion runs. New writes never set it; the auditor checks it.
	ProductID           string     `json:"product_id,omitempty" dynamodbav:"product_id,omitempty"`
	QRArtifactRef       string     `json:"qr_artifact_ref,omitempty" dynamodbav:"qr_artifact_ref,omitempty"`
	QRArtifactUpdatedAt *time.Time `json:"qr_artifact_updated_at,omitempty" dynamodbav:"qr_artifact_updated_at,omitempty"`
	ScrapedAt           time.Time  `json:"scraped_at" dynamodbav:"scraped_at"`
}

// SparePartRecord represents one spare part.
type SparePartRecord struct {
	SparePartID   string    `json:"spare_part_id" dynamodbav:"spare_part_id"`
	PartNumber    string    `json:"part_number" dynamodbav:"part_number"`
	Name          string    `json:"name" dynamodbav:"name"`
	Compatibility []string  `json:"compatibility,omitempty" dynamodbav:"compatibility,omitempty"`
	ImageRef      string    `json:"image_ref,omitempty" dynamodbav:"image_ref,omitempty"`
	ScrapedAt     time.Time `json:"scraped_at" dynamodbav:"scraped_at"`

	// ImageSourceURL is the remote image location found during extraction.
	// It is consumed by the image ingestion step and never persisted.
	ImageSourceURL string `json:"-" dynamodbav:"-"`
}

// RenderedPage is the output of a browser session: the fully rendered
// markup of one target page.
type RenderedPage struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Mismatch describes one catalog document whose key disagrees with its
// embedded identifier fields.
type Mismatch struct {
	DocumentKey string `json:"document_key"`
	Model       string `json:"model"`
	ProductID   string `json:"product_id,omitempty"`
}

// ConsistencyReport is the result of one audit run. It is emitted to the
// caller and never persisted.
type ConsistencyReport struct {
	TotalChecked    int        `json:"total_checked"`
	ConsistentCount int        `json:"consistent_count"`
	Mismatches      []Mismatch `json:"mismatches"`
}

// ScrapeJob tracks one operator-invoked ingestion run.
type ScrapeJob struct {
	JobID       string `json:"job_id" dynamodbav:"job_id"`
	URL         string `json:"url" dynamodbav:"url"`
	Status      string `json:"status" dynamodbav:"status"`
	StartedAt   string `json:"started_at" dynamodbav:"started_at"`
	CompletedAt string `json:"completed_at,omitempty" dynamodbav:"completed_at,omitempty"`
	RecordCount int    `json:"record_count" dynamodbav:"record_count"`
}
