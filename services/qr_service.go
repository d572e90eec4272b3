package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"image/png"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"catalog-pipeline/domain"
)

const (
	// qrImageSize is the rasterized width/height in pixels.
	qrImageSize = 300
	// jpegQuality for the transcoded distribution format.
	jpegQuality = 90
)

type CatalogStore interface {
	GetCatalogRecord(ctx context.Context, canonicalID string) (*domain.CatalogRecord, error)
	PutCatalogRecord(ctx context.Context, record domain.CatalogRecord) error
	ScanMissingQRArtifacts(ctx context.Context) ([]domain.CatalogRecord, error)
}

// ProvisionSummary reports one provisioning batch.
type ProvisionSummary struct {
	Provisioned int
	Failed      []RecordOutcome
}

// QRService encodes canonical identifiers into scannable artifacts:
// payload → raster → JPEG transcode → object storage → reference written
// back onto the catalog record. Regeneration overwrites the same path.
type QRService struct {
	store     CatalogStore
	media     MediaStore
	namespace string
	logger    *zap.Logger
}

type QROption func(*QRService)

func WithQRCatalogStore(s CatalogStore) QROption {
	return func(q *QRService) { q.store = s }
}

func WithQRMediaStore(m MediaStore) QROption {
	return func(q *QRService) { q.media = m }
}

func WithQRNamespace(ns string) QROption {
	return func(q *QRService) { q.namespace = ns }
}

func WithQRLogger(l *zap.Logger) QROption {
	return func(q *QRService) { q.logger = l }
}

func NewQRService(opts ...QROption) *QRService {
	q := &QRService{
		namespace: domain.DefaultQRNamespace,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// QRPayload builds the canonical JSON payload. product_id is deliberately
// the only field so a scanning client only ever parses one key.
func QRPayload(canonicalID string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{domain.QRPayloadField: canonicalID})
	if err != nil {
		return nil, fmt.Errorf("encode payload for %s: %v: %w", canonicalID, err, domain.ErrEncode)
	}
	return payload, nil
}

// Provision generates, stores and records the QR artifact for one
// canonical id. It returns the storage path of the artifact.
func (q *QRService) Provision(ctx context.Context, canonicalID string) (string, error) {
	payload, err := QRPayload(canonicalID)
	if err != nil {
		return "", err
	}

	raster, err := qrcode.Encode(string(payload), qrcode.High, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("rasterize qr for %s: %v: %w", canonicalID, err, domain.ErrEncode)
	}

	artifact, err := transcodeToJPEG(raster)
	if err != nil {
		return "", fmt.Errorf("transcode qr for %s: %v: %w", canonicalID, err, domain.ErrRaster)
	}

	key := fmt.Sprintf("%s/%s.jpg", q.namespace, canonicalID)
	if _, err := q.media.Upload(ctx, key, artifact, "image/jpeg"); err != nil {
		return "", err
	}

	// Round-trip sanity check. The artifact write already succeeded, so a
	// failed read-back is a warning, not a failure.
	record, err := q.store.GetCatalogRecord(ctx, canonicalID)
	if err != nil {
		q.logger.Warn("read-back after artifact write failed, reference not recorded",
			zap.String("canonical_id", canonicalID),
			zap.String("artifact", key),
			zap.Error(err))
		return key, nil
	}

	now := time.Now().UTC()
	record.QRArtifactRef = key
	record.QRArtifactUpdatedAt = &now
	if err := q.store.PutCatalogRecord(ctx, *record); err != nil {
		return "", err
	}

	q.logger.Info("qr artifact provisioned",
		zap.String("canonical_id", canonicalID),
		zap.String("artifact", key))
	return key, nil
}

// ProvisionIDs provisions the given ids one at a time; a failure on one id
// is recorded and the batch continues.
func (q *QRService) ProvisionIDs(ctx context.Context, canonicalIDs []string) *ProvisionSummary {
	summary := &ProvisionSummary{}
	for _, id := range canonicalIDs {
		if _, err := q.Provision(ctx, id); err != nil {
			q.logger.Warn("provisioning failed",
				zap.String("canonical_id", id),
				zap.Error(err))
			summary.Failed = append(summary.Failed, RecordOutcome{ID: id, Stage: "provision", Err: err})
			continue
		}
		summary.Provisioned++
	}
	return summary
}

// ProvisionMissing provisions every catalog record that has no artifact yet.
func (q *QRService) ProvisionMissing(ctx context.Context) (*ProvisionSummary, error) {
	records, err := q.store.ScanMissingQRArtifacts(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.CanonicalID)
	}
	return q.ProvisionIDs(ctx, ids), nil
}

func transcodeToJPEG(pngBytes []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
