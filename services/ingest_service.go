package services

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-pipeline/domain"
)

// Consumer-side interfaces
type PageSource interface {
	FetchPage(ctx context.Context, url string) (*domain.RenderedPage, error)
}

type RecordExtractor interface {
	ExtractProducts(markup, category, subcategory string) ([]domain.CatalogRecord, error)
	ExtractSpareParts(markup string) ([]domain.SparePartRecord, error)
}

type CatalogWriter interface {
	PutCatalogRecord(ctx context.Context, record domain.CatalogRecord) error
	PutSparePartRecord(ctx context.Context, record domain.SparePartRecord) error
}

type MediaStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type ImageFetcher interface {
	Download(url string) ([]byte, string, error)
}

type JobTracker interface {
	StartJob(ctx context.Context, jobID, url, startedAt string) error
	CompleteJob(ctx context.Context, jobID, status, completedAt string, recordCount int) error
}

type RunGuard interface {
	MarkVisited(ctx context.Context, scope, url string) (bool, error)
}

// RecordOutcome tags one record skipped at the batch boundary with the
// stage that failed, so the record can be retried manually.
type RecordOutcome struct {
	ID    string
	Stage string
	Err   error
}

// IngestSummary reports one batch run. Skips are a summary, not a process
// failure: the run itself only fails on session-level errors.
type IngestSummary struct {
	JobID    string
	PageURL  string
	Ingested int
	Skipped  []RecordOutcome
}

// IngestService runs the scrape → extract → reconcile → upsert pipeline
// for one target page at a time. Records are processed strictly one by one;
// a failure on one record is caught, logged and skipped.
type IngestService struct {
	pages          PageSource
	extractor      RecordExtractor
	store          CatalogWriter
	media          MediaStore
	images         ImageFetcher
	jobs           JobTracker
	guard          RunGuard
	partsNamespace string
	logger         *zap.Logger
}

// Functional Options Pattern
type IngestOption func(*IngestService)

func WithPageSource(p PageSource) IngestOption {
	return func(s *IngestService) { s.pages = p }
}

func WithRecordExtractor(e RecordExtractor) IngestOption {
	return func(s *IngestService) { s.extractor = e }
}

func WithCatalogWriter(w CatalogWriter) IngestOption {
	return func(s *IngestService) { s.store = w }
}

func WithMediaStore(m MediaStore) IngestOption {
	return func(s *IngestService) { s.media = m }
}

func WithImageFetcher(f ImageFetcher) IngestOption {
	return func(s *IngestService) { s.images = f }
}

func WithJobTracker(j JobTracker) IngestOption {
	return func(s *IngestService) { s.jobs = j }
}

func WithRunGuard(g RunGuard) IngestOption {
	return func(s *IngestService) { s.guard = g }
}

func WithPartsNamespace(ns string) IngestOption {
	return func(s *IngestService) { s.partsNamespace = ns }
}

func WithIngestLogger(l *zap.Logger) IngestOption {
	return func(s *IngestService) { s.logger = l }
}

func NewIngestService(opts ...IngestOption) *IngestService {
	s := &IngestService{
		partsNamespace: domain.DefaultPartsNamespace,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestCategory scrapes one category page and upserts every extracted
// catalog record. Session-level failures (navigation, challenge timeout)
// abort the run; per-record failures are skipped and summarized.
func (s *IngestService) IngestCategory(ctx context.Context, url, category, subcategory string) (*IngestSummary, error) {
	jobID := uuid.New().String()
	summary := &IngestSummary{JobID: jobID, PageURL: url}

	if skip, err := s.alreadyVisited(ctx, url); err != nil {
		s.logger.Warn("run guard unavailable, continuing without dedupe", zap.Error(err))
	} else if skip {
		s.logger.Info("page already claimed by a concurrent run, skipping",
			zap.String("url", url))
		return summary, nil
	}

	s.startJob(ctx, jobID, url)

	page, err := s.pages.FetchPage(ctx, url)
	if err != nil {
		s.completeJob(ctx, jobID, domain.StatusFailed, 0)
		return nil, err
	}

	drafts, err := s.extractor.ExtractProducts(page.HTML, category, subcategory)
	if err != nil {
		s.completeJob(ctx, jobID, domain.StatusFailed, 0)
		return nil, err
	}

	for _, draft := range drafts {
		if outcome := s.ingestProduct(ctx, draft); outcome != nil {
			summary.Skipped = append(summary.Skipped, *outcome)
			continue
		}
		summary.Ingested++
	}

	s.completeJob(ctx, jobID, domain.StatusCompleted, summary.Ingested)
	s.logger.Info("category ingested",
		zap.String("job_id", jobID),
		zap.String("url", url),
		zap.Int("ingested", summary.Ingested),
		zap.Int("skipped", len(summary.Skipped)))
	return summary, nil
}

// IngestSpareParts scrapes one spare-parts page. An image failure leaves
// that part's imageRef empty but never drops the part, and one part's
// failure never aborts its siblings.
func (s *IngestService) IngestSpareParts(ctx context.Context, url string) (*IngestSummary, error) {
	jobID := uuid.New().String()
	summary := &IngestSummary{JobID: jobID, PageURL: url}

	if skip, err := s.alreadyVisited(ctx, url); err != nil {
		s.logger.Warn("run guard unavailable, continuing without dedupe", zap.Error(err))
	} else if skip {
		s.logger.Info("page already claimed by a concurrent run, skipping",
			zap.String("url", url))
		return summary, nil
	}

	s.startJob(ctx, jobID, url)

	page, err := s.pages.FetchPage(ctx, url)
	if err != nil {
		s.completeJob(ctx, jobID, domain.StatusFailed, 0)
		return nil, err
	}

	drafts, err := s.extractor.ExtractSpareParts(page.HTML)
	if err != nil {
		s.completeJob(ctx, jobID, domain.StatusFailed, 0)
		return nil, err
	}

	for _, draft := range drafts {
		if outcome := s.ingestSparePart(ctx, draft); outcome != nil {
			summary.Skipped = append(summary.Skipped, *outcome)
			continue
		}
		summary.Ingested++
	}

	s.completeJob(ctx, jobID, domain.StatusCompleted, summary.Ingested)
	s.logger.Info("spare parts ingested",
		zap.String("job_id", jobID),
		zap.String("url", url),
		zap.Int("ingested", summary.Ingested),
		zap.Int("skipped", len(summary.Skipped)))
	return summary, nil
}

// ingestProduct is the per-record boundary: any failure is returned as a
// tagged outcome, never propagated.
func (s *IngestService) ingestProduct(ctx context.Context, draft domain.CatalogRecord) *RecordOutcome {
	canonicalID, err := domain.ReconcileCatalogID(draft.Model)
	if err != nil {
		s.logger.Warn("record skipped",
			zap.String("model", draft.Model),
			zap.String("stage", "reconcile"),
			zap.Error(err))
		return &RecordOutcome{ID: draft.Model, Stage: "reconcile", Err: err}
	}

	draft.CanonicalID = canonicalID
	draft.ScrapedAt = time.Now().UTC()

	if err := s.store.PutCatalogRecord(ctx, draft); err != nil {
		s.logger.Warn("record skipped",
			zap.String("canonical_id", canonicalID),
			zap.String("stage", "upsert"),
			zap.Error(err))
		return &RecordOutcome{ID: canonicalID, Stage: "upsert", Err: err}
	}
	return nil
}

func (s *IngestService) ingestSparePart(ctx context.Context, draft domain.SparePartRecord) *RecordOutcome {
	sparePartID, err := domain.DeriveSparePartID(draft.PartNumber)
	if err != nil {
		s.logger.Warn("part skipped",
			zap.String("part_number", draft.PartNumber),
			zap.String("stage", "reconcile"),
			zap.Error(err))
		return &RecordOutcome{ID: draft.PartNumber, Stage: "reconcile", Err: err}
	}
	draft.SparePartID = sparePartID
	draft.ScrapedAt = time.Now().UTC()

	if draft.ImageSourceURL != "" {
		ref, err := s.ingestImage(ctx, sparePartID, draft.ImageSourceURL)
		if err != nil {
			// The part is still ingested; only its image reference stays empty.
			s.logger.Warn("image ingestion failed, part kept without image",
				zap.String("spare_part_id", sparePartID),
				zap.String("image_url", draft.ImageSourceURL),
				zap.Error(err))
		} else {
			draft.ImageRef = ref
		}
	}

	if err := s.store.PutSparePartRecord(ctx, draft); err != nil {
		s.logger.Warn("part skipped",
			zap.String("spare_part_id", sparePartID),
			zap.String("stage", "upsert"),
			zap.Error(err))
		return &RecordOutcome{ID: sparePartID, Stage: "upsert", Err: err}
	}
	return nil
}

// ingestImage fetches a remote image and re-hosts it at a path scoped to
// the part's canonical id.
func (s *IngestService) ingestImage(ctx context.Context, sparePartID, imageURL string) (string, error) {
	data, contentType, err := s.images.Download(imageURL)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s.%s", s.partsNamespace, sparePartID, fileExtension(imageURL, contentType))
	return s.media.Upload(ctx, key, data, contentType)
}

func (s *IngestService) alreadyVisited(ctx context.Context, url string) (bool, error) {
	if s.guard == nil {
		return false, nil
	}
	// Visited sets are scoped per UTC day so tomorrow's run re-scrapes.
	scope := time.Now().UTC().Format("2006-01-02")
	first, err := s.guard.MarkVisited(ctx, scope, url)
	if err != nil {
		return false, err
	}
	return !first, nil
}

func (s *IngestService) startJob(ctx context.Context, jobID, url string) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.StartJob(ctx, jobID, url, time.Now().UTC().Format(time.RFC3339)); err != nil {
		s.logger.Warn("failed to record job start", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *IngestService) completeJob(ctx context.Context, jobID, status string, count int) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.CompleteJob(ctx, jobID, status, time.Now().UTC().Format(time.RFC3339), count); err != nil {
		s.logger.Warn("failed to record job completion", zap.String("job_id", jobID), zap.Error(err))
	}
}

// imageExtensions maps the content types the vendor serves to stable
// storage extensions. mime.ExtensionsByType is avoided: its ordering
// depends on the host's mime tables and would make keys unstable.
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/avif": "avif",
}

// fileExtension derives a storage extension from the content type, falling
// back to the URL path.
func fileExtension(url, contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil {
		if ext, ok := imageExtensions[mediaType]; ok {
			return ext
		}
	}

	urlExt := filepath.Ext(strings.Split(url, "?")[0])
	if urlExt != "" && len(urlExt) < 6 {
		return strings.TrimPrefix(urlExt, ".")
	}

	return "bin"
}
