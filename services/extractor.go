package services

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"catalog-pipeline/domain"
)

// Selectors for the vendor's rendered product pages.
const (
	productBlockSelector = "div.product-card"
	productTitleSelector = ".product-title"
	productDescSelector  = ".product-description"
	productSpecsSelector = "table.specifications tr"

	partBlockSelector  = "div.part-card"
	partTitleSelector  = ".part-title"
	partCompatSelector = ".part-compatibility li"
	partImageSelector  = "img"
)

// Extractor turns rendered markup into record drafts. It is pure: no
// network, no disk, and the same markup always yields the same output in
// document order.
type Extractor struct {
	logger *zap.Logger
}

type ExtractorOption func(*Extractor)

func WithExtractorLogger(logger *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = logger }
}

func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractProducts pulls catalog record drafts from a category page. Blocks
// with no identifier token are skipped with a warning, never fatal to the
// batch. CanonicalID is left for the reconciler.
func (e *Extractor) ExtractProducts(markup, category, subcategory string) ([]domain.CatalogRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %v", err)
	}

	var drafts []domain.CatalogRecord
	doc.Find(productBlockSelector).Each(func(i int, block *goquery.Selection) {
		title := cleanText(block.Find(productTitleSelector).First().Text())
		model, name := domain.SplitTitle(title)
		if model == "" {
			e.logger.Warn("product block has no identifier token, skipping",
				zap.Int("block", i),
				zap.String("category", category))
			return
		}

		drafts = append(drafts, domain.CatalogRecord{
			Model:          model,
			Name:           name,
			Description:    cleanText(block.Find(productDescSelector).First().Text()),
			Category:       category,
			Subcategory:    subcategory,
			Specifications: extractSpecifications(block),
		})
	})

	return drafts, nil
}

// ExtractSpareParts pulls spare-part drafts from a parts page. SparePartID
// is left for the reconciler; ImageSourceURL carries the remote image
// location for the ingestion step.
func (e *Extractor) ExtractSpareParts(markup string) ([]domain.SparePartRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %v", err)
	}

	var drafts []domain.SparePartRecord
	doc.Find(partBlockSelector).Each(func(i int, block *goquery.Selection) {
		title := cleanText(block.Find(partTitleSelector).First().Text())
		partNumber, name := domain.SplitTitle(title)
		if partNumber == "" {
			e.logger.Warn("part block has no identifier token, skipping", zap.Int("block", i))
			return
		}

		var compatibility []string
		block.Find(partCompatSelector).Each(func(_ int, li *goquery.Selection) {
			if model := cleanText(li.Text()); model != "" {
				compatibility = append(compatibility, model)
			}
		})

		imageURL, _ := block.Find(partImageSelector).First().Attr("src")

		drafts = append(drafts, domain.SparePartRecord{
			PartNumber:     partNumber,
			Name:           name,
			Compatibility:  compatibility,
			ImageSourceURL: imageURL,
		})
	})

	return drafts, nil
}

// extractSpecifications pairs adjacent label and value cells row by row.
// Rows missing either side are dropped.
func extractSpecifications(block *goquery.Selection) map[string]string {
	specs := make(map[string]string)
	block.Find(productSpecsSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		label := cleanText(cells.Eq(0).Text())
		value := cleanText(cells.Eq(1).Text())
		if label == "" || value == "" {
			return
		}
		specs[label] = value
	})
	if len(specs) == 0 {
		return nil
	}
	return specs
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
