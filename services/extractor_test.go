package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const categoryPage = `
<html>
<body>
	<div class="product-card">
		<h3 class="product-title">RS-48 Four Burner Cooktop</h3>
		<p class="product-description">Heavy duty four burner cooktop with flame failure.</p>
		<table class="specifications">
			<tr><th>Width</th><td>450mm</td></tr>
			<tr><th>Gas Type</th><td>NG/LPG</td></tr>
			<tr><th>Orphan label</th></tr>
			<tr><th></th><td>orphan value</td></tr>
		</table>
	</div>
	<div class="product-card">
		<h3 class="product-title">CS-9P Nine Burner Stockpot</h3>
		<p class="product-description">Stockpot boiling table.</p>
	</div>
	<div class="product-card">
		<h3 class="product-title">   </h3>
		<p class="product-description">Block without an identifier token.</p>
	</div>
</body>
</html>`

func TestExtractProducts(t *testing.T) {
	extractor := NewExtractor()

	drafts, err := extractor.ExtractProducts(categoryPage, "Professional", "Cooktops")
	assert.NoError(t, err)

	// Three blocks, one without an identifier: two drafts, document order.
	assert.Len(t, drafts, 2)
	assert.Equal(t, "RS-48", drafts[0].Model)
	assert.Equal(t, "Four Burner Cooktop", drafts[0].Name)
	assert.Equal(t, "Heavy duty four burner cooktop with flame failure.", drafts[0].Description)
	assert.Equal(t, "Professional", drafts[0].Category)
	assert.Equal(t, "Cooktops", drafts[0].Subcategory)
	assert.Equal(t, "CS-9P", drafts[1].Model)

	// Drafts carry no canonical id; that is the reconciler's job.
	assert.Empty(t, drafts[0].CanonicalID)
}

func TestExtractProducts_SpecificationPairing(t *testing.T) {
	extractor := NewExtractor()

	drafts, err := extractor.ExtractProducts(categoryPage, "Professional", "Cooktops")
	assert.NoError(t, err)

	// Rows missing either the label or the value cell are dropped.
	assert.Equal(t, map[string]string{
		"Width":    "450mm",
		"Gas Type": "NG/LPG",
	}, drafts[0].Specifications)
	assert.Nil(t, drafts[1].Specifications)
}

func TestExtractProducts_Deterministic(t *testing.T) {
	extractor := NewExtractor()

	first, err := extractor.ExtractProducts(categoryPage, "Professional", "Cooktops")
	assert.NoError(t, err)
	second, err := extractor.ExtractProducts(categoryPage, "Professional", "Cooktops")
	assert.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractProducts_Empty(t *testing.T) {
	extractor := NewExtractor()

	drafts, err := extractor.ExtractProducts("<html><body></body></html>", "Professional", "")
	assert.NoError(t, err)
	assert.Empty(t, drafts)
}

const partsPage = `
<html>
<body>
	<div class="part-card">
		<h4 class="part-title">LU-1043/B Pilot Burner Assembly</h4>
		<ul class="part-compatibility">
			<li>RS-48</li>
			<li>CS-9P</li>
		</ul>
		<img src="https://cdn.example.com/parts/lu-1043b.jpg">
	</div>
	<div class="part-card">
		<h4 class="part-title">KN.0B77 Control Knob</h4>
	</div>
</body>
</html>`

func TestExtractSpareParts(t *testing.T) {
	extractor := NewExtractor()

	drafts, err := extractor.ExtractSpareParts(partsPage)
	assert.NoError(t, err)
	assert.Len(t, drafts, 2)

	assert.Equal(t, "LU-1043/B", drafts[0].PartNumber)
	assert.Equal(t, "Pilot Burner Assembly", drafts[0].Name)
	assert.Equal(t, []string{"RS-48", "CS-9P"}, drafts[0].Compatibility)
	assert.Equal(t, "https://cdn.example.com/parts/lu-1043b.jpg", drafts[0].ImageSourceURL)

	assert.Equal(t, "KN.0B77", drafts[1].PartNumber)
	assert.Empty(t, drafts[1].Compatibility)
	assert.Empty(t, drafts[1].ImageSourceURL)
}
