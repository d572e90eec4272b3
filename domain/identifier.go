package domain

import (
	"fmt"
	"strings"
)

// SplitTitle splits a scraped product title into its leading identifier
// token and the trailing display name. The first whitespace-delimited token
// is the identifier; this is the single place the splitting rule lives.
func SplitTitle(title string) (id string, name string) {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// ReconcileCatalogID returns the canonical identifier for a catalog record.
// The extracted model token is used verbatim: the store is keyed by it and
// the mobile client expects the exact case and format.
func ReconcileCatalogID(model string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", fmt.Errorf("empty model token: %w", ErrIdentifier)
	}
	return model, nil
}

// DeriveSparePartID mints the canonical identifier for a spare part from
// its raw part number: uppercase, strip everything outside [A-Za-z0-9],
// prefix with the spare-part namespace. The same raw part number always
// yields the same id.
func DeriveSparePartID(partNumber string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(partNumber) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("part number %q empty after stripping: %w", partNumber, ErrIdentifier)
	}
	return SparePartIDPrefix + b.String(), nil
}
