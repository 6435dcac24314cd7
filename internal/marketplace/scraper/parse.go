package scraper

import "strings"

// ParseDiagnostic records a field that could not be extracted from a page.
// Missing fields are data, not control flow: extraction never aborts on one.
type ParseDiagnostic struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// thumbnail aria-labels read "<name>の画像<price>"; split on the marker.
const ariaLabelMarker = "の画像"

// splitAriaLabel extracts name and price from a result-tile aria-label.
// When the marker is missing the whole label is taken as the name and the
// price is reported as unavailable.
func splitAriaLabel(label string) (name, price string) {
	if idx := strings.Index(label, ariaLabelMarker); idx >= 0 {
		name = strings.TrimSpace(label[:idx])
		price = strings.TrimSpace(label[idx+len(ariaLabelMarker):])
		return name, price
	}
	return strings.TrimSpace(label), "N/A"
}
