package types

// ItemSummary is a lightweight search-result record. Prices keep the
// marketplace-native formatting (e.g. "¥25,000"); they are display strings,
// not numbers. ItemID is the reconciliation key and may be absent or
// duplicated in malformed scrapes, so all matching on it compares strings
// and tolerates misses.
type ItemSummary struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image,omitempty"`
	URL      string `json:"url,omitempty"`
	ItemID   string `json:"item_id,omitempty"`
	ItemType string `json:"item_type,omitempty"`
}

// ItemDetail extends ItemSummary with detail-page fields. It is always
// constructed from a summary; when the detail fetch fails the summary fields
// carry through unchanged and the rest stay empty.
type ItemDetail struct {
	ItemSummary

	Description       string   `json:"description,omitempty"`
	Condition         string   `json:"condition,omitempty"`
	Categories        []string `json:"categories,omitempty"`
	Images            []string `json:"images,omitempty"`
	SellerName        string   `json:"seller_name,omitempty"`
	SellerRating      string   `json:"seller_rating,omitempty"`
	SellerRatingCount string   `json:"seller_rating_count,omitempty"`
}

// NewDetailFromSummary builds a summary-only detail record. Used as the
// degraded result when a detail fetch fails.
func NewDetailFromSummary(s ItemSummary) ItemDetail {
	return ItemDetail{ItemSummary: s}
}
