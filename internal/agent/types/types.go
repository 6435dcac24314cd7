package types

import (
	mtypes "github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/types"
)

// RecommendationResult is the final artifact returned to the caller: the
// assistant's natural-language message plus the enriched products from the
// last completed enrichment stage.
type RecommendationResult struct {
	Message  string              `json:"message"`
	Products []mtypes.ItemDetail `json:"products"`
}

// RecommendRequest is the HTTP request body for the recommend endpoint.
type RecommendRequest struct {
	Input string `json:"input" binding:"required"`
}
