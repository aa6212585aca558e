package dto

import "github.com/mentoria/mentoria-api/internal/models"

// FeatureListResponse reports the features enabled for the requesting user.
type FeatureListResponse struct {
	Features []models.FeatureKey `json:"features"`
	Cached   bool                `json:"cached"`
}
