package creators

import (
	"math"

	"creatorstribe/internal/models"
)

// Stats are the admin dashboard aggregates.
type Stats struct {
	TotalCreators   int     `json:"totalCreators"`
	ActiveCreators  int     `json:"activeCreators"`
	PendingCreators int     `json:"pendingCreators"`
	TotalCampaigns  int     `json:"totalCampaigns"`
	AvgRating       float64 `json:"avgRating"`
	TotalRevenue    float64 `json:"totalRevenue"`
}

// ComputeStats aggregates creators. AvgRating is rounded to one decimal;
// revenue is rate_per_post times completed campaigns, summed.
func ComputeStats(creators []models.Creator) Stats {
	var (
		stats     = Stats{TotalCreators: len(creators)}
		ratingSum int
	)
	for _, c := range creators {
		switch c.Status {
		case models.CreatorStatusActive:
			stats.ActiveCreators++
		case models.CreatorStatusPending:
			stats.PendingCreators++
		}
		stats.TotalCampaigns += c.CompletedCampaigns
		ratingSum += c.Rating
		stats.TotalRevenue += c.RatePerPost * float64(c.CompletedCampaigns)
	}
	if len(creators) > 0 {
		stats.AvgRating = math.Round(float64(ratingSum)/float64(len(creators))*10) / 10
	}
	return stats
}
