package creators

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"creatorstribe/internal/models"
)

// EncodePortfolio produces the wire form stored in portfolio_items. A nil list
// encodes as "[]". URLs and text are stored unescaped, so "&" stays "&".
func EncodePortfolio(items []models.PortfolioItem) (string, error) {
	if items == nil {
		items = []models.PortfolioItem{}
	}
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", fmt.Errorf("encode portfolio: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodePortfolio turns the stored string back into a list. Anything that is
// not a JSON array of items decodes to an empty list.
func DecodePortfolio(raw string, log zerolog.Logger) []models.PortfolioItem {
	if raw == "" {
		return []models.PortfolioItem{}
	}
	var items []models.PortfolioItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		log.Warn().Err(err).Int("length", len(raw)).Msg("malformed portfolio_items, using empty list")
		return []models.PortfolioItem{}
	}
	return items
}

// FormFromCreator converts a stored creator into its editable form.
func FormFromCreator(c models.Creator, log zerolog.Logger) models.CreatorForm {
	return models.CreatorForm{
		Name:               c.Name,
		Email:              c.Email,
		Specialty:          c.Specialty,
		Followers:          c.Followers,
		EngagementRate:     c.EngagementRate,
		RatePerPost:        c.RatePerPost,
		Instagram:          c.Instagram,
		TikTok:             c.TikTok,
		YouTube:            c.YouTube,
		Bio:                c.Bio,
		Location:           c.Location,
		ImageURL:           c.ImageURL,
		Status:             c.Status,
		Rating:             c.Rating,
		CompletedCampaigns: c.CompletedCampaigns,
		Tags:               c.Tags,
		PortfolioItems:     DecodePortfolio(c.PortfolioItems, log),
	}
}

// ApplyForm overlays a form onto an existing creator, keeping its key and
// joined date, and encodes the portfolio into wire form.
func ApplyForm(existing models.Creator, form models.CreatorForm) (models.Creator, error) {
	portfolio, err := EncodePortfolio(form.PortfolioItems)
	if err != nil {
		return models.Creator{}, err
	}
	existing.Name = form.Name
	existing.Email = form.Email
	existing.Specialty = form.Specialty
	existing.Followers = form.Followers
	existing.EngagementRate = form.EngagementRate
	existing.RatePerPost = form.RatePerPost
	existing.Instagram = form.Instagram
	existing.TikTok = form.TikTok
	existing.YouTube = form.YouTube
	existing.Bio = form.Bio
	existing.Location = form.Location
	existing.ImageURL = form.ImageURL
	existing.Status = form.Status
	existing.Rating = form.Rating
	existing.CompletedCampaigns = form.CompletedCampaigns
	existing.Tags = form.Tags
	existing.PortfolioItems = portfolio
	return existing, nil
}
