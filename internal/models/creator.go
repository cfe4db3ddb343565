package models

type Specialty string

const (
	SpecialtyLifestyle Specialty = "Lifestyle"
	SpecialtyFashion   Specialty = "Fashion"
	SpecialtyFood      Specialty = "Food"
	SpecialtyBeauty    Specialty = "Beauty"
	SpecialtyTravel    Specialty = "Travel"
	SpecialtyFitness   Specialty = "Fitness"
	SpecialtyTech      Specialty = "Tech"
	SpecialtyHome      Specialty = "Home"
)

type CreatorStatus string

const (
	CreatorStatusActive    CreatorStatus = "Active"
	CreatorStatusInactive  CreatorStatus = "Inactive"
	CreatorStatusPending   CreatorStatus = "Pending"
	CreatorStatusSuspended CreatorStatus = "Suspended"
)

// Creator is the stored (wire) form of a creator record. PortfolioItems holds
// the JSON-encoded portfolio list exactly as the table store keeps it.
type Creator struct {
	UID                string        `json:"_uid,omitempty" mapstructure:"_uid"`
	ID                 string        `json:"_id,omitempty" mapstructure:"_id"`
	TID                string        `json:"_tid,omitempty" mapstructure:"_tid"`
	Name               string        `json:"name" mapstructure:"name"`
	Email              string        `json:"email" mapstructure:"email"`
	Specialty          Specialty     `json:"specialty" mapstructure:"specialty"`
	Followers          int64         `json:"followers" mapstructure:"followers"`
	EngagementRate     float64       `json:"engagement_rate" mapstructure:"engagement_rate"`
	RatePerPost        float64       `json:"rate_per_post" mapstructure:"rate_per_post"`
	Instagram          string        `json:"instagram" mapstructure:"instagram"`
	TikTok             string        `json:"tiktok" mapstructure:"tiktok"`
	YouTube            string        `json:"youtube" mapstructure:"youtube"`
	Bio                string        `json:"bio" mapstructure:"bio"`
	Location           string        `json:"location" mapstructure:"location"`
	ImageURL           string        `json:"image_url" mapstructure:"image_url"`
	Status             CreatorStatus `json:"status" mapstructure:"status"`
	Rating             int           `json:"rating" mapstructure:"rating"`
	CompletedCampaigns int           `json:"completed_campaigns" mapstructure:"completed_campaigns"`
	JoinedDate         string        `json:"joined_date" mapstructure:"joined_date"`
	Tags               string        `json:"tags" mapstructure:"tags"`
	PortfolioItems     string        `json:"portfolio_items" mapstructure:"portfolio_items"`
}

// HasKey reports whether both halves of the compound key are present.
func (c Creator) HasKey() bool {
	return c.UID != "" && c.ID != ""
}

// CreatorForm is the editable form of a creator with the portfolio as a list.
type CreatorForm struct {
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Specialty          Specialty       `json:"specialty"`
	Followers          int64           `json:"followers"`
	EngagementRate     float64         `json:"engagement_rate"`
	RatePerPost        float64         `json:"rate_per_post"`
	Instagram          string          `json:"instagram"`
	TikTok             string          `json:"tiktok"`
	YouTube            string          `json:"youtube"`
	Bio                string          `json:"bio"`
	Location           string          `json:"location"`
	ImageURL           string          `json:"image_url"`
	Status             CreatorStatus   `json:"status"`
	Rating             int             `json:"rating"`
	CompletedCampaigns int             `json:"completed_campaigns"`
	Tags               string          `json:"tags"`
	PortfolioItems     []PortfolioItem `json:"portfolio_items"`
}

type PortfolioItem struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	Metrics     PortfolioMetrics `json:"metrics"`
}

type PortfolioMetrics struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}
