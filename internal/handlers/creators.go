package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"creatorstribe/internal/creators"
	"creatorstribe/internal/middleware"
	"creatorstribe/internal/models"
	"creatorstribe/internal/tablestore"
)

const maxPageSize = 100

type portfolioItemRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
	Metrics     struct {
		Views    int64 `json:"views" binding:"gte=0"`
		Likes    int64 `json:"likes" binding:"gte=0"`
		Comments int64 `json:"comments" binding:"gte=0"`
	} `json:"metrics"`
}

type creatorRequest struct {
	Name               string                 `json:"name" binding:"required,max=200"`
	Email              string                 `json:"email" binding:"required,email"`
	Specialty          string                 `json:"specialty" binding:"required,oneof=Lifestyle Fashion Food Beauty Travel Fitness Tech Home"`
	Followers          int64                  `json:"followers" binding:"gte=0"`
	EngagementRate     float64                `json:"engagement_rate" binding:"gte=0,lte=100"`
	RatePerPost        float64                `json:"rate_per_post" binding:"gte=0"`
	Instagram          string                 `json:"instagram" binding:"max=200"`
	TikTok             string                 `json:"tiktok" binding:"max=200"`
	YouTube            string                 `json:"youtube" binding:"max=200"`
	Bio                string                 `json:"bio" binding:"max=5000"`
	Location           string                 `json:"location" binding:"max=200"`
	ImageURL           string                 `json:"image_url" binding:"omitempty,url"`
	Status             string                 `json:"status" binding:"required,oneof=Active Inactive Pending Suspended"`
	Rating             int                    `json:"rating" binding:"required,min=1,max=5"`
	CompletedCampaigns int                    `json:"completed_campaigns" binding:"gte=0"`
	Tags               string                 `json:"tags" binding:"max=1000"`
	PortfolioItems     []portfolioItemRequest `json:"portfolio_items" binding:"omitempty,max=50,dive"`
}

func (r creatorRequest) form() models.CreatorForm {
	items := make([]models.PortfolioItem, 0, len(r.PortfolioItems))
	for _, item := range r.PortfolioItems {
		items = append(items, models.PortfolioItem{
			Title:       item.Title,
			Description: item.Description,
			ImageURL:    item.ImageURL,
			Metrics: models.PortfolioMetrics{
				Views:    item.Metrics.Views,
				Likes:    item.Metrics.Likes,
				Comments: item.Metrics.Comments,
			},
		})
	}
	return models.CreatorForm{
		Name:               r.Name,
		Email:              r.Email,
		Specialty:          models.Specialty(r.Specialty),
		Followers:          r.Followers,
		EngagementRate:     r.EngagementRate,
		RatePerPost:        r.RatePerPost,
		Instagram:          r.Instagram,
		TikTok:             r.TikTok,
		YouTube:            r.YouTube,
		Bio:                r.Bio,
		Location:           r.Location,
		ImageURL:           r.ImageURL,
		Status:             models.CreatorStatus(r.Status),
		Rating:             r.Rating,
		CompletedCampaigns: r.CompletedCampaigns,
		Tags:               r.Tags,
		PortfolioItems:     items,
	}
}

type creatorDetail struct {
	Creator   models.Creator         `json:"creator"`
	Portfolio []models.PortfolioItem `json:"portfolio"`
	Form      models.CreatorForm     `json:"form"`
}

// publicCreator is the directory view; contact details and rates stay
// admin-only.
type publicCreator struct {
	UID                string                 `json:"uid"`
	ID                 string                 `json:"id"`
	Name               string                 `json:"name"`
	Specialty          models.Specialty       `json:"specialty"`
	Followers          int64                  `json:"followers"`
	EngagementRate     float64                `json:"engagement_rate"`
	Instagram          string                 `json:"instagram"`
	TikTok             string                 `json:"tiktok"`
	YouTube            string                 `json:"youtube"`
	Bio                string                 `json:"bio"`
	Location           string                 `json:"location"`
	ImageURL           string                 `json:"image_url"`
	Rating             int                    `json:"rating"`
	CompletedCampaigns int                    `json:"completed_campaigns"`
	Tags               string                 `json:"tags"`
	Portfolio          []models.PortfolioItem `json:"portfolio,omitempty"`
}

func toPublic(c models.Creator) publicCreator {
	return publicCreator{
		UID:                c.UID,
		ID:                 c.ID,
		Name:               c.Name,
		Specialty:          c.Specialty,
		Followers:          c.Followers,
		EngagementRate:     c.EngagementRate,
		Instagram:          c.Instagram,
		TikTok:             c.TikTok,
		YouTube:            c.YouTube,
		Bio:                c.Bio,
		Location:           c.Location,
		ImageURL:           c.ImageURL,
		Rating:             c.Rating,
		CompletedCampaigns: c.CompletedCampaigns,
		Tags:               c.Tags,
	}
}

func filterFromQuery(c *gin.Context) (creators.Filter, bool) {
	filter := creators.Filter{
		Specialty:  models.Specialty(c.Query("specialty")),
		Status:     models.CreatorStatus(c.Query("status")),
		SearchTerm: c.Query("search"),
		Cursor:     c.Query("cursor"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxPageSize {
			return creators.Filter{}, false
		}
		filter.Limit = limit
	}
	return filter, true
}

func (h HandlerSet) listError(c *gin.Context, err error) {
	if errors.Is(err, tablestore.ErrInvalidCursor) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch creators"})
}

// PublicListCreators lists Active creators. The store takes one filter, so
// when a specialty is given the Active restriction is applied to the page.
func (h HandlerSet) PublicListCreators(c *gin.Context) {
	filter, ok := filterFromQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	filter.Status = models.CreatorStatusActive

	result, err := h.creators.List(c.Request.Context(), filter)
	if err != nil {
		h.listError(c, err)
		return
	}

	items := make([]publicCreator, 0, len(result.Creators))
	for _, creator := range result.Creators {
		if creator.Status != models.CreatorStatusActive {
			continue
		}
		items = append(items, toPublic(creator))
	}

	c.JSON(http.StatusOK, gin.H{
		"creators":   items,
		"nextCursor": result.NextCursor,
	})
}

func (h HandlerSet) PublicGetCreator(c *gin.Context) {
	creator, found, err := h.creators.Get(c.Request.Context(), c.Param("uid"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch creator"})
		return
	}
	if !found || creator.Status != models.CreatorStatusActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "creator not found"})
		return
	}

	view := toPublic(creator)
	view.Portfolio = creators.DecodePortfolio(creator.PortfolioItems, h.log)
	c.JSON(http.StatusOK, gin.H{"creator": view})
}

func (h HandlerSet) AdminListCreators(c *gin.Context) {
	filter, ok := filterFromQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	result, err := h.creators.List(c.Request.Context(), filter)
	if err != nil {
		h.listError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"creators":   result.Creators,
		"nextCursor": result.NextCursor,
	})
}

func (h HandlerSet) AdminGetCreator(c *gin.Context) {
	creator, found, err := h.creators.Get(c.Request.Context(), c.Param("uid"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch creator"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "creator not found"})
		return
	}

	form := creators.FormFromCreator(creator, h.log)
	c.JSON(http.StatusOK, creatorDetail{
		Creator:   creator,
		Portfolio: form.PortfolioItems,
		Form:      form,
	})
}

func (h HandlerSet) AdminCreateCreator(c *gin.Context) {
	var req creatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if principal, ok := middleware.CurrentPrincipal(c); ok {
		ctx = tablestore.WithOwner(ctx, principal.Admin.ID)
	}

	key, err := h.creators.Create(ctx, req.form())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create creator"})
		return
	}
	h.stats.Invalidate(ctx)

	c.JSON(http.StatusCreated, gin.H{"uid": key.UID, "id": key.ID})
}

// AdminUpdateCreator overwrites the whole record. Concurrent edits are last
// write wins.
func (h HandlerSet) AdminUpdateCreator(c *gin.Context) {
	var req creatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	existing, found, err := h.creators.Get(ctx, c.Param("uid"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch creator"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "creator not found"})
		return
	}

	updated, err := creators.ApplyForm(existing, req.form())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.creators.Update(ctx, updated); err != nil {
		switch {
		case errors.Is(err, creators.ErrMissingKey):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, tablestore.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "creator not found"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update creator"})
		}
		return
	}
	h.stats.Invalidate(ctx)

	c.JSON(http.StatusOK, gin.H{"creator": updated})
}

func (h HandlerSet) AdminDeleteCreator(c *gin.Context) {
	if err := h.creators.Delete(c.Request.Context(), c.Param("uid"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to delete creator"})
		return
	}
	h.stats.Invalidate(c.Request.Context())

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) AdminStats(c *gin.Context) {
	stats, err := h.stats.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
