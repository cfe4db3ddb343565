package creators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"

	"creatorstribe/internal/models"
	"creatorstribe/internal/tablestore"
)

var ErrMissingKey = errors.New("creator must have _uid and _id for updates")

const (
	defaultPageSize = 50
	fixedPageSize   = 100

	// joinedDateLayout matches ISO-8601 with millisecond precision.
	joinedDateLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Filter narrows List. Specialty wins over Status when both are set because
// the store accepts a single equality filter. SearchTerm is applied to the
// fetched page only.
type Filter struct {
	Specialty  models.Specialty
	Status     models.CreatorStatus
	SearchTerm string
	Limit      int
	Cursor     string
}

type ListResult struct {
	Creators   []models.Creator
	NextCursor string
}

// Repository is the typed creator façade over the table store. It holds no
// mutable state; concurrent updates are last-write-wins at the store.
type Repository struct {
	store tablestore.Store
	table string
	log   zerolog.Logger
	now   func() time.Time
}

func NewRepository(store tablestore.Store, table string, log zerolog.Logger) *Repository {
	return &Repository{
		store: store,
		table: table,
		log:   log.With().Str("component", "creators").Str("table", table).Logger(),
		now:   time.Now,
	}
}

func (r *Repository) List(ctx context.Context, filter Filter) (ListResult, error) {
	opts := tablestore.QueryOptions{
		Sort:   tablestore.FieldID,
		Order:  tablestore.OrderDesc,
		Limit:  filter.Limit,
		Cursor: filter.Cursor,
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultPageSize
	}
	if filter.Specialty != "" {
		opts.Filter = map[string]any{"specialty": string(filter.Specialty)}
	} else if filter.Status != "" {
		opts.Filter = map[string]any{"status": string(filter.Status)}
	}

	page, err := r.store.Query(ctx, r.table, opts)
	if err != nil {
		r.log.Error().Err(err).Interface("filter", opts.Filter).Msg("fetch creators failed")
		return ListResult{}, err
	}

	creators, err := decodeAll(page.Items)
	if err != nil {
		r.log.Error().Err(err).Msg("decode creators failed")
		return ListResult{}, err
	}

	if term := strings.TrimSpace(filter.SearchTerm); term != "" {
		creators = Search(creators, term)
	}

	return ListResult{Creators: creators, NextCursor: page.NextCursor}, nil
}

// Search keeps creators whose name, email, specialty or location contains
// term, ignoring case.
func Search(creators []models.Creator, term string) []models.Creator {
	needle := strings.ToLower(term)
	out := make([]models.Creator, 0, len(creators))
	for _, c := range creators {
		if strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Email), needle) ||
			strings.Contains(strings.ToLower(string(c.Specialty)), needle) ||
			strings.Contains(strings.ToLower(c.Location), needle) {
			out = append(out, c)
		}
	}
	return out
}

// Get looks a creator up by compound key. A missing record is reported with
// found == false and a nil error.
func (r *Repository) Get(ctx context.Context, uid, id string) (models.Creator, bool, error) {
	page, err := r.store.Query(ctx, r.table, tablestore.QueryOptions{
		Filter: map[string]any{tablestore.FieldUID: uid, tablestore.FieldID: id},
		Limit:  1,
	})
	if err != nil {
		r.log.Error().Err(err).Str("uid", uid).Str("id", id).Msg("fetch creator failed")
		return models.Creator{}, false, err
	}
	if len(page.Items) == 0 {
		return models.Creator{}, false, nil
	}

	creator, err := decode(page.Items[0])
	if err != nil {
		r.log.Error().Err(err).Str("uid", uid).Str("id", id).Msg("decode creator failed")
		return models.Creator{}, false, err
	}
	return creator, true, nil
}

func (r *Repository) Create(ctx context.Context, form models.CreatorForm) (tablestore.Key, error) {
	portfolio, err := EncodePortfolio(form.PortfolioItems)
	if err != nil {
		r.log.Error().Err(err).Msg("create creator failed")
		return tablestore.Key{}, err
	}

	record := tablestore.Record{
		"name":                form.Name,
		"email":               form.Email,
		"specialty":           string(form.Specialty),
		"followers":           form.Followers,
		"engagement_rate":     form.EngagementRate,
		"rate_per_post":       form.RatePerPost,
		"instagram":           form.Instagram,
		"tiktok":              form.TikTok,
		"youtube":             form.YouTube,
		"bio":                 form.Bio,
		"location":            form.Location,
		"image_url":           form.ImageURL,
		"status":              string(form.Status),
		"rating":              form.Rating,
		"completed_campaigns": form.CompletedCampaigns,
		"joined_date":         r.now().UTC().Format(joinedDateLayout),
		"tags":                form.Tags,
		"portfolio_items":     portfolio,
	}

	key, err := r.store.Insert(ctx, r.table, record)
	if err != nil {
		r.log.Error().Err(err).Str("email", form.Email).Msg("create creator failed")
		return tablestore.Key{}, err
	}
	return key, nil
}

// Update replaces the whole stored record. There is no version check.
func (r *Repository) Update(ctx context.Context, creator models.Creator) error {
	if !creator.HasKey() {
		r.log.Error().Err(ErrMissingKey).Msg("update creator rejected")
		return ErrMissingKey
	}

	record := tablestore.Record{
		tablestore.FieldUID:   creator.UID,
		tablestore.FieldID:    creator.ID,
		"name":                creator.Name,
		"email":               creator.Email,
		"specialty":           string(creator.Specialty),
		"followers":           creator.Followers,
		"engagement_rate":     creator.EngagementRate,
		"rate_per_post":       creator.RatePerPost,
		"instagram":           creator.Instagram,
		"tiktok":              creator.TikTok,
		"youtube":             creator.YouTube,
		"bio":                 creator.Bio,
		"location":            creator.Location,
		"image_url":           creator.ImageURL,
		"status":              string(creator.Status),
		"rating":              creator.Rating,
		"completed_campaigns": creator.CompletedCampaigns,
		"joined_date":         creator.JoinedDate,
		"tags":                creator.Tags,
		"portfolio_items":     creator.PortfolioItems,
	}

	if err := r.store.Replace(ctx, r.table, record); err != nil {
		r.log.Error().Err(err).Str("uid", creator.UID).Str("id", creator.ID).Msg("update creator failed")
		return err
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, uid, id string) error {
	if err := r.store.Remove(ctx, r.table, tablestore.Key{UID: uid, ID: id}); err != nil {
		r.log.Error().Err(err).Str("uid", uid).Str("id", id).Msg("delete creator failed")
		return err
	}
	return nil
}

func (r *Repository) ListBySpecialty(ctx context.Context, specialty models.Specialty) ([]models.Creator, error) {
	return r.listBy(ctx, "specialty", string(specialty))
}

func (r *Repository) ListByStatus(ctx context.Context, status models.CreatorStatus) ([]models.Creator, error) {
	return r.listBy(ctx, "status", string(status))
}

func (r *Repository) listBy(ctx context.Context, field, value string) ([]models.Creator, error) {
	page, err := r.store.Query(ctx, r.table, tablestore.QueryOptions{
		Filter: map[string]any{field: value},
		Sort:   tablestore.FieldID,
		Order:  tablestore.OrderDesc,
		Limit:  fixedPageSize,
	})
	if err != nil {
		r.log.Error().Err(err).Str(field, value).Msg("fetch creators failed")
		return nil, err
	}
	return decodeAll(page.Items)
}

// All walks every page. Used for dashboard aggregates.
func (r *Repository) All(ctx context.Context) ([]models.Creator, error) {
	var (
		all    []models.Creator
		cursor string
	)
	for {
		result, err := r.List(ctx, Filter{Limit: fixedPageSize, Cursor: cursor})
		if err != nil {
			return nil, err
		}
		all = append(all, result.Creators...)
		if result.NextCursor == "" {
			return all, nil
		}
		cursor = result.NextCursor
	}
}

func decodeAll(records []tablestore.Record) ([]models.Creator, error) {
	out := make([]models.Creator, 0, len(records))
	for _, record := range records {
		creator, err := decode(record)
		if err != nil {
			return nil, err
		}
		out = append(out, creator)
	}
	return out, nil
}

func decode(record tablestore.Record) (models.Creator, error) {
	var creator models.Creator
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &creator,
	})
	if err != nil {
		return models.Creator{}, err
	}
	if err := decoder.Decode(map[string]any(record)); err != nil {
		return models.Creator{}, fmt.Errorf("decode creator %s: %w", record.Key().ID, err)
	}
	return creator, nil
}
