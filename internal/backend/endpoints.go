package backend

import (
	"context"
	"net/http"
	"net/url"

	"cmsadmin/internal/model"
)

// Resource names as the backend spells them
const (
	Articles   = "article"
	Careers    = "career"
	Products   = "product"
	Schedules  = "schedule"
	Promotions = "promotion"
	Users      = "user"
	Socials    = "socmed"
	Assets     = "asset"
	Metadatas  = "metadata"
	Services   = "service"
)

// BulkCreateSchedules creates every imported row under productID
func (c *Client) BulkCreateSchedules(ctx context.Context, productID string, records []model.ScheduleImport) error {
	_, err := c.mutate(ctx, Schedules, call{
		op:     "import schedules",
		method: http.MethodPost,
		path:   "/schedule/add-bulk",
		body: JSONBody{V: map[string]any{
			"data":       records,
			"product_id": productID,
		}},
		want: http.StatusCreated,
	})
	return err
}

// Applicants lists the applicants of one career posting
func (c *Client) Applicants(ctx context.Context, careerID string, q url.Values) (Envelope[[]model.Applicant], error) {
	op := "list applicants"
	env, err := c.get(ctx, call{
		op:    op,
		path:  "/career/" + url.PathEscape(careerID) + "/applicants",
		query: q,
		want:  http.StatusOK,
	})
	if err != nil {
		return Envelope[[]model.Applicant]{}, err
	}
	return decodeData[[]model.Applicant](op, env)
}

func (c *Client) Applicant(ctx context.Context, id string) (model.Applicant, error) {
	op := "get applicant"
	env, err := c.get(ctx, call{op: op, path: "/career/applicant/" + url.PathEscape(id), want: http.StatusOK})
	if err != nil {
		return model.Applicant{}, err
	}
	out, err := decodeData[model.Applicant](op, env)
	return out.Data, err
}

func (c *Client) SetApplicantStatus(ctx context.Context, id string, status model.ApplicantStatus) error {
	_, err := c.mutate(ctx, Careers, call{
		op:     "update applicant status",
		method: http.MethodPut,
		path:   "/career/applicant/" + url.PathEscape(id) + "/status",
		body:   JSONBody{V: map[string]any{"status": status}},
		want:   http.StatusOK,
	})
	return err
}

func (c *Client) DeleteApplicant(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, Careers, call{
		op:     "delete applicant",
		method: http.MethodDelete,
		path:   "/career/applicant/" + url.PathEscape(id),
		want:   http.StatusOK,
	})
	return err
}

// SetPromotionActive switches a promotion banner on or off
func (c *Client) SetPromotionActive(ctx context.Context, id string, active bool) error {
	_, err := c.mutate(ctx, Promotions, call{
		op:     "activate promotion",
		method: http.MethodPut,
		path:   "/promotion/activate/" + url.PathEscape(id),
		body:   JSONBody{V: map[string]any{"is_active": active}},
		want:   http.StatusOK,
	})
	return err
}

// UpdateAssetURL points an asset slot at already uploaded media
func (c *Client) UpdateAssetURL(ctx context.Context, id, mainURL, fallbackURL string) error {
	_, err := c.mutate(ctx, Assets, call{
		op:     "update asset",
		method: http.MethodPut,
		path:   "/asset/adjust/" + url.PathEscape(id),
		body:   JSONBody{V: map[string]any{"url": mainURL, "fallback_url": fallbackURL}},
		want:   http.StatusOK,
	})
	return err
}

// MetadataByPage returns the SEO metadata of a site page
func (c *Client) MetadataByPage(ctx context.Context, page string) (model.Metadata, error) {
	op := "get metadata"
	env, err := c.get(ctx, call{op: op, path: "/metadata/page/" + url.PathEscape(page), want: http.StatusOK})
	if err != nil {
		return model.Metadata{}, err
	}
	out, err := decodeData[model.Metadata](op, env)
	return out.Data, err
}

func (c *Client) PublishMetadata(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, Metadatas, call{
		op:     "publish metadata",
		method: http.MethodPut,
		path:   "/metadata/publish/" + url.PathEscape(id),
		want:   http.StatusOK,
	})
	return err
}
