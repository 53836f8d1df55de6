/**
 * @description
 * This file defines the core domain models for the donation-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Amounts are stored as `int64` values in cents to avoid floating-point
 *   inaccuracies with financial data. The public API exposes amounts in
 *   currency units (dollars) to match what the campaign page renders.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Campaign represents the fundraising campaign being displayed. Usually only
// one campaign is active at a time.
type Campaign struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	GoalAmountCents    int64      `json:"-"`
	CurrentAmountCents int64      `json:"-"`
	IsActive           bool       `json:"is_active"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	FeaturedImage      string     `json:"featured_image"`
	FeaturedVideoURL   string     `json:"featured_video_url"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ProgressPercentage is the percentage of the goal raised so far, clamped to
// 100 for display. The raw current amount remains authoritative.
func (c *Campaign) ProgressPercentage() float64 {
	if c.GoalAmountCents <= 0 {
		return 0
	}
	pct := float64(c.CurrentAmountCents) / float64(c.GoalAmountCents) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// CampaignProjection is the read model returned by GET /api/donations/campaign.
// It mirrors the shape the campaign page binds to, with amounts in currency units.
type CampaignProjection struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	GoalAmount         float64    `json:"goal_amount"`
	CurrentAmount      float64    `json:"current_amount"`
	ProgressPercentage float64    `json:"progress_percentage"`
	TicketsSold        int64      `json:"tickets_sold"`
	IsActive           bool       `json:"is_active"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	FeaturedImage      string     `json:"featured_image"`
	FeaturedVideoURL   string     `json:"featured_video_url"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Projection builds the API read model for a campaign.
func (c *Campaign) Projection(ticketsSold int64) CampaignProjection {
	return CampaignProjection{
		ID:                 c.ID,
		Title:              c.Title,
		Description:        c.Description,
		GoalAmount:         CentsToAmount(c.GoalAmountCents),
		CurrentAmount:      CentsToAmount(c.CurrentAmountCents),
		ProgressPercentage: c.ProgressPercentage(),
		TicketsSold:        ticketsSold,
		IsActive:           c.IsActive,
		StartDate:          c.StartDate,
		EndDate:            c.EndDate,
		FeaturedImage:      c.FeaturedImage,
		FeaturedVideoURL:   c.FeaturedVideoURL,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// CampaignUpdate is a progress update posted to the campaign page. Updates can
// carry an image, a direct video URL, or a full embed snippet.
type CampaignUpdate struct {
	ID             uuid.UUID `json:"id"`
	CampaignID     uuid.UUID `json:"-"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	ImageURL       string    `json:"image_url"`
	VideoURL       string    `json:"video_url"`
	VideoEmbedCode string    `json:"video_embed_code"`
	HasVideo       bool      `json:"has_video"`
	CreatedAt      time.Time `json:"created_at"`
}
