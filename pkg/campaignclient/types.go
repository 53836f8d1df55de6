/**
 * @description
 * Wire types for the campaign API. These mirror the backend's JSON read
 * models and DTOs; amounts are in currency units on the wire.
 */

package campaignclient

import "time"

// Campaign is the read model for the active fundraising campaign.
type Campaign struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	GoalAmount         float64    `json:"goal_amount"`
	CurrentAmount      float64    `json:"current_amount"`
	ProgressPercentage float64    `json:"progress_percentage"`
	IsActive           bool       `json:"is_active"`
	TicketsSold        int        `json:"tickets_sold"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	ImageURL           string     `json:"image_url,omitempty"`
	VideoURL           string     `json:"video_url,omitempty"`
}

// CampaignUpdate is one progress post on the campaign page.
type CampaignUpdate struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	VideoURL  string    `json:"video_url,omitempty"`
	HasVideo  bool      `json:"has_video"`
	CreatedAt time.Time `json:"created_at"`
}

// Donation is the public projection of a completed donation.
type Donation struct {
	ID             string    `json:"id"`
	Amount         float64   `json:"amount"`
	TicketQuantity int       `json:"ticket_quantity"`
	DonorName      string    `json:"donor_name"`
	IsAnonymous    bool      `json:"is_anonymous"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// DonationRequest is the create-donation payload. Amount is the grand total
// in currency units: ticket subtotal plus any extra donation.
type DonationRequest struct {
	Amount         float64 `json:"amount"`
	TicketQuantity int     `json:"ticket_quantity"`
	DonorName      string  `json:"donor_name"`
	DonorEmail     string  `json:"donor_email"`
	Message        string  `json:"message"`
	IsAnonymous    bool    `json:"is_anonymous"`
}

// CheckoutSession is the server's answer to a donation submission.
type CheckoutSession struct {
	CheckoutURL string `json:"checkout_url"`
	DonationID  string `json:"donation_id"`
}

// CheckoutAck summarizes a finished checkout on the success view.
type CheckoutAck struct {
	Status     string  `json:"status"`
	DonationID string  `json:"donation_id,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
}

// User is the account projection returned by login and whoami.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthResponse carries a fresh session token and its user.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SocialUserInfo is the provider-parsed profile forwarded on social login.
type SocialUserInfo struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// UsageSnapshot is the quota state for the gated features.
type UsageSnapshot struct {
	MatchesUsed     int  `json:"matches_used"`
	MatchesLimit    int  `json:"matches_limit"`
	RandomizesUsed  int  `json:"randomizes_used"`
	RandomizesLimit int  `json:"randomizes_limit"`
	CanMatch        bool `json:"can_match"`
	CanRandomize    bool `json:"can_randomize"`
	Unlimited       bool `json:"unlimited"`
}

// Gated feature names understood by the usage endpoints.
const (
	FeatureMatch     = "match"
	FeatureRandomize = "randomize"
)
