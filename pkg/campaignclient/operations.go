/**
 * @description
 * Resource operations on the campaign API: campaign reads, donation
 * submission, account endpoints, and the usage quota endpoints. Each is one
 * HTTP call with no retry; error classification happens in the transport.
 */

package campaignclient

import "context"

// ActiveCampaign fetches the current campaign projection.
func (c *Client) ActiveCampaign(ctx context.Context) (*Campaign, error) {
	var campaign Campaign
	if err := c.get(ctx, "/api/donations/campaign", &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// CampaignUpdates fetches the campaign's update posts, newest first.
func (c *Client) CampaignUpdates(ctx context.Context) ([]CampaignUpdate, error) {
	var updates []CampaignUpdate
	if err := c.get(ctx, "/api/donations/updates", &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// RecentDonations fetches the latest public donations.
func (c *Client) RecentDonations(ctx context.Context) ([]Donation, error) {
	var donations []Donation
	if err := c.get(ctx, "/api/donations/recent", &donations); err != nil {
		return nil, err
	}
	return donations, nil
}

// CreateDonation submits a donation and returns the checkout redirect.
func (c *Client) CreateDonation(ctx context.Context, req DonationRequest) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := c.do(ctx, "POST", "/api/donations/create", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// AcknowledgeSuccess fetches the informational summary for a success redirect.
func (c *Client) AcknowledgeSuccess(ctx context.Context, sessionID string) (*CheckoutAck, error) {
	path := "/api/donations/success"
	if sessionID != "" {
		path += "?session_id=" + sessionID
	}
	var ack CheckoutAck
	if err := c.get(ctx, path, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Signup registers a password account.
func (c *Client) Signup(ctx context.Context, email, password, firstName, lastName string) (*AuthResponse, error) {
	body := map[string]string{
		"email":      email,
		"password":   password,
		"first_name": firstName,
		"last_name":  lastName,
	}
	var resp AuthResponse
	if err := c.do(ctx, "POST", "/api/accounts/signup", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates a password account.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, "POST", "/api/accounts/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GoogleLogin exchanges a Google credential for a session.
func (c *Client) GoogleLogin(ctx context.Context, credential string, info SocialUserInfo) (*AuthResponse, error) {
	body := map[string]interface{}{"credential": credential, "user_info": info}
	var resp AuthResponse
	if err := c.do(ctx, "POST", "/api/accounts/auth/google", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FacebookLogin exchanges a Facebook access token for a session.
func (c *Client) FacebookLogin(ctx context.Context, accessToken string, info SocialUserInfo) (*AuthResponse, error) {
	body := map[string]interface{}{"access_token": accessToken, "user_info": info}
	var resp AuthResponse
	if err := c.do(ctx, "POST", "/api/accounts/auth/facebook", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me validates the stored token and returns its user, or a 401 APIError.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/api/accounts/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout tells the backend the session is over. Best-effort; callers clean
// up local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "POST", "/api/accounts/logout", nil, nil)
}

// Usage fetches the caller's quota snapshot.
func (c *Client) Usage(ctx context.Context) (*UsageSnapshot, error) {
	var snapshot UsageSnapshot
	if err := c.get(ctx, "/api/usage", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ConsumeUsage records one use of a gated feature. A quota denial comes back
// as *QuotaError.
func (c *Client) ConsumeUsage(ctx context.Context, feature string) (*UsageSnapshot, error) {
	body := map[string]string{"feature": feature}
	var snapshot UsageSnapshot
	if err := c.do(ctx, "POST", "/api/usage/consume", body, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
