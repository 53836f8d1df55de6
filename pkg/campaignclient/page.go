/**
 * @description
 * Page composition: loading the campaign view means fetching the campaign,
 * its updates, and the recent donations, in that order. Each section carries
 * its own three-state result so one failed fetch degrades that section only
 * instead of blanking the whole page.
 */

package campaignclient

import "context"

// ResultStatus is the lifecycle position of one async section.
type ResultStatus int

const (
	ResultPending ResultStatus = iota
	ResultSuccess
	ResultFailure
)

func (s ResultStatus) String() string {
	switch s {
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	default:
		return "pending"
	}
}

// Result holds one section's outcome: the value on success, the reason on
// failure.
type Result[T any] struct {
	Status ResultStatus
	Value  T
	Reason string
}

func success[T any](value T) Result[T] {
	return Result[T]{Status: ResultSuccess, Value: value}
}

func failure[T any](err error) Result[T] {
	return Result[T]{Status: ResultFailure, Reason: err.Error()}
}

// PageView is the assembled campaign page.
type PageView struct {
	Outcome   CheckoutOutcome
	Campaign  Result[*Campaign]
	Updates   Result[[]CampaignUpdate]
	Recent    Result[[]Donation]
	SessionOK bool
	User      *User
}

// PageComposer assembles the campaign page from its data sources. It owns no
// business logic of its own.
type PageComposer struct {
	client  *Client
	session *Session
}

// NewPageComposer creates a composer over a client and optional session.
func NewPageComposer(client *Client, session *Session) *PageComposer {
	return &PageComposer{client: client, session: session}
}

// Load fetches the page data for a path. Requests run strictly sequentially;
// each failure is captured in its section's result and never aborts the
// rest. The session refresh happens first and a dead token just renders the
// page as anonymous.
func (p *PageComposer) Load(ctx context.Context, path string) PageView {
	view := PageView{
		Outcome:  ClassifyPath(path),
		Campaign: Result[*Campaign]{Status: ResultPending},
		Updates:  Result[[]CampaignUpdate]{Status: ResultPending},
		Recent:   Result[[]Donation]{Status: ResultPending},
	}

	if p.session != nil {
		if err := p.session.Refresh(ctx); err == nil {
			view.User = p.session.CurrentUser()
		}
		view.SessionOK = view.User != nil
	}

	// The terminal checkout views are informational; they render without
	// re-fetching campaign data.
	if view.Outcome != OutcomeCampaign {
		return view
	}

	if campaign, err := p.client.ActiveCampaign(ctx); err != nil {
		view.Campaign = failure[*Campaign](err)
	} else {
		view.Campaign = success(campaign)
	}

	if updates, err := p.client.CampaignUpdates(ctx); err != nil {
		view.Updates = failure[[]CampaignUpdate](err)
	} else {
		view.Updates = success(updates)
	}

	if recent, err := p.client.RecentDonations(ctx); err != nil {
		view.Recent = failure[[]Donation](err)
	} else {
		view.Recent = success(recent)
	}

	return view
}
