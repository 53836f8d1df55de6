/**
 * @description
 * Checkout outcome classification. After the hosted payment flow, the
 * browser lands back on one of three fixed paths; classifying them is pure
 * string work with no server round-trip. The terminal views are
 * informational only and offer a single way back to the campaign view.
 */

package campaignclient

import (
	"net/url"
	"strings"
)

// CheckoutOutcome is where a returning visitor landed.
type CheckoutOutcome int

const (
	// OutcomeCampaign is the default campaign view.
	OutcomeCampaign CheckoutOutcome = iota
	// OutcomeSuccess is the post-checkout acknowledgment view.
	OutcomeSuccess
	// OutcomeCancel is the post-checkout cancellation view.
	OutcomeCancel
)

func (o CheckoutOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancel:
		return "cancel"
	default:
		return "campaign"
	}
}

// ClassifyPath maps a request path onto its checkout outcome. Unknown paths
// fall back to the campaign view.
func ClassifyPath(path string) CheckoutOutcome {
	switch strings.TrimSuffix(path, "/") {
	case "/success":
		return OutcomeSuccess
	case "/cancel":
		return OutcomeCancel
	default:
		return OutcomeCampaign
	}
}

// SessionIDFromURL extracts the checkout session id a success redirect
// carries, if any.
func SessionIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("session_id")
}
