package campaignclient

import "testing"

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		path string
		want CheckoutOutcome
	}{
		{path: "/", want: OutcomeCampaign},
		{path: "", want: OutcomeCampaign},
		{path: "/success", want: OutcomeSuccess},
		{path: "/success/", want: OutcomeSuccess},
		{path: "/cancel", want: OutcomeCancel},
		{path: "/cancel/", want: OutcomeCancel},
		{path: "/somewhere-else", want: OutcomeCampaign},
		{path: "/success/extra", want: OutcomeCampaign},
	}

	for _, tt := range tests {
		if got := ClassifyPath(tt.path); got != tt.want {
			t.Errorf("ClassifyPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSessionIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "present", url: "http://localhost:5173/success?session_id=cs_test_123", want: "cs_test_123"},
		{name: "absent", url: "http://localhost:5173/success", want: ""},
		{name: "other params", url: "http://localhost:5173/success?ref=email", want: ""},
		{name: "unparseable", url: "://not-a-url", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionIDFromURL(tt.url); got != tt.want {
				t.Fatalf("SessionIDFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
