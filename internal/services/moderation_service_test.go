package services

import "testing"

func TestFilterContent(t *testing.T) {
	ms := NewModerationService()

	tests := []struct {
		name       string
		text       string
		wantOK     bool
		wantReason string
	}{
		{"clean text passes", "Looking forward to the food drive on Saturday", true, ""},
		{"empty text passes", "", true, ""},
		{"banned word", "this is fucking unacceptable", false, "inappropriate_language"},
		{"banned word is case-insensitive", "SPAM alert", false, "inappropriate_language"},
		{"banned word inside another word passes", "the classic assumption", true, ""},
		{"http url", "check http://cheap-deals.example now", false, "url_not_allowed"},
		{"www url", "go to www.example.com today", false, "url_not_allowed"},
		{"phone number", "call me at 555-123-4567", false, "contact_info_not_allowed"},
		{"repeated characters", "soooooo excited!!!!", false, "spam_detected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := ms.FilterContent(tt.text)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v (reason %q)", ok, tt.wantOK, reason)
			}
			if !ok && reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestGetRejectionMessage(t *testing.T) {
	ms := NewModerationService()

	if msg := ms.GetRejectionMessage("url_not_allowed"); msg != "URLs and web links are not allowed." {
		t.Errorf("unexpected message: %q", msg)
	}
	if msg := ms.GetRejectionMessage("something_else"); msg != "Your post does not meet our community guidelines." {
		t.Errorf("unknown reason fallback: %q", msg)
	}
}
