package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetector_Detect(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name      string
		headers   []string
		campaigns []string
		want      Platform
	}{
		{
			name:    "google impr. column",
			headers: []string{"Campaign", "Impr.", "Clicks"},
			want:    Google,
		},
		{
			name:    "linkedin group name is google rule",
			headers: []string{"Campaign Group Name", "Impressions"},
			want:    Google,
		},
		{
			name:    "cost without amount spent",
			headers: []string{"Campaign", "Impressions", "Cost"},
			want:    Google,
		},
		{
			name:    "meta amount spent",
			headers: []string{"Campaign name", "Impressions", "Amount spent (USD)"},
			want:    Meta,
		},
		{
			name:    "meta link clicks",
			headers: []string{"Campaign Name", "Link Clicks"},
			want:    Meta,
		},
		{
			name:    "google signal beats meta signal",
			headers: []string{"Campaign", "Impr.", "Link clicks", "Amount spent"},
			want:    Google,
		},
		{
			name:    "cost and amount spent together is meta",
			headers: []string{"Campaign", "Cost per result", "Amount Spent"},
			want:    Meta,
		},
		{
			name:      "linkedin by campaign name",
			headers:   []string{"Campaign", "Impressions"},
			campaigns: []string{"Spring_LinkedIn_Awareness"},
			want:      LinkedIn,
		},
		{
			name:      "linkedin name outranks google name",
			headers:   []string{"Campaign"},
			campaigns: []string{"Q1_google_search", "Q1_linkedin_sponsored"},
			want:      LinkedIn,
		},
		{
			name:      "google shorthand",
			headers:   []string{"Campaign"},
			campaigns: []string{"BRAND_GGL_EXACT"},
			want:      Google,
		},
		{
			name:      "facebook shorthand",
			headers:   []string{"Campaign"},
			campaigns: []string{"retarget_fb_carousel"},
			want:      Meta,
		},
		{
			name:      "nothing recognizable",
			headers:   []string{"Campaign", "Impressions", "Clicks"},
			campaigns: []string{"Spring Sale"},
			want:      Unknown,
		},
		{
			name: "empty input",
			want: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.headers, tt.campaigns))
		})
	}
}

func TestParse(t *testing.T) {
	assert.Equal(t, Google, Parse(" Google "))
	assert.Equal(t, Meta, Parse("facebook"))
	assert.Equal(t, LinkedIn, Parse("LINKEDIN"))
	assert.Equal(t, Unknown, Parse("tiktok"))
}
