// Package platform classifies an uploaded export by the ad platform that
// produced it.
package platform

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Platform is the ad platform an export came from.
type Platform string

const (
	Google   Platform = "google"
	Meta     Platform = "meta"
	LinkedIn Platform = "linkedin"
	Unknown  Platform = "unknown"
)

// All lists the known platforms, unknown last.
func All() []Platform {
	return []Platform{Google, Meta, LinkedIn, Unknown}
}

// String implements fmt.Stringer.
func (p Platform) String() string { return string(p) }

// Parse maps a free-form name to a platform. Anything unrecognized is Unknown.
func Parse(s string) Platform {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case Google:
		return Google
	case Meta, "facebook":
		return Meta
	case LinkedIn:
		return LinkedIn
	default:
		return Unknown
	}
}

// Header vocabulary.
const (
	headerImpr        = "impr."
	headerGroupName   = "campaign group name"
	headerCost        = "cost"
	headerAmountSpent = "amount spent"
	headerLinkClicks  = "link clicks"
	headerEngagement  = "post engagement"
)

var headerPatterns = []string{
	headerImpr,
	headerGroupName,
	headerCost,
	headerAmountSpent,
	headerLinkClicks,
	headerEngagement,
}

// Campaign-name vocabulary, tagged with the platform it points at.
var namePatterns = []struct {
	pattern  string
	platform Platform
}{
	{"linkedin", LinkedIn},
	{"google", Google},
	{"_google_", Google},
	{"_ggl_", Google},
	{"meta", Meta},
	{"facebook", Meta},
	{"_fb_", Meta},
	{"_meta_", Meta},
}

// Detector scans header and campaign-name text for platform vocabulary. Both
// vocabularies are compiled once into Aho-Corasick automata so a batch is
// classified in a single pass over each text.
type Detector struct {
	headers *ahocorasick.Matcher
	names   *ahocorasick.Matcher
}

// NewDetector compiles the platform vocabularies.
func NewDetector() *Detector {
	names := make([]string, len(namePatterns))
	for i, p := range namePatterns {
		names[i] = p.pattern
	}
	return &Detector{
		headers: ahocorasick.NewStringMatcher(headerPatterns),
		names:   ahocorasick.NewStringMatcher(names),
	}
}

// Detect classifies a file from its header row and extracted campaign names.
// The first matching rule wins:
//
//  1. header text mentions "impr." or "campaign group name", or "cost"
//     without "amount spent": Google
//  2. header text mentions "link clicks", "post engagement" or
//     "amount spent": Meta
//  3. campaign names mention LinkedIn, then Google, then Meta markers
//  4. otherwise Unknown
func (d *Detector) Detect(headers, campaignNames []string) Platform {
	found := d.headerHits(headers)

	if found[headerImpr] || found[headerGroupName] || (found[headerCost] && !found[headerAmountSpent]) {
		return Google
	}
	if found[headerLinkClicks] || found[headerEngagement] || found[headerAmountSpent] {
		return Meta
	}

	return d.fromNames(campaignNames)
}

func (d *Detector) headerHits(headers []string) map[string]bool {
	text := strings.ToLower(strings.Join(headers, " "))
	found := make(map[string]bool, len(headerPatterns))
	for _, idx := range d.headers.MatchThreadSafe([]byte(text)) {
		found[headerPatterns[idx]] = true
	}
	return found
}

func (d *Detector) fromNames(campaignNames []string) Platform {
	text := strings.ToLower(strings.Join(campaignNames, " "))
	hits := d.names.MatchThreadSafe([]byte(text))
	if len(hits) == 0 {
		return Unknown
	}

	matched := make(map[Platform]bool, 3)
	for _, idx := range hits {
		matched[namePatterns[idx].platform] = true
	}
	for _, p := range []Platform{LinkedIn, Google, Meta} {
		if matched[p] {
			return p
		}
	}
	return Unknown
}
