// Package brand holds the brand workspace: a set of named tabs, each with its
// own campaign sheet, plus the campaign records imported into the brand.
package brand

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
)

var (
	ErrBrandNotFound = errors.New("brand not found")
	ErrEmptyName     = errors.New("name is empty")
	ErrTabNotFound   = errors.New("tab not found")
	ErrTabExists     = errors.New("tab already exists")
	ErrLastTab       = errors.New("a brand keeps at least one tab")
)

// Brand owns its tabs. Sheets never exist outside a brand.
type Brand struct {
	ID                   uuid.UUID               `json:"id"`
	Name                 string                  `json:"name"`
	Logo                 string                  `json:"logo,omitempty"`
	Tabs                 []string                `json:"tabs"`
	Campaigns            map[string]*sheet.Sheet `json:"campaigns"`
	UploadedCampaignData []campaign.Record       `json:"uploadedCampaignData,omitempty"`
	CreatedAt            time.Time               `json:"createdAt"`
	UpdatedAt            time.Time               `json:"updatedAt"`
}

// New creates a brand with a single default tab.
func New(name string, defaults []string) (*Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	now := time.Now().UTC()
	b := &Brand{
		ID:        uuid.New(),
		Name:      name,
		Campaigns: make(map[string]*sheet.Sheet),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := b.AddTab("", defaults); err != nil {
		return nil, err
	}
	return b, nil
}

// Sheet returns the sheet of a tab.
func (b *Brand) Sheet(tab string) (*sheet.Sheet, error) {
	s, ok := b.Campaigns[tab]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTabNotFound, tab)
	}
	return s, nil
}

// SetSheet replaces the sheet of an existing tab.
func (b *Brand) SetSheet(tab string, s *sheet.Sheet) error {
	if _, ok := b.Campaigns[tab]; !ok {
		return fmt.Errorf("%w: %q", ErrTabNotFound, tab)
	}
	b.Campaigns[tab] = s
	return nil
}

// AddTab appends a tab holding a fresh sheet. An empty name becomes
// "Campaign N", N counting up from the new tab count to the first free name.
func (b *Brand) AddTab(name string, defaults []string) (string, error) {
	name = strings.TrimSpace(name)
	for n := len(b.Tabs) + 1; name == ""; n++ {
		if _, ok := b.Campaigns[fmt.Sprintf("Campaign %d", n)]; !ok {
			name = fmt.Sprintf("Campaign %d", n)
		}
	}
	if _, ok := b.Campaigns[name]; ok {
		return "", fmt.Errorf("%w: %q", ErrTabExists, name)
	}
	b.Tabs = append(b.Tabs, name)
	b.Campaigns[name] = sheet.New(defaults)
	return name, nil
}

// DuplicateTab copies a tab to "<tab> Copy".
func (b *Brand) DuplicateTab(tab string) (string, error) {
	s, err := b.Sheet(tab)
	if err != nil {
		return "", err
	}
	name := tab + " Copy"
	if _, ok := b.Campaigns[name]; ok {
		return "", fmt.Errorf("%w: %q", ErrTabExists, name)
	}
	b.Tabs = append(b.Tabs, name)
	b.Campaigns[name] = s.Clone()
	return name, nil
}

// RenameTab renames a tab in place.
func (b *Brand) RenameTab(from, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrEmptyName
	}
	s, err := b.Sheet(from)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if _, ok := b.Campaigns[to]; ok {
		return fmt.Errorf("%w: %q", ErrTabExists, to)
	}
	delete(b.Campaigns, from)
	b.Campaigns[to] = s
	b.Tabs[slices.Index(b.Tabs, from)] = to
	return nil
}

// DeleteTab removes a tab and its sheet.
func (b *Brand) DeleteTab(tab string) error {
	if _, err := b.Sheet(tab); err != nil {
		return err
	}
	if len(b.Tabs) == 1 {
		return ErrLastTab
	}
	delete(b.Campaigns, tab)
	b.Tabs = slices.DeleteFunc(b.Tabs, func(t string) bool { return t == tab })
	return nil
}

// MergeUploaded keeps the latest import of every campaign.
func (b *Brand) MergeUploaded(records []campaign.Record) {
	b.UploadedCampaignData = campaign.Merge(b.UploadedCampaignData, records)
}

// Clone returns a deep copy.
func (b *Brand) Clone() *Brand {
	out := *b
	out.Tabs = slices.Clone(b.Tabs)
	out.Campaigns = make(map[string]*sheet.Sheet, len(b.Campaigns))
	for tab, s := range b.Campaigns {
		out.Campaigns[tab] = s.Clone()
	}
	if b.UploadedCampaignData != nil {
		out.UploadedCampaignData = make([]campaign.Record, len(b.UploadedCampaignData))
		for i, r := range b.UploadedCampaignData {
			out.UploadedCampaignData[i] = r.Clone()
		}
	}
	return &out
}

// Summary is the listing view of a brand.
type Summary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Logo string    `json:"logo,omitempty"`
	Tabs []string  `json:"tabs"`
}

func (b *Brand) Summary() Summary {
	return Summary{ID: b.ID, Name: b.Name, Logo: b.Logo, Tabs: slices.Clone(b.Tabs)}
}
