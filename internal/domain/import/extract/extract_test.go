package extract

import (
	"strconv"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/mapper"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/platform"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/sniffer"
)

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	m, err := mapper.New(catalog.NewDefaultRegistry())
	require.NoError(t, err)
	return New(platform.NewDetector(), m, 0)
}

func TestExtractor_Extract(t *testing.T) {
	e := newExtractor(t)

	t.Run("google export with preamble and totals", func(t *testing.T) {
		grid := [][]string{
			{"Campaign performance report"},
			{"All time"},
			{"Campaign", "Impr.", "Clicks", "Cost", ""},
			{"Brand_Search", "1,000", "20", "50.00", "x"},
			{"Generic_Search", "2,000", "10", "40.00"},
			{"Brand_Search", "9", "9", "9"},
			{"Total: Account", "3,000", "30", "90.00"},
			{"Display", "500", "5", "10", "Total"},
			{"", "1", "1", "1"},
		}

		res, err := e.Extract(grid)
		require.NoError(t, err)

		assert.Equal(t, 2, res.Header.RowIndex)
		assert.Equal(t, platform.Google, res.Platform)
		assert.Equal(t, []string{"Brand_Search", "Generic_Search"}, campaign.Names(res.Records))
		assert.Equal(t, 3, res.Skipped)

		first := res.Records[0]
		assert.Equal(t, "1,000", first.Data["Impr."])
		assert.Equal(t, "1,000", first.Data["Impressions"])
		assert.Equal(t, "50.00", first.Data["Amount Spent"])
		assert.Equal(t, "50.00", first.Data["CPM"])
		assert.Equal(t, "2.50", first.Data["CPC"])
		assert.Equal(t, "2.00%", first.Data["CTR"])
		_, hasBlank := first.Get("")
		assert.False(t, hasBlank)
		_, hasCampaign := first.Get("Campaign")
		assert.False(t, hasCampaign)
	})

	t.Run("short rows get empty values", func(t *testing.T) {
		grid := [][]string{
			{"Campaign Name", "Impressions", "Clicks"},
			{"Ad1", "100"},
		}
		res, err := e.Extract(grid)
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		assert.Equal(t, "", res.Records[0].Data["Clicks"])
		assert.Equal(t, "100", res.Records[0].Data["Impressions"])
	})

	t.Run("no header", func(t *testing.T) {
		_, err := e.Extract([][]string{{"Name", "Clicks"}, {"a", "1"}})
		assert.ErrorIs(t, err, ErrNoHeaderFound)
	})

	t.Run("header but only totals", func(t *testing.T) {
		res, err := e.Extract([][]string{
			{"Campaign Name", "Clicks"},
			{"Grand Total", "10"},
			{"", "3"},
		})
		assert.ErrorIs(t, err, ErrNoCampaignsExtracted)
		require.NotNil(t, res)
		assert.Equal(t, 0, res.Header.RowIndex)
	})
}

func TestRows_TotalSuppression(t *testing.T) {
	faker := gofakeit.New(42)
	loc := sniffer.HeaderLocation{RowIndex: 0, CampaignColumnIndex: 0, Headers: []string{"Campaign Name", "Clicks", "Notes"}}

	for i := 0; i < 50; i++ {
		grid := [][]string{loc.Headers}
		for r := 0; r < 20; r++ {
			note := faker.Word()
			if faker.Bool() {
				note = faker.RandomString([]string{"TOTAL", "Subtotal", "total spend"})
			}
			grid = append(grid, []string{faker.Company(), strconv.Itoa(faker.Number(0, 500)), note})
		}

		records, _ := Rows(grid, loc)
		for _, rec := range records {
			assert.NotContains(t, strings.ToLower(rec.Name), "total")
			for _, v := range rec.Data {
				assert.NotContains(t, strings.ToLower(v), "total")
			}
		}
	}
}

func TestRows_KeepsFirstOccurrence(t *testing.T) {
	faker := gofakeit.New(7)
	loc := sniffer.HeaderLocation{RowIndex: 0, CampaignColumnIndex: 1, Headers: []string{"Clicks", "Campaign"}}

	names := make([]string, 0, 5)
	for len(names) < 5 {
		n := faker.LetterN(10)
		if !strings.Contains(strings.ToLower(n), "total") {
			names = append(names, n)
		}
	}

	grid := [][]string{loc.Headers}
	firstSeen := map[string]string{}
	var order []string
	for r := 0; r < 40; r++ {
		name := names[faker.Number(0, len(names)-1)]
		clicks := strconv.Itoa(r)
		if _, ok := firstSeen[name]; !ok {
			firstSeen[name] = clicks
			order = append(order, name)
		}
		grid = append(grid, []string{clicks, name})
	}

	records, skipped := Rows(grid, loc)
	assert.Equal(t, order, campaign.Names(records))
	assert.Equal(t, 40-len(order), skipped)
	for _, rec := range records {
		assert.Equal(t, firstSeen[rec.Name], rec.Data["Clicks"])
	}
}

func TestIsTotalRow(t *testing.T) {
	assert.True(t, IsTotalRow("Campaign TOTAL", nil))
	assert.True(t, IsTotalRow("Search", []string{"Search", "Totals"}))
	assert.False(t, IsTotalRow("Search", []string{"Search", "10"}))
}
