package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParser_ParseDelimited(t *testing.T) {
	p := NewParser(DefaultConfig())

	t.Run("comma with quoted fields", func(t *testing.T) {
		csv := "Campaign Name,Impressions,Cost\n\"Brand, Search\",\"1,000\",50\n\nAd2,2000,75\n"
		result, err := p.ParseDelimited([]byte(csv))
		require.NoError(t, err)

		assert.Equal(t, ',', result.Delimiter)
		assert.Equal(t, FormatDelimited, result.Format)
		assert.Equal(t, Grid{
			{"Campaign Name", "Impressions", "Cost"},
			{"Brand, Search", "1,000", "50"},
			{"Ad2", "2000", "75"},
		}, result.Grid)
	})

	t.Run("utf-16 tab separated export", func(t *testing.T) {
		text := "Campaign\tImpr.\tCost\r\nSearch\t1,200\t30.00\r\n"
		encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		encoded, err := encoder.Bytes([]byte(text))
		require.NoError(t, err)

		result, err := p.ParseDelimited(encoded)
		require.NoError(t, err)
		assert.Equal(t, '\t', result.Delimiter)
		assert.Equal(t, Grid{
			{"Campaign", "Impr.", "Cost"},
			{"Search", "1,200", "30.00"},
		}, result.Grid)
	})

	t.Run("too few rows", func(t *testing.T) {
		_, err := p.ParseDelimited([]byte("Campaign Name,Clicks\n\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTooFewRows)
	})
}

func TestParser_ParseXLSX(t *testing.T) {
	p := NewParser(DefaultConfig())

	t.Run("first sheet stringified", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"Report"},
			{},
			{"Campaign Name", "Impressions", "Clicks"},
			{" Ad1 ", 1000, 20},
		})

		result, err := p.ParseXLSX(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, FormatXLSX, result.Format)
		assert.Equal(t, Grid{
			{"Report"},
			{"Campaign Name", "Impressions", "Clicks"},
			{"Ad1", "1000", "20"},
		}, result.Grid)
	})

	t.Run("too few rows", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{{"Campaign Name"}})
		_, err := p.ParseXLSX(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrTooFewRows)
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := p.ParseXLSX(strings.NewReader("plain text"))
		assert.Error(t, err)
	})
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(DefaultConfig())

	t.Run("dispatches on extension", func(t *testing.T) {
		result, err := p.Parse("export.CSV", strings.NewReader("Campaign;Clicks\nA;1"))
		require.NoError(t, err)
		assert.Equal(t, ';', result.Delimiter)

		data := buildWorkbook(t, [][]any{{"Campaign"}, {"A"}})
		result, err = p.Parse("export.xlsx", bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, FormatXLSX, result.Format)
	})

	tests := []struct {
		name     string
		filename string
		content  string
		want     error
	}{
		{"unsupported extension", "report.pdf", "x", ErrUnsupportedFormat},
		{"empty file", "report.csv", "  \n ", ErrEmptyFile},
		{"header only", "report.csv", "Campaign Name,Clicks", ErrTooFewRows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.filename, strings.NewReader(tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.filename, pe.File)
		})
	}
}

func TestParser_ParseXLS(t *testing.T) {
	p := NewParser(DefaultConfig())

	t.Run("xls goes to the BIFF decoder", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{{"Campaign"}, {"A"}})
		_, err := p.Parse("legacy.xls", bytes.NewReader(data))
		require.Error(t, err)

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "legacy.xls", pe.File)
		assert.Contains(t, pe.Message, "XLS")
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := p.ParseXLS([]byte("plain text"))
		assert.Error(t, err)
	})
}

func TestDetectFormat(t *testing.T) {
	for name, want := range map[string]Format{
		"a.csv": FormatDelimited, "a.TSV": FormatDelimited, "a.txt": FormatDelimited,
		"a.xlsx": FormatXLSX, "a.xlsm": FormatXLSX, "a.XLS": FormatXLS,
	} {
		got, err := DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := DetectFormat("a.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
