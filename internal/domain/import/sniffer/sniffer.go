// Package sniffer detects the layout of uploaded ad-platform exports.
// It identifies delimiters, splits quoted lines, and locates the header row
// that names the campaign column.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Candidates are the delimiters tried during detection, in tie-break order.
var Candidates = []rune{'\t', ',', ';', '|'}

// DefaultDelimiter is used when no candidate splits the sample.
const DefaultDelimiter = ','

// DefaultSampleLines is how many non-blank lines feed delimiter detection.
const DefaultSampleLines = 10

// SplitLines splits text on newlines, trims every line and drops blank ones.
// A leading byte order mark is removed.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for i, line := range raw {
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

// DetectDelimiter picks the candidate producing the highest average column
// count over the first sampleLines lines. Earlier candidates win ties.
func DetectDelimiter(lines []string, sampleLines int) rune {
	if sampleLines <= 0 {
		sampleLines = DefaultSampleLines
	}
	var sample []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		sample = append(sample, l)
		if len(sample) == sampleLines {
			break
		}
	}
	if len(sample) == 0 {
		return DefaultDelimiter
	}

	best := rune(DefaultDelimiter)
	bestAvg := 1.0
	for _, d := range Candidates {
		total := 0
		for _, l := range sample {
			total += strings.Count(l, string(d)) + 1
		}
		avg := float64(total) / float64(len(sample))
		if avg > bestAvg {
			bestAvg = avg
			best = d
		}
	}
	return best
}

// SplitLine splits one line into trimmed cells. Double quotes group a field,
// a doubled quote inside a quoted field is a literal quote, and tab-separated
// lines are split without quote handling.
func SplitLine(line string, delimiter rune) []string {
	var cells []string
	if delimiter == '\t' {
		cells = strings.Split(line, "\t")
	} else {
		cells = splitQuoted(line, delimiter)
	}
	for i, c := range cells {
		cells[i] = StripQuotes(strings.TrimSpace(c))
	}
	return cells
}

func splitQuoted(line string, delimiter rune) []string {
	var (
		cells    []string
		current  strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == delimiter && !inQuotes:
			cells = append(cells, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(cells, current.String())
}

// StripQuotes removes one leading and one trailing quote character (single or
// double) and trims what remains.
func StripQuotes(cell string) string {
	if cell != "" && (cell[0] == '"' || cell[0] == '\'') {
		cell = cell[1:]
	}
	if n := len(cell); n > 0 && (cell[n-1] == '"' || cell[n-1] == '\'') {
		cell = cell[:n-1]
	}
	return strings.TrimSpace(cell)
}

// Fingerprint hashes normalized header names so repeated exports from the
// same report template can be recognised.
func Fingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}
	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}
