package weather

import (
	"regexp"
	"strings"
	"time"
)

// Parser turns the two raw product texts into a typed Report. Full product
// parsing lives behind this interface so the acquisition service stays
// independent of product formats.
type Parser interface {
	Parse(location, discussion, forecast string) (*Report, error)
}

// TextParser is a minimal product parser: it extracts the synopsis section
// and issuance time from the discussion and keeps both raw texts on the
// report for the narration prompt.
type TextParser struct{}

// NewTextParser creates the default parser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// issuedRe matches AFD issuance lines like "953 PM PDT Thu Aug 28 2025".
var issuedRe = regexp.MustCompile(`(?m)^(\d{3,4}) (AM|PM) (\w{3,4}) \w{3} (\w{3}) (\d{1,2}) (\d{4})$`)

// synopsisRe captures the .SYNOPSIS section body of a discussion.
var synopsisRe = regexp.MustCompile(`(?s)\.SYNOPSIS[^\n]*\n(.*?)\n\s*&&`)

// Parse builds a Report from the raw products.
func (p *TextParser) Parse(location, discussion, forecast string) (*Report, error) {
	report := &Report{
		Location:   location,
		Discussion: discussion,
		FetchedAt:  time.Now().UTC(),
	}

	if m := synopsisRe.FindStringSubmatch(discussion); m != nil {
		report.Summary = strings.TrimSpace(m[1])
	} else {
		report.Summary = firstParagraph(discussion)
	}

	if m := issuedRe.FindStringSubmatch(discussion); m != nil {
		if ts, err := parseIssuance(m); err == nil {
			report.IssuedAt = &ts
		}
	}

	report.Periods = parsePeriods(forecast)
	return report, nil
}

// firstParagraph returns the first non-header paragraph of a product.
func firstParagraph(text string) string {
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "$$") {
			continue
		}
		// Skip WMO header / product identifier blocks.
		if len(block) < 40 && !strings.Contains(block, " ") {
			continue
		}
		return block
	}
	return strings.TrimSpace(text)
}

func parseIssuance(m []string) (time.Time, error) {
	clock := m[1]
	if len(clock) == 3 {
		clock = "0" + clock
	}
	stamp := clock + " " + m[2] + " " + m[4] + " " + m[5] + " " + m[6]
	return time.Parse("0304 PM Jan 2 2006", stamp)
}

// periodRe matches PFM period header rows.
var periodRe = regexp.MustCompile(`(?m)^(Tonight|Today|This Afternoon|[A-Z][a-z]+day( Night)?)\b`)

// parsePeriods extracts the named forecast periods present in a PFM product.
// Numeric matrix rows vary by office; period names are enough for narration.
func parsePeriods(forecast string) []ForecastPeriod {
	seen := map[string]bool{}
	var periods []ForecastPeriod
	for _, m := range periodRe.FindAllString(forecast, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		periods = append(periods, ForecastPeriod{Name: m})
	}
	return periods
}
