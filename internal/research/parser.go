package research

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/research-hub/internal/model"
)

// Section names the report prompt asks for, in order.
const (
	SectionExecutiveSummary = "EXECUTIVE SUMMARY"
	SectionMarketPosition   = "MARKET POSITION"
	SectionKeyCompetitors   = "KEY COMPETITORS"
	SectionOpportunities    = "OPPORTUNITIES"
	SectionThreats          = "THREATS"
	SectionRecommendations  = "STRATEGIC RECOMMENDATIONS"
)

// ParsedReport holds the structured fields extracted from a generated
// report. Narrative sections are free text, list sections are ordered
// title/description pairs.
type ParsedReport struct {
	ExecutiveSummary string
	MarketPosition   string
	Competitors      []model.ListItem
	Opportunities    []model.ListItem
	Threats          []model.ListItem
	Recommendations  []model.ListItem
}

var bulletPrefix = regexp.MustCompile(`^[-*•]\s*`)

// itemSeparators are the characters a list line may split on. The split
// always happens on the earliest occurrence so titles are not truncated
// on a later incidental separator.
const itemSeparators = ":–-"

// ParseReport extracts the six fixed sections from generated report
// text. It is a best-effort heuristic parse: malformed input degrades
// to empty strings and single-field items, never an error.
func ParseReport(text string) ParsedReport {
	return ParsedReport{
		ExecutiveSummary: ExtractSection(text, SectionExecutiveSummary),
		MarketPosition:   ExtractSection(text, SectionMarketPosition),
		Competitors:      ExtractStructuredList(text, SectionKeyCompetitors),
		Opportunities:    ExtractStructuredList(text, SectionOpportunities),
		Threats:          ExtractStructuredList(text, SectionThreats),
		Recommendations:  ExtractStructuredList(text, SectionRecommendations),
	}
}

// ExtractSection returns the text between the "## name" heading and the
// next heading (or end of text), trimmed. Matching is case-insensitive.
// A missing section yields "".
func ExtractSection(text, name string) string {
	lines := strings.Split(text, "\n")
	heading := "## " + name

	start := -1
	for i, line := range lines {
		if strings.EqualFold(strings.TrimSpace(line), heading) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "## ") {
			end = i
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// ExtractStructuredList parses a list section into title/description
// pairs. Each non-empty line is stripped of a leading bullet marker,
// then split on its first separator character; lines without one become
// a title-only item. Absent and present-but-empty sections both yield
// an empty slice.
func ExtractStructuredList(text, name string) []model.ListItem {
	section := ExtractSection(text, name)
	if section == "" {
		return []model.ListItem{}
	}

	items := []model.ListItem{}
	for _, line := range strings.Split(section, "\n") {
		clean := bulletPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		if clean == "" {
			continue
		}

		if i := strings.IndexAny(clean, itemSeparators); i >= 0 {
			_, size := utf8.DecodeRuneInString(clean[i:])
			items = append(items, model.ListItem{
				Title:       strings.TrimSpace(clean[:i]),
				Description: strings.TrimSpace(clean[i+size:]),
			})
			continue
		}

		items = append(items, model.ListItem{Title: clean})
	}
	return items
}
