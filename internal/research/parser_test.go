package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-hub/internal/model"
)

const sampleReport = `Here is my analysis of the company.

## EXECUTIVE SUMMARY
Acme Corp is a strong regional player with growing market share.
Revenue grew 40% year over year.

## MARKET POSITION
Acme holds roughly 12% of its niche and enjoys strong brand loyalty.

## KEY COMPETITORS
- Globex: larger but slower to innovate
- Initech - legacy vendor losing share
* Umbrella Corp
• Hooli: deep pockets, thin focus

## OPPORTUNITIES
- APAC expansion: untapped demand
- Product-led growth

## THREATS
- New entrant: well funded startup

## STRATEGIC RECOMMENDATIONS
- Invest in R&D: maintain technical lead
- Expand sales team
`

func TestExtractSection(t *testing.T) {
	got := ExtractSection(sampleReport, "EXECUTIVE SUMMARY")
	assert.Equal(t, "Acme Corp is a strong regional player with growing market share.\nRevenue grew 40% year over year.", got)
}

func TestExtractSection_CaseInsensitive(t *testing.T) {
	text := "## executive summary\nLowercase heading works.\n\n## MARKET POSITION\nFine."
	assert.Equal(t, "Lowercase heading works.", ExtractSection(text, "EXECUTIVE SUMMARY"))
}

func TestExtractSection_Missing(t *testing.T) {
	assert.Equal(t, "", ExtractSection("no headings here", "EXECUTIVE SUMMARY"))
}

func TestExtractSection_LastSectionRunsToEnd(t *testing.T) {
	got := ExtractSection(sampleReport, "STRATEGIC RECOMMENDATIONS")
	assert.Contains(t, got, "Expand sales team")
}

func TestExtractStructuredList(t *testing.T) {
	items := ExtractStructuredList(sampleReport, "KEY COMPETITORS")
	require.Len(t, items, 4)

	assert.Equal(t, model.ListItem{Title: "Globex", Description: "larger but slower to innovate"}, items[0])
	assert.Equal(t, model.ListItem{Title: "Initech", Description: "legacy vendor losing share"}, items[1])
	assert.Equal(t, model.ListItem{Title: "Umbrella Corp", Description: ""}, items[2])
	assert.Equal(t, model.ListItem{Title: "Hooli", Description: "deep pockets, thin focus"}, items[3])
}

func TestExtractStructuredList_AbsentSection(t *testing.T) {
	items := ExtractStructuredList("## EXECUTIVE SUMMARY\ntext only", "THREATS")
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestExtractStructuredList_EmptySection(t *testing.T) {
	text := "## THREATS\n\n## STRATEGIC RECOMMENDATIONS\n- Do things"
	items := ExtractStructuredList(text, "THREATS")
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestExtractStructuredList_FirstSeparatorWins(t *testing.T) {
	text := "## OPPORTUNITIES\nAcme: builds - widgets"
	items := ExtractStructuredList(text, "OPPORTUNITIES")
	require.Len(t, items, 1)
	assert.Equal(t, "Acme", items[0].Title)
	assert.Equal(t, "builds - widgets", items[0].Description)
}

func TestExtractStructuredList_EnDashSeparator(t *testing.T) {
	text := "## OPPORTUNITIES\n- Nearshoring – cost advantage"
	items := ExtractStructuredList(text, "OPPORTUNITIES")
	require.Len(t, items, 1)
	assert.Equal(t, "Nearshoring", items[0].Title)
	assert.Equal(t, "cost advantage", items[0].Description)
}

func TestExtractStructuredList_SeparatorOnlyLine(t *testing.T) {
	text := "## THREATS\n:"
	items := ExtractStructuredList(text, "THREATS")
	require.Len(t, items, 1)
	assert.Equal(t, "", items[0].Title)
	assert.Equal(t, "", items[0].Description)
}

func TestExtractStructuredList_BareBulletDropped(t *testing.T) {
	text := "## THREATS\n-\n- Real threat: exists"
	items := ExtractStructuredList(text, "THREATS")
	require.Len(t, items, 1)
	assert.Equal(t, "Real threat", items[0].Title)
}

func TestParseReport_RoundTrip(t *testing.T) {
	// Generated text shaped by the fixed prompt template parses back
	// into the original titles and descriptions.
	report := ParseReport(sampleReport)

	assert.Contains(t, report.ExecutiveSummary, "strong regional player")
	assert.Contains(t, report.MarketPosition, "12%")
	require.Len(t, report.Competitors, 4)
	require.Len(t, report.Opportunities, 2)
	assert.Equal(t, "APAC expansion", report.Opportunities[0].Title)
	assert.Equal(t, "untapped demand", report.Opportunities[0].Description)
	assert.Equal(t, "Product-led growth", report.Opportunities[1].Title)
	require.Len(t, report.Threats, 1)
	require.Len(t, report.Recommendations, 2)
	assert.Equal(t, "Invest in R&D", report.Recommendations[0].Title)
}

func TestParseReport_MalformedInputNeverFails(t *testing.T) {
	for _, input := range []string{
		"",
		"## ",
		"no structure at all",
		"## KEY COMPETITORS",
		"## KEY COMPETITORS\n## OPPORTUNITIES",
	} {
		report := ParseReport(input)
		assert.Equal(t, "", report.ExecutiveSummary)
		assert.NotNil(t, report.Competitors)
	}
}

func TestBuildPrompt_AbsentPayloadsAreNull(t *testing.T) {
	prompt := BuildPrompt("Acme", nil, nil, nil)
	assert.Contains(t, prompt, "SEARCH RESULTS:\nnull")
	assert.Contains(t, prompt, "FINANCIAL DATA:\nnull")
	assert.Contains(t, prompt, "COMPETITOR DATA:\nnull")
}

func TestBuildPrompt_ContainsAllHeadings(t *testing.T) {
	prompt := BuildPrompt("Acme", map[string]any{"answer": "data"}, nil, nil)
	for _, heading := range []string{
		"## EXECUTIVE SUMMARY",
		"## MARKET POSITION",
		"## KEY COMPETITORS",
		"## OPPORTUNITIES",
		"## THREATS",
		"## STRATEGIC RECOMMENDATIONS",
	} {
		assert.Contains(t, prompt, heading)
	}
	assert.Contains(t, prompt, `"answer": "data"`)
}
