package research

import (
	"encoding/json"
	"fmt"
)

// BuildPrompt assembles the analysis prompt from the collected payloads.
// Absent payloads serialize as "null" so the model knows the data was
// unavailable. The six "##" headings are load-bearing: the parser keys
// off them.
func BuildPrompt(companyName string, searchResults, financialData, competitorData map[string]any) string {
	return fmt.Sprintf(`As a senior market research analyst, please analyze the following data about %s and provide a comprehensive market research report.

SEARCH RESULTS:
%s

FINANCIAL DATA:
%s

COMPETITOR DATA:
%s

Please provide your analysis in the following structured format:

## EXECUTIVE SUMMARY
[2-3 sentence overview of key findings]

## MARKET POSITION
[Analysis of the company's position in the market, market share, competitive advantages]

## KEY COMPETITORS
[List of 3-5 main competitors with brief descriptions]

## OPPORTUNITIES
[3-5 key growth opportunities and market trends]

## THREATS
[3-5 key risks and challenges]

## STRATEGIC RECOMMENDATIONS
[3-5 actionable recommendations for growth and risk mitigation]

Focus on being factual, data-driven, and actionable. If information is limited, clearly state assumptions and data limitations.`,
		companyName,
		marshalPayload(searchResults),
		marshalPayload(financialData),
		marshalPayload(competitorData),
	)
}

func marshalPayload(m map[string]any) string {
	if m == nil {
		return "null"
	}
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "null"
	}
	return string(out)
}
