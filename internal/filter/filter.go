// Package filter implements the deterministic pre-flight safety check: fixed
// regex tables per risk category plus keyword-based off-topic detection. No
// model calls happen here, which keeps the fast-reject path cheap and
// predictable.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Risk identifies a detected safety risk category.
type Risk string

const (
	RiskPathTraversal    Risk = "PATH_TRAVERSAL"
	RiskMaliciousCode    Risk = "MALICIOUS_CODE"
	RiskSystemAccess     Risk = "SYSTEM_ACCESS"
	RiskDataExfiltration Risk = "DATA_EXFILTRATION"
	RiskPromptInjection  Risk = "PROMPT_INJECTION"
	RiskHarmfulContent   Risk = "HARMFUL_CONTENT"
	RiskOffTopic         Risk = "OFF_TOPIC"
	RiskUnknown          Risk = "UNKNOWN_RISK"
)

// Result is the filter verdict for a single query.
type Result struct {
	IsSafe                bool
	Confidence            float64
	DetectedRisks         []Risk
	Explanation           string
	SuggestedAlternatives []string
}

// riskOrder fixes the evaluation (and reporting) order of the categories.
var riskOrder = []Risk{
	RiskPathTraversal,
	RiskMaliciousCode,
	RiskSystemAccess,
	RiskDataExfiltration,
	RiskPromptInjection,
	RiskHarmfulContent,
}

// riskPatterns is compiled once at init; every pattern is case-insensitive.
var riskPatterns = map[Risk][]*regexp.Regexp{
	RiskPathTraversal: compileAll(
		`\.\./`,
		`/\.\.`,
		`%2e%2e`,
		`\.\.%2f`,
	),
	RiskMaliciousCode: compileAll(
		`rm\s+-rf`,
		`del\s+/s`,
		`format\s+c:`,
		`dd\s+if=`,
		`mkfs\.`,
		`fdisk`,
	),
	RiskSystemAccess: compileAll(
		`/etc/passwd`,
		`/etc/shadow`,
		`sudo\s+`,
		`chmod\s+777`,
	),
	RiskDataExfiltration: compileAll(
		`curl.*http`,
		`wget.*http`,
		`nc\s+.*\d+`,
		`scp\s+.*@`,
	),
	RiskPromptInjection: compileAll(
		`ignore.*instructions`,
		`forget.*previous`,
		`you.*are.*now`,
	),
	RiskHarmfulContent: compileAll(
		`hack`,
		`exploit`,
		`backdoor`,
		`malware`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// domainKeywords mark a query as on-topic for a file-operations agent.
// Italian synonyms cover the most common non-English phrasing seen in
// practice.
var domainKeywords = []string{
	"file", "files", "directory", "directories", "folder", "folders",
	"read", "write", "create", "delete", "remove", "list", "show",
	"tree", "content", "workspace", "save", "open", "find", "search",
	"largest", "biggest", "document",
	// Italian
	"lista", "cartelle", "cartella", "mostra", "tutti", "leggi",
	"scrivi", "crea", "elimina", "cancella", "contenuto",
}

// questionKeywords mark a query as a question even without domain terms.
var questionKeywords = []string{
	"what", "how", "where", "which", "who", "when", "why", "can", "could",
	"help", "please",
	// Italian
	"cosa", "come", "dove", "quale", "quali", "aiuto",
}

var suggestedAlternatives = []string{
	"Ask me to list, read, create or delete files in the workspace",
	"Ask a question about the contents of your workspace files",
}

// Check scans the query against every risk table and the off-topic
// heuristic. Confidence is 0.9 for a safe verdict, otherwise
// max(0.1, 1 - 0.3*len(risks)).
func Check(query string) Result {
	var risks []Risk
	for _, risk := range riskOrder {
		for _, re := range riskPatterns[risk] {
			if re.MatchString(query) {
				risks = append(risks, risk)
				break
			}
		}
	}

	if len(risks) == 0 && isOffTopic(query) {
		risks = append(risks, RiskOffTopic)
	}

	if len(risks) == 0 {
		return Result{
			IsSafe:      true,
			Confidence:  0.9,
			Explanation: "no risk patterns detected",
		}
	}

	confidence := 1.0 - 0.3*float64(len(risks))
	if confidence < 0.1 {
		confidence = 0.1
	}
	return Result{
		IsSafe:                false,
		Confidence:            confidence,
		DetectedRisks:         risks,
		Explanation:           explain(risks),
		SuggestedAlternatives: suggestedAlternatives,
	}
}

// isOffTopic reports whether the query contains neither a domain keyword nor
// a question keyword.
func isOffTopic(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range domainKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	for _, kw := range questionKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

func explain(risks []Risk) string {
	names := make([]string, len(risks))
	for i, r := range risks {
		names[i] = string(r)
	}
	return fmt.Sprintf("detected risks: %s", strings.Join(names, ", "))
}
