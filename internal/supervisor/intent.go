package supervisor

import "strings"

// intentRule maps a keyword family to an intent type with its default tool
// set. Order matters: the first family with a hit wins.
type intentRule struct {
	keywords    []string
	intentType  IntentType
	confidence  float64
	toolsNeeded []string
}

var intentRules = []intentRule{
	{
		keywords:    []string{"delete", "remove", "elimina", "cancella"},
		intentType:  IntentFileDelete,
		confidence:  0.8,
		toolsNeeded: []string{"delete_file"},
	},
	{
		keywords:    []string{"write", "create", "save", "scrivi", "crea"},
		intentType:  IntentFileWrite,
		confidence:  0.8,
		toolsNeeded: []string{"write_file"},
	},
	{
		keywords:    []string{"read", "show", "view", "leggi", "mostra"},
		intentType:  IntentFileRead,
		confidence:  0.8,
		toolsNeeded: []string{"read_file"},
	},
	{
		keywords:    []string{"list", "files", "directory", "directories", "tree", "lista", "cartelle"},
		intentType:  IntentFileList,
		confidence:  0.8,
		toolsNeeded: []string{"list_all", "list_files", "list_tree"},
	},
	{
		keywords:    []string{"analyze", "explain", "what", "how", "which", "cosa", "come"},
		intentType:  IntentFileQuestion,
		confidence:  0.7,
		toolsNeeded: []string{"answer_question_about_files"},
	},
}

// extractIntent applies the keyword families in priority order. Queries with
// no family hit come back UNKNOWN with low confidence.
func extractIntent(query string) *Intent {
	lower := strings.ToLower(query)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return &Intent{
					Type:        rule.intentType,
					Confidence:  rule.confidence,
					ToolsNeeded: append([]string(nil), rule.toolsNeeded...),
				}
			}
		}
	}
	return &Intent{Type: IntentUnknown, Confidence: 0.3, ToolsNeeded: []string{"help"}}
}

// affirmatives and negatives form the closed set of context-dependent
// follow-ups that get merged with the previous turn before moderation.
var affirmatives = map[string]bool{
	"yes": true, "y": true, "yep": true, "yeah": true, "sure": true,
	"ok": true, "okay": true, "please": true, "go ahead": true,
	"sì": true, "si": true, "certo": true, "va bene": true,
}

var negatives = map[string]bool{
	"no": true, "n": true, "nope": true, "nah": true, "stop": true,
	"cancel": true, "never mind": true, "annulla": true,
}

// isShortFollowUp reports whether the query is a bare affirmative or
// negative that only makes sense with conversation context.
func isShortFollowUp(query string) bool {
	q := strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(query), ".!,")))
	return affirmatives[q] || negatives[q]
}

// mergeFollowUp synthesizes the enhanced query for a short follow-up.
func mergeFollowUp(context, answer string) string {
	return "Previous assistant message: " + context + "\nUser answered: " + strings.TrimSpace(answer)
}
