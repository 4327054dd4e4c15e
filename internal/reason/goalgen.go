package reason

import (
	"regexp"
	"strings"
)

// Sentinel goals that route to a clarification response instead of tool
// execution.
const (
	GoalAmbiguous     = "AMBIGUOUS_REQUEST"
	GoalNeedsFileSpec = "NEEDS_FILE_SPECIFICATION"
)

var vagueQueries = map[string]bool{
	"help": true, "hi": true, "hello": true, "hey": true,
	"what can you do": true, "what do you do": true,
	"yes": true, "no": true, "ok": true, "sure": true,
	"ciao": true, "aiuto": true,
}

// verbWithoutObject matches action verbs that name no concrete file.
var verbWithoutObject = regexp.MustCompile(
	`^(read|open|show|delete|remove|create|write)\s+(a\s+|the\s+|some\s+)?(file|something|it)$`)

var filenameToken = regexp.MustCompile(`\b[\w-]+\.[A-Za-z0-9]{1,8}\b`)

// synthesizeGoal derives a goal when the model supplies none. The sentinel
// goals short-circuit the loop into a clarification answer.
func synthesizeGoal(query string) string {
	lower := strings.ToLower(strings.TrimSpace(query))
	lower = strings.Trim(lower, "?!. ")

	if lower == "" || vagueQueries[lower] {
		return GoalAmbiguous
	}
	if verbWithoutObject.MatchString(lower) {
		return GoalNeedsFileSpec
	}

	hasFilename := filenameToken.MatchString(query)
	switch {
	case containsAny(lower, "tree", "structure", "struttura"):
		return "Display workspace file and directory structure in tree format"
	case containsAny(lower, "largest", "biggest", "più grande"):
		return "Find the largest file and report or read its content"
	case containsAny(lower, "list", "lista", "files", "directories", "cartelle", "tutti", "elenco"):
		return "List all files in the workspace"
	case hasFilename && containsAny(lower, "read", "open", "content", "describe", "leggi", "mostra", "contenuto"):
		return "Read and analyze the specified file content"
	case containsAny(lower, "write", "create", "save", "add", "scrivi", "crea"):
		return "Create or update the specified file in the workspace"
	case containsAny(lower, "delete", "remove", "elimina", "cancella"):
		return "Delete the specified file from the workspace"
	case containsAny(lower, "what", "how", "which", "why", "explain", "analyze", "describe", "cosa", "come"):
		return "Answer the user's question about workspace files"
	default:
		return "Process the user's file-related request"
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// englishHints are stop-word substrings used by the language heuristic. A
// query whose token hit ratio falls below 30% is treated as non-English and
// translated before reasoning.
var englishHints = []string{
	"the", "and", "are", "you", "what", "how", "where", "this", "that",
	"with", "for", "can", "will", "read", "write", "show", "help",
	"file", "list", "create", "delete", "tree", "please", "largest", "here",
}

func looksEnglish(query string) bool {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return true
	}
	hits := 0
	for _, tok := range tokens {
		for _, h := range englishHints {
			if strings.Contains(tok, h) {
				hits++
				break
			}
		}
	}
	return float64(hits) >= 0.3*float64(len(tokens))
}
