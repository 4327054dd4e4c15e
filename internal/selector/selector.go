// Package selector picks the most suitable tool for a query by running a
// short guided-reasoning call against an auxiliary model and parsing the tool
// choice out of the reasoning text. Every failure degrades to the safe help
// tool, never to an error.
package selector

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/llm"
	"github.com/wardenlabs/warden/internal/tool"
)

const fallbackTool = "help"

// Selection is the outcome of tool selection.
type Selection struct {
	SelectedTool        string
	Confidence          float64
	Reasoning           string
	AlternativeTools    []string
	RequiresParameters  bool
	SuggestedParameters map[string]string
}

// Selector drives the guided-reasoning selection.
type Selector struct {
	client   llm.Client
	registry *tool.Registry
	log      *zap.Logger
}

func New(client llm.Client, registry *tool.Registry, log *zap.Logger) *Selector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{client: client, registry: registry, log: log.Named("selector")}
}

const selectionPromptTemplate = `You select exactly one tool for a user request.

IMPORTANT: reason in English only, regardless of the language of the request.

Work through three thoughts:
Thought 1: decompose what the user wants to achieve.
Thought 2: evaluate how well each available tool fits that intent.
Thought 3: commit to one tool, stating it as: use <tool_name>.

%s

User request: %s
%s`

// Select runs the reasoning call and parses a tool choice from the reply.
// A nil client or any model failure falls back to the help tool.
func (s *Selector) Select(ctx context.Context, query, context_ string) Selection {
	if s.client == nil {
		return Selection{
			SelectedTool: fallbackTool,
			Confidence:   0.1,
			Reasoning:    "no selection model configured",
		}
	}

	var extra strings.Builder
	if lang := detectLanguage(query); lang != "" {
		extra.WriteString("user_language: " + lang + "\n")
	}
	if context_ != "" {
		extra.WriteString("Context: " + context_ + "\n")
	}

	prompt := fmt.Sprintf(selectionPromptTemplate, s.registry.CatalogPrompt(), query, extra.String())
	reply, err := s.client.CallLLM(ctx, []llm.Message{llm.User(prompt)})
	if err != nil {
		s.log.Warn("selection model failed", zap.Error(err))
		return Selection{
			SelectedTool: fallbackTool,
			Confidence:   0.1,
			Reasoning:    err.Error(),
		}
	}

	return s.parse(reply.Content)
}

// namePatterns are tried in order against the reasoning text.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`'([a-zA-Z_]+)'\s+tool`),
	regexp.MustCompile(`use\s+([a-zA-Z_]+)`),
	regexp.MustCompile(`select\s+([a-zA-Z_]+)`),
	regexp.MustCompile(`"([a-zA-Z_]+)"\s+tool`),
	regexp.MustCompile("`([a-zA-Z_]+)`"),
}

// parse extracts the selected tool, confidence and parameters from the
// reasoning text.
func (s *Selector) parse(reasoning string) Selection {
	lower := strings.ToLower(reasoning)
	known := s.registry.Names()

	selected := ""
	for _, re := range namePatterns {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			if isKnown(known, m[1]) {
				selected = m[1]
				break
			}
		}
		if selected != "" {
			break
		}
	}

	scored, mentioned := s.scoreMentions(lower, known)
	if selected == "" {
		selected = scored
	}
	alternatives := remove(mentioned, selected)

	sel := Selection{
		SelectedTool:     selected,
		Confidence:       confidenceFromWording(lower),
		Reasoning:        reasoning,
		AlternativeTools: alternatives,
	}
	s.attachParameters(&sel, reasoning)
	return sel
}

// scoreMentions counts tool-name mentions plus positive-phrase proximity and
// returns the winner along with every mentioned tool. Zero mentions fall
// back to help.
func (s *Selector) scoreMentions(lower string, known []string) (string, []string) {
	best, bestScore := fallbackTool, 0
	var mentioned []string
	for _, name := range known {
		score := strings.Count(lower, name)
		if score == 0 {
			continue
		}
		for _, phrase := range []string{name + " is the best", "use " + name, name + " fits"} {
			if strings.Contains(lower, phrase) {
				score += 2
			}
		}
		mentioned = append(mentioned, name)
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	return best, mentioned
}

var (
	highConfidence = []string{"clearly", "definitely", "certain", "best choice"}
	midConfidence  = []string{"probably", "likely", "seems"}
	lowConfidence  = []string{"might", "possibly", "maybe"}
)

func confidenceFromWording(lower string) float64 {
	for _, w := range highConfidence {
		if strings.Contains(lower, w) {
			return 0.9
		}
	}
	for _, w := range midConfidence {
		if strings.Contains(lower, w) {
			return 0.7
		}
	}
	for _, w := range lowConfidence {
		if strings.Contains(lower, w) {
			return 0.4
		}
	}
	return 0.6
}

var (
	filenameRe = regexp.MustCompile(`\b([\w-]+\.[A-Za-z0-9]{1,8})\b`)
	patternRe  = regexp.MustCompile(`pattern\s+["']([^"']+)["']`)
)

// attachParameters fills suggested parameters when the selected tool declares
// a filename or pattern parameter and the reasoning names a candidate.
func (s *Selector) attachParameters(sel *Selection, reasoning string) {
	t, ok := s.registry.Get(sel.SelectedTool)
	if !ok {
		return
	}
	params := tool.ParamNames(t.InputSchema())
	if len(tool.RequiredParams(t.InputSchema())) > 0 {
		sel.RequiresParameters = true
	}
	for _, p := range params {
		switch p {
		case "filename":
			if m := filenameRe.FindStringSubmatch(reasoning); m != nil {
				if sel.SuggestedParameters == nil {
					sel.SuggestedParameters = make(map[string]string)
				}
				sel.SuggestedParameters["filename"] = m[1]
			}
		case "pattern":
			if m := patternRe.FindStringSubmatch(reasoning); m != nil {
				if sel.SuggestedParameters == nil {
					sel.SuggestedParameters = make(map[string]string)
				}
				sel.SuggestedParameters["pattern"] = m[1]
			}
		}
	}
}

// italianTokens flag the query language for the prompt context. Reasoning
// itself stays in English.
var italianTokens = []string{"lista", "cartelle", "mostra", "tutti", "file"}

func detectLanguage(query string) string {
	lower := strings.ToLower(query)
	hits := 0
	for _, tok := range italianTokens {
		if strings.Contains(lower, tok) {
			hits++
		}
	}
	if hits >= 2 {
		return "Italian"
	}
	return ""
}

func isKnown(known []string, name string) bool {
	for _, k := range known {
		if k == name {
			return true
		}
	}
	return false
}

func remove(list []string, name string) []string {
	out := list[:0]
	for _, v := range list {
		if v != name {
			out = append(out, v)
		}
	}
	return out
}
