package goal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInformationRequestWithToolOutput(t *testing.T) {
	rep := Validate(Input{
		Goal:      "List all files in the workspace",
		Response:  "report.txt\nnotes.txt\ndrafts/",
		ToolsUsed: []string{"list_all"},
	})
	assert.Equal(t, ComplianceFully, rep.Level)
	assert.True(t, rep.IsCompliant())
	assert.InDelta(t, 0.8, rep.Confidence, 1e-9)
}

func TestValidateInformationRequestWithoutEvidence(t *testing.T) {
	rep := Validate(Input{
		Goal:     "List all files in the workspace",
		Response: "There are probably some files around.",
	})
	assert.Equal(t, CompliancePartially, rep.Level)
	assert.True(t, rep.IsCompliant())
	assert.NotEmpty(t, rep.MissingElements)
}

func TestValidateInformationRequestEmptyAnswer(t *testing.T) {
	rep := Validate(Input{
		Goal:     "Show the directory layout",
		Response: "Done,",
	})
	assert.Equal(t, ComplianceNon, rep.Level)
	assert.False(t, rep.IsCompliant())
}

func TestValidateActionRequestSuccess(t *testing.T) {
	rep := Validate(Input{
		Goal:      "Create a file named todo.txt with the shopping list",
		Response:  "wrote todo.txt (42 bytes, overwrite)",
		ToolsUsed: []string{"write_file"},
	})
	assert.Equal(t, ComplianceFully, rep.Level)
}

func TestValidateActionRequestWithErrorSignal(t *testing.T) {
	rep := Validate(Input{
		Goal:      "Delete the file old.txt from the workspace",
		Response:  "The delete_file tool failed because old.txt was locked, so nothing changed in the workspace this time.",
		ToolsUsed: []string{"delete_file"},
	})
	assert.Equal(t, CompliancePartially, rep.Level)
}

func TestValidateActionRequestNoTools(t *testing.T) {
	rep := Validate(Input{
		Goal:     "Delete the file old.txt",
		Response: "I would delete it if you confirm first, since removal is permanent.",
	})
	assert.Equal(t, ComplianceNon, rep.Level)
	assert.Contains(t, rep.Suggestions, "Run the relevant workspace tool before answering")
}

func TestValidateErrorShortCircuit(t *testing.T) {
	rep := Validate(Input{
		Goal:      "List all files in the workspace",
		Response:  "Error: rate limited",
		ToolsUsed: []string{"list_files"},
	})
	assert.Equal(t, ComplianceNon, rep.Level)
}

func TestValidateAnalysisRequest(t *testing.T) {
	long := "The project is a static site generator. It reads templates from the templates directory. " +
		"Content lives in markdown under posts. The build step renders each post through its template. " +
		"Output lands in the public directory."
	rep := Validate(Input{
		Goal:     "Analyze the project structure and explain how the build works",
		Response: long,
	})
	assert.Equal(t, ComplianceFully, rep.Level)

	rep = Validate(Input{
		Goal:     "Analyze the project structure",
		Response: "It is a static site generator with templates and markdown",
	})
	assert.Equal(t, CompliancePartially, rep.Level)
}

func TestValidateUnclearGoal(t *testing.T) {
	rep := Validate(Input{
		Goal:     "AMBIGUOUS_REQUEST",
		Response: "Could you tell me more about what you need?",
	})
	assert.Equal(t, ComplianceUnclear, rep.Level)
	assert.False(t, rep.IsCompliant())
}

func TestValidateEmptyInputs(t *testing.T) {
	rep := Validate(Input{Goal: "", Response: "hello"})
	assert.Equal(t, ComplianceUnclear, rep.Level)

	rep = Validate(Input{Goal: "List files", Response: "   "})
	assert.Equal(t, ComplianceUnclear, rep.Level)
}

func TestValidateConfidenceAdjustments(t *testing.T) {
	// File-ops goal answered without tools loses confidence.
	rep := Validate(Input{
		Goal:     "List all files in the workspace",
		Response: "Some files exist, I believe, somewhere in there.",
	})
	assert.InDelta(t, 0.2, rep.Confidence, 1e-9)

	// Structured tree output for a tree-format goal gains it.
	tree := "workspace/\n├── docs/\n│   └── a.md\n└── readme.txt\n" + strings.Repeat("…", 80)
	rep = Validate(Input{
		Goal:      "Display workspace file and directory structure in tree format",
		Response:  tree,
		ToolsUsed: []string{"list_tree"},
	})
	assert.Equal(t, ComplianceFully, rep.Level)
	assert.InDelta(t, 1.0, rep.Confidence, 1e-9)
}
