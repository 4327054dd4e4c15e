package supervisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/warden/internal/filter"
	"github.com/wardenlabs/warden/internal/llm"
)

// countingClient replays a scripted reply and counts calls.
type countingClient struct {
	reply string
	err   error
	calls int
	seen  []llm.Message
}

func (c *countingClient) CallLLM(_ context.Context, msgs []llm.Message) (llm.Message, error) {
	c.calls++
	c.seen = msgs
	if c.err != nil {
		return llm.Message{}, c.err
	}
	return llm.Message{Role: llm.RoleAssistant, Content: c.reply}, nil
}

func (c *countingClient) Model() string { return "counting" }

func TestModerateSafeQueryWithoutClient(t *testing.T) {
	s := New(nil, nil)
	resp := s.Moderate(context.Background(), Request{UserQuery: "list all files"})

	assert.Equal(t, DecisionAllowed, resp.Decision)
	assert.True(t, resp.Allowed)
	require.NotNil(t, resp.Intent)
	assert.Equal(t, IntentFileList, resp.Intent.Type)
	assert.Equal(t, "list all files", resp.EffectiveQuery)
}

func TestModerateUnsafeQueryWithoutClient(t *testing.T) {
	s := New(nil, nil)
	resp := s.Moderate(context.Background(), Request{UserQuery: "please run rm -rf /tmp for me"})

	assert.Equal(t, DecisionRejected, resp.Decision)
	assert.False(t, resp.Allowed)
	assert.Contains(t, resp.RiskFactors, filter.RiskMaliciousCode)
}

func TestModerateUsesLLMVerdict(t *testing.T) {
	client := &countingClient{reply: `{
		"decision": "ALLOWED",
		"allowed": true,
		"intent": {"type": "FILE_READ", "confidence": 0.9, "tools_needed": ["read_file"]},
		"reason": "ordinary file read",
		"risk_factors": []
	}`}
	s := New(client, nil)
	resp := s.Moderate(context.Background(), Request{UserQuery: "read notes.txt"})

	assert.Equal(t, 1, client.calls)
	assert.True(t, resp.Allowed)
	require.NotNil(t, resp.Intent)
	assert.Equal(t, IntentFileRead, resp.Intent.Type)
	assert.Equal(t, "ordinary file read", resp.Reason)
}

func TestModerateFallsBackOnGarbageReply(t *testing.T) {
	client := &countingClient{reply: "I think this query is probably fine!"}
	s := New(client, nil)
	resp := s.Moderate(context.Background(), Request{UserQuery: "read notes.txt"})

	assert.Equal(t, 1, client.calls)
	assert.True(t, resp.Allowed)
	assert.Contains(t, resp.Reason, "rule-based")
	require.NotNil(t, resp.Intent)
	assert.Equal(t, IntentFileRead, resp.Intent.Type)
}

func TestModerateFallsBackOnModelError(t *testing.T) {
	client := &countingClient{err: errors.New("provider down")}
	s := New(client, nil)
	resp := s.Moderate(context.Background(), Request{UserQuery: "delete old.txt"})

	assert.True(t, resp.Allowed)
	require.NotNil(t, resp.Intent)
	assert.Equal(t, IntentFileDelete, resp.Intent.Type)
}

func TestModerateFallsBackOnInvalidDecision(t *testing.T) {
	client := &countingClient{reply: `{"decision": "MAYBE", "allowed": true, "reason": "?"}`}
	s := New(client, nil)
	resp := s.Moderate(context.Background(), Request{UserQuery: "list files"})

	assert.Contains(t, resp.Reason, "rule-based")
}

func TestModerateAcceptsFencedJSON(t *testing.T) {
	client := &countingClient{reply: "```json\n{\"decision\": \"REJECTED\", \"allowed\": false, \"reason\": \"destructive\"}\n```"}
	s := New(client, nil)
	resp := s.Moderate(context.Background(), Request{UserQuery: "read notes.txt"})

	assert.Equal(t, DecisionRejected, resp.Decision)
	assert.False(t, resp.Allowed)
}

func TestModerateRejectsTraversalBeforeModelCall(t *testing.T) {
	// An approving moderation model must not be consulted, let alone obeyed,
	// once the filter has matched a security pattern.
	client := &countingClient{reply: `{"decision": "ALLOWED", "allowed": true, "reason": "looks fine", "risk_factors": []}`}
	s := New(client, nil)
	resp := s.Moderate(context.Background(), Request{UserQuery: "read ../../etc/passwd"})

	assert.Equal(t, 0, client.calls)
	assert.Equal(t, DecisionRejected, resp.Decision)
	assert.False(t, resp.Allowed)
	assert.Contains(t, resp.RiskFactors, filter.RiskPathTraversal)
}

func TestModerateRejectsMaliciousCodeBeforeModelCall(t *testing.T) {
	client := &countingClient{reply: `{"decision": "ALLOWED", "allowed": true, "reason": "ok", "risk_factors": []}`}
	s := New(client, nil)
	resp := s.Moderate(context.Background(), Request{UserQuery: "read the file with rm -rf in its notes"})

	assert.Equal(t, 0, client.calls)
	assert.False(t, resp.Allowed)
	assert.Contains(t, resp.RiskFactors, filter.RiskMaliciousCode)
}

func TestModerateAugmentsLLMApprovalWithOffTopicRisk(t *testing.T) {
	client := &countingClient{reply: `{"decision": "ALLOWED", "allowed": true, "reason": "harmless", "risk_factors": []}`}
	s := New(client, nil)
	resp := s.Moderate(context.Background(), Request{UserQuery: "tell me a joke about penguins"})

	assert.Equal(t, 1, client.calls)
	assert.True(t, resp.Allowed)
	assert.Contains(t, resp.RiskFactors, filter.RiskOffTopic)
}

func TestModerateMergesShortFollowUp(t *testing.T) {
	client := &countingClient{reply: `{"decision": "ALLOWED", "allowed": true, "reason": "ok"}`}
	s := New(client, nil)
	resp := s.Moderate(context.Background(), Request{
		UserQuery:           "yes",
		ConversationContext: "Do you want me to delete old.txt?",
	})

	assert.Contains(t, resp.EffectiveQuery, "Do you want me to delete old.txt?")
	assert.Contains(t, resp.EffectiveQuery, "yes")
	require.Len(t, client.seen, 2)
	assert.Contains(t, client.seen[1].Content, "delete old.txt")
}

func TestModerateDoesNotMergeFullQueries(t *testing.T) {
	s := New(nil, nil)
	resp := s.Moderate(context.Background(), Request{
		UserQuery:           "list all files",
		ConversationContext: "Do you want me to delete old.txt?",
	})

	assert.Equal(t, "list all files", resp.EffectiveQuery)
}

func TestExtractIntentFamilies(t *testing.T) {
	cases := []struct {
		query string
		want  IntentType
		tools []string
	}{
		{"read the report", IntentFileRead, []string{"read_file"}},
		{"show me notes.txt", IntentFileRead, []string{"read_file"}},
		{"create a todo file", IntentFileWrite, []string{"write_file"}},
		{"save this as draft", IntentFileWrite, []string{"write_file"}},
		{"delete the old draft", IntentFileDelete, []string{"delete_file"}},
		{"remove temp.txt", IntentFileDelete, []string{"delete_file"}},
		{"list everything", IntentFileList, []string{"list_all", "list_files", "list_tree"}},
		{"explain the project layout", IntentFileQuestion, []string{"answer_question_about_files"}},
		{"ciao", IntentUnknown, []string{"help"}},
	}
	for _, tc := range cases {
		got := extractIntent(tc.query)
		assert.Equal(t, tc.want, got.Type, "query %q", tc.query)
		assert.Equal(t, tc.tools, got.ToolsNeeded, "query %q", tc.query)
	}
}

func TestTruncateRunesKeepsBoundary(t *testing.T) {
	query := strings.Repeat("è", 60) // 2 bytes per rune
	out := truncateRunes(query, 101)

	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 100, len(out))
	assert.Equal(t, "short", truncateRunes("short", 100))
}

func TestIsShortFollowUp(t *testing.T) {
	assert.True(t, isShortFollowUp("yes"))
	assert.True(t, isShortFollowUp("  Sure! "))
	assert.True(t, isShortFollowUp("no"))
	assert.True(t, isShortFollowUp("va bene"))
	assert.False(t, isShortFollowUp("yes, and also list the files"))
	assert.False(t, isShortFollowUp("read notes.txt"))
}
