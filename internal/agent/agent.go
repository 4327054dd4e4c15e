// Package agent is the façade tying moderation, reasoning and response
// shaping into a single entry point.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/agenterr"
	"github.com/wardenlabs/warden/internal/goal"
	"github.com/wardenlabs/warden/internal/reason"
	"github.com/wardenlabs/warden/internal/supervisor"
)

const rejectionMarker = "🚫 Request rejected"

// Response is the complete answer for one query.
type Response struct {
	ConversationID string        `json:"conversation_id"`
	Response       string        `json:"response"`
	ToolsUsed      []string      `json:"tools_used"`
	ReasoningSteps []reason.Step `json:"reasoning_steps,omitempty"`
	Success        bool          `json:"success"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	Goal           string        `json:"goal,omitempty"`
	GoalCompliance *goal.Report  `json:"goal_compliance,omitempty"`
}

// Agent orchestrates one query at a time: supervisor gate first, then the
// reasoning loop, then response shaping.
type Agent struct {
	supervisor *supervisor.Supervisor
	loop       *reason.Loop
	debug      bool
	log        *zap.Logger
}

func New(sup *supervisor.Supervisor, loop *reason.Loop, debug bool, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{supervisor: sup, loop: loop, debug: debug, log: log.Named("agent")}
}

// ProcessQuery moderates and answers a query. A blank conversationID gets a
// fresh UUID; callers reuse the ID to link follow-ups.
func (a *Agent) ProcessQuery(ctx context.Context, query, conversationID string) Response {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	start := time.Now()

	verdict := a.supervisor.Moderate(ctx, supervisor.Request{
		UserQuery:      query,
		ConversationID: conversationID,
		Timestamp:      start,
	})
	if !verdict.Allowed {
		return Response{
			ConversationID: conversationID,
			Response:       fmt.Sprintf("%s: %s", rejectionMarker, verdict.Reason),
			ToolsUsed:      []string{},
			Success:        false,
			ErrorMessage:   verdict.Reason,
		}
	}

	out := a.loop.Run(ctx, verdict.EffectiveQuery)

	resp := Response{
		ConversationID: conversationID,
		Response:       out.Response,
		ToolsUsed:      out.ToolsUsed,
		Success:        out.Success,
		ErrorMessage:   out.ErrorMessage,
		Goal:           out.Goal,
		GoalCompliance: out.GoalCompliance,
	}
	if resp.ToolsUsed == nil {
		resp.ToolsUsed = []string{}
	}
	if a.debug {
		resp.ReasoningSteps = out.Steps
	}
	if !out.Success && resp.Response == "" {
		resp.Response = agenterr.Render(
			agenterr.New(agenterr.KindReasoning, out.ErrorMessage).
				WithSuggestions("Try rephrasing the request", "Check that the model credentials are configured"),
			a.debug)
	}

	a.log.Info("query processed",
		zap.String("conversation_id", conversationID),
		zap.Bool("success", resp.Success),
		zap.Strings("tools_used", resp.ToolsUsed),
		zap.Duration("elapsed", time.Since(start)))
	return resp
}
