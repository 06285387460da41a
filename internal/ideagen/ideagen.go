package ideagen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cognicore/ideascope/internal/llm"
	"github.com/cognicore/ideascope/pkg/ideascope/idea"
)

// Request describes one generation call.
type Request struct {
	Topic string
	N     int
	// Avoid lists titles already generated for the topic.
	Avoid []string
}

const system = "You are an expert researcher proposing novel, concrete and testable research ideas. Reply with JSON only."

// BuildPrompt returns the system and user prompts for req.
func BuildPrompt(req Request) (string, string) {
	n := req.N
	if n <= 0 {
		n = 1
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Topic: %s\n\n", req.Topic)
	fmt.Fprintf(&buf, "Propose %d distinct research ideas on this topic. ", n)
	fmt.Fprintf(&buf, "Each idea needs a short title and these fields: %s, %s, %s, %s, %s.\n",
		idea.FieldProblem, idea.FieldExistingMethods, idea.FieldMotivation, idea.FieldProposedMethod, idea.FieldExperimentPlan)
	if len(req.Avoid) > 0 {
		buf.WriteString("\nDo not repeat or paraphrase these existing ideas:\n")
		for _, t := range req.Avoid {
			fmt.Fprintf(&buf, "- %s\n", t)
		}
	}
	fmt.Fprintf(&buf, "\nRespond with a JSON object mapping each title to an object with the keys %q, %q, %q, %q and %q.\n",
		idea.FieldProblem, idea.FieldExistingMethods, idea.FieldMotivation, idea.FieldProposedMethod, idea.FieldExperimentPlan)
	return system, buf.String()
}

// ParseReply extracts ideas from a model reply. The JSON may be a title-keyed
// object, a list of single-key objects, or either wrapped in {"ideas": ...}.
// Malformed ideas are skipped and counted.
func ParseReply(reply string) ([]idea.Idea, int, error) {
	raw, err := llm.ExtractJSON(reply)
	if err != nil {
		return nil, 0, err
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil || probe["ideas"] == nil {
		raw = `{"ideas": ` + raw + `}`
	}
	c, skipped, err := idea.Parse([]byte(raw), true)
	if err != nil {
		return nil, 0, fmt.Errorf("parse reply: %w", err)
	}
	return c.Ideas, skipped, nil
}

// Generator asks a chat model for ideas.
type Generator struct {
	Chat llm.Chat
}

// Generate runs one request and returns the parsed ideas. Titles listed in
// req.Avoid are dropped from the result.
func (g *Generator) Generate(ctx context.Context, req Request) ([]idea.Idea, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("ideagen: topic required")
	}
	sys, user := BuildPrompt(req)
	reply, err := g.Chat.Complete(ctx, sys, user)
	if err != nil {
		return nil, err
	}
	ideas, _, err := ParseReply(reply)
	if err != nil {
		return nil, err
	}

	avoid := make(map[string]struct{}, len(req.Avoid))
	for _, t := range req.Avoid {
		avoid[t] = struct{}{}
	}
	out := ideas[:0]
	for _, it := range ideas {
		if _, ok := avoid[it.Title]; ok {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}
