// Package assistant wraps the LLM chat collaborator. When the model call
// fails the rep still gets an answer from a persona-keyed template.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"outlet-insights-go/internal/logger"
)

type Reply struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

type Assistant struct {
	client Client
	log    *logrus.Entry
}

func New(client Client) *Assistant {
	return &Assistant{client: client, log: logger.New().Component("assistant")}
}

// Reply asks the model and falls back to the persona template on error.
func (a *Assistant) Reply(ctx context.Context, persona, message string, contextLines []string) Reply {
	text, err := a.client.Chat(ctx, message, contextLines)
	if err == nil && strings.TrimSpace(text) != "" {
		return Reply{Text: text}
	}
	a.log.WithError(err).WithField("persona", persona).Warn("chat failed, using fallback reply")
	return Reply{Text: Fallback(persona, message), Fallback: true}
}

var personaTips = map[string]string{
	"premium socialiser": "lead with the perfect-serve ritual and premium glassware",
	"sports bar":         "line up fixture-day promotions and keep fast-pour lines clean",
	"traditional local":  "protect the core stout serve and reward regulars",
	"food-led gastro":    "pair draught lines with the menu and push low-alcohol options",
	"late-night venue":   "focus on speed of service and packaged range at the bar",
}

// Fallback is the offline reply for a persona.
func Fallback(persona, message string) string {
	name := strings.TrimSpace(persona)
	tip, ok := personaTips[strings.ToLower(name)]
	if !ok {
		tip = "review the latest volume trend and agree one clear next step with the owner"
	}
	if name == "" {
		name = "this outlet"
	} else {
		name = "a " + name + " outlet"
	}
	return fmt.Sprintf("The assistant is unavailable right now. On %q: for %s, %s.", strings.TrimSpace(message), name, tip)
}
