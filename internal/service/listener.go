package service

import (
	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/google/uuid"
)

// Listener observes an agent. Callbacks run on the agent's goroutine and
// must not block.
type Listener interface {
	ContextAdded(a *Agent, c *domain.Context)
	Perceived(agentID uuid.UUID, entries []domain.ContextEntry, idx int)
	Imputed(a *Agent, ref *domain.Context, entry domain.ContextEntry, used map[uuid.UUID][]*domain.Context, trueValue float64)
	Terminated(a *Agent)
}

type NopListener struct{}

func (NopListener) ContextAdded(*Agent, *domain.Context) {}
func (NopListener) Perceived(uuid.UUID, []domain.ContextEntry, int) {}
func (NopListener) Terminated(*Agent) {}
func (NopListener) Imputed(*Agent, *domain.Context, domain.ContextEntry, map[uuid.UUID][]*domain.Context, float64) {
}

// Listeners fans every callback out in order.
type Listeners []Listener

func (ls Listeners) ContextAdded(a *Agent, c *domain.Context) {
	for _, l := range ls {
		l.ContextAdded(a, c)
	}
}

func (ls Listeners) Perceived(agentID uuid.UUID, entries []domain.ContextEntry, idx int) {
	for _, l := range ls {
		l.Perceived(agentID, entries, idx)
	}
}

func (ls Listeners) Imputed(a *Agent, ref *domain.Context, entry domain.ContextEntry, used map[uuid.UUID][]*domain.Context, trueValue float64) {
	for _, l := range ls {
		l.Imputed(a, ref, entry, used, trueValue)
	}
}

func (ls Listeners) Terminated(a *Agent) {
	for _, l := range ls {
		l.Terminated(a)
	}
}
