package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/store"
	"github.com/google/uuid"
)

const (
	DefaultWindowWidth    = 10
	DefaultMaxWindowWidth = 14

	FinderFixedWidth = "fixed_width"
	FinderVarWidth   = "var_width"
)

var (
	ErrOracleRequired = errors.New("window finder requires the true next value")
	ErrNoWindow       = errors.New("no candidate window produced a finite error")
)

type Perceptions interface {
	At(idx int) (domain.Perception, bool)
}

type WindowRequest struct {
	Owner       uuid.UUID
	Info        domain.InfoType
	Index       int
	Perceptions Perceptions
	Store       *store.ContextStore
	Estimator   Estimator
	// Next is the true value of the following sample, known only when an
	// oracle backs the agent.
	Next *float64
}

func (r WindowRequest) entryAt(idx int) domain.ContextEntry {
	p, ok := r.Perceptions.At(idx)
	if !ok {
		return domain.EmptyEntry(r.Info)
	}
	return domain.NewEntry(r.Info, p.Value).WithValue(p.Value, p.Estimated)
}

type ContextFinder interface {
	Build(req WindowRequest) (*domain.Context, error)
}

// FixedWidthFinder takes the last Width perceptions up to and including the
// current index. Index 0 is never part of a window.
type FixedWidthFinder struct {
	Width int
}

func (f FixedWidthFinder) Build(req WindowRequest) (*domain.Context, error) {
	width := f.Width
	if width <= 0 {
		width = DefaultWindowWidth
	}
	c := domain.NewContext(req.Owner, req.Info).WithFinalIndex(req.Index)
	for i := 0; c.Size() < width && req.Index-i > 0; i++ {
		c.PushFront(req.entryAt(req.Index - i))
	}
	return c, nil
}

// VarWidthFinder grows the window one sample at a time and keeps the width
// whose imputed delta best predicts the true next value.
type VarWidthFinder struct {
	MaxWidth int
	Similar  int
}

func (f VarWidthFinder) Build(req WindowRequest) (*domain.Context, error) {
	if req.Next == nil {
		return nil, ErrOracleRequired
	}
	if req.Estimator == nil {
		return nil, ErrNoEstimationStrategy
	}
	maxWidth := f.MaxWidth
	if maxWidth < 2 {
		maxWidth = DefaultMaxWindowWidth
	}
	similar := f.Similar
	if similar <= 0 {
		similar = DefaultSimilarContexts
	}

	trial := domain.NewContext(req.Owner, req.Info).WithFinalIndex(req.Index)
	trial.AppendForce(req.entryAt(req.Index - 1))
	trial.AppendForce(req.entryAt(req.Index))
	if !trial.IsValid() {
		return domain.NewContext(req.Owner, req.Info).WithFinalIndex(req.Index), nil
	}

	current := trial.LastValue()
	next := *req.Next

	var best *domain.Context
	bestErr := math.Inf(1)
	for i := 2; i <= maxWidth; i++ {
		if req.Index-i < 0 {
			break
		}
		trial.PushFront(req.entryAt(req.Index - i))

		candidates := req.Store.MostSimilar(similar, trial, true)
		if len(candidates) == 0 {
			candidates = []*domain.Context{trial}
		}
		delta := req.Estimator.Impute(ImputeRequest{
			Self:      req.Owner,
			Contexts:  map[uuid.UUID][]*domain.Context{req.Owner: candidates},
			Reference: trial,
			Missing:   domain.EmptyEntry(req.Info),
		})
		dist := math.Abs(current + delta - next)
		if domain.IsFinite(dist) && dist < bestErr {
			bestErr = dist
			best = trial.Clone()
		}
	}

	if best == nil {
		return nil, fmt.Errorf("sample %d: %w", req.Index, ErrNoWindow)
	}
	best.SetFinalIndex(req.Index)
	return best, nil
}

// FinderByName resolves a window finder from its configuration name.
func FinderByName(name string, width, maxWidth, similar int) (ContextFinder, error) {
	switch name {
	case "", FinderFixedWidth:
		return FixedWidthFinder{Width: width}, nil
	case FinderVarWidth:
		return VarWidthFinder{MaxWidth: maxWidth, Similar: similar}, nil
	default:
		return nil, fmt.Errorf("unknown context finder %q", name)
	}
}
