package simulation

import (
	"math"
	"sort"
	"sync"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/service"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

type Imputation struct {
	Index     int
	Estimate  float64
	TrueValue float64
	Mode      service.EstimationMode
}

// Report summarizes the imputations of one agent. Errors are only computed
// over imputations whose true value is known.
type Report struct {
	AgentID     uuid.UUID
	Agent       string
	Contexts    int
	Perceptions int
	Imputations int
	MAE         float64
	RMSE        float64
	Terminated  bool
}

type agentRecord struct {
	name        string
	contexts    int
	perceptions int
	imputations []Imputation
	terminated  bool
}

// Recorder is a listener that keeps what every agent did.
type Recorder struct {
	mu     sync.Mutex
	agents map[uuid.UUID]*agentRecord
	order  []uuid.UUID
}

func NewRecorder() *Recorder {
	return &Recorder{agents: make(map[uuid.UUID]*agentRecord)}
}

func (r *Recorder) get(id uuid.UUID, name string) *agentRecord {
	rec, ok := r.agents[id]
	if !ok {
		rec = &agentRecord{name: name}
		r.agents[id] = rec
		r.order = append(r.order, id)
	}
	if rec.name == "" {
		rec.name = name
	}
	return rec
}

func (r *Recorder) ContextAdded(a *service.Agent, _ *domain.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(a.ID(), a.Name()).contexts++
}

func (r *Recorder) Perceived(agentID uuid.UUID, _ []domain.ContextEntry, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(agentID, "").perceptions++
}

func (r *Recorder) Imputed(a *service.Agent, _ *domain.Context, entry domain.ContextEntry, _ map[uuid.UUID][]*domain.Context, trueValue float64) {
	idx := a.Sensor().CurrentSampleIndex()
	mode := a.Mode()
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.get(a.ID(), a.Name())
	rec.imputations = append(rec.imputations, Imputation{Index: idx, Estimate: entry.Value, TrueValue: trueValue, Mode: mode})
}

func (r *Recorder) Terminated(a *service.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(a.ID(), a.Name()).terminated = true
}

func (r *Recorder) Imputations(id uuid.UUID) []Imputation {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.agents[id]
	if !ok {
		return nil
	}
	return append([]Imputation(nil), rec.imputations...)
}

// Reports returns one report per agent, ordered by agent name.
func (r *Recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Report, 0, len(r.order))
	for _, id := range r.order {
		rec := r.agents[id]
		mae, rmse := errorsOf(rec.imputations)
		out = append(out, Report{
			AgentID:     id,
			Agent:       rec.name,
			Contexts:    rec.contexts,
			Perceptions: rec.perceptions,
			Imputations: len(rec.imputations),
			MAE:         mae,
			RMSE:        rmse,
			Terminated:  rec.terminated,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

func errorsOf(imps []Imputation) (float64, float64) {
	var abs, sq []float64
	for _, imp := range imps {
		d := imp.Estimate - imp.TrueValue
		if !domain.IsFinite(d) {
			continue
		}
		abs = append(abs, math.Abs(d))
		sq = append(sq, d*d)
	}
	if len(abs) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.Mean(abs, nil), math.Sqrt(stat.Mean(sq, nil))
}
