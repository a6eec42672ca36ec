package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/similarity"
	"github.com/Harshitk-cp/ambient/internal/store"
	"github.com/Harshitk-cp/ambient/internal/zone"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultTickInterval    = time.Millisecond
	DefaultMinSamples      = 10
	DefaultSimilarContexts = 10
	DefaultNeighborLimit   = 5
)

type State int

const (
	StateIdle State = iota
	StateReady
	StatePerceiveOk
	StateAbort
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StatePerceiveOk:
		return "perceive_ok"
	case StateAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// EstimationMode records where the last value of an agent came from.
type EstimationMode int

const (
	ModeRealSensor EstimationMode = iota
	ModeZone
	ModeNeighbors
	ModeContexts
)

func (m EstimationMode) String() string {
	switch m {
	case ModeRealSensor:
		return "real_sensor"
	case ModeZone:
		return "zone"
	case ModeNeighbors:
		return "neighbors"
	case ModeContexts:
		return "contexts"
	default:
		return "unknown"
	}
}

type Options struct {
	TickInterval    time.Duration
	MinSamples      int
	SimilarContexts int
	NeighborLimit   int
	HistogramBins   int
	UseCooperation  bool
	Promote         bool
	ConfidenceDelta float64
}

func DefaultOptions() Options {
	return Options{
		TickInterval:    DefaultTickInterval,
		MinSamples:      DefaultMinSamples,
		SimilarContexts: DefaultSimilarContexts,
		NeighborLimit:   DefaultNeighborLimit,
		HistogramBins:   DefaultHistogramBins,
		UseCooperation:  true,
		Promote:         true,
		ConfidenceDelta: DefaultConfidenceDelta,
	}
}

type Option func(*Agent)

func WithOptions(o Options) Option {
	return func(a *Agent) { a.opts = o }
}

func WithSensor(s domain.Sensor) Option {
	return func(a *Agent) { a.sensor = s }
}

// WithOracle lets the agent see the true next value while its own samples
// are observed. Window finders that need it fall back without one.
func WithOracle(o domain.Oracle) Option {
	return func(a *Agent) { a.oracle = o }
}

func WithRegistry(r *Registry) Option {
	return func(a *Agent) { a.registry = r }
}

func WithPosition(p r2.Vec) Option {
	return func(a *Agent) { a.position = &p }
}

func WithZone(z *zone.Zone, b *ZoneBehavior) Option {
	return func(a *Agent) {
		a.zone = z
		a.zoneBehavior = b
	}
}

func WithEstimator(e Estimator) Option {
	return func(a *Agent) { a.estimator = e }
}

func WithComparator(c similarity.Comparator) Option {
	return func(a *Agent) { a.comparator = c }
}

func WithFinder(f ContextFinder) Option {
	return func(a *Agent) { a.finder = f }
}

func WithCooperation(c Cooperation) Option {
	return func(a *Agent) { a.cooperation = c }
}

func WithNeighborStrategy(s NeighborStrategy) Option {
	return func(a *Agent) { a.strategy = s }
}

func WithListener(l Listener) Option {
	return func(a *Agent) { a.listener = l }
}

func WithFailureHandler(h FailureHandler) Option {
	return func(a *Agent) { a.failure = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

func WithID(id uuid.UUID) Option {
	return func(a *Agent) { a.id = id }
}

// Agent perceives one sensor, keeps contexts of its history and fills the
// gaps in it with its own contexts or with the help of its neighbors.
type Agent struct {
	id     uuid.UUID
	name   string
	opts   Options
	logger *zap.Logger

	sensor       domain.Sensor
	oracle       domain.Oracle
	estimator    Estimator
	comparator   similarity.Comparator
	finder       ContextFinder
	fallback     ContextFinder
	cooperation  Cooperation
	strategy     NeighborStrategy
	registry     *Registry
	zone         *zone.Zone
	zoneBehavior *ZoneBehavior
	listener     Listener
	failure      FailureHandler

	contexts    *store.ContextStore
	perceptions *store.PerceptionLog
	trust       *TrustService

	mu          sync.RWMutex
	state       State
	paused      bool
	active      bool
	stopped     bool
	lastContext *domain.Context
	position    *r2.Vec
	mode        EstimationMode
	buffer      []domain.ContextEntry
}

func NewAgent(name string, opts ...Option) *Agent {
	a := &Agent{
		id:          uuid.New(),
		name:        name,
		opts:        DefaultOptions(),
		comparator:  similarity.MeanAbsolute{},
		cooperation: ContextCooperation{},
		strategy:    AllNeighbors{},
		listener:    NopListener{},
		perceptions: store.NewPerceptionLog(),
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	a.logger = a.logger.With(zap.String("agent", a.name))
	if a.registry == nil {
		a.registry = NewRegistry()
	}
	if a.finder == nil {
		a.finder = FixedWidthFinder{Width: DefaultWindowWidth}
	}
	a.fallback = FixedWidthFinder{Width: DefaultWindowWidth}
	if f, ok := a.finder.(FixedWidthFinder); ok {
		a.fallback = f
	}
	a.contexts = store.NewContextStore(a.opts.Promote)
	a.trust = NewTrustService(store.NewTrustLedger(), a.logger)
	a.trust.Delta = a.opts.ConfidenceDelta
	a.registry.Add(a)
	return a
}

func (a *Agent) ID() uuid.UUID { return a.id }
func (a *Agent) Name() string { return a.name }
func (a *Agent) Sensor() domain.Sensor { return a.sensor }
func (a *Agent) Contexts() *store.ContextStore { return a.contexts }
func (a *Agent) Perceptions() *store.PerceptionLog { return a.perceptions }
func (a *Agent) Trust() *TrustService { return a.trust }
func (a *Agent) Registry() *Registry { return a.registry }
func (a *Agent) Zone() *zone.Zone { return a.zone }

func (a *Agent) IsRealSensor() bool {
	return a.sensor != nil && a.sensor.Real()
}

func (a *Agent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *Agent) IsActive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

func (a *Agent) IsPaused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

func (a *Agent) Mode() EstimationMode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *Agent) setMode(m EstimationMode) {
	a.mu.Lock()
	a.mode = m
	a.mu.Unlock()
}

// Activate marks the agent as running and ready for its next cycle. A
// stopped agent stays stopped.
func (a *Agent) Activate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = true
	a.paused = false
	a.state = StateReady
}

func (a *Agent) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = true
}

func (a *Agent) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = false
	if a.state == StateIdle && a.active {
		a.state = StateReady
	}
}

// Stop ends Run after the current cycle. It cannot be undone.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
}

func (a *Agent) isStopped() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopped
}

// AbortReasoning cancels what is left of the current cycle.
func (a *Agent) AbortReasoning() {
	a.setState(StateAbort)
}

func (a *Agent) Position() (r2.Vec, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.position == nil {
		return r2.Vec{}, false
	}
	return *a.position, true
}

// MoveTo relocates the agent, dragging its confidence zone along.
func (a *Agent) MoveTo(p r2.Vec) {
	a.mu.Lock()
	old := a.position
	a.position = &p
	a.mu.Unlock()
	if a.zone != nil && old != nil {
		a.zone.Translate(p.X-old.X, p.Y-old.Y)
	}
}

func (a *Agent) LastContext() (*domain.Context, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.lastContext == nil {
		return nil, false
	}
	return a.lastContext.Clone(), true
}

func (a *Agent) LastPerception() (domain.Perception, bool) {
	_, p, ok := a.perceptions.Last()
	return p, ok
}

func (a *Agent) SetNeighborStrategy(s NeighborStrategy) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.strategy = s
}

func (a *Agent) neighborStrategy() NeighborStrategy {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.strategy
}

func (a *Agent) DisableOracle() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.oracle = nil
}

func (a *Agent) currentOracle() domain.Oracle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.oracle
}

// SimilarityScores compares this agent's context at ref's time with its
// contexts ending at idxs.
func (a *Agent) SimilarityScores(ref *domain.Context, idxs []int) ([]SimilarityScore, error) {
	want := make(map[int]struct{}, len(idxs))
	for _, i := range idxs {
		want[i] = struct{}{}
	}
	cs := a.contexts.Select(func(c *domain.Context) bool {
		_, ok := want[c.FinalIndex()]
		return ok && c.Size() == ref.Size()
	})
	if len(cs) == 0 {
		return nil, ErrNoContexts
	}

	source := cs[len(cs)-1]
	if c, err := a.contexts.At(ref.FinalIndex()); err == nil && c.Size() == ref.Size() {
		source = c
	} else if c, ok := a.LastContext(); ok && c.Size() == ref.Size() {
		source = c
	}

	out := make([]SimilarityScore, len(cs))
	for i, c := range cs {
		out[i] = SimilarityScore{FinalIndex: c.FinalIndex(), Distance: a.comparator.Compare(source, c)}
	}
	return out, nil
}

// Run ticks the agent until it is stopped, ctx is done or a fatal error
// occurs. Listeners are told when it terminates.
func (a *Agent) Run(ctx context.Context) error {
	if a.isStopped() {
		return ErrAgentStopped
	}
	a.Activate()
	limiter := rate.NewLimiter(rate.Every(a.opts.TickInterval), 1)

	a.logger.Info("agent started", zap.String("agent_id", a.id.String()), zap.Duration("interval", a.opts.TickInterval))
	defer func() {
		a.mu.Lock()
		a.active = false
		a.mu.Unlock()
		a.listener.Terminated(a)
		a.logger.Info("agent stopped")
	}()

	for !a.isStopped() {
		if err := limiter.Wait(ctx); err != nil {
			// the next cycle would land past the deadline
			<-ctx.Done()
			return ctx.Err()
		}
		if err := a.Tick(ctx); err != nil {
			a.logger.Error("agent failed", zap.Error(err))
			return err
		}
	}
	return nil
}

// Tick runs one reasoning cycle. Only fatal errors are returned.
func (a *Agent) Tick(ctx context.Context) error {
	switch a.State() {
	case StateIdle:
		return nil
	case StateAbort:
		a.setState(StateReady)
	}

	if a.State() == StateReady {
		if err := a.perceive(ctx); err != nil {
			a.AbortReasoning()
			return err
		}
		if a.State() == StateAbort {
			return nil
		}
		a.setState(StatePerceiveOk)
	}

	if a.State() == StatePerceiveOk {
		if err := a.decideAndAct(ctx); err != nil {
			a.AbortReasoning()
			return err
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.state == StateAbort {
			return nil
		}
		if a.paused {
			a.state = StateIdle
		} else {
			a.state = StateReady
		}
	}
	return nil
}

func (a *Agent) perceive(ctx context.Context) error {
	if a.sensor == nil {
		return ErrNoSensor
	}
	a.buffer = a.buffer[:0]

	entry, err := a.sensor.ReceiveData()
	if err != nil {
		a.logger.Debug("sensor failure", zap.Int("sample", a.sensor.CurrentSampleIndex()), zap.Error(err))
		if a.failure != nil {
			a.failure.OnFailure(ctx, a, err, a.sensor)
		}
		a.AbortReasoning()
		return nil
	}
	a.buffer = append(a.buffer, entry)
	a.listener.Perceived(a.id, append([]domain.ContextEntry(nil), a.buffer...), a.sensor.CurrentSampleIndex())
	return nil
}

func (a *Agent) decideAndAct(ctx context.Context) error {
	if err := a.processPerception(ctx); err != nil {
		return err
	}
	a.sensor.NextSample()
	return nil
}

func (a *Agent) processPerception(ctx context.Context) error {
	if len(a.buffer) == 0 {
		return nil
	}
	idx := a.sensor.CurrentSampleIndex()
	entry := a.buffer[0]

	if entry.IsEmpty() {
		last, _ := a.LastContext()
		v, err := a.estimateMissingData(ctx, idx, last, entry)
		if err != nil {
			return err
		}
		if domain.IsFinite(v) {
			entry = entry.WithValue(v, true)
			a.buffer[0] = entry
			if sink, ok := a.sensor.(domain.EstimationSink); ok {
				sink.SetEstimation(v, idx)
			}
		}
	} else {
		a.setMode(ModeRealSensor)
	}

	// Until enough samples are in, gaps are recorded as they are.
	if idx < a.opts.MinSamples {
		a.record(idx, entry)
		return nil
	}
	if entry.IsEmpty() {
		a.logger.Warn("estimation failed", zap.Int("sample", idx))
		return nil
	}

	a.record(idx, entry)
	return a.buildAndStore(idx, entry)
}

func (a *Agent) record(idx int, e domain.ContextEntry) {
	a.perceptions.Set(idx, domain.Perception{Value: e.Value, Estimated: e.Estimated})
}

func (a *Agent) buildAndStore(idx int, e domain.ContextEntry) error {
	req := WindowRequest{
		Owner:       a.id,
		Info:        a.sensor.SupportedInfo(),
		Index:       idx,
		Perceptions: a.perceptions,
		Store:       a.contexts,
		Estimator:   a.estimator,
	}
	if o := a.currentOracle(); o != nil && !e.Estimated {
		if next, err := o.NextValue(); err == nil && domain.IsFinite(next) {
			req.Next = &next
		}
	}

	c, err := a.finder.Build(req)
	if errors.Is(err, ErrOracleRequired) {
		c, err = a.fallback.Build(req)
	}
	if err != nil {
		return err
	}

	if err := a.contexts.Put(c); err != nil {
		a.logger.Debug("context not stored", zap.Int("sample", idx), zap.Error(err))
		return nil
	}
	a.mu.Lock()
	a.lastContext = c.Clone()
	a.mu.Unlock()
	a.listener.ContextAdded(a, c.Clone())
	return nil
}

func (a *Agent) lastPerceivedValue(fallback *domain.Context) float64 {
	if p, ok := a.LastPerception(); ok && domain.IsFinite(p.Value) {
		return p.Value
	}
	if fallback != nil {
		return fallback.LastValue()
	}
	return math.NaN()
}

func (a *Agent) trueValue() float64 {
	v, err := a.sensor.CurrentData(0)
	if err != nil {
		return math.NaN()
	}
	return v
}
