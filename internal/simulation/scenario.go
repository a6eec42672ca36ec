package simulation

import (
	"fmt"

	"github.com/Harshitk-cp/ambient/internal/config"
	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/sensor"
	"github.com/Harshitk-cp/ambient/internal/service"
	"github.com/Harshitk-cp/ambient/internal/similarity"
	"github.com/Harshitk-cp/ambient/internal/zone"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// Settings selects the strategies every agent of a scenario uses.
type Settings struct {
	Options            service.Options
	Comparator         string
	CacheSize          int
	Estimator          string
	Finder             string
	WindowWidth        int
	MaxWindowWidth     int
	NeighborStrategy   string
	NeighborPercentage float64

	Zone              bool
	ZoneSides         int
	ZoneRadius        float64
	ZoneMinRadius     float64
	ZoneUpdateDelta   float64
	ZoneOutlierFactor float64
	ZoneLocked        bool
}

// SettingsFromEnv reads the settings from the environment. Call config.Load
// first to pick up an env file.
func SettingsFromEnv() Settings {
	opts := service.DefaultOptions()
	opts.TickInterval = config.TickInterval()
	opts.MinSamples = config.MinSamples()
	opts.SimilarContexts = config.SimilarContexts()
	opts.UseCooperation = config.UseCooperation()
	opts.Promote = config.PromoteObserved()
	opts.ConfidenceDelta = config.ConfidenceDelta()

	return Settings{
		Options:            opts,
		Comparator:         config.ComparatorName(),
		CacheSize:          config.ComparatorCacheSize(),
		Estimator:          config.EstimatorName(),
		Finder:             config.ContextFinderName(),
		WindowWidth:        config.WindowWidth(),
		MaxWindowWidth:     config.MaxWindowWidth(),
		NeighborStrategy:   config.NeighborStrategy(),
		NeighborPercentage: config.NeighborPercentage(),
		Zone:               config.ZoneEnabled(),
		ZoneSides:          config.ZoneSides(),
		ZoneRadius:         config.ZoneRadius(),
		ZoneMinRadius:      config.ZoneMinRadius(),
		ZoneUpdateDelta:    config.ZoneUpdateDelta(),
		ZoneOutlierFactor:  config.ZoneOutlierFactor(),
		ZoneLocked:         config.ZoneLocked(),
	}
}

// Scenario is a grid of real sensors sampling a synthetic field, plus
// virtual agents placed between them.
type Scenario struct {
	Rows    int
	Cols    int
	Spacing float64
	Samples int
	Virtual int
	GapRate float64
	Seed    uint64
	Info    domain.InfoType
	Field   sensor.Field
	// Train replays the series fully observed before hiding the gaps.
	Train bool
}

func DefaultScenario() Scenario {
	return Scenario{
		Rows:    3,
		Cols:    3,
		Spacing: 100,
		Samples: 200,
		GapRate: 0.1,
		Seed:    1,
		Info:    domain.InfoTemperature,
		Field:   sensor.DefaultField(),
	}
}

// Build creates the agents of the scenario, all sharing one registry.
func (s Scenario) Build(set Settings, listener service.Listener, logger *zap.Logger) ([]*service.Agent, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.Rows <= 0 || s.Cols <= 0 || s.Samples <= 0 {
		return nil, fmt.Errorf("invalid scenario size %dx%d with %d samples", s.Rows, s.Cols, s.Samples)
	}

	cmp, err := similarity.ByName(set.Comparator)
	if err != nil {
		return nil, err
	}
	if set.CacheSize > 0 {
		cached, err := similarity.NewCached(cmp, set.CacheSize)
		if err != nil {
			return nil, err
		}
		cmp = cached
	}
	estimator, err := service.EstimatorByName(set.Estimator, cmp)
	if err != nil {
		return nil, err
	}
	finder, err := service.FinderByName(set.Finder, set.WindowWidth, set.MaxWindowWidth, set.Options.SimilarContexts)
	if err != nil {
		return nil, err
	}
	strategy, err := service.NeighborStrategyByName(set.NeighborStrategy, set.NeighborPercentage)
	if err != nil {
		return nil, err
	}
	if listener == nil {
		listener = service.NopListener{}
	}

	registry := service.NewRegistry()
	masks := make(map[uuid.UUID][]bool)
	var handler service.FailureHandler = service.StopOnEndOfData{}
	if s.Train {
		trainer := service.NewTrainThenEvaluate(func(id uuid.UUID) []bool { return masks[id] })
		trainer.BestAgents = set.Options.UseCooperation
		trainer.Percentage = set.NeighborPercentage
		handler = trainer
	}

	common := func(name string, pos r2.Vec) []service.Option {
		opts := []service.Option{
			service.WithOptions(set.Options),
			service.WithRegistry(registry),
			service.WithPosition(pos),
			service.WithEstimator(estimator),
			service.WithComparator(cmp),
			service.WithFinder(finder),
			service.WithNeighborStrategy(strategy),
			service.WithListener(listener),
			service.WithFailureHandler(handler),
			service.WithLogger(logger),
		}
		if set.Zone {
			z := zone.New(pos,
				zone.WithSides(set.ZoneSides),
				zone.WithRadius(set.ZoneRadius),
				zone.WithMinRadius(set.ZoneMinRadius),
				zone.Locked(set.ZoneLocked),
			)
			b := service.NewZoneBehavior(logger)
			b.UpdateDelta = set.ZoneUpdateDelta
			b.OutlierFactor = set.ZoneOutlierFactor
			opts = append(opts, service.WithZone(z, b))
		}
		return opts
	}

	var agents []*service.Agent
	seed := s.Seed
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			seed++
			pos := r2.Vec{X: float64(c) * s.Spacing, Y: float64(r) * s.Spacing}
			src := sensor.NewReplay(s.Info, s.Field.Series(pos, s.Samples, seed))
			mask := sensor.GapMask(s.Samples, set.Options.MinSamples+1, s.GapRate, seed)

			opts := common(fmt.Sprintf("sensor-%d-%d", r, c), pos)
			opts = append(opts, service.WithSensor(src))
			if s.Train {
				opts = append(opts, service.WithOracle(src))
			} else {
				src.SetMask(mask)
			}
			a := service.NewAgent(fmt.Sprintf("sensor-%d-%d", r, c), opts...)
			masks[a.ID()] = mask
			agents = append(agents, a)
		}
	}

	for i := 0; i < s.Virtual; i++ {
		r := i % max(1, s.Rows-1)
		c := (i / max(1, s.Rows-1)) % max(1, s.Cols-1)
		pos := r2.Vec{X: (float64(c) + 0.5) * s.Spacing, Y: (float64(r) + 0.5) * s.Spacing}
		name := fmt.Sprintf("virtual-%d", i)
		opts := append(common(name, pos), service.WithSensor(sensor.NewVirtual(s.Info)))
		agents = append(agents, service.NewAgent(name, opts...))
	}

	logger.Info("scenario built",
		zap.Int("real_agents", s.Rows*s.Cols),
		zap.Int("virtual_agents", s.Virtual),
		zap.Int("samples", s.Samples),
		zap.Bool("train", s.Train),
		zap.Bool("zone", set.Zone),
	)
	return agents, nil
}
