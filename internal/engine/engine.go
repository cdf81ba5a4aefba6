package engine

import (
	"errors"
	"math"
	"time"

	"smartorder/internal/refdata"
	"smartorder/internal/types"
)

// ErrComputation marks an internal inconsistency the boundary layer maps to
// an error response. The pipeline is total over well-formed input, so this
// only fires on corrupted state.
var ErrComputation = errors.New("recommendation computation failed")

// Clock supplies "now". The pipeline samples it exactly once per request so
// urgency and time-window decisions stay internally consistent.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SnapshotProvider hands out the current reference view. The registry
// satisfies it; tests use fixed snapshots.
type SnapshotProvider interface {
	Snapshot() refdata.Snapshot
}

// Session describes the trading close used to derive system minutes to
// close.
type Session struct {
	CloseHour   int
	CloseMinute int
}

// DefaultSession is a 16:00 equity close.
var DefaultSession = Session{CloseHour: 16, CloseMinute: 0}

// Engine runs the prefill pipeline: context assembly, hard rules, pattern
// matching, scoring, parameter resolution, and explanation assembly.
type Engine struct {
	provider SnapshotProvider
	clock    Clock
	adjuster ScoreAdjuster
	session  Session
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, fixing it for deterministic output.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithAdjuster installs a score adjustment step.
func WithAdjuster(a ScoreAdjuster) Option {
	return func(e *Engine) { e.adjuster = a }
}

// WithSession overrides the trading close.
func WithSession(s Session) Option {
	return func(e *Engine) { e.session = s }
}

func New(provider SnapshotProvider, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		clock:    SystemClock{},
		adjuster: NoopAdjuster{},
		session:  DefaultSession,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend prefills a full order ticket for the request. The request must
// already be validated; reference-data absence degrades to defaults and is
// never an error. The result is deterministic for identical input and clock
// sample.
func (e *Engine) Recommend(req types.OrderRequest) (types.Recommendation, error) {
	snap := e.provider.Snapshot()
	now := e.clock.Now()

	ctx := assembleContext(req, snap, now, e.session)

	ruleResult := applyRules(ctx)
	patternResult := matchHistorical(ctx, snap.Historical())
	scoreResult := scoreAlgos(ctx, ruleResult.Algo, patternResult.Algo, e.adjuster)

	if !validCandidate(scoreResult.Algo) {
		return types.Recommendation{}, ErrComputation
	}

	core, coreReasons := buildCoreFields(ctx, scoreResult.Algo, ruleResult.OrderType)
	params, paramReasons := buildAlgoParameters(ctx, scoreResult.Algo, ruleResult.Aggression, patternResult.Aggression)

	explanations := buildExplanations(ctx,
		scoreResult.Reasons,
		append(append([]string(nil), coreReasons...), paramReasons...),
		patternResult.Reasons,
		ruleResult.Reasons)

	return types.Recommendation{
		CoreOrderFields: core,
		AlgoParameters:  params,
		ContextFlags:    contextFlags(ctx),
		Explanations:    explanations,
	}, nil
}

func contextFlags(ctx Context) types.ContextFlags {
	return types.ContextFlags{
		UrgencyLevel:         ctx.UrgencyLevel,
		SizeVsADV:            math.Round(ctx.SizeVsADV*100) / 100,
		VolatilityBucket:     ctx.VolatilityBucket,
		LiquidityBucket:      ctx.LiquidityBucket,
		Spread:               ctx.Spread,
		IntradayVol:          ctx.IntradayVol,
		AvgTradeSize:         ctx.AvgTradeSize,
		LiquidityScore:       ctx.LiquidityScore,
		TimeToCloseRequest:   ctx.TimeToCloseRequest,
		TimeToCloseSystem:    ctx.TimeToCloseSystem,
		EffectiveTimeToClose: ctx.EffectiveTimeToClose,
		FatFingerFlag:        ctx.FatFinger,
	}
}
