package tax

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// ResultCache memoizes results by key. platform/cache.Versioned satisfies it.
type ResultCache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

// Recorder receives calculation metrics. observability.Metrics satisfies it.
type Recorder interface {
	CalculationDone(jurisdiction, condition string)
	CartRejected(jurisdiction string)
	CacheLookup(outcome string)
}

// Service validates carts and runs the calculation for the web layer.
// Identical concurrent requests share one computation, and results may be
// memoized in cache. Cache failures never fail a calculation.
type Service struct {
	logger   *slog.Logger
	cache    ResultCache
	recorder Recorder
	group    singleflight.Group
}

// NewService constructs a Service. cache and recorder may be nil.
func NewService(logger *slog.Logger, cache ResultCache, recorder Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, cache: cache, recorder: recorder}
}

// Calculate validates in and returns its tax breakdown. The only error is a
// validation failure matching ErrValidation.
func (s *Service) Calculate(ctx context.Context, in CartInput) (Result, error) {
	kind := in.Jurisdiction.Kind().String()
	cart, err := NewCart(in)
	if err != nil {
		if s.recorder != nil {
			s.recorder.CartRejected(kind)
		}
		return Result{}, err
	}

	fingerprint := cart.Fingerprint()
	v, _, _ := s.group.Do(fingerprint, func() (any, error) {
		return s.compute(ctx, fingerprint, cart), nil
	})
	res := v.(Result)

	if s.recorder != nil {
		s.recorder.CalculationDone(kind, cart.Policy().Condition().String())
	}
	return res.clone(), nil
}

func (s *Service) compute(ctx context.Context, fingerprint string, cart Cart) Result {
	if s.cache == nil {
		return Calculate(cart)
	}
	key, err := s.cache.BuildKey(ctx, "tax", "result", fingerprint)
	if err != nil {
		s.cacheFailed(err)
		return Calculate(cart)
	}

	var res Result
	hit := true
	err = s.cache.FetchJSON(ctx, key, &res, func(context.Context) (any, error) {
		hit = false
		return Calculate(cart), nil
	})
	if err != nil {
		s.cacheFailed(err)
		return Calculate(cart)
	}
	if s.recorder != nil {
		if hit {
			s.recorder.CacheLookup("hit")
		} else {
			s.recorder.CacheLookup("miss")
		}
	}
	return res
}

func (s *Service) cacheFailed(err error) {
	s.logger.Warn("tax result cache unavailable", slog.Any("error", err))
	if s.recorder != nil {
		s.recorder.CacheLookup("error")
	}
}

func (r Result) clone() Result {
	out := r
	out.Breakdown = make([]BreakdownLine, len(r.Breakdown))
	copy(out.Breakdown, r.Breakdown)
	return out
}
