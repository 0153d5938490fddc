package services

import (
	"context"
	"errors"
	"fmt"

	"property-marketplace/generator"
	"property-marketplace/metrics"
	"property-marketplace/utils"
)

// GenerationFailedMessage is shown to users when a draft cannot be produced.
const GenerationFailedMessage = "Failed to generate description. Please try again."

var (
	// ErrGenerationFailed wraps any provider failure.
	ErrGenerationFailed = errors.New("description generation failed")

	// ErrGenerationInFlight is returned while an identical request is still
	// being generated.
	ErrGenerationInFlight = errors.New("description generation already in progress")
)

// cache is implemented by generators that can answer without calling the
// provider, such as generator.CachedGenerator.
type cache interface {
	Cached(ctx context.Context, req generator.Request) (string, bool)
}

// DescriptionService drafts listing descriptions with a Generator.
type DescriptionService struct {
	gen      generator.Generator
	retry    *utils.RetryConfig
	logger   *utils.Logger
	inFlight *utils.IDSet
}

// NewDescriptionService creates a DescriptionService. retry may be nil for a
// single attempt.
func NewDescriptionService(gen generator.Generator, retry *utils.RetryConfig, logger *utils.Logger) *DescriptionService {
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1, Logger: logger}
	}
	return &DescriptionService{
		gen:      gen,
		retry:    retry,
		logger:   logger,
		inFlight: utils.NewIDSet(),
	}
}

// Generate drafts a description for req. A request identical to one still
// running is refused with ErrGenerationInFlight.
func (s *DescriptionService) Generate(ctx context.Context, req generator.Request) (string, error) {
	key := generator.CacheKey(req)
	if !s.inFlight.Add(key) {
		metrics.IncDescription(metrics.OutcomeBusy)
		return "", ErrGenerationInFlight
	}
	defer s.inFlight.Remove(key)

	if c, ok := s.gen.(cache); ok {
		if text, hit := c.Cached(ctx, req); hit {
			metrics.IncDescription(metrics.OutcomeCached)
			return text, nil
		}
	}

	var text string
	err := s.retry.Do(ctx, "generate-description", func(ctx context.Context) error {
		var gerr error
		text, gerr = s.gen.Generate(ctx, req)
		return gerr
	})
	if err != nil {
		metrics.IncDescription(metrics.OutcomeError)
		s.logger.Error("[descriptions] Generation failed for %s in %s: %v", req.PropertyType, req.Location, err)
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	metrics.IncDescription(metrics.OutcomeOK)
	return text, nil
}
