package cron

import (
	"context"
	"fmt"

	"github.com/greencredits/greencredits-backend/internal/recurring"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

// RecurringGenerationJobParams configures the recurring generation job.
type RecurringGenerationJobParams struct {
	Logger       *logger.Logger
	Generator    recurringGenerator
	HorizonWeeks int
}

type recurringGenerator interface {
	Generate(ctx context.Context, horizonWeeks int) (recurring.Result, error)
}

// NewRecurringGenerationJob materialises upcoming collections for active slots.
func NewRecurringGenerationJob(params RecurringGenerationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("recurring generator required")
	}
	horizon := params.HorizonWeeks
	if horizon <= 0 {
		horizon = recurring.DefaultHorizonWeeks
	}
	return &recurringGenerationJob{
		logg:      params.Logger,
		generator: params.Generator,
		horizon:   horizon,
	}, nil
}

type recurringGenerationJob struct {
	logg      *logger.Logger
	generator recurringGenerator
	horizon   int
}

func (j *recurringGenerationJob) Name() string { return "recurring-generation" }

func (j *recurringGenerationJob) Run(ctx context.Context) error {
	result, err := j.generator.Generate(ctx, j.horizon)
	ctx = j.logg.WithFields(ctx, map[string]any{
		"generated":     result.Generated,
		"skipped":       result.Skipped,
		"horizon_weeks": j.horizon,
	})
	if err != nil {
		return fmt.Errorf("recurring generation: %w", err)
	}
	j.logg.Info(ctx, "recurring generation job complete")
	return nil
}
