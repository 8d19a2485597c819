package service

import (
	"context"

	"fanshorts/internal/lifecycle"
	"fanshorts/internal/providers/higgsfield"
	"fanshorts/internal/providers/replicate"
)

// replicatePoller adapts the Replicate predictions API to the lifecycle
// state vocabulary.
type replicatePoller struct {
	client *replicate.Client
}

func (p replicatePoller) Poll(ctx context.Context, externalID string) (lifecycle.Update, error) {
	pred, err := p.client.GetPrediction(ctx, externalID)
	if err != nil {
		return lifecycle.Update{}, err
	}
	switch pred.Status {
	case replicate.PredictionSucceeded:
		return lifecycle.Update{State: lifecycle.StateSucceeded, Output: pred.OutputURL()}, nil
	case replicate.PredictionFailed, replicate.PredictionCanceled:
		return lifecycle.Update{State: lifecycle.StateFailed, Error: pred.Error}, nil
	default:
		return lifecycle.Update{State: lifecycle.StateProcessing}, nil
	}
}

// higgsfieldPoller adapts Higgsfield job sets to the lifecycle state
// vocabulary. A set carries one job per requested output; only the first is
// ever inspected.
type higgsfieldPoller struct {
	client *higgsfield.Client
}

func (p higgsfieldPoller) Poll(ctx context.Context, externalID string) (lifecycle.Update, error) {
	set, err := p.client.GetJobSet(ctx, externalID)
	if err != nil {
		return lifecycle.Update{}, err
	}
	switch set.FirstJobStatus() {
	case "completed":
		return lifecycle.Update{State: lifecycle.StateSucceeded, Output: set.FirstResultURL()}, nil
	case "failed", "nsfw", "canceled":
		return lifecycle.Update{State: lifecycle.StateFailed, Error: set.FirstJobStatus()}, nil
	default:
		return lifecycle.Update{State: lifecycle.StateProcessing}, nil
	}
}
