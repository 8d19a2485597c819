// Package lifecycle drives a generation job through its states:
//
//	pending -> processing -> {completed, failed}
//
// One Machine handles all three job kinds (motion video generation, image
// generation, video upscaling); the kinds differ only in which provider is
// polled, which record columns are written and which storage folder adopted
// outputs land in.
package lifecycle

import (
	"context"
	"strings"

	"fanshorts/internal/domain"
	"fanshorts/internal/infra"
	"fanshorts/internal/storage"
)

// State is the provider-agnostic job state reported by a Poller.
type State string

const (
	StateProcessing State = "processing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Update is the outcome of one provider poll.
type Update struct {
	State  State
	Output string
	Error  string
}

// Poller abstracts a provider's job-status endpoint.
type Poller interface {
	Poll(ctx context.Context, externalID string) (Update, error)
}

// Adopter copies a transient provider output into durable storage.
type Adopter interface {
	Adopt(ctx context.Context, sourceURL, key string) (storage.Adoption, error)
}

// Record is the lifecycle-relevant view of one job on a generation row. A
// row carries two of these: the primary job and the upscale sub-lifecycle.
type Record struct {
	ID           string
	ExternalID   string
	Status       domain.GenerationStatus
	OutputURL    string
	StorageKey   string
	ErrorMessage string
}

// Result is the freshly computed status triple returned to the caller on
// every tick, whether or not persistence changed.
type Result struct {
	Status domain.GenerationStatus
	Output string
	Error  string
}

// PersistFunc writes lifecycle fields back to the row.
type PersistFunc func(ctx context.Context, id string, upd domain.LifecycleUpdate) error

// Machine binds one job kind's collaborators together.
type Machine struct {
	Poller  Poller
	Adopter Adopter
	Persist PersistFunc
	// Key derives the storage key adopted outputs are written under.
	Key    func(rec Record) string
	Logger infra.Logger
}

// Tick advances the record by one poll. It is invoked on every client poll
// and by the reconcile command; each invocation is independently atomic at
// the single-record level and last-write-wins on the row.
func (m *Machine) Tick(ctx context.Context, rec Record) (Result, error) {
	// Upload-only records never had a provider job; report the persisted
	// state verbatim without touching the provider.
	if strings.TrimSpace(rec.ExternalID) == "" {
		return resultOf(rec), nil
	}

	// Terminal states are absorbing, with one exception: completed without
	// a storage key means a previous adoption failed, and the job is
	// re-polled so adoption can be retried before the CDN link expires.
	if rec.Status == domain.StatusFailed {
		return resultOf(rec), nil
	}
	if rec.Status == domain.StatusCompleted && rec.StorageKey != "" {
		return resultOf(rec), nil
	}

	upd, err := m.Poller.Poll(ctx, rec.ExternalID)
	if err != nil {
		// The record stays in its previous status; the next tick retries.
		return Result{}, err
	}

	switch upd.State {
	case StateSucceeded:
		return m.complete(ctx, rec, upd.Output)
	case StateFailed:
		return m.fail(ctx, rec, upd.Error)
	default:
		return m.progress(ctx, rec)
	}
}

func (m *Machine) complete(ctx context.Context, rec Record, providerOutput string) (Result, error) {
	key := m.Key(rec)
	adoption, adoptErr := m.Adopter.Adopt(ctx, providerOutput, key)
	if adoptErr != nil {
		// Adoption failure is masked from the user: the record completes
		// with null storage fields and the caller gets the transient
		// provider URL. A later tick lands here again and retries.
		m.Logger.Error().Err(adoptErr).
			Str("record_id", rec.ID).
			Str("source_url", providerOutput).
			Msg("lifecycle: artifact adoption failed, falling back to provider url")
		if err := m.Persist(ctx, rec.ID, domain.LifecycleUpdate{Status: domain.StatusCompleted}); err != nil {
			return Result{}, err
		}
		return Result{Status: domain.StatusCompleted, Output: providerOutput}, nil
	}

	upd := domain.LifecycleUpdate{
		Status:      domain.StatusCompleted,
		OutputURL:   &adoption.PublicURL,
		StoragePath: &adoption.StorageKey,
	}
	if err := m.Persist(ctx, rec.ID, upd); err != nil {
		return Result{}, err
	}
	m.Logger.Info().
		Str("record_id", rec.ID).
		Str("storage_key", adoption.StorageKey).
		Msg("lifecycle: job completed")
	return Result{Status: domain.StatusCompleted, Output: adoption.PublicURL}, nil
}

func (m *Machine) fail(ctx context.Context, rec Record, providerError string) (Result, error) {
	if providerError == "" {
		providerError = "canceled"
	}
	upd := domain.LifecycleUpdate{
		Status:       domain.StatusFailed,
		ErrorMessage: &providerError,
	}
	if err := m.Persist(ctx, rec.ID, upd); err != nil {
		return Result{}, err
	}
	m.Logger.Info().
		Str("record_id", rec.ID).
		Str("error", providerError).
		Msg("lifecycle: job failed")
	return Result{Status: domain.StatusFailed, Error: providerError}, nil
}

func (m *Machine) progress(ctx context.Context, rec Record) (Result, error) {
	// Status only moves forward; a completed record re-polled for adoption
	// retry must not regress if the provider reports something stale.
	if rec.Status.Terminal() {
		return resultOf(rec), nil
	}
	if rec.Status != domain.StatusProcessing {
		if err := m.Persist(ctx, rec.ID, domain.LifecycleUpdate{Status: domain.StatusProcessing}); err != nil {
			return Result{}, err
		}
	}
	return Result{Status: domain.StatusProcessing}, nil
}

func resultOf(rec Record) Result {
	return Result{Status: rec.Status, Output: rec.OutputURL, Error: rec.ErrorMessage}
}
