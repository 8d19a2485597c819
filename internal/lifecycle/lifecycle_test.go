package lifecycle

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"fanshorts/internal/domain"
	"fanshorts/internal/storage"
)

type fakePoller struct {
	update Update
	err    error
	calls  int
}

func (p *fakePoller) Poll(ctx context.Context, externalID string) (Update, error) {
	p.calls++
	if p.err != nil {
		return Update{}, p.err
	}
	return p.update, nil
}

type fakeAdopter struct {
	err   error
	calls int
	key   string
	src   string
}

func (a *fakeAdopter) Adopt(ctx context.Context, sourceURL, key string) (storage.Adoption, error) {
	a.calls++
	a.src = sourceURL
	a.key = key
	if a.err != nil {
		return storage.Adoption{}, a.err
	}
	return storage.Adoption{StorageKey: key, PublicURL: "https://cdn.local/" + key}, nil
}

type persistCall struct {
	id  string
	upd domain.LifecycleUpdate
}

type persistRecorder struct {
	calls []persistCall
	err   error
}

func (p *persistRecorder) persist(ctx context.Context, id string, upd domain.LifecycleUpdate) error {
	p.calls = append(p.calls, persistCall{id: id, upd: upd})
	return p.err
}

func newMachine(poller Poller, adopter Adopter, rec *persistRecorder) *Machine {
	return &Machine{
		Poller:  poller,
		Adopter: adopter,
		Persist: rec.persist,
		Key: func(r Record) string {
			return storage.GeneratedVideoKey(r.ID)
		},
		Logger: zerolog.New(io.Discard),
	}
}

func TestTickProgressesToProcessing(t *testing.T) {
	poller := &fakePoller{update: Update{State: StateProcessing}}
	persisted := &persistRecorder{}
	m := newMachine(poller, &fakeAdopter{}, persisted)

	res, err := m.Tick(context.Background(), Record{ID: "g1", ExternalID: "p1", Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if res.Status != domain.StatusProcessing {
		t.Fatalf("status = %q, want %q", res.Status, domain.StatusProcessing)
	}
	if len(persisted.calls) != 1 || persisted.calls[0].upd.Status != domain.StatusProcessing {
		t.Fatalf("persisted = %+v, want single processing update", persisted.calls)
	}
}

func TestTickProcessingIsNotRepersisted(t *testing.T) {
	poller := &fakePoller{update: Update{State: StateProcessing}}
	persisted := &persistRecorder{}
	m := newMachine(poller, &fakeAdopter{}, persisted)

	res, err := m.Tick(context.Background(), Record{ID: "g1", ExternalID: "p1", Status: domain.StatusProcessing})
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if res.Status != domain.StatusProcessing {
		t.Fatalf("status = %q, want %q", res.Status, domain.StatusProcessing)
	}
	if len(persisted.calls) != 0 {
		t.Fatalf("persisted %d updates, want 0", len(persisted.calls))
	}
}

func TestTickCompletesAndAdopts(t *testing.T) {
	poller := &fakePoller{update: Update{State: StateSucceeded, Output: "https://provider.cdn/out.mp4"}}
	adopter := &fakeAdopter{}
	persisted := &persistRecorder{}
	m := newMachine(poller, adopter, persisted)

	res, err := m.Tick(context.Background(), Record{ID: "g1", ExternalID: "p1", Status: domain.StatusProcessing})
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if res.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want %q", res.Status, domain.StatusCompleted)
	}
	wantKey := storage.GeneratedVideoKey("g1")
	if adopter.key != wantKey || adopter.src != "https://provider.cdn/out.mp4" {
		t.Fatalf("adopted %q from %q, want %q from provider url", adopter.key, adopter.src, wantKey)
	}
	if res.Output != "https://cdn.local/"+wantKey {
		t.Fatalf("output = %q, want durable url", res.Output)
	}
	if len(persisted.calls) != 1 {
		t.Fatalf("persisted %d updates, want 1", len(persisted.calls))
	}
	upd := persisted.calls[0].upd
	if upd.Status != domain.StatusCompleted || upd.StoragePath == nil || *upd.StoragePath != wantKey {
		t.Fatalf("persisted update = %+v, want completed with storage key", upd)
	}
}

func TestTickAdoptionFailureFallsBackToProviderURL(t *testing.T) {
	poller := &fakePoller{update: Update{State: StateSucceeded, Output: "https://provider.cdn/out.mp4"}}
	adopter := &fakeAdopter{err: errors.New("bucket down")}
	persisted := &persistRecorder{}
	m := newMachine(poller, adopter, persisted)

	res, err := m.Tick(context.Background(), Record{ID: "g1", ExternalID: "p1", Status: domain.StatusProcessing})
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if res.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want %q", res.Status, domain.StatusCompleted)
	}
	if res.Output != "https://provider.cdn/out.mp4" {
		t.Fatalf("output = %q, want transient provider url", res.Output)
	}
	if len(persisted.calls) != 1 {
		t.Fatalf("persisted %d updates, want 1", len(persisted.calls))
	}
	upd := persisted.calls[0].upd
	if upd.Status != domain.StatusCompleted || upd.OutputURL != nil || upd.StoragePath != nil {
		t.Fatalf("persisted update = %+v, want completed with untouched storage fields", upd)
	}
}

func TestTickRetriesAdoptionForCompletedWithoutStorage(t *testing.T) {
	poller := &fakePoller{update: Update{State: StateSucceeded, Output: "https://provider.cdn/out.mp4"}}
	adopter := &fakeAdopter{}
	persisted := &persistRecorder{}
	m := newMachine(poller, adopter, persisted)

	rec := Record{ID: "g1", ExternalID: "p1", Status: domain.StatusCompleted, OutputURL: ""}
	res, err := m.Tick(context.Background(), rec)
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if poller.calls != 1 || adopter.calls != 1 {
		t.Fatalf("poller calls = %d, adopter calls = %d, want 1 and 1", poller.calls, adopter.calls)
	}
	if res.Status != domain.StatusCompleted || res.Output == "" {
		t.Fatalf("result = %+v, want completed with durable url", res)
	}
	upd := persisted.calls[0].upd
	if upd.StoragePath == nil {
		t.Fatal("storage key not persisted after adoption retry")
	}
}

func TestTickDoesNotRegressCompletedRecord(t *testing.T) {
	// A completed record re-polled for adoption retry must keep its status
	// even when the provider reports a stale processing state.
	poller := &fakePoller{update: Update{State: StateProcessing}}
	persisted := &persistRecorder{}
	m := newMachine(poller, &fakeAdopter{}, persisted)

	rec := Record{ID: "g1", ExternalID: "p1", Status: domain.StatusCompleted}
	res, err := m.Tick(context.Background(), rec)
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if res.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want %q", res.Status, domain.StatusCompleted)
	}
	if len(persisted.calls) != 0 {
		t.Fatalf("persisted %d updates, want 0", len(persisted.calls))
	}
}

func TestTickFailurePersistsProviderError(t *testing.T) {
	poller := &fakePoller{update: Update{State: StateFailed, Error: "NSFW content detected"}}
	persisted := &persistRecorder{}
	m := newMachine(poller, &fakeAdopter{}, persisted)

	res, err := m.Tick(context.Background(), Record{ID: "g1", ExternalID: "p1", Status: domain.StatusProcessing})
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if res.Status != domain.StatusFailed || res.Error != "NSFW content detected" {
		t.Fatalf("result = %+v, want failed with provider error", res)
	}
	upd := persisted.calls[0].upd
	if upd.Status != domain.StatusFailed || upd.ErrorMessage == nil || *upd.ErrorMessage != "NSFW content detected" {
		t.Fatalf("persisted update = %+v", upd)
	}
}

func TestTickCanceledWithoutMessageGetsDefault(t *testing.T) {
	poller := &fakePoller{update: Update{State: StateFailed}}
	persisted := &persistRecorder{}
	m := newMachine(poller, &fakeAdopter{}, persisted)

	res, err := m.Tick(context.Background(), Record{ID: "g1", ExternalID: "p1", Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if res.Error != "canceled" {
		t.Fatalf("error = %q, want %q", res.Error, "canceled")
	}
}

func TestTickFailedRecordIsAbsorbing(t *testing.T) {
	poller := &fakePoller{update: Update{State: StateSucceeded, Output: "late"}}
	persisted := &persistRecorder{}
	m := newMachine(poller, &fakeAdopter{}, persisted)

	rec := Record{ID: "g1", ExternalID: "p1", Status: domain.StatusFailed, ErrorMessage: "boom"}
	res, err := m.Tick(context.Background(), rec)
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if poller.calls != 0 {
		t.Fatalf("poller called %d times, want 0", poller.calls)
	}
	if res.Status != domain.StatusFailed || res.Error != "boom" {
		t.Fatalf("result = %+v, want persisted triple", res)
	}
}

func TestTickCompletedWithStorageSkipsProvider(t *testing.T) {
	poller := &fakePoller{}
	persisted := &persistRecorder{}
	m := newMachine(poller, &fakeAdopter{}, persisted)

	rec := Record{
		ID:         "g1",
		ExternalID: "p1",
		Status:     domain.StatusCompleted,
		OutputURL:  "https://cdn.local/generated-videos/g1.mp4",
		StorageKey: "generated-videos/g1.mp4",
	}
	res, err := m.Tick(context.Background(), rec)
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if poller.calls != 0 {
		t.Fatalf("poller called %d times, want 0", poller.calls)
	}
	if res.Output != rec.OutputURL {
		t.Fatalf("output = %q, want persisted url", res.Output)
	}
}

func TestTickUploadOnlyRecordNeverPolls(t *testing.T) {
	poller := &fakePoller{}
	persisted := &persistRecorder{}
	m := newMachine(poller, &fakeAdopter{}, persisted)

	rec := Record{ID: "g1", Status: domain.StatusCompleted, OutputURL: "https://cdn.local/u.mp4"}
	res, err := m.Tick(context.Background(), rec)
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if poller.calls != 0 {
		t.Fatalf("poller called %d times, want 0", poller.calls)
	}
	if res.Status != domain.StatusCompleted || res.Output != rec.OutputURL {
		t.Fatalf("result = %+v, want persisted triple", res)
	}
}

func TestTickPollErrorLeavesRecordUntouched(t *testing.T) {
	poller := &fakePoller{err: errors.New("provider down")}
	persisted := &persistRecorder{}
	m := newMachine(poller, &fakeAdopter{}, persisted)

	_, err := m.Tick(context.Background(), Record{ID: "g1", ExternalID: "p1", Status: domain.StatusProcessing})
	if err == nil {
		t.Fatal("Tick() error = nil, want poll error")
	}
	if len(persisted.calls) != 0 {
		t.Fatalf("persisted %d updates, want 0", len(persisted.calls))
	}
}
