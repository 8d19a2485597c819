package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"fanshorts/internal/domain"
	"fanshorts/internal/http/handlers"
	"fanshorts/internal/http/httpapi"
	"fanshorts/internal/providers/higgsfield"
	"fanshorts/internal/providers/replicate"
	"fanshorts/internal/service"
	"fanshorts/internal/storage"
)

// stubGenerations is a map-backed GenerationRepository for handler tests.
type stubGenerations struct {
	mu    sync.Mutex
	items map[string]*domain.Generation
}

func newStubGenerations() *stubGenerations {
	return &stubGenerations{items: map[string]*domain.Generation{}}
}

func (s *stubGenerations) Create(ctx context.Context, g *domain.Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.items[g.ID] = &cp
	return nil
}

func (s *stubGenerations) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *stubGenerations) List(ctx context.Context, limit, offset int) ([]domain.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Generation
	for _, g := range s.items {
		out = append(out, *g)
	}
	return out, nil
}

func (s *stubGenerations) UpdateLifecycle(ctx context.Context, id string, upd domain.LifecycleUpdate) error {
	return nil
}

func (s *stubGenerations) UpdateUpscaleLifecycle(ctx context.Context, id string, upd domain.LifecycleUpdate) error {
	return nil
}

func (s *stubGenerations) StartUpscale(ctx context.Context, id string, model domain.UpscaleModel, predictionID string) error {
	return nil
}

func (s *stubGenerations) UpdateMusic(ctx context.Context, id, musicID string) error { return nil }

func (s *stubGenerations) UpdateMotionVideo(ctx context.Context, id, mv string) error { return nil }

func (s *stubGenerations) UpdateConceptImage(ctx context.Context, id, ci string) error { return nil }

func (s *stubGenerations) DetachMotionVideo(ctx context.Context, mv string) error { return nil }

func (s *stubGenerations) DetachConceptImage(ctx context.Context, ci string) error { return nil }

func (s *stubGenerations) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type stubAnalytics struct{ counters map[string]int }

func (s *stubAnalytics) IncrementCounters(ctx context.Context, day, country string, counters map[string]int) error {
	return nil
}

func (s *stubAnalytics) Summary(ctx context.Context) (map[string]int, error) {
	return s.counters, nil
}

func newTestServer(t *testing.T, repo *stubGenerations, analytics *stubAnalytics) http.Handler {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost/static")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	logger := zerolog.New(io.Discard)
	generations := service.NewGenerationService(service.GenerationServiceOptions{
		Repo:       repo,
		Analytics:  analytics,
		Replicate:  replicate.NewClient(replicate.Options{}),
		Higgsfield: higgsfield.NewClient(higgsfield.Options{}),
		Artifacts:  storage.NewArtifactStore(store, nil),
		Store:      store,
		Logger:     logger,
	})
	library := service.NewLibraryService(service.LibraryServiceOptions{
		Generations: repo,
		Store:       store,
		Logger:      logger,
	})
	app := handlers.NewApp(generations, library, analytics, higgsfield.NewClient(higgsfield.Options{}), logger)
	return httpapi.NewRouter(app, httpapi.RouterOptions{Logger: logger})
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, newStubGenerations(), &stubAnalytics{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestGenerationsGetReturnsCamelCasePayload(t *testing.T) {
	repo := newStubGenerations()
	_ = repo.Create(context.Background(), &domain.Generation{
		ID:                "g1",
		Type:              domain.GenerationTypeVideo,
		Provider:          domain.ProviderReplicate,
		PredictionID:      "pred-1",
		Status:            domain.StatusCompleted,
		OutputURL:         "http://localhost/static/generated-videos/g1.mp4",
		OutputStoragePath: "generated-videos/g1.mp4",
	})
	srv := newTestServer(t, repo, &stubAnalytics{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/generations/g1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["outputUrl"] != "http://localhost/static/generated-videos/g1.mp4" {
		t.Fatalf("outputUrl = %v", body["outputUrl"])
	}
	if body["outputStoragePath"] != "generated-videos/g1.mp4" {
		t.Fatalf("outputStoragePath = %v", body["outputStoragePath"])
	}
	if _, hasUpscale := body["upscale"]; hasUpscale {
		t.Fatal("upscale block present without an upscale lifecycle")
	}
}

func TestGenerationsGetNotFoundLocalized(t *testing.T) {
	srv := newTestServer(t, newStubGenerations(), &stubAnalytics{})

	req := httptest.NewRequest(http.MethodGet, "/v1/generations/missing", nil)
	req.Header.Set("X-Locale", "ko")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "not_found" {
		t.Fatalf("error code = %q", body["error"])
	}
	if body["message"] != "요청한 리소스를 찾을 수 없습니다." {
		t.Fatalf("message = %q, want the korean not_found message", body["message"])
	}
}

func TestGenerationsDelete(t *testing.T) {
	repo := newStubGenerations()
	_ = repo.Create(context.Background(), &domain.Generation{
		ID:     "g1",
		Type:   domain.GenerationTypeVideo,
		Status: domain.StatusCompleted,
	})
	srv := newTestServer(t, repo, &stubAnalytics{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/generations/g1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if _, err := repo.GetByID(context.Background(), "g1"); err != domain.ErrNotFound {
		t.Fatal("record still present after delete")
	}
}

func TestTracksList(t *testing.T) {
	srv := newTestServer(t, newStubGenerations(), &stubAnalytics{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tracks", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Items []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Items) != len(domain.Tracks) {
		t.Fatalf("items = %d, want %d", len(body.Items), len(domain.Tracks))
	}
}

func TestStatsSummary(t *testing.T) {
	analytics := &stubAnalytics{counters: map[string]int{"video_submitted": 3, "video_completed": 2}}
	srv := newTestServer(t, newStubGenerations(), analytics)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Counters map[string]int `json:"counters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Counters["video_submitted"] != 3 {
		t.Fatalf("counters = %v", body.Counters)
	}
}

func TestUpscaleConflictOnUnfinishedGeneration(t *testing.T) {
	repo := newStubGenerations()
	_ = repo.Create(context.Background(), &domain.Generation{
		ID:     "g1",
		Type:   domain.GenerationTypeVideo,
		Status: domain.StatusProcessing,
	})
	srv := newTestServer(t, repo, &stubAnalytics{})

	req := httptest.NewRequest(http.MethodPost, "/v1/generations/g1/upscale", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "conflict" {
		t.Fatalf("error code = %q", body["error"])
	}
}
