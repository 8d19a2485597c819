package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fanshorts/internal/http/handlers"
	"fanshorts/internal/infra"
	"fanshorts/internal/middleware"
)

// RouterOptions carries the cross-cutting configuration the router needs.
type RouterOptions struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N("en", opts.CountryLookup),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/generations", func(r chi.Router) {
		r.Post("/", app.GenerationsCreate)
		r.Get("/", app.GenerationsList)
		r.Get("/{id}", app.GenerationsGet)
		r.Delete("/{id}", app.GenerationsDelete)
		r.Patch("/{id}/music", app.GenerationsPatchMusic)
		r.Patch("/{id}/motion", app.GenerationsPatchMotion)
		r.Patch("/{id}/concept-image", app.GenerationsPatchConceptImage)
		r.Post("/{id}/upscale", app.UpscalesCreate)
		r.Get("/{id}/upscale", app.UpscalesGet)
		r.Get("/{id}/download", app.GenerationsDownload)
	})

	r.Post("/v1/images", app.ImagesCreate)
	r.Post("/v1/results", app.ResultsCreate)

	r.Route("/v1/motions", func(r chi.Router) {
		r.Post("/", app.MotionsCreate)
		r.Get("/", app.MotionsList)
		r.Get("/presets", app.MotionsPresets)
		r.Patch("/{id}", app.MotionsRename)
		r.Delete("/{id}", app.MotionsDelete)
	})

	r.Route("/v1/concept-images", func(r chi.Router) {
		r.Post("/", app.ConceptsCreate)
		r.Get("/", app.ConceptsList)
		r.Patch("/{id}", app.ConceptsRename)
		r.Delete("/{id}", app.ConceptsDelete)
	})

	r.Get("/v1/characters", app.CharactersList)
	r.Post("/v1/characters/{id}/images", app.CharacterImagesCreate)
	r.Delete("/v1/character-images/{id}", app.CharacterImagesDelete)

	r.Get("/v1/tracks", app.TracksList)
	r.Get("/v1/stats/summary", app.StatsSummary)

	return r
}
