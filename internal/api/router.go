package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/theblitlabs/automl-studio/internal/api/handlers"
	"github.com/theblitlabs/automl-studio/internal/api/middleware"
	"github.com/theblitlabs/automl-studio/internal/telemetry"
)

// Router wraps mux.Router to add more functionality
type Router struct {
	*mux.Router
	endpoint  string
	staticDir string
}

// NewRouter creates and configures a new router with all dependencies
func NewRouter(
	studio *handlers.StudioHandler,
	metrics *telemetry.Metrics,
	endpoint string,
	staticDir string,
) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		endpoint:  endpoint,
		staticDir: staticDir,
	}

	r.Use(middleware.Logging)
	r.Use(middleware.Telemetry(metrics))

	r.registerRoutes(studio)

	return r
}

// registerRoutes registers all application routes
func (r *Router) registerRoutes(studio *handlers.StudioHandler) {
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", studio.Health).Methods("GET")

	api := r.PathPrefix(r.endpoint).Subrouter()

	api.HandleFunc("/upload", studio.Upload).Methods("POST")
	api.HandleFunc("/preprocess/{filename}", studio.Preprocess).Methods("POST")
	api.HandleFunc("/analyze", studio.Analyze).Methods("POST")

	api.HandleFunc("/train", studio.Train).Methods("POST")
	api.HandleFunc("/train/status", studio.TrainStatus).Methods("GET")
	api.HandleFunc("/train/jobs/ws", studio.TrainJobsWS)

	api.HandleFunc("/models/{model_id}", studio.GetModel).Methods("GET")
	api.HandleFunc("/predict", studio.Predict).Methods("POST")
	api.HandleFunc("/visualizations/{model_id}/predict-and-visualize", studio.PredictAndVisualize).Methods("POST")

	ai := api.PathPrefix("/ai").Subrouter()
	ai.HandleFunc("/status", studio.AIStatus).Methods("GET")
	ai.HandleFunc("/insights", studio.AIInsights).Methods("POST")
	ai.HandleFunc("/explain-model", studio.AIExplainModel).Methods("POST")
	ai.HandleFunc("/recommendations", studio.AIRecommendations).Methods("POST")
	ai.HandleFunc("/ask", studio.AIAsk).Methods("POST")

	if r.staticDir != "" {
		r.PathPrefix("/").Handler(spaHandler{staticDir: r.staticDir, apiPrefix: r.endpoint})
	}
}

// Handler applies the CORS layer around the router.
func (r *Router) Handler(allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// spaHandler serves the built front end, falling back to index.html for
// client-side routes.
type spaHandler struct {
	staticDir string
	apiPrefix string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, h.apiPrefix) {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}

	index := filepath.Join(h.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}
