// Package server exposes the connector's HTTP surface: the two webhook
// endpoints on the hot message path plus the install/configure pages.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/config"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/posiflow"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/sequencer"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/store"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/translator"
)

// Version is reported on the configure pages and stored with settings.
const Version = "1.0.2"

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// MediaResolver resolves a Telegram file reference to a downloadable path.
type MediaResolver interface {
	GetFilePath(ctx context.Context, token, fileID string) (string, error)
}

// WebhookRegistrar manages the Telegram-side webhook registration at
// connect/disconnect time.
type WebhookRegistrar interface {
	RegisterWebhook(ctx context.Context, token, url string) error
	DeregisterWebhook(ctx context.Context, token string) error
}

// ChannelAPI is the Posiflow-side capability surface.
type ChannelAPI interface {
	SendMessage(ctx context.Context, settings *store.Settings, msg *translator.ChannelMessage, info posiflow.MessageInfo) error
	Subscribe(ctx context.Context, projectID, token, target string) (*posiflow.Subscription, error)
	Unsubscribe(ctx context.Context, projectID, token, subscriptionID string) error
	GetDepartments(ctx context.Context, projectID, token string) ([]posiflow.Department, error)
}

// AppsAPI is the apps registry capability surface.
type AppsAPI interface {
	GetInstallation(ctx context.Context, projectID, appID string) (*posiflow.Installation, error)
	Install(ctx context.Context, projectID, appID string) (*posiflow.Installation, error)
	Uninstall(ctx context.Context, projectID, appID string) error
}

type Server struct {
	cfg        *config.Config
	settings   store.Store
	translator *translator.Translator
	sequencer  *sequencer.Runner
	outbound   sequencer.Outbound
	media      MediaResolver
	webhooks   WebhookRegistrar
	channel    ChannelAPI
	apps       AppsAPI
	log        zerolog.Logger
}

type Deps struct {
	Settings store.Store
	Outbound sequencer.Outbound
	Media    MediaResolver
	Webhooks WebhookRegistrar
	Channel  ChannelAPI
	Apps     AppsAPI
}

func New(cfg *config.Config, deps Deps, log zerolog.Logger) *Server {
	tlr := translator.New(cfg.TelegramFileURL)
	return &Server{
		cfg:        cfg,
		settings:   deps.Settings,
		translator: tlr,
		sequencer:  sequencer.New(tlr, deps.Outbound, log),
		outbound:   deps.Outbound,
		media:      deps.Media,
		webhooks:   deps.Webhooks,
		channel:    deps.Channel,
		apps:       deps.Apps,
		log:        log.With().Str("component", "server").Logger(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /detail", s.handleDetail)
	mux.HandleFunc("POST /install", s.handleInstall)
	mux.HandleFunc("POST /uninstall", s.handleUninstall)
	mux.HandleFunc("GET /configure", s.handleConfigure)
	mux.HandleFunc("POST /update", s.handleUpdate)
	mux.HandleFunc("POST /update_advanced", s.handleUpdateAdvanced)
	mux.HandleFunc("POST /disconnect", s.handleDisconnect)

	mux.HandleFunc("POST /channel", s.handleChannelEvent)
	mux.HandleFunc("POST /telegram", s.handleTelegramEvent)

	return s.requestLog(mux)
}

// requestLog tags every request with a correlation id and logs its outcome.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.log.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Write([]byte("Welcome on " + s.cfg.BrandName + " Telegram Connector!"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error().Err(err).Str("template", name).Msg("Template render failed")
	}
}

func (s *Server) renderError(w http.ResponseWriter, message string) {
	s.render(w, "error.html", map[string]any{
		"AppVersion":   Version,
		"BrandName":    s.cfg.BrandName,
		"ErrorMessage": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
