package health

import (
	"context"
	"net/http"
	"time"

	httputil "gymcore/pkg/http"
	"gymcore/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const readyTimeout = 2 * time.Second

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

type Response struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

type Handler struct {
	db  Pinger
	log *logger.Logger
}

func NewHandler(db Pinger, log *logger.Logger) *Handler {
	return &Handler{db: db, log: log}
}

// Health reports liveness only.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.write(w, "Health", http.StatusOK, Response{Status: "ok"})
}

// Ready pings the primary; a failure answers 503.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.db.Ping(ctx, readpref.Primary()); err != nil {
		h.log.Error("Database health check failed", "error", err, "path", r.URL.Path)
		h.write(w, "Ready", http.StatusServiceUnavailable, Response{Status: "unavailable", Database: "error"})
		return
	}
	h.write(w, "Ready", http.StatusOK, Response{Status: "ready", Database: "ok"})
}

func (h *Handler) write(w http.ResponseWriter, handler string, status int, resp Response) {
	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
