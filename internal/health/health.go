package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger is anything whose liveness the endpoint should reflect; the
// database connection implements it.
type Pinger interface {
	HealthCheck() error
}

type Checker struct {
	db     Pinger
	logger *logrus.Logger
}

type Status struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChecker(db Pinger, logger *logrus.Logger) *Checker {
	return &Checker{
		db:     db,
		logger: logger,
	}
}

func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status{Status: "healthy", Timestamp: time.Now()}
		code := http.StatusOK

		if c.db != nil {
			if err := c.db.HealthCheck(); err != nil {
				c.logger.WithError(err).Warn("Health check failed")
				status.Status = "unhealthy"
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	}
}

// StartServer serves the health endpoints in the background and
// returns the server so main can shut it down.
func (c *Checker) StartServer(port string) *http.Server {
	mux := http.NewServeMux()
	handler := c.Handler()
	mux.HandleFunc("/healthz", handler)
	mux.HandleFunc("/health", handler)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		c.logger.WithField("port", port).Info("Starting health check server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.WithError(err).Error("Health check server failed")
		}
	}()

	return server
}
