package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// StorageChecker is implemented by the object storage backend.
type StorageChecker interface {
	HealthCheck(ctx context.Context) error
}

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Latency int64  `json:"latency_ms"`
	Error   string `json:"error,omitempty"`
}

type Response struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// Checker probes every backing service the pipeline depends on.
type Checker struct {
	checks []check
}

func NewChecker(pool *pgxpool.Pool, redisClient *redis.Client) *Checker {
	c := &Checker{}
	if pool != nil {
		c.checks = append(c.checks, check{"database", pool.Ping})
	}
	if redisClient != nil {
		c.checks = append(c.checks, check{"redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	return c
}

func (c *Checker) WithStorage(s StorageChecker) *Checker {
	if s != nil {
		c.checks = append(c.checks, check{"storage", s.HealthCheck})
	}
	return c
}

// CheckAll runs every probe concurrently under a shared deadline.
func (c *Checker) CheckAll(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	components := make([]ComponentHealth, len(c.checks))
	var wg sync.WaitGroup
	for i, chk := range c.checks {
		wg.Add(1)
		go func(i int, chk check) {
			defer wg.Done()

			start := time.Now()
			err := chk.fn(ctx)
			comp := ComponentHealth{
				Name:    chk.name,
				Status:  StatusHealthy,
				Latency: time.Since(start).Milliseconds(),
			}
			if err != nil {
				comp.Status = StatusUnhealthy
				comp.Error = err.Error()
			}
			components[i] = comp
		}(i, chk)
	}
	wg.Wait()

	status := StatusHealthy
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			status = StatusUnhealthy
			break
		}
	}

	return Response{
		Status:     status,
		Components: components,
		Timestamp:  time.Now(),
	}
}

// LivenessHandler reports process liveness only; no backends are probed.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}

// ReadinessHandler reports whether the service can do useful work.
func ReadinessHandler(checker *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := checker.CheckAll(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func HealthHandler(checker *Checker) http.HandlerFunc {
	return ReadinessHandler(checker)
}
