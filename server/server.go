// Package server is a reference agent-flow backend. It serves the
// /api/v2/agent-flows routes over any agentflow.Store.
package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/meikuraledutech/agentflow"
	"github.com/meikuraledutech/agentflow/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	PathPrefix   = "/api/v2"
	defaultLimit = 50
)

type Option func(*Server)

// WithLogger sets the request logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logging.OrNop(l)
	}
}

// WithRegistry registers the metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithDefaultLimit sets the page size used when a listing gives no limit.
func WithDefaultLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

type Server struct {
	store        agentflow.Store
	logger       *zap.Logger
	registry     *prometheus.Registry
	defaultLimit int

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rejected prometheus.Counter
}

// New builds the fiber app serving store.
func New(store agentflow.Store, opts ...Option) *fiber.App {
	s := &Server{
		store:        store,
		logger:       zap.NewNop(),
		registry:     prometheus.NewRegistry(),
		defaultLimit: defaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initMetrics()

	app := fiber.New(fiber.Config{AppName: "agentflow"})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(s.observe)

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	flows := app.Group(PathPrefix + "/agent-flows")
	flows.Post("/", s.createFlow)
	flows.Get("/", s.listFlows)
	flows.Get("/:id", s.getFlow)
	flows.Put("/:id", s.updateFlow)
	flows.Delete("/:id", s.deleteFlow)

	return app
}

func (s *Server) initMetrics() {
	factory := promauto.With(s.registry)
	s.requests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentflow",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
	s.duration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agentflow",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	s.rejected = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "agentflow",
		Name:      "workflow_rejections_total",
		Help:      "Workflows refused for a start/end marker violation",
	})
}

func (s *Server) observe(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	route := c.Route().Path
	status := c.Response().StatusCode()
	s.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
	s.duration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())

	s.logger.Debug("request",
		zap.String("request_id", requestid.FromContext(c)),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)
	return err
}

func (s *Server) fail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (s *Server) internal(c fiber.Ctx, err error) error {
	s.logger.Error("store failure",
		zap.String("request_id", requestid.FromContext(c)),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return s.fail(c, fiber.StatusInternalServerError, err.Error())
}

// prepareWorkflow fills missing edge ids and enforces the marker rule. It
// returns the violation, or "" when w is acceptable.
func (s *Server) prepareWorkflow(w *agentflow.Workflow) string {
	for i := range w.Edges {
		if w.Edges[i].ID == "" {
			w.Edges[i].ID = uuid.NewString()
		}
	}
	res := agentflow.ValidateWorkflow(w.Nodes)
	if !res.Valid {
		s.rejected.Inc()
	}
	return res.Error
}

func (s *Server) createFlow(c fiber.Ctx) error {
	var req agentflow.CreateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if req.AgentFlowID == "" || req.Name == "" {
		return s.fail(c, fiber.StatusBadRequest, "agent_flow_id and name are required")
	}
	if msg := s.prepareWorkflow(&req.Workflow); msg != "" {
		return s.fail(c, fiber.StatusUnprocessableEntity, msg)
	}

	f, err := s.store.CreateFlow(c.Context(), &req)
	if errors.Is(err, agentflow.ErrFlowExists) {
		return s.fail(c, fiber.StatusConflict, "agent flow already exists")
	}
	if err != nil {
		return s.internal(c, err)
	}
	s.logger.Info("agent flow created", zap.String("agent_flow_id", f.AgentFlowID))
	return c.Status(fiber.StatusCreated).JSON(f)
}

func (s *Server) listFlows(c fiber.Ctx) error {
	limit := fiber.Query[int](c, "limit", s.defaultLimit)
	offset := fiber.Query[int](c, "offset", 0)
	if limit <= 0 || offset < 0 {
		return s.fail(c, fiber.StatusBadRequest, "limit must be positive and offset non-negative")
	}

	resp, err := s.store.ListFlows(c.Context(), agentflow.ListOptions{
		Limit:  limit,
		Offset: offset,
		Search: c.Query("search"),
	})
	if err != nil {
		return s.internal(c, err)
	}
	return c.JSON(resp)
}

func (s *Server) getFlow(c fiber.Ctx) error {
	f, err := s.store.GetFlow(c.Context(), c.Params("id"))
	if err != nil {
		return s.internal(c, err)
	}
	if f == nil {
		return s.fail(c, fiber.StatusNotFound, "agent flow not found")
	}
	return c.JSON(f)
}

func (s *Server) updateFlow(c fiber.Ctx) error {
	var req agentflow.UpdateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if req.Workflow != nil {
		if msg := s.prepareWorkflow(req.Workflow); msg != "" {
			return s.fail(c, fiber.StatusUnprocessableEntity, msg)
		}
	}

	f, err := s.store.UpdateFlow(c.Context(), c.Params("id"), &req)
	if errors.Is(err, agentflow.ErrFlowNotFound) {
		return s.fail(c, fiber.StatusNotFound, "agent flow not found")
	}
	if err != nil {
		return s.internal(c, err)
	}
	s.logger.Info("agent flow updated", zap.String("agent_flow_id", f.AgentFlowID))
	return c.JSON(f)
}

func (s *Server) deleteFlow(c fiber.Ctx) error {
	if err := s.store.DeleteFlow(c.Context(), c.Params("id")); err != nil {
		return s.internal(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
