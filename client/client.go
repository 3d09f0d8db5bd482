// Package client talks to an agent-flow backend over HTTP and glues the
// editor graph adapter to it.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	fiberclient "github.com/gofiber/fiber/v3/client"
	"github.com/meikuraledutech/agentflow"
	"github.com/meikuraledutech/agentflow/internal/logging"
	"go.uber.org/zap"
)

const flowsPath = "/agent-flows"

// APIError is a non-2xx answer from the backend. A 404 matches
// agentflow.ErrFlowNotFound.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Is(target error) bool {
	return target == agentflow.ErrFlowNotFound && e.StatusCode == 404
}

type Option func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.http.SetHeader(key, value)
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

type Client struct {
	http   *fiberclient.Client
	logger *zap.Logger
}

// New returns a client for the API rooted at baseURL, for example
// http://localhost:8000/api/v2.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:   fiberclient.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create stores a new flow.
func (c *Client) Create(ctx context.Context, req *agentflow.CreateRequest) (*agentflow.AgentFlow, error) {
	resp, err := c.http.Post(flowsPath, fiberclient.Config{Ctx: ctx, Body: req})
	if err != nil {
		return nil, fmt.Errorf("agentflow: create agent flow: %w", err)
	}
	var f agentflow.AgentFlow
	if err := decode(resp, "Failed to create agent flow", &f); err != nil {
		return nil, err
	}
	c.logger.Debug("agent flow created", zap.String("agent_flow_id", f.AgentFlowID))
	return &f, nil
}

// Get fetches a flow. A missing flow is an *APIError matching
// agentflow.ErrFlowNotFound.
func (c *Client) Get(ctx context.Context, agentFlowID string) (*agentflow.AgentFlow, error) {
	resp, err := c.http.Get(flowsPath+"/:id", fiberclient.Config{
		Ctx:       ctx,
		PathParam: map[string]string{"id": agentFlowID},
	})
	if err != nil {
		return nil, fmt.Errorf("agentflow: fetch agent flow: %w", err)
	}
	var f agentflow.AgentFlow
	if err := decode(resp, "Failed to fetch agent flow", &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) Update(ctx context.Context, agentFlowID string, req *agentflow.UpdateRequest) (*agentflow.AgentFlow, error) {
	resp, err := c.http.Put(flowsPath+"/:id", fiberclient.Config{
		Ctx:       ctx,
		PathParam: map[string]string{"id": agentFlowID},
		Body:      req,
	})
	if err != nil {
		return nil, fmt.Errorf("agentflow: update agent flow: %w", err)
	}
	var f agentflow.AgentFlow
	if err := decode(resp, "Failed to update agent flow", &f); err != nil {
		return nil, err
	}
	c.logger.Debug("agent flow updated", zap.String("agent_flow_id", f.AgentFlowID))
	return &f, nil
}

func (c *Client) Delete(ctx context.Context, agentFlowID string) error {
	resp, err := c.http.Delete(flowsPath+"/:id", fiberclient.Config{
		Ctx:       ctx,
		PathParam: map[string]string{"id": agentFlowID},
	})
	if err != nil {
		return fmt.Errorf("agentflow: delete agent flow: %w", err)
	}
	return decode(resp, "Failed to delete agent flow", nil)
}

// List pages through stored flows. Zero options are left out of the query.
func (c *Client) List(ctx context.Context, opts agentflow.ListOptions) (*agentflow.ListResponse, error) {
	params := map[string]string{}
	if opts.Limit > 0 {
		params["limit"] = strconv.Itoa(opts.Limit)
	}
	if opts.Offset > 0 {
		params["offset"] = strconv.Itoa(opts.Offset)
	}
	if opts.Search != "" {
		params["search"] = opts.Search
	}

	resp, err := c.http.Get(flowsPath, fiberclient.Config{Ctx: ctx, Param: params})
	if err != nil {
		return nil, fmt.Errorf("agentflow: list agent flows: %w", err)
	}
	var list agentflow.ListResponse
	if err := decode(resp, "Failed to list agent flows", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// decode releases resp. Non-2xx answers become an *APIError whose message is
// the body's message or error field, else "HTTP <code>: <fallback>".
func decode(resp *fiberclient.Response, fallback string, out any) error {
	defer resp.Close()

	code := resp.StatusCode()
	if code < 200 || code > 299 {
		var body struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(resp.Body(), &body)

		msg := body.Message
		if msg == "" {
			msg = body.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d: %s", code, fallback)
		}
		return &APIError{StatusCode: code, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("agentflow: decode response: %w", err)
	}
	return nil
}
