package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meikuraledutech/agentflow"
	backend "github.com/redis/go-redis/v9"
)

// Store implements agentflow.Store using Redis. Each flow is one JSON value;
// a sorted set scored by the numeric id keeps creation order.
type Store struct {
	client *backend.Client
	prefix string
	now    func() time.Time
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "agentflow:",
		now:    func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(agentFlowID string) string {
	return s.prefix + "flow:" + agentFlowID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) seqKey() string {
	return s.prefix + "seq"
}

// CreateSchema is a no-op; Redis needs no schema.
func (s *Store) CreateSchema(ctx context.Context) error {
	return nil
}

// DropSchema removes every key under the store's prefix.
func (s *Store) DropSchema(ctx context.Context) error {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("agentflow: scan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// CreateFlow stores a new flow.
// Returns ErrFlowExists if the agent_flow_id is already stored.
func (s *Store) CreateFlow(ctx context.Context, req *agentflow.CreateRequest) (*agentflow.AgentFlow, error) {
	id, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("agentflow: next id: %w", err)
	}

	now := s.now()
	f := &agentflow.AgentFlow{
		ID:          id,
		AgentFlowID: req.AgentFlowID,
		Name:        req.Name,
		Goal:        req.Goal,
		Workflow:    req.Workflow,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("agentflow: encode flow: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(req.AgentFlowID), data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("agentflow: save flow: %w", err)
	}
	if !ok {
		return nil, agentflow.ErrFlowExists
	}

	// Never leave a flow stored but unindexed.
	if err := s.client.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(id),
		Member: req.AgentFlowID,
	}).Err(); err != nil {
		if delErr := s.client.Del(ctx, s.key(req.AgentFlowID)).Err(); delErr != nil {
			return nil, fmt.Errorf("agentflow: index flow: %w", errors.Join(err, delErr))
		}
		return nil, fmt.Errorf("agentflow: index flow: %w", err)
	}

	return f, nil
}

// GetFlow fetches a flow by its agent_flow_id.
// Returns nil, nil if not found.
func (s *Store) GetFlow(ctx context.Context, agentFlowID string) (*agentflow.AgentFlow, error) {
	val, err := s.client.Get(ctx, s.key(agentFlowID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("agentflow: get flow: %w", err)
	}
	return decodeFlow(val)
}

// UpdateFlow overwrites the fields set in req and bumps updated_at. The
// read-modify-write runs under WATCH so concurrent writers cannot interleave.
// Returns ErrFlowNotFound if the flow doesn't exist.
func (s *Store) UpdateFlow(ctx context.Context, agentFlowID string, req *agentflow.UpdateRequest) (*agentflow.AgentFlow, error) {
	key := s.key(agentFlowID)

	var updated *agentflow.AgentFlow
	err := s.client.Watch(ctx, func(tx *backend.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, backend.Nil) {
				return agentflow.ErrFlowNotFound
			}
			return err
		}

		f, err := decodeFlow(val)
		if err != nil {
			return err
		}
		f.Apply(req)
		f.UpdatedAt = s.now()

		data, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("agentflow: encode flow: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = f
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, agentflow.ErrFlowNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("agentflow: update flow: %w", err)
	}
	return updated, nil
}

// DeleteFlow deletes a flow by its agent_flow_id.
// No error if the flow doesn't exist.
func (s *Store) DeleteFlow(ctx context.Context, agentFlowID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(agentFlowID))
	pipe.ZRem(ctx, s.indexKey(), agentFlowID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("agentflow: delete flow: %w", err)
	}
	return nil
}

// ListFlows returns flow summaries, newest first. Search matches the id, name
// or goal case-insensitively. TotalCount counts every match, not just the page.
func (s *Store) ListFlows(ctx context.Context, opts agentflow.ListOptions) (*agentflow.ListResponse, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("agentflow: list index: %w", err)
	}

	resp := &agentflow.ListResponse{Items: []agentflow.Summary{}}
	if len(ids) == 0 {
		return resp, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("agentflow: load flows: %w", err)
	}

	search := strings.ToLower(opts.Search)
	var matched []agentflow.Summary
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		f, err := decodeFlow([]byte(str))
		if err != nil {
			return nil, err
		}
		if search != "" && !matches(f, search) {
			continue
		}
		matched = append(matched, f.Summary())
	}

	resp.TotalCount = len(matched)
	start := min(max(opts.Offset, 0), len(matched))
	end := len(matched)
	if opts.Limit > 0 {
		end = min(start+opts.Limit, end)
	}
	resp.Items = append(resp.Items, matched[start:end]...)
	return resp, nil
}

func matches(f *agentflow.AgentFlow, search string) bool {
	return strings.Contains(strings.ToLower(f.AgentFlowID), search) ||
		strings.Contains(strings.ToLower(f.Name), search) ||
		strings.Contains(strings.ToLower(f.Goal), search)
}

func decodeFlow(b []byte) (*agentflow.AgentFlow, error) {
	var f agentflow.AgentFlow
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("agentflow: decode flow: %w", err)
	}
	return &f, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
