package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/codelens-ai/codelens/internal/models"
)

// GraphService browses the code graph.
type GraphService struct {
	c *Client
}

// ListOptions filters and paginates node listing.
type ListOptions struct {
	Kind      string
	Namespace string
	Limit     int
	Offset    int
}

// List returns nodes matching the options.
func (s *GraphService) List(ctx context.Context, opts ListOptions) (*NodeList, error) {
	params := url.Values{}
	if opts.Kind != "" {
		params.Set("kind", opts.Kind)
	}
	if opts.Namespace != "" {
		params.Set("namespace", opts.Namespace)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	var resp NodeList
	if err := s.c.get(ctx, "/api/v1/graph/nodes", params, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Get fetches one node by its qualified path ID.
func (s *GraphService) Get(ctx context.Context, id string) (*models.CodeNode, error) {
	params := url.Values{"id": {id}}

	var resp models.CodeNode
	if err := s.c.get(ctx, "/api/v1/graph/node", params, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Edges lists the edges touching a node, in both directions.
func (s *GraphService) Edges(ctx context.Context, id string) (*EdgeList, error) {
	params := url.Values{"id": {id}}

	var resp EdgeList
	if err := s.c.get(ctx, "/api/v1/graph/node/edges", params, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
