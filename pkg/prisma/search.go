package prisma

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// SearchRequest describes a query to resolve into a search handle.
type SearchRequest struct {
	Query string
	Type  PolicyType
	// Name and Description are only sent when the search endpoint is expected
	// to create the saved search itself.
	Name        string
	Description string
}

type searchRequest struct {
	Query       string `json:"query"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type searchResponse struct {
	SearchID string `json:"searchId"`
	ID       string `json:"id"`
}

// handle returns the first identifier present, in priority order.
func (r searchResponse) handle() string {
	if r.SearchID != "" {
		return r.SearchID
	}
	return r.ID
}

func (c *Client) searchPath(t PolicyType) string {
	if t == PolicyTypeIAM {
		return c.endpoints.PermissionSearch
	}
	return c.endpoints.ConfigSearch
}

// ResolveSearch submits a query and returns the search handle the API assigned to it.
func (c *Client) ResolveSearch(ctx context.Context, session *Session, req SearchRequest) (string, error) {
	path := c.searchPath(req.Type)
	c.logger.Info("resolving search",
		zap.String("endpoint", path),
		zap.String("query", req.Query))

	var resp searchResponse
	err := c.postJSON(ctx, "search", path, session, searchRequest{
		Query:       req.Query,
		Name:        req.Name,
		Description: req.Description,
	}, &resp)
	if err != nil {
		c.logger.Error("search resolution failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrSearchResolution, err)
	}

	id := resp.handle()
	if id == "" {
		c.logger.Error("search response did not contain an identifier")
		return "", fmt.Errorf("%w: neither searchId nor id found in response", ErrSearchResolution)
	}

	c.logger.Info("resolved search", zap.String("search_id", id))
	return id, nil
}

// SaveSearchRequest turns a transient search into a named saved search.
type SaveSearchRequest struct {
	ID          string
	Query       string
	Name        string
	Description string
	CloudType   string
}

type saveSearchRequest struct {
	Query       string `json:"query"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Saved       bool   `json:"saved"`
	CloudType   string `json:"cloudType"`
	Default     bool   `json:"default"`
}

// SaveSearch marks the search req.ID as saved under req.Name. A search that is
// already saved is not an error.
func (c *Client) SaveSearch(ctx context.Context, session *Session, req SaveSearchRequest) error {
	if req.ID == "" {
		return fmt.Errorf("%w: search id is required", ErrSearchPersist)
	}

	path := strings.TrimSuffix(c.endpoints.SearchHistory, "/") + "/" + req.ID
	c.logger.Info("saving search",
		zap.String("name", req.Name),
		zap.String("search_id", req.ID))

	err := c.postJSON(ctx, "save search", path, session, saveSearchRequest{
		Query:       req.Query,
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Saved:       true,
		CloudType:   req.CloudType,
		Default:     false,
	}, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && isAlreadySaved(apiErr) {
			c.logger.Warn("search already saved, continuing",
				zap.String("name", req.Name),
				zap.String("search_id", req.ID))
			return nil
		}
		c.logger.Error("saving search failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSearchPersist, err)
	}

	c.logger.Info("saved search", zap.String("name", req.Name))
	return nil
}
