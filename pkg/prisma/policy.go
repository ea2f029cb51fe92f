package prisma

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// PolicyRequest describes a policy bound to a saved search.
type PolicyRequest struct {
	Name           string
	Description    string
	Severity       string
	Labels         []string
	CloudType      string
	Type           PolicyType
	Recommendation string
	SearchID       string
}

type policyRule struct {
	Name       string         `json:"name"`
	Criteria   string         `json:"criteria"`
	Parameters ruleParameters `json:"parameters"`
	Type       string         `json:"type"`
}

type ruleParameters struct {
	SavedSearch bool `json:"savedSearch"`
}

type policyRequest struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Severity       string     `json:"severity"`
	Labels         []string   `json:"labels"`
	PolicyType     string     `json:"policyType"`
	CloudType      string     `json:"cloudType"`
	Enabled        bool       `json:"enabled"`
	Recommendation string     `json:"recommendation"`
	Rule           policyRule `json:"rule"`
}

// Policy is the part of the creation response the tool keeps.
type Policy struct {
	ID   string `json:"policyId"`
	Name string `json:"name"`
}

func newPolicyRequest(req PolicyRequest) policyRequest {
	labels := req.Labels
	if labels == nil {
		labels = []string{}
	}
	return policyRequest{
		Name:           req.Name,
		Description:    req.Description,
		Severity:       req.Severity,
		Labels:         labels,
		PolicyType:     req.Type.String(),
		CloudType:      req.CloudType,
		Enabled:        true,
		Recommendation: req.Recommendation,
		Rule: policyRule{
			Name:       req.Name + " Rule",
			Criteria:   req.SearchID,
			Parameters: ruleParameters{SavedSearch: true},
			Type:       req.Type.RuleType(),
		},
	}
}

// CreatePolicy registers a policy whose rule matches the saved search req.SearchID.
// A policy with the same name yields ErrDuplicatePolicy.
func (c *Client) CreatePolicy(ctx context.Context, session *Session, req PolicyRequest) (*Policy, error) {
	c.logger.Info("creating policy",
		zap.String("name", req.Name),
		zap.String("search_id", req.SearchID),
		zap.Stringer("policy_type", req.Type))

	var policy Policy
	err := c.postJSON(ctx, "create policy", c.endpoints.Policy, session, newPolicyRequest(req), &policy)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && isDuplicatePolicy(apiErr) {
			c.logger.Warn("policy already exists, skipping", zap.String("name", req.Name))
			return nil, fmt.Errorf("%w: %w", ErrDuplicatePolicy, err)
		}
		c.logger.Error("policy creation failed", zap.String("name", req.Name), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPolicyCreation, err)
	}

	if policy.Name == "" {
		policy.Name = req.Name
	}
	c.logger.Info("created policy",
		zap.String("name", policy.Name),
		zap.String("policy_id", policy.ID))
	return &policy, nil
}
