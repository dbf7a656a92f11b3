package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Tier is the customer risk classification used to route a purchase.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

func ParseTier(value string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(value))) {
	case TierLow:
		return TierLow, nil
	case TierMedium:
		return TierMedium, nil
	case TierHigh:
		return TierHigh, nil
	}
	return "", ErrUnknownTier
}

// Route is the routing decision for one purchase attempt.
type Route string

const (
	RouteAuto          Route = "auto"
	RouteManagerReview Route = "manager_review"
)

// Router maps a tier to a route. The mapping comes from the policy
// table, not code, so tiers can be re-routed without a deploy.
type Router interface {
	Route(tier Tier) Route
}

// Assessment is one classifier run over a customer's history.
type Assessment struct {
	Score   float64  `json:"score"`
	Tier    Tier     `json:"tier"`
	Factors []string `json:"factors,omitempty"`
}

// Classifier produces the tier consulted once per purchase attempt.
// Implementations may cache internally but callers never do.
type Classifier interface {
	TierOf(ctx context.Context, customerID snowflake.ID) (Assessment, error)
}

var ErrUnknownTier = errors.New("unknown_risk_tier")
