package service

import (
	"testing"

	"github.com/safeguardhq/safeguard/internal/config"
	"github.com/safeguardhq/safeguard/internal/risk/domain"
	"github.com/stretchr/testify/assert"
)

func TestRouteFollowsPolicyTable(t *testing.T) {
	router := NewRouter(config.StaticPolicyHolder(config.DefaultPolicy()))

	assert.Equal(t, domain.RouteAuto, router.Route(domain.TierLow))
	assert.Equal(t, domain.RouteAuto, router.Route(domain.TierMedium))
	assert.Equal(t, domain.RouteManagerReview, router.Route(domain.TierHigh))
}

func TestRouteUnknownTierFailsClosed(t *testing.T) {
	router := NewRouter(config.StaticPolicyHolder(config.DefaultPolicy()))

	assert.Equal(t, domain.RouteManagerReview, router.Route(domain.Tier("experimental")))
	assert.Equal(t, domain.RouteManagerReview, router.Route(domain.Tier("")))
}

func TestRouteReconfiguredTier(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.Routing["medium"] = "manager_review"
	router := NewRouter(config.StaticPolicyHolder(policy))

	assert.Equal(t, domain.RouteManagerReview, router.Route(domain.TierMedium))
}
