package service

import (
	"github.com/safeguardhq/safeguard/internal/config"
	"github.com/safeguardhq/safeguard/internal/risk/domain"
)

// PolicyRouter resolves routes from the hot-reloadable policy table.
type PolicyRouter struct {
	policies *config.PolicyHolder
}

func NewRouter(policies *config.PolicyHolder) domain.Router {
	return &PolicyRouter{policies: policies}
}

// Route returns the configured route for a tier. Anything the table
// does not name goes to manager review: an unknown tier must fail
// closed, not slip through as auto-approved.
func (r *PolicyRouter) Route(tier domain.Tier) domain.Route {
	routing := r.policies.Get().Routing
	switch routing[string(tier)] {
	case string(domain.RouteAuto):
		return domain.RouteAuto
	case string(domain.RouteManagerReview):
		return domain.RouteManagerReview
	}
	return domain.RouteManagerReview
}
