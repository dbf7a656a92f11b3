package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/safeguardhq/safeguard/internal/clock"
	"github.com/safeguardhq/safeguard/internal/config"
	customerdomain "github.com/safeguardhq/safeguard/internal/customer/domain"
	incidentdomain "github.com/safeguardhq/safeguard/internal/incident/domain"
	ledgerdomain "github.com/safeguardhq/safeguard/internal/ledger/domain"
	"github.com/safeguardhq/safeguard/internal/risk/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ClassifierParams struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	Policies     *config.PolicyHolder
	Ledger       ledgerdomain.Service
	Incidents    incidentdomain.Service
	CustomerRepo customerdomain.Repository
}

// Classifier scores a customer's recent history into a tier. Each run
// also persists the score so dashboards see what gating saw.
type Classifier struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	policies     *config.PolicyHolder
	ledger       ledgerdomain.Service
	incidents    incidentdomain.Service
	customerRepo customerdomain.Repository
}

func NewClassifier(p ClassifierParams) domain.Classifier {
	return &Classifier{
		db:           p.DB,
		log:          p.Log.Named("risk.classifier"),
		clock:        p.Clock,
		policies:     p.Policies,
		ledger:       p.Ledger,
		incidents:    p.Incidents,
		customerRepo: p.CustomerRepo,
	}
}

func (c *Classifier) TierOf(ctx context.Context, customerID snowflake.ID) (domain.Assessment, error) {
	policy := c.policies.Get()
	knobs := policy.Classifier

	now := c.clock.Now()
	cutoff := now.AddDate(0, 0, -knobs.LookbackDays)

	entries, err := c.ledger.ListByCustomer(ctx, customerID, cutoff, 0)
	if err != nil {
		return domain.Assessment{}, err
	}
	incidents, err := c.incidents.ListByCustomer(ctx, customerID, time.Time{})
	if err != nil {
		return domain.Assessment{}, err
	}

	var score float64
	var factors []string

	// Purchase frequency, up to 25 points.
	count := len(entries)
	switch {
	case count > knobs.HighFrequencyPurchases:
		score += 25
		factors = append(factors, fmt.Sprintf("high frequency: %d purchases in %d days", count, knobs.LookbackDays))
	case count > 10:
		score += 15
		factors = append(factors, fmt.Sprintf("elevated frequency: %d purchases in %d days", count, knobs.LookbackDays))
	}

	// Volume consumed, up to 25 points.
	var totalUnits float64
	for _, e := range entries {
		totalUnits += e.Units
	}
	switch {
	case totalUnits > knobs.HighVolumeUnits:
		score += 25
		factors = append(factors, fmt.Sprintf("high volume: %.1f units in %d days", totalUnits, knobs.LookbackDays))
	case totalUnits > knobs.HighVolumeUnits/2:
		score += 15
		factors = append(factors, fmt.Sprintf("elevated volume: %.1f units in %d days", totalUnits, knobs.LookbackDays))
	}

	// Time-of-day patterns, up to 15 points.
	var earlyMorning, lateNight int
	for _, e := range entries {
		hour := e.RecordedAt.In(now.Location()).Hour()
		if hour < 10 {
			earlyMorning++
		}
		if hour >= 22 {
			lateNight++
		}
	}
	if earlyMorning > 5 {
		score += 10
		factors = append(factors, fmt.Sprintf("early morning purchases: %d", earlyMorning))
	}
	if lateNight > 5 {
		score += 5
		factors = append(factors, fmt.Sprintf("late night purchases: %d", lateNight))
	}

	// Incident history, capped at 30 points.
	var incidentScore float64
	for _, inc := range incidents {
		switch {
		case inc.Severity >= 4:
			incidentScore += 15
		case inc.Severity >= 3:
			incidentScore += 10
		default:
			incidentScore += 5
		}
	}
	if incidentScore > 30 {
		incidentScore = 30
	}
	score += incidentScore
	if len(incidents) > 0 {
		factors = append(factors, fmt.Sprintf("incident history: %d incidents", len(incidents)))
	}

	// Days that hit the daily limit, up to 15 points.
	violations := limitViolationDays(entries, policy.DailyUnitLimit)
	switch {
	case violations > 5:
		score += 15
		factors = append(factors, fmt.Sprintf("frequent limit violations: %d days", violations))
	case violations > 0:
		score += 10
		factors = append(factors, fmt.Sprintf("limit violations: %d days", violations))
	}

	if score > 100 {
		score = 100
	}

	tier := tierForScore(score, policy.RiskThresholds)

	if err := c.customerRepo.UpdateRisk(ctx, c.db, customerID, score, string(tier)); err != nil {
		// Persisting the score is bookkeeping; the assessment itself
		// is still valid.
		c.log.Warn("risk score persist failed",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
	}

	return domain.Assessment{Score: score, Tier: tier, Factors: factors}, nil
}

func tierForScore(score float64, t config.RiskThresholds) domain.Tier {
	switch {
	case score >= t.High:
		return domain.TierHigh
	case score >= t.Medium:
		return domain.TierMedium
	}
	return domain.TierLow
}

// limitViolationDays counts distinct days whose summed units exceed
// the daily limit.
func limitViolationDays(entries []ledgerdomain.PurchaseEntry, dailyLimit float64) int {
	byDay := make(map[string]float64)
	for _, e := range entries {
		day := e.RecordedAt.Format("2006-01-02")
		byDay[day] += e.Units
	}
	violations := 0
	for _, units := range byDay {
		if units > dailyLimit {
			violations++
		}
	}
	return violations
}
