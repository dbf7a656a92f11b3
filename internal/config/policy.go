package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Policy holds the business rules that gate purchases. It is deliberately a
// plain value: the gating code receives limits and routing as parameters and
// never reads configuration itself.
type Policy struct {
	DailyUnitLimit         float64       `mapstructure:"dailyUnitLimit"`
	ApprovalTimeout        time.Duration `mapstructure:"approvalTimeout"`
	ReceiptDisplayInterval time.Duration `mapstructure:"receiptDisplayInterval"`

	// Routing maps a risk tier to "auto" or "manager_review".
	Routing map[string]string `mapstructure:"routing"`

	RiskThresholds RiskThresholds `mapstructure:"riskThresholds"`
	Classifier     ClassifierKnobs `mapstructure:"classifier"`
}

// RiskThresholds converts a 0-100 risk score into a tier: score >= High is
// High, score >= Medium is Medium, everything below is Low.
type RiskThresholds struct {
	Medium float64 `mapstructure:"medium"`
	High   float64 `mapstructure:"high"`
}

type ClassifierKnobs struct {
	LookbackDays            int     `mapstructure:"lookbackDays"`
	HighFrequencyPurchases  int     `mapstructure:"highFrequencyPurchases"`
	HighVolumeUnits         float64 `mapstructure:"highVolumeUnits"`
	BulkPurchaseThresholdML int     `mapstructure:"bulkPurchaseThresholdMl"`
}

func DefaultPolicy() Policy {
	return Policy{
		DailyUnitLimit:         5.0,
		ApprovalTimeout:        60 * time.Second,
		ReceiptDisplayInterval: 15 * time.Second,
		Routing: map[string]string{
			"low":    "auto",
			"medium": "auto",
			"high":   "manager_review",
		},
		RiskThresholds: RiskThresholds{Medium: 40, High: 70},
		Classifier: ClassifierKnobs{
			LookbackDays:            30,
			HighFrequencyPurchases:  20,
			HighVolumeUnits:         100,
			BulkPurchaseThresholdML: 1000,
		},
	}
}

// PolicyHolder exposes the current policy and hot-reloads it when the
// underlying file changes. Readers always see a complete, validated policy.
type PolicyHolder struct {
	current atomic.Value // holds Policy
}

func NewPolicyHolder(cfg Config) (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("policy")
	v.SetConfigType("yml")
	if path := strings.TrimSpace(cfg.PolicyPath); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("/etc/safeguard")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SAFEGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPolicy()
	v.SetDefault("policy.dailyUnitLimit", defaults.DailyUnitLimit)
	v.SetDefault("policy.approvalTimeout", defaults.ApprovalTimeout)
	v.SetDefault("policy.receiptDisplayInterval", defaults.ReceiptDisplayInterval)
	v.SetDefault("policy.routing", defaults.Routing)
	v.SetDefault("policy.riskThresholds.medium", defaults.RiskThresholds.Medium)
	v.SetDefault("policy.riskThresholds.high", defaults.RiskThresholds.High)
	v.SetDefault("policy.classifier", defaults.Classifier)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var policy Policy
	if err := v.UnmarshalKey("policy", &policy); err != nil {
		return nil, err
	}
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	holder := &PolicyHolder{}
	holder.current.Store(policy)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated Policy
			if err := v.UnmarshalKey("policy", &updated); err != nil {
				log.Printf("[policy] reload failed: %v", err)
				return
			}
			if err := validatePolicy(updated); err != nil {
				log.Printf("[policy] invalid policy ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[policy] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *PolicyHolder) Get() Policy {
	return h.current.Load().(Policy)
}

// StaticPolicyHolder wraps a fixed policy. Used by tests and tools that
// do not want file watching.
func StaticPolicyHolder(p Policy) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(p)
	return holder
}

func validatePolicy(p Policy) error {
	if p.DailyUnitLimit <= 0 {
		return errors.New("policy: dailyUnitLimit must be positive")
	}
	if p.ApprovalTimeout <= 0 {
		return errors.New("policy: approvalTimeout must be positive")
	}
	if len(p.Routing) == 0 {
		return errors.New("policy: routing table is empty")
	}
	for tier, route := range p.Routing {
		switch strings.ToLower(strings.TrimSpace(route)) {
		case "auto", "manager_review":
		default:
			return errors.New("policy: unknown route for tier " + tier)
		}
	}
	if p.RiskThresholds.High < p.RiskThresholds.Medium {
		return errors.New("policy: riskThresholds.high must be >= riskThresholds.medium")
	}
	return nil
}
