/*
policies.go - Tunable thresholds of the leave rules

PURPOSE:
  Every number the evaluator and the query views compare against lives in
  PolicyConfig. DefaultPolicyConfig returns the values the application has
  always enforced; factory/policy.go builds a PolicyConfig from JSON so an
  operator can tighten or relax a rule without a code change.

AVAILABLE PRESETS:
  DefaultPolicyConfig: 3 emergencies per 30 days, 7-day cooldown, 50% team
                       capacity, medical certificate after 3 sick days,
                       1-day casual/misc, 5 paid days per month
  StrictPolicyConfig:  Smaller teams: 2 emergencies per 30 days, 14-day
                       cooldown, 30% team capacity, certificate after 2 days

CAPACITY:
  The capacity ratio is a decimal so floor(users * ratio) is exact:
  floor(15 * 0.5) = 7, never 7.000000001 rounded the wrong way.

EXAMPLE:
  cfg := timeoff.DefaultPolicyConfig()
  cfg.PaidMonthlyCap = 4
  eval := timeoff.NewEvaluator(cfg, clock)

SEE ALSO:
  - evaluator.go: The rules that read these thresholds
  - factory.go: JSON presets for the factory package
*/
package timeoff

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POLICY CONFIG
// =============================================================================

type PolicyConfig struct {
	// Emergency throttling
	EmergencyWindowDays   int `json:"emergencyWindowDays"`
	EmergencyMaxInWindow  int `json:"emergencyMaxInWindow"`
	EmergencyCooldownDays int `json:"emergencyCooldownDays"`

	// Team capacity: at most floor(len(users) * CapacityRatio) people on
	// approved leave on the same day.
	CapacityRatio decimal.Decimal `json:"capacityRatio"`

	// Sick leave
	SickCertificateThreshold int    `json:"sickCertificateThreshold"`
	SickCertificateKeyword   string `json:"sickCertificateKeyword"`
	MinSickReasonLen         int    `json:"minSickReasonLen"`

	// Per-type caps
	CasualMaxDays  int `json:"casualMaxDays"`
	MiscMaxDays    int `json:"miscMaxDays"`
	PaidMonthlyCap int `json:"paidMonthlyCap"`

	// Views
	UpcomingWindowDays int `json:"upcomingWindowDays"`
	RecentLimit        int `json:"recentLimit"`
}

// DefaultPolicyConfig returns the thresholds of the standard leave policy.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		EmergencyWindowDays:      30,
		EmergencyMaxInWindow:     3,
		EmergencyCooldownDays:    7,
		CapacityRatio:            decimal.NewFromFloat(0.5),
		SickCertificateThreshold: 3,
		SickCertificateKeyword:   "medical certificate",
		MinSickReasonLen:         10,
		CasualMaxDays:            1,
		MiscMaxDays:              1,
		PaidMonthlyCap:           5,
		UpcomingWindowDays:       30,
		RecentLimit:              5,
	}
}

// StrictPolicyConfig returns tighter thresholds for small teams.
func StrictPolicyConfig() PolicyConfig {
	cfg := DefaultPolicyConfig()
	cfg.EmergencyMaxInWindow = 2
	cfg.EmergencyCooldownDays = 14
	cfg.CapacityRatio = decimal.RequireFromString("0.3")
	cfg.SickCertificateThreshold = 2
	return cfg
}

// Validate rejects configurations the rules cannot work with.
func (c PolicyConfig) Validate() error {
	if c.EmergencyWindowDays <= 0 || c.EmergencyCooldownDays < 0 {
		return fmt.Errorf("emergency windows must be positive")
	}
	if c.EmergencyMaxInWindow <= 0 {
		return fmt.Errorf("emergency max must be positive, got %d", c.EmergencyMaxInWindow)
	}
	if c.CapacityRatio.IsNegative() || c.CapacityRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("capacity ratio must be within [0, 1], got %s", c.CapacityRatio)
	}
	if c.CasualMaxDays < 1 || c.MiscMaxDays < 1 || c.PaidMonthlyCap < 1 {
		return fmt.Errorf("per-type caps must be at least 1 day")
	}
	if c.SickCertificateThreshold < 1 || c.SickCertificateKeyword == "" {
		return fmt.Errorf("sick certificate rule needs a threshold and a keyword")
	}
	if c.UpcomingWindowDays < 0 || c.RecentLimit < 1 {
		return fmt.Errorf("view limits must be positive")
	}
	return nil
}

// TeamCapacity is the number of people who may be on approved leave on one
// day: floor(userCount * CapacityRatio).
func (c PolicyConfig) TeamCapacity(userCount int) int {
	return int(decimal.NewFromInt(int64(userCount)).Mul(c.CapacityRatio).Floor().IntPart())
}
