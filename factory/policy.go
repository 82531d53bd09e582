/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON policy definitions into timeoff.PolicyConfig. This enables
  tuning the leave rules without code changes: an operator points
  LEAVE_POLICY_FILE at a JSON document and the server enforces it.

JSON SCHEMA:
  {
    "id": "standard",
    "name": "Standard leave policy",
    "emergency": {"window_days": 30, "max_in_window": 3, "cooldown_days": 7},
    "capacity_ratio": "0.5",
    "sick": {
      "certificate_threshold_days": 3,
      "certificate_keyword": "medical certificate",
      "min_reason_length": 10
    },
    "caps": {"casual_max_days": 1, "misc_max_days": 1, "paid_monthly_cap": 5},
    "views": {"upcoming_window_days": 30, "recent_limit": 5}
  }

KEY FEATURES:
  - Every section is optional; omitted fields keep DefaultPolicyConfig values
  - capacity_ratio is parsed as a decimal (string or number)
  - The result is validated before it is returned

USAGE:
  f := factory.NewPolicyFactory()

  // From JSON string
  cfg, err := f.ParsePolicy(jsonString)

  // From a preset
  cfg, err := f.ParsePolicy(timeoff.StrictPolicyJSON())

  // From disk
  cfg, err := f.LoadFile("policy.json")

SEE ALSO:
  - timeoff/policies.go: PolicyConfig and Go presets
  - timeoff/factory.go: JSON presets
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a leave policy.
type PolicyJSON struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Emergency     *EmergencyJSON       `json:"emergency,omitempty"`
	CapacityRatio *decimal.NullDecimal `json:"capacity_ratio,omitempty"`
	Sick          *SickJSON            `json:"sick,omitempty"`
	Caps          *CapsJSON            `json:"caps,omitempty"`
	Views         *ViewsJSON           `json:"views,omitempty"`
}

// EmergencyJSON represents emergency throttling.
type EmergencyJSON struct {
	WindowDays   *int `json:"window_days,omitempty"`
	MaxInWindow  *int `json:"max_in_window,omitempty"`
	CooldownDays *int `json:"cooldown_days,omitempty"`
}

// SickJSON represents the sick leave rules.
type SickJSON struct {
	CertificateThresholdDays *int    `json:"certificate_threshold_days,omitempty"`
	CertificateKeyword       *string `json:"certificate_keyword,omitempty"`
	MinReasonLength          *int    `json:"min_reason_length,omitempty"`
}

// CapsJSON represents per-type caps.
type CapsJSON struct {
	CasualMaxDays  *int `json:"casual_max_days,omitempty"`
	MiscMaxDays    *int `json:"misc_max_days,omitempty"`
	PaidMonthlyCap *int `json:"paid_monthly_cap,omitempty"`
}

// ViewsJSON represents dashboard view limits.
type ViewsJSON struct {
	UpcomingWindowDays *int `json:"upcoming_window_days,omitempty"`
	RecentLimit        *int `json:"recent_limit,omitempty"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies to Go structs.
type PolicyFactory struct{}

// NewPolicyFactory creates a new policy factory.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy parses a JSON string into a PolicyConfig.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (timeoff.PolicyConfig, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return timeoff.PolicyConfig{}, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// LoadFile reads and parses a policy file.
func (f *PolicyFactory) LoadFile(path string) (timeoff.PolicyConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return timeoff.PolicyConfig{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return f.ParsePolicy(string(b))
}

// FromJSON overlays pj onto the default policy and validates the result.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (timeoff.PolicyConfig, error) {
	cfg := timeoff.DefaultPolicyConfig()

	if e := pj.Emergency; e != nil {
		setInt(&cfg.EmergencyWindowDays, e.WindowDays)
		setInt(&cfg.EmergencyMaxInWindow, e.MaxInWindow)
		setInt(&cfg.EmergencyCooldownDays, e.CooldownDays)
	}
	if pj.CapacityRatio != nil && pj.CapacityRatio.Valid {
		cfg.CapacityRatio = pj.CapacityRatio.Decimal
	}
	if s := pj.Sick; s != nil {
		setInt(&cfg.SickCertificateThreshold, s.CertificateThresholdDays)
		setInt(&cfg.MinSickReasonLen, s.MinReasonLength)
		if s.CertificateKeyword != nil {
			cfg.SickCertificateKeyword = *s.CertificateKeyword
		}
	}
	if c := pj.Caps; c != nil {
		setInt(&cfg.CasualMaxDays, c.CasualMaxDays)
		setInt(&cfg.MiscMaxDays, c.MiscMaxDays)
		setInt(&cfg.PaidMonthlyCap, c.PaidMonthlyCap)
	}
	if v := pj.Views; v != nil {
		setInt(&cfg.UpcomingWindowDays, v.UpcomingWindowDays)
		setInt(&cfg.RecentLimit, v.RecentLimit)
	}

	if err := cfg.Validate(); err != nil {
		return timeoff.PolicyConfig{}, fmt.Errorf("policy %q: %w", pj.ID, err)
	}
	return cfg, nil
}

// ToJSON converts a PolicyConfig to PolicyJSON.
func (f *PolicyFactory) ToJSON(id, name string, cfg timeoff.PolicyConfig) PolicyJSON {
	ratio := decimal.NewNullDecimal(cfg.CapacityRatio)
	return PolicyJSON{
		ID:   id,
		Name: name,
		Emergency: &EmergencyJSON{
			WindowDays:   intPtr(cfg.EmergencyWindowDays),
			MaxInWindow:  intPtr(cfg.EmergencyMaxInWindow),
			CooldownDays: intPtr(cfg.EmergencyCooldownDays),
		},
		CapacityRatio: &ratio,
		Sick: &SickJSON{
			CertificateThresholdDays: intPtr(cfg.SickCertificateThreshold),
			CertificateKeyword:       &cfg.SickCertificateKeyword,
			MinReasonLength:          intPtr(cfg.MinSickReasonLen),
		},
		Caps: &CapsJSON{
			CasualMaxDays:  intPtr(cfg.CasualMaxDays),
			MiscMaxDays:    intPtr(cfg.MiscMaxDays),
			PaidMonthlyCap: intPtr(cfg.PaidMonthlyCap),
		},
		Views: &ViewsJSON{
			UpcomingWindowDays: intPtr(cfg.UpcomingWindowDays),
			RecentLimit:        intPtr(cfg.RecentLimit),
		},
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func intPtr(v int) *int { return &v }
