/*
Package timeoff provides leave-policy JSON presets.

These functions return JSON policy definitions for the factory package.
They construct JSON strings directly to avoid import cycles with factory.

USAGE:
  import "github.com/warp/leave-engine/timeoff"

  jsonStr := timeoff.StandardPolicyJSON()
  cfg, err := factory.ParsePolicy(jsonStr)
*/
package timeoff

import (
	"encoding/json"
)

// StandardPolicyJSON returns JSON for DefaultPolicyConfig.
func StandardPolicyJSON() string {
	return policyJSON("standard", "Standard leave policy", DefaultPolicyConfig())
}

// StrictPolicyJSON returns JSON for StrictPolicyConfig.
func StrictPolicyJSON() string {
	return policyJSON("strict", "Strict leave policy (small teams)", StrictPolicyConfig())
}

func policyJSON(id, name string, c PolicyConfig) string {
	pj := map[string]interface{}{
		"id":   id,
		"name": name,
		"emergency": map[string]interface{}{
			"window_days":   c.EmergencyWindowDays,
			"max_in_window": c.EmergencyMaxInWindow,
			"cooldown_days": c.EmergencyCooldownDays,
		},
		"capacity_ratio": c.CapacityRatio.String(),
		"sick": map[string]interface{}{
			"certificate_threshold_days": c.SickCertificateThreshold,
			"certificate_keyword":        c.SickCertificateKeyword,
			"min_reason_length":          c.MinSickReasonLen,
		},
		"caps": map[string]interface{}{
			"casual_max_days":  c.CasualMaxDays,
			"misc_max_days":    c.MiscMaxDays,
			"paid_monthly_cap": c.PaidMonthlyCap,
		},
		"views": map[string]interface{}{
			"upcoming_window_days": c.UpcomingWindowDays,
			"recent_limit":         c.RecentLimit,
		},
	}
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}
