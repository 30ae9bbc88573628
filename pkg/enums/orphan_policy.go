package enums

import "fmt"

// OrphanPolicy decides how the reconciler treats ambiguous backend errors
// (anything other than a definitive not-found) during existence checks.
type OrphanPolicy string

const (
	// OrphanPolicyConservative skips records whose existence check failed for
	// a reason other than not-found. Risks drift, never deletes on doubt.
	OrphanPolicyConservative OrphanPolicy = "conservative"
	// OrphanPolicyAggressive treats any failed existence check as orphaned.
	// Risks false positives under transient backend failures.
	OrphanPolicyAggressive OrphanPolicy = "aggressive"
)

var validOrphanPolicies = []OrphanPolicy{
	OrphanPolicyConservative,
	OrphanPolicyAggressive,
}

// String returns the literal string for the policy.
func (o OrphanPolicy) String() string {
	return string(o)
}

// IsValid reports whether the policy is known.
func (o OrphanPolicy) IsValid() bool {
	for _, candidate := range validOrphanPolicies {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrphanPolicy converts raw input into an OrphanPolicy.
func ParseOrphanPolicy(value string) (OrphanPolicy, error) {
	for _, candidate := range validOrphanPolicies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid orphan policy %q", value)
}
