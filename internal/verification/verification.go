// Package verification decides whether a claimed contact email matches the
// email stored on an awardee profile.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"top100/internal/db"
	"top100/internal/validation"
)

// FailureReason is the only reason ever reported for a negative result, so
// callers cannot tell an unknown profile from a wrong email.
const FailureReason = "Email verification failed"

// ErrLookupFailed wraps collaborator failures. It is distinct from a mismatch.
var ErrLookupFailed = errors.New("verification lookup failed")

// Policy selects how the claimed and stored emails are compared.
type Policy string

// Comparison policies.
const (
	PolicyExact           Policy = "exact"
	PolicyCaseInsensitive Policy = "case_insensitive"
	PolicyTrimmed         Policy = "trimmed" // trim surrounding whitespace, then case-insensitive
)

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyExact, PolicyCaseInsensitive, PolicyTrimmed:
		return p, nil
	}
	return "", fmt.Errorf("unknown verification policy %q", s)
}

// Match reports whether claimed equals stored under the policy.
func (p Policy) Match(stored, claimed string) bool {
	switch p {
	case PolicyExact:
		return stored == claimed
	case PolicyCaseInsensitive:
		return strings.EqualFold(stored, claimed)
	case PolicyTrimmed:
		return strings.EqualFold(strings.TrimSpace(stored), strings.TrimSpace(claimed))
	}
	panic(fmt.Sprintf("unhandled verification policy %q", p))
}

// Result is the outcome of a verification attempt.
type Result struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason,omitempty"`
}

// NotVerified is the negative result.
var NotVerified = Result{Verified: false, Reason: FailureReason}

// EmailLookup loads the stored verification email of an awardee.
// It returns db.ErrAwardeeNotFound for unknown profiles.
type EmailLookup interface {
	GetAwardeeEmail(ctx context.Context, id uuid.UUID) (string, error)
}

// Gate verifies claimed emails against stored profile emails.
type Gate struct {
	lookup EmailLookup
	policy Policy
}

// NewGate creates a Gate. An empty policy means PolicyTrimmed.
func NewGate(lookup EmailLookup, policy Policy) *Gate {
	if policy == "" {
		policy = PolicyTrimmed
	}
	return &Gate{lookup: lookup, policy: policy}
}

// Policy returns the comparison policy in effect.
func (g *Gate) Policy() Policy {
	return g.policy
}

// Verify checks claimedEmail against the stored email of awardeeID. A mismatch
// is a normal NotVerified result; only lookup failures return an error.
func (g *Gate) Verify(ctx context.Context, awardeeID uuid.UUID, claimedEmail string) (Result, error) {
	if !validation.LooksLikeEmail(claimedEmail) {
		return NotVerified, nil
	}

	stored, err := g.lookup.GetAwardeeEmail(ctx, awardeeID)
	if errors.Is(err, db.ErrAwardeeNotFound) {
		return NotVerified, nil
	}
	if err != nil {
		return NotVerified, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	if strings.TrimSpace(stored) == "" || !g.policy.Match(stored, claimedEmail) {
		return NotVerified, nil
	}

	return Result{Verified: true}, nil
}
