package tender

import (
	"errors"
	"strings"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/google/uuid"
)

// Status represents tender status.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusInSession Status = "IN_SESSION"
	StatusFinished  Status = "FINISHED"
)

// JudgmentCriteria determines how bids are ranked.
type JudgmentCriteria string

const (
	CriteriaLowestPrice     JudgmentCriteria = "LOWEST_PRICE"
	CriteriaHighestDiscount JudgmentCriteria = "HIGHEST_DISCOUNT"
)

// DecrementMode selects how the minimum bid improvement is computed.
type DecrementMode string

const (
	DecrementAbsolute DecrementMode = "ABSOLUTE"
	DecrementPercent  DecrementMode = "PERCENT"
	DecrementNone     DecrementMode = "NONE"
)

var (
	ErrInvalidTransition = errors.New("invalid tender status transition")
	ErrInvalidCriteria   = errors.New("invalid judgment criteria")
	ErrInvalidPolicy     = errors.New("invalid bid policy")
)

// BidPolicy is the per-tender minimum-improvement rule for new bids.
// RuleExpr, when set, replaces the built-in rule with a boolean expression
// evaluated against: value, own, best, has_own, has_best, decrement.
type BidPolicy struct {
	DecrementMode  DecrementMode `json:"decrementMode"`
	DecrementValue float64       `json:"decrementValue"`
	RuleExpr       string        `json:"ruleExpr,omitempty"`
}

// Tender is one procurement process owning disputed lots.
type Tender struct {
	ID          int64            `json:"id"`
	TenderID    uuid.UUID        `json:"tenderId"`
	Number      string           `json:"number"`
	Agency      string           `json:"agency"`
	Title       string           `json:"title"`
	Criteria    JudgmentCriteria `json:"criteria"`
	Policy      BidPolicy        `json:"policy"`
	Status      Status           `json:"status"`
	ChatEnabled bool             `json:"chatEnabled"`
	CreatedBy   *string          `json:"createdBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// CanTransitionTo validates tender status transition.
func (t *Tender) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusDraft:     {StatusPublished},
		StatusPublished: {StatusInSession, StatusFinished},
		StatusInSession: {StatusFinished},
		StatusFinished:  {},
	}
	for _, s := range transitions[t.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Publish sets tender to published.
func (t *Tender) Publish() error {
	if !t.CanTransitionTo(StatusPublished) {
		return ErrInvalidTransition
	}
	t.Status = StatusPublished
	return nil
}

func ValidateCriteria(c JudgmentCriteria) error {
	switch c {
	case CriteriaLowestPrice, CriteriaHighestDiscount:
		return nil
	default:
		return ErrInvalidCriteria
	}
}

// Normalize fills policy defaults and validates the rule expression.
func (p *BidPolicy) Normalize() error {
	if p.DecrementMode == "" {
		p.DecrementMode = DecrementNone
	}
	switch p.DecrementMode {
	case DecrementAbsolute, DecrementPercent:
		if p.DecrementValue <= 0 {
			return ErrInvalidPolicy
		}
	case DecrementNone:
	default:
		return ErrInvalidPolicy
	}
	if strings.TrimSpace(p.RuleExpr) != "" {
		if _, err := govaluate.NewEvaluableExpression(p.RuleExpr); err != nil {
			return ErrInvalidPolicy
		}
	}
	return nil
}

// Allows reports whether a new bid value satisfies the policy given the
// submitter's own latest active bid and the current best active bid.
// A bid is competitive when it strictly improves on the submitter's own
// bid, or improves on the best bid by the configured minimum decrement.
// The first bid on a lot is always accepted.
func (p BidPolicy) Allows(criteria JudgmentCriteria, value float64, own, best *float64) (bool, error) {
	if expr := strings.TrimSpace(p.RuleExpr); expr != "" {
		return p.evalRule(expr, value, own, best)
	}
	if own == nil && best == nil {
		return true, nil
	}
	if own != nil && improves(criteria, value, *own) {
		return true, nil
	}
	if best != nil && improvesBy(criteria, value, *best, p.threshold(*best)) {
		return true, nil
	}
	return false, nil
}

func (p BidPolicy) threshold(best float64) float64 {
	switch p.DecrementMode {
	case DecrementAbsolute:
		return p.DecrementValue
	case DecrementPercent:
		return best * p.DecrementValue / 100
	default:
		return 0
	}
}

func (p BidPolicy) evalRule(rule string, value float64, own, best *float64) (bool, error) {
	expr, err := govaluate.NewEvaluableExpression(rule)
	if err != nil {
		return false, err
	}
	params := map[string]interface{}{
		"value":     value,
		"decrement": p.DecrementValue,
		"has_own":   own != nil,
		"has_best":  best != nil,
		"own":       0.0,
		"best":      0.0,
	}
	if own != nil {
		params["own"] = *own
	}
	if best != nil {
		params["best"] = *best
	}
	result, err := expr.Evaluate(params)
	if err != nil {
		return false, err
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, errors.New("bid rule did not evaluate to boolean")
	}
	return ok, nil
}

// improves reports a strict improvement of value over reference.
func improves(criteria JudgmentCriteria, value, reference float64) bool {
	if criteria == CriteriaHighestDiscount {
		return value > reference
	}
	return value < reference
}

// improvesBy reports an improvement of at least threshold over reference.
func improvesBy(criteria JudgmentCriteria, value, reference, threshold float64) bool {
	if threshold <= 0 {
		return improves(criteria, value, reference)
	}
	if criteria == CriteriaHighestDiscount {
		return value >= reference+threshold
	}
	return value <= reference-threshold
}
