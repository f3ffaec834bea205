package flow

import "errors"

var (
	// ErrInsufficient means one side has no labels at all; the caller should
	// show the Compare fallback instead of a flow diagram.
	ErrInsufficient = errors.New("insufficient data for a before/after estimate")

	// ErrDegenerate means the normalization denominator is zero.
	ErrDegenerate = errors.New("normalization total is zero")

	// ErrAllZero means every pairwise flow was zero and was dropped.
	ErrAllZero = errors.New("all estimated flows are zero")

	ErrInvalidMass = errors.New("invalid marginal entry")
)
