package engine

// quotaState captures which side of the quota a scan still needs. The
// discard decision depends only on this state and the fresh label, which
// keeps the short-circuit policy auditable in isolation.
type quotaState int

const (
	needBoth quotaState = iota
	needPositiveOnly
	needNegativeOnly
	quotaSatisfied
)

func (s quotaState) String() string {
	switch s {
	case needBoth:
		return "need_both"
	case needPositiveOnly:
		return "need_positive_only"
	case needNegativeOnly:
		return "need_negative_only"
	default:
		return "satisfied"
	}
}

func quotaStateOf(countPos, targetPos, countNeg, targetNeg int) quotaState {
	posMet := countPos >= targetPos
	negMet := countNeg >= targetNeg
	switch {
	case posMet && negMet:
		return quotaSatisfied
	case posMet:
		return needNegativeOnly
	case negMet:
		return needPositiveOnly
	default:
		return needBoth
	}
}

// discardLabel reports whether a freshly classified label should be dropped
// instead of stored. Once one quota is satisfied, further results matching
// the satisfied side are discarded rather than counted; the item is still
// marked processed. This is a deliberate cost-saving policy, not a bug.
func discardLabel(state quotaState, label int) bool {
	switch state {
	case needNegativeOnly:
		return label == 1
	case needPositiveOnly:
		return label == 0
	default:
		return false
	}
}
