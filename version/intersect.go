package version

// Intersect combines two constraints on the same package into one.
//
// The lower bound is the larger of both minimums and the upper bound the
// smaller of both maximums. When the chosen bounds tie, the result is
// inclusive only if both inputs were inclusive on that side. A nil range is
// unconstrained, and a result with neither bound is returned as nil.
//
// The intersection is not checked for emptiness; [2.0, 3.0] with [1.0, 1.5]
// yields [2.0, 1.5].
func Intersect(a, b *VersionRange) *VersionRange {
	if a == nil && b == nil {
		return nil
	}
	if a == nil {
		return b.clone()
	}
	if b == nil {
		return a.clone()
	}

	out := &VersionRange{}
	out.MinVersion, out.MinInclusive = pickBound(a.MinVersion, a.MinInclusive, b.MinVersion, b.MinInclusive, 1)
	out.MaxVersion, out.MaxInclusive = pickBound(a.MaxVersion, a.MaxInclusive, b.MaxVersion, b.MaxInclusive, -1)

	if out.MinVersion == nil && out.MaxVersion == nil {
		return nil
	}
	return out
}

// IntersectAll folds Intersect over ranges, left to right.
func IntersectAll(ranges ...*VersionRange) *VersionRange {
	var acc *VersionRange
	for _, r := range ranges {
		acc = Intersect(acc, r)
	}
	return acc
}

// pickBound keeps the tighter of two bounds. prefer is 1 to keep the larger
// version (lower bounds) and -1 to keep the smaller (upper bounds).
func pickBound(x *NuGetVersion, xInc bool, y *NuGetVersion, yInc bool, prefer int) (*NuGetVersion, bool) {
	switch {
	case x == nil && y == nil:
		return nil, false
	case x == nil:
		return y, yInc
	case y == nil:
		return x, xInc
	}

	c := x.Compare(y)
	switch {
	case c == 0:
		return x, xInc && yInc
	case c == prefer:
		return x, xInc
	default:
		return y, yInc
	}
}

func (r *VersionRange) clone() *VersionRange {
	if r.MinVersion == nil && r.MaxVersion == nil {
		return nil
	}
	c := *r
	return &c
}
