package plan

// Interval is the range of element indexes [Begin, End).
type Interval struct {
	Begin int
	End   int
}

func (i Interval) Len() int { return i.End - i.Begin }

// EvenPartition splits r into k consecutive chunks whose lengths differ by at most one.
// The first Len() % k chunks are the longer ones.
func EvenPartition(r Interval, k int) []Interval {
	quo, rem := r.Len()/k, r.Len()%k
	parts := make([]Interval, 0, k)
	for i, begin := 0, r.Begin; i < k; i++ {
		n := quo
		if i < rem {
			n++
		}
		parts = append(parts, Interval{Begin: begin, End: begin + n})
		begin += n
	}
	return parts
}
