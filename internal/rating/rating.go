// Package rating holds the arithmetic behind a business's cached rating
// summary. Both the incremental path (review submission) and the full
// recomputation path (review listing) go through Aggregate so they always
// produce the same average for the same set of ratings.
package rating

const (
	MinRating = 1
	MaxRating = 5
)

// Valid reports whether r is an accepted star rating.
func Valid(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Aggregate is the running state of a business's ratings.
type Aggregate struct {
	Count int
	Sum   int
}

// Average returns the mean rating rounded half-up to two decimals, or 0 when
// there are no ratings. The rounding is done on integers so that means which
// land exactly on a half cent (k/8, k/40, ...) round up reliably.
func (a Aggregate) Average() float64 {
	if a.Count <= 0 {
		return 0
	}
	cents := (200*int64(a.Sum) + int64(a.Count)) / (2 * int64(a.Count))
	return float64(cents) / 100
}

// Add returns the aggregate after one more rating r.
func (a Aggregate) Add(r int) Aggregate {
	return Aggregate{Count: a.Count + 1, Sum: a.Sum + r}
}

// Summary converts the aggregate into the cached (avg, count) pair.
func (a Aggregate) Summary() Summary {
	return Summary{RatingAvg: a.Average(), RatingCount: a.Count}
}

// Recompute builds the aggregate from scratch.
func Recompute(ratings []int) Aggregate {
	var a Aggregate
	for _, r := range ratings {
		a = a.Add(r)
	}
	return a
}

// Summary is the denormalized rating cache stored on a business.
type Summary struct {
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
}
