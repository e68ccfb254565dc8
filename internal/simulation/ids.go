package simulation

import (
	"errors"
	"fmt"

	"github.com/Ofi-Services/unified-backend/internal/random"
)

// Case ids are drawn from [MinCaseID, MaxCaseID].
const (
	MinCaseID = 1
	MaxCaseID = 10000
)

// ErrIDsExhausted is returned when every id in the range is taken.
var ErrIDsExhausted = errors.New("case id range exhausted")

// IDAllocator hands out unique random case ids for one generation run. It is
// seeded with the ids already stored so reruns never collide.
type IDAllocator struct {
	src      random.Source
	min, max int
	used     map[int]struct{}
}

// NewIDAllocator creates an allocator over [MinCaseID, MaxCaseID] that skips
// the given ids.
func NewIDAllocator(src random.Source, existing []int) *IDAllocator {
	return NewIDAllocatorRange(src, MinCaseID, MaxCaseID, existing)
}

// NewIDAllocatorRange creates an allocator over [lo, hi].
func NewIDAllocatorRange(src random.Source, lo, hi int, existing []int) *IDAllocator {
	a := &IDAllocator{
		src:  src,
		min:  lo,
		max:  hi,
		used: make(map[int]struct{}, len(existing)),
	}
	for _, id := range existing {
		if id >= lo && id <= hi {
			a.used[id] = struct{}{}
		}
	}
	return a
}

// Next draws an unused id.
func (a *IDAllocator) Next() (int, error) {
	if len(a.used) >= a.max-a.min+1 {
		return 0, fmt.Errorf("%w: all %d ids in [%d,%d] are taken", ErrIDsExhausted, len(a.used), a.min, a.max)
	}
	for {
		id := random.Between(a.src, a.min, a.max)
		if _, taken := a.used[id]; !taken {
			a.used[id] = struct{}{}
			return id, nil
		}
	}
}

// Len returns the number of ids in use.
func (a *IDAllocator) Len() int { return len(a.used) }
