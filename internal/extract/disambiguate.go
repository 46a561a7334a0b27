package extract

import (
	"fmt"
	"sort"

	"github.com/HabtB/Pharmacy-Pickup/internal/detection"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
)

// triple is a (pick, max, current) choice by index into a record's numbers.
type triple struct {
	i, j, k int
}

func (t triple) span() int { return t.k - t.i }

func (t triple) overlaps(o triple) bool {
	for _, a := range []int{t.i, t.j, t.k} {
		for _, b := range []int{o.i, o.j, o.k} {
			if a == b {
				return true
			}
		}
	}
	return false
}

// donor is a spare triple found in one record that can fill another's pick.
type donor struct {
	record int
	pick   int
	max    int
	cur    int
}

// Disambiguate decides pick, max and current for every record in place.
//
// Records with three or more numbers take the tightest triple satisfying
// |pick - (max - current)| <= FormulaTolerance. Further disjoint valid
// triples become donors, and records that found no number at all receive a
// donor through a minimum-cost assignment over the whole page.
func Disambiguate(records []*CandidateRecord, opts Options) {
	opts = opts.withDefaults()
	var (
		needy  []int
		donors []donor
	)
	for ri, r := range records {
		nums := r.Numbers
		switch {
		case len(nums) == 0:
			needy = append(needy, ri)
		case len(nums) == 1:
			p := nums[0].Value
			r.Pick = &p
		case len(nums) == 2:
			p := nums[0].Value
			r.Pick = &p
			r.warn(WarnLowConfidence)
		default:
			valid := validTriples(nums, opts.FormulaTolerance)
			if len(valid) == 0 {
				p, m, c := nums[0].Value, nums[1].Value, nums[2].Value
				r.setTriple(p, m, c)
				r.warn(fmt.Sprintf("%s (pick=%d max=%d current=%d)", WarnFormulaMismatch, p, m, c))
				continue
			}
			best := valid[0]
			r.setTriple(nums[best.i].Value, nums[best.j].Value, nums[best.k].Value)
			taken := []triple{best}
			// Only the winning tier is pooled. Wider tiers reuse the same
			// numbers in looser combinations and would offer duplicate donors.
			for _, t := range valid[1:] {
				free := true
				for _, u := range taken {
					if t.overlaps(u) {
						free = false
						break
					}
				}
				if !free {
					continue
				}
				taken = append(taken, t)
				donors = append(donors, donor{
					record: ri,
					pick:   nums[t.i].Value,
					max:    nums[t.j].Value,
					cur:    nums[t.k].Value,
				})
			}
		}
	}
	if len(needy) == 0 {
		return
	}
	redistribute(records, needy, donors, opts.PreferredPicks)
}

// validTriples returns the valid triples of the first search tier that has
// any: consecutive indices, then span 3, then every combination. The slice
// is ordered best first.
func validTriples(nums []NumberToken, tol int) []triple {
	ok := func(t triple) bool {
		d := nums[t.i].Value - (nums[t.j].Value - nums[t.k].Value)
		return d >= -tol && d <= tol
	}
	tiers := []func(t triple) bool{
		func(t triple) bool { return t.j == t.i+1 && t.k == t.j+1 },
		func(t triple) bool { return t.span() == 3 },
		func(triple) bool { return true },
	}
	n := len(nums)
	for _, inTier := range tiers {
		var found []triple
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				for k := j + 1; k < n; k++ {
					t := triple{i, j, k}
					if inTier(t) && ok(t) {
						found = append(found, t)
					}
				}
			}
		}
		if len(found) > 0 {
			sort.SliceStable(found, func(a, b int) bool {
				ta, tb := found[a], found[b]
				if ta.span() != tb.span() {
					return ta.span() < tb.span()
				}
				if ta.i != tb.i {
					return ta.i > tb.i
				}
				return agreement(nums, ta) > agreement(nums, tb)
			})
			return found
		}
	}
	return nil
}

// agreement counts how many members of t sit in the column band matching
// their role.
func agreement(nums []NumberToken, t triple) int {
	n := 0
	if nums[t.i].Column == detection.ColumnPickAmount {
		n++
	}
	if nums[t.j].Column == detection.ColumnMax {
		n++
	}
	if nums[t.k].Column == detection.ColumnCurrent {
		n++
	}
	return n
}

func redistribute(records []*CandidateRecord, needy []int, donors []donor, tiers []Range) {
	assigned := assignDonors(records, needy, donors, tiers)
	for n, ri := range needy {
		r := records[ri]
		d := assigned[n]
		if d < 0 {
			zero := 0
			r.Pick = &zero
			r.warn(WarnNoPick)
			logging.Logger().Debug("no pick amount", "record", r.Name, "floor", r.Floor)
			continue
		}
		r.setTriple(donors[d].pick, donors[d].max, donors[d].cur)
		r.warn(WarnRedistributed)
		logging.Logger().Debug("pick redistributed", "record", r.Name,
			"from", records[donors[d].record].Name, "pick", donors[d].pick)
	}
}
