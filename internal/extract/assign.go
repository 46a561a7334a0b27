package extract

import "math"

const (
	tierWeight  = 1e6
	pickWeight  = 1e3
	maxDistance = 999
	dummyCost   = 1e12
)

// assignDonors matches needy records to donor triples at minimum total cost
// and returns, per needy record, the donor index or -1.
//
// Cost orders donors by preference tier, then by pick value within the last
// tier, then by row distance to the needy record.
func assignDonors(records []*CandidateRecord, needy []int, donors []donor, tiers []Range) []int {
	out := make([]int, len(needy))
	for i := range out {
		out[i] = -1
	}
	if len(donors) == 0 {
		return out
	}

	cols := max(len(needy), len(donors))
	cost := make([][]float64, len(needy))
	for n, ri := range needy {
		cost[n] = make([]float64, cols)
		for d := 0; d < cols; d++ {
			if d >= len(donors) {
				cost[n][d] = dummyCost
				continue
			}
			dn := donors[d]
			tier := len(tiers)
			for ti, rg := range tiers {
				if rg.Contains(dn.pick) {
					tier = ti
					break
				}
			}
			c := float64(tier) * tierWeight
			if tier == len(tiers) {
				c += float64(min(dn.pick, maxDistance)) * pickWeight
			}
			dist := records[dn.record].Row - records[ri].Row
			if dist < 0 {
				dist = -dist
			}
			c += float64(min(dist, maxDistance))
			cost[n][d] = c
		}
	}

	for n, d := range hungarian(cost) {
		if d >= 0 && d < len(donors) {
			out[n] = d
		}
	}
	return out
}

// hungarian solves the rectangular assignment problem for an n×m cost
// matrix with n <= m, returning the column chosen for each row.
func hungarian(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	p := make([]int, m+1)
	way := make([]int, m+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, m+1)
		used := make([]bool, m+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		for {
			used[j0] = true
			i0, delta, j1 := p[j0], math.Inf(1), 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				if c := cost[i0-1][j-1] - u[i0] - v[j]; c < minv[j] {
					minv[j] = c
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	for j := 1; j <= m; j++ {
		if p[j] != 0 {
			out[p[j]-1] = j - 1
		}
	}
	return out
}
