package optimization

import (
	"gonum.org/v1/gonum/mat"
)

// stepSleeve is one unknown of the current bucket with its per-unit sensitivity.
type stepSleeve struct {
	Sleeve
	kappa float64
}

// projectedBucket stands in for a bucket not yet walked. Its whole amount is a
// single unknown; kappa is its DV01 exposure per unit of bucket amount.
type projectedBucket struct {
	id      string
	minimum float64
	kappa   float64
}

// stepProblem is the immutable input of one bucket step. Amounts and exposures
// are expressed as shares of the total investment amount.
type stepProblem struct {
	bucketID  string
	remaining float64   // share not yet fixed by walked buckets
	walked    []float64 // DV01 exposures of walked buckets
	sleeves   []stepSleeve
	minimum   float64
	projected []projectedBucket

	pinCurrent   bool
	pinProjected []bool
}

// withPins returns a copy of p with the given pins set.
func (p stepProblem) withPins(current bool, projected []bool) stepProblem {
	p.pinCurrent = current
	p.pinProjected = append([]bool(nil), projected...)
	return p
}

// linearSystem is min ||A z - b||^2 subject to C z = d, with z laid out as
// [current sleeves..., projected buckets..., exposure target].
type linearSystem struct {
	objective   *mat.Dense
	target      *mat.VecDense
	constraints *mat.Dense
	rhs         *mat.VecDense

	sleeves   int
	projected int
}

func (s linearSystem) vars() int        { return s.sleeves + s.projected + 1 }
func (s linearSystem) targetIndex() int { return s.sleeves + s.projected }

type rowSet struct {
	n    int
	rows [][]float64
	rhs  []float64
}

func (r *rowSet) add(row []float64, rhs float64) {
	r.rows = append(r.rows, row)
	r.rhs = append(r.rhs, rhs)
}

func (r *rowSet) newRow() []float64 { return make([]float64, r.n) }

func (r *rowSet) dense() (*mat.Dense, *mat.VecDense) {
	data := make([]float64, 0, len(r.rows)*r.n)
	for _, row := range r.rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(r.rows), r.n, data), mat.NewVecDense(len(r.rhs), r.rhs)
}

// buildSystem assembles the constraint/objective system for one bucket step.
//
// Objective rows pull every bucket's DV01 exposure towards a common free target,
// which makes the minimum the variance of exposures across walked, current and
// projected buckets. Constraint rows hold conservation, currency parity, the even
// cross-group split and any pinned minima exactly.
func buildSystem(p stepProblem) linearSystem {
	s := len(p.sleeves)
	r := len(p.projected)
	n := s + r + 1
	e := n - 1

	obj := &rowSet{n: n}
	for _, exposure := range p.walked {
		row := obj.newRow()
		row[e] = 1
		obj.add(row, exposure)
	}

	row := obj.newRow()
	for i, sl := range p.sleeves {
		if sl.Group == DV01 {
			row[i] = sl.kappa
		}
	}
	row[e] = -1
	obj.add(row, 0)

	for j, pb := range p.projected {
		row := obj.newRow()
		row[s+j] = pb.kappa
		row[e] = -1
		obj.add(row, 0)
	}

	cons := &rowSet{n: n}

	// Conservation
	row = cons.newRow()
	for i := 0; i < s+r; i++ {
		row[i] = 1
	}
	cons.add(row, p.remaining)

	// Currency parity within each (group, tenor)
	for _, idx := range sleeveGroups(p.sleeves) {
		for _, other := range idx[1:] {
			row := cons.newRow()
			row[other] = 1
			row[idx[0]] = -1
			cons.add(row, 0)
		}
	}

	// Even split across active risk groups
	byGroup := make(map[RiskGroup][]int)
	for i, sl := range p.sleeves {
		byGroup[sl.Group] = append(byGroup[sl.Group], i)
	}
	for _, g := range RiskGroups {
		if g == DV01 || len(byGroup[g]) == 0 {
			continue
		}
		row := cons.newRow()
		for _, i := range byGroup[g] {
			row[i] = 1
		}
		for _, i := range byGroup[DV01] {
			row[i] = -1
		}
		cons.add(row, 0)
	}

	if p.pinCurrent {
		row := cons.newRow()
		for i := 0; i < s; i++ {
			row[i] = 1
		}
		cons.add(row, p.minimum)
	}
	for j, pinned := range p.pinProjected {
		if pinned {
			row := cons.newRow()
			row[s+j] = 1
			cons.add(row, p.projected[j].minimum)
		}
	}

	a, b := obj.dense()
	c, d := cons.dense()
	return linearSystem{
		objective:   a,
		target:      b,
		constraints: c,
		rhs:         d,
		sleeves:     s,
		projected:   r,
	}
}

// sleeveGroups returns sleeve indices grouped by (risk group, tenor) in first-seen order.
func sleeveGroups(sleeves []stepSleeve) [][]int {
	type key struct {
		group RiskGroup
		tenor int64
	}
	index := make(map[key]int)
	var groups [][]int
	for i, sl := range sleeves {
		k := key{sl.Group, tenorKey(sl.Tenor)}
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], i)
	}
	return groups
}
