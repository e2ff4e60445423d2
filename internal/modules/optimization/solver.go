package optimization

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// stepSolution holds the solved shares of one bucket step.
type stepSolution struct {
	sleeveAmounts []float64
	projected     []float64
	target        float64
	objective     float64
	amount        float64
	exposure      float64
	pinned        bool
}

// solveKKT solves the equality-constrained least-squares system through its
// Karush-Kuhn-Tucker conditions:
//
//	[ 2AᵀA  Cᵀ ] [z]   [ 2Aᵀb ]
//	[ C     0  ] [λ] = [ d    ]
//
// It returns z and the objective value ||Az - b||².
func solveKKT(sys linearSystem, tol float64) ([]float64, float64, error) {
	n := sys.vars()
	m, _ := sys.constraints.Dims()

	var ata mat.Dense
	ata.Mul(sys.objective.T(), sys.objective)
	var atb mat.VecDense
	atb.MulVec(sys.objective.T(), sys.target)

	kkt := mat.NewDense(n+m, n+m, nil)
	rhs := mat.NewVecDense(n+m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			kkt.Set(i, j, 2*ata.At(i, j))
		}
		rhs.SetVec(i, 2*atb.AtVec(i))
	}
	for k := 0; k < m; k++ {
		for j := 0; j < n; j++ {
			v := sys.constraints.At(k, j)
			kkt.Set(n+k, j, v)
			kkt.Set(j, n+k, v)
		}
		rhs.SetVec(n+k, sys.rhs.AtVec(k))
	}

	var sol mat.VecDense
	if err := sol.SolveVec(kkt, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) {
			return nil, 0, fmt.Errorf("failed to solve allocation system: %w", err)
		}
	}

	z := make([]float64, n)
	for i := range z {
		z[i] = sol.AtVec(i)
	}

	zv := mat.NewVecDense(n, z)
	var cz mat.VecDense
	cz.MulVec(sys.constraints, zv)
	for k := 0; k < m; k++ {
		if math.Abs(cz.AtVec(k)-sys.rhs.AtVec(k)) > tol {
			return nil, 0, fmt.Errorf("allocation system residual %g exceeds tolerance %g on constraint %d",
				cz.AtVec(k)-sys.rhs.AtVec(k), tol, k)
		}
	}

	var az mat.VecDense
	az.MulVec(sys.objective, zv)
	az.SubVec(&az, sys.target)
	objective := mat.Dot(&az, &az)

	return z, objective, nil
}

// solveStep solves one bucket step, pinning every bucket that falls below its
// minimum at that minimum and re-solving until no minimum is violated. Pinning a
// bucket only ever lowers the amounts left for the others, so violators stay
// violators and the loop ends after at most one pass per bucket.
func solveStep(p stepProblem, tol float64, total float64) (stepSolution, error) {
	pinCurrent := false
	pinProjected := make([]bool, len(p.projected))

	for {
		if pinCurrent && allPinned(pinProjected) {
			return stepSolution{}, infeasibleStep(p, total)
		}

		sys := buildSystem(p.withPins(pinCurrent, pinProjected))
		z, objective, err := solveKKT(sys, tol)
		if err != nil {
			return stepSolution{}, fmt.Errorf("bucket %s: %w", p.bucketID, err)
		}

		amount := floats.Sum(z[:sys.sleeves])
		violated := false
		if !pinCurrent && amount < p.minimum-tol {
			pinCurrent = true
			violated = true
		}
		for j, pb := range p.projected {
			if !pinProjected[j] && z[sys.sleeves+j] < pb.minimum-tol {
				pinProjected[j] = true
				violated = true
			}
		}
		if violated {
			continue
		}

		var exposure float64
		for i, sl := range p.sleeves {
			if sl.Group == DV01 {
				exposure += sl.kappa * z[i]
			}
		}

		return stepSolution{
			sleeveAmounts: z[:sys.sleeves],
			projected:     z[sys.sleeves:sys.targetIndex()],
			target:        z[sys.targetIndex()],
			objective:     objective,
			amount:        amount,
			exposure:      exposure,
			pinned:        pinCurrent,
		}, nil
	}
}

func allPinned(pins []bool) bool {
	for _, p := range pins {
		if !p {
			return false
		}
	}
	return true
}

func infeasibleStep(p stepProblem, total float64) error {
	required := p.minimum
	var ids []string
	if p.minimum > 0 {
		ids = append(ids, p.bucketID)
	}
	for _, pb := range p.projected {
		required += pb.minimum
		if pb.minimum > 0 {
			ids = append(ids, pb.id)
		}
	}
	return &InfeasibleAllocationError{
		BucketIDs: ids,
		Required:  required * total,
		Available: p.remaining * total,
	}
}
