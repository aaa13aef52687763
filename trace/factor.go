// Package trace computes pairwise overlap statistics over classical-shadow
// measurement records in the Predicting Quantum Properties string notation.
package trace

// Weights are constants of the estimator, tied to the number of compatible
// outcome classes per basis pair. They are not tunable.
const (
	factorBasisMismatch = 0.5
	factorFullMatch     = 5.0
	factorOutcomeClash  = -4.0
)

// Factor scores one probe position between two records:
//  1. different random basis -> 0.5
//  2. same basis, same outcome -> 5.0
//  3. same basis, different outcome -> -4.0
//
// aI and bI are the basis labels at the first physical position, aI1 and bI1
// the outcome labels at the following one. Total over all label inputs.
func Factor(aI, bI, aI1, bI1 string) float64 {
	if aI != bI {
		return factorBasisMismatch
	}
	if aI1 == bI1 {
		return factorFullMatch
	}
	return factorOutcomeClash
}
