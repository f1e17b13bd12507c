// Package factorize decomposes a sentences x terms weight matrix into latent
// factors. SVD serves sentence ranking; NMF yields additive, directly
// interpretable topic vectors.
package factorize

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidRank   = errors.New("factorization rank must be positive")
	ErrNegativeInput = errors.New("matrix has negative entries")
	ErrNoConvergence = errors.New("factorization did not converge")
	ErrNumerical     = errors.New("numerical failure")
)

// Factorization holds k latent factors of an n x m matrix.
type Factorization struct {
	// Weights is the strength of each factor (singular values for SVD).
	Weights []float64
	// Rows is n x k: each row's loading on each factor.
	Rows *mat.Dense
	// Factors is k x m: each factor as a weighting over columns.
	Factors *mat.Dense
}

// Rank returns the number of factors
func (f *Factorization) Rank() int {
	return len(f.Weights)
}

// Factorizer decomposes a matrix into at most rank factors
type Factorizer interface {
	Factorize(a mat.Matrix, rank int) (*Factorization, error)
}

// recoverNumerical turns a gonum panic into ErrNumerical
func recoverNumerical(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrNumerical, r)
	}
}

func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
