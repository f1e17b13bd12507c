package factorize

import (
	"gonum.org/v1/gonum/mat"
)

// SVD is a thin singular value decomposition A = U S Vᵀ, truncated to rank
// (rank <= 0 keeps every factor).
type SVD struct{}

func (SVD) Factorize(a mat.Matrix, rank int) (f *Factorization, err error) {
	defer recoverNumerical(&err)

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, ErrNoConvergence
	}

	values := svd.Values(nil)
	if !finite(values) {
		return nil, ErrNumerical
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	k := len(values)
	if rank > 0 && rank < k {
		k = rank
	}

	rows, _ := u.Dims()
	cols, _ := v.Dims()

	return &Factorization{
		Weights: append([]float64(nil), values[:k]...),
		Rows:    mat.DenseCopyOf(u.Slice(0, rows, 0, k)),
		Factors: mat.DenseCopyOf(v.Slice(0, cols, 0, k).T()),
	}, nil
}
