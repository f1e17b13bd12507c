package factorize

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// mu denominators are offset by float32 machine epsilon
const muEpsilon = 1.1920929e-07

// NMF is a non-negative matrix factorization X ≈ W H minimising the
// Frobenius norm with multiplicative updates. Initialisation is NNDSVDa when
// rank <= min(rows, cols), otherwise seeded half-normal random values, so the
// result is fully determined by the input and Seed.
type NMF struct {
	MaxIter int
	Tol     float64
	Seed    int64
}

func NewNMF(maxIter int, tol float64, seed int64) *NMF {
	return &NMF{MaxIter: maxIter, Tol: tol, Seed: seed}
}

func (n *NMF) Factorize(a mat.Matrix, rank int) (f *Factorization, err error) {
	defer recoverNumerical(&err)

	if rank <= 0 {
		return nil, ErrInvalidRank
	}
	x := mat.DenseCopyOf(a)
	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if x.At(i, j) < 0 {
				return nil, ErrNegativeInput
			}
		}
	}

	var w, h *mat.Dense
	if rank <= min(rows, cols) {
		w, h, err = nndsvda(x, rank)
		if err != nil {
			return nil, err
		}
	} else {
		w, h = n.randomInit(x, rank)
	}

	n.update(x, w, h)

	weights := make([]float64, rank)
	for k := 0; k < rank; k++ {
		weights[k] = mat.Norm(w.ColView(k), 2) * mat.Norm(h.RowView(k), 2)
	}
	if !finite(weights) {
		return nil, ErrNumerical
	}

	return &Factorization{Weights: weights, Rows: w, Factors: h}, nil
}

func (n *NMF) update(x, w, h *mat.Dense) {
	rows, cols := x.Dims()
	k, _ := h.Dims()

	var xht, hht, whht mat.Dense
	var wtx, wtw, wtwh mat.Dense
	xht.ReuseAs(rows, k)
	whht.ReuseAs(rows, k)
	hht.ReuseAs(k, k)
	wtx.ReuseAs(k, cols)
	wtw.ReuseAs(k, k)
	wtwh.ReuseAs(k, cols)

	initial := reconstructionError(x, w, h)
	previous := initial

	for it := 1; it <= n.MaxIter; it++ {
		xht.Mul(x, h.T())
		hht.Mul(h, h.T())
		whht.Mul(w, &hht)
		multiply(w, &xht, &whht)

		wtx.Mul(w.T(), x)
		wtw.Mul(w.T(), w)
		wtwh.Mul(&wtw, h)
		multiply(h, &wtx, &wtwh)

		if n.Tol > 0 && initial > 0 && it%10 == 0 {
			current := reconstructionError(x, w, h)
			if (previous-current)/initial < n.Tol {
				return
			}
			previous = current
		}
	}
}

// multiply applies m <- m * num / (den + eps) element-wise
func multiply(m, num, den *mat.Dense) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, m.At(i, j)*num.At(i, j)/(den.At(i, j)+muEpsilon))
		}
	}
}

func reconstructionError(x, w, h *mat.Dense) float64 {
	var wh mat.Dense
	wh.Mul(w, h)
	r, c := x.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := x.At(i, j) - wh.At(i, j)
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}

func mean(x *mat.Dense) float64 {
	r, c := x.Dims()
	return mat.Sum(x) / float64(r*c)
}

func (n *NMF) randomInit(x *mat.Dense, rank int) (*mat.Dense, *mat.Dense) {
	rows, cols := x.Dims()
	avg := math.Sqrt(mean(x) / float64(rank))
	rng := rand.New(rand.NewSource(n.Seed))

	h := mat.NewDense(rank, cols, nil)
	for i := 0; i < rank; i++ {
		for j := 0; j < cols; j++ {
			h.Set(i, j, avg*math.Abs(rng.NormFloat64()))
		}
	}
	w := mat.NewDense(rows, rank, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < rank; j++ {
			w.Set(i, j, avg*math.Abs(rng.NormFloat64()))
		}
	}
	return w, h
}

// nndsvda seeds W and H from the leading singular triplets (Boutsidis &
// Gallopoulos), filling zeros with the matrix mean so multiplicative updates
// can move them.
func nndsvda(x *mat.Dense, rank int) (*mat.Dense, *mat.Dense, error) {
	f, err := SVD{}.Factorize(x, rank)
	if err != nil {
		return nil, nil, err
	}
	rows, cols := x.Dims()
	w := mat.NewDense(rows, rank, nil)
	h := mat.NewDense(rank, cols, nil)

	for k := 0; k < rank; k++ {
		u := mat.Col(nil, k, f.Rows)
		v := mat.Row(nil, k, f.Factors)
		s := f.Weights[k]

		if k == 0 {
			scale := math.Sqrt(s)
			for i, val := range u {
				w.Set(i, 0, scale*math.Abs(val))
			}
			for j, val := range v {
				h.Set(0, j, scale*math.Abs(val))
			}
			continue
		}

		up, un := split(u)
		vp, vn := split(v)
		upn, unn := l2(up), l2(un)
		vpn, vnn := l2(vp), l2(vn)
		mp, mn := upn*vpn, unn*vnn

		var uu, vv []float64
		var sigma, un2, vn2 float64
		if mp > mn {
			uu, vv, sigma, un2, vn2 = up, vp, mp, upn, vpn
		} else {
			uu, vv, sigma, un2, vn2 = un, vn, mn, unn, vnn
		}
		if sigma == 0 {
			continue
		}
		lambda := math.Sqrt(s * sigma)
		for i, val := range uu {
			w.Set(i, k, lambda*val/un2)
		}
		for j, val := range vv {
			h.Set(k, j, lambda*val/vn2)
		}
	}

	avg := mean(x)
	fill := func(m *mat.Dense) {
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if m.At(i, j) < 1e-6 {
					m.Set(i, j, avg)
				}
			}
		}
	}
	fill(w)
	fill(h)
	return w, h, nil
}

// split returns the positive part and the magnitude of the negative part
func split(v []float64) ([]float64, []float64) {
	pos := make([]float64, len(v))
	neg := make([]float64, len(v))
	for i, x := range v {
		if x > 0 {
			pos[i] = x
		} else {
			neg[i] = -x
		}
	}
	return pos, neg
}

func l2(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
