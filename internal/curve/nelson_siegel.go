package curve

import (
	"errors"
	"math"

	"curve-desk/internal/domain"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// NelsonSiegelOptions bounds the decay parameter and the optimizer budget.
type NelsonSiegelOptions struct {
	LambdaMin     float64
	LambdaMax     float64
	SeedGridSize  int
	MaxIterations int
	MaxEvals      int
	// Tolerance is the absolute change in the sum of squared residuals below
	// which the optimizer counts as converged.
	Tolerance float64
}

func DefaultNelsonSiegelOptions() NelsonSiegelOptions {
	return NelsonSiegelOptions{
		LambdaMin:     0.01,
		LambdaMax:     30,
		SeedGridSize:  120,
		MaxIterations: 5000,
		MaxEvals:      20000,
		Tolerance:     1e-12,
	}
}

// NelsonSiegelFitter fits y(τ) = β0 + β1·f1 + β2·(f1 − e^(−τ/λ)),
// f1 = (1 − e^(−τ/λ))/(τ/λ), with λ held inside [LambdaMin, LambdaMax].
//
// The betas are linear given λ, so a log-spaced λ grid solved by least
// squares seeds a joint Nelder-Mead polish over all four parameters.
type NelsonSiegelFitter struct {
	opts NelsonSiegelOptions
}

func NewNelsonSiegelFitter(opts NelsonSiegelOptions) *NelsonSiegelFitter {
	def := DefaultNelsonSiegelOptions()
	if opts.LambdaMin <= 0 {
		opts.LambdaMin = def.LambdaMin
	}
	if opts.LambdaMax <= opts.LambdaMin {
		opts.LambdaMax = def.LambdaMax
	}
	if opts.SeedGridSize < 2 {
		opts.SeedGridSize = def.SeedGridSize
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.MaxEvals <= 0 {
		opts.MaxEvals = def.MaxEvals
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	return &NelsonSiegelFitter{opts: opts}
}

// NelsonSiegelCurve holds fitted level, slope, curvature and decay.
type NelsonSiegelCurve struct {
	Beta0      float64 `json:"beta0"`
	Beta1      float64 `json:"beta1"`
	Beta2      float64 `json:"beta2"`
	Lambda     float64 `json:"lambda"`
	RMSE       float64 `json:"rmse"`
	Iterations int     `json:"iterations"`
}

func (c *NelsonSiegelCurve) Method() Method { return NelsonSiegel }

func (c *NelsonSiegelCurve) Evaluate(tau float64) float64 {
	f1, f2 := nsLoadings(tau, c.Lambda)
	return c.Beta0 + c.Beta1*f1 + c.Beta2*f2
}

func (c *NelsonSiegelCurve) Params() map[string]any {
	return map[string]any{
		"beta0":      c.Beta0,
		"beta1":      c.Beta1,
		"beta2":      c.Beta2,
		"lambda":     c.Lambda,
		"rmse":       c.RMSE,
		"iterations": c.Iterations,
	}
}

// nsLoadings returns the slope and curvature loadings. At τ = 0 they take
// their limits 1 and 0.
func nsLoadings(tau, lambda float64) (float64, float64) {
	if tau <= 0 {
		return 1, 0
	}
	x := tau / lambda
	e := math.Exp(-x)
	f1 := -math.Expm1(-x) / x
	return f1, f1 - e
}

func (f *NelsonSiegelFitter) Fit(xs, ys []float64) (FittedCurve, error) {
	seed, seedSSE, err := f.seed(xs, ys)
	if err != nil {
		return nil, err
	}

	lo, hi := f.opts.LambdaMin, f.opts.LambdaMax
	sse := func(p []float64) float64 {
		lambda := boundedLambda(p[3], lo, hi)
		var s float64
		for i, x := range xs {
			f1, f2 := nsLoadings(x, lambda)
			r := p[0] + p[1]*f1 + p[2]*f2 - ys[i]
			s += r * r
		}
		return s
	}

	init := []float64{seed[0], seed[1], seed[2], unboundLambda(seed[3], lo, hi)}
	settings := &optimize.Settings{
		MajorIterations: f.opts.MaxIterations,
		FuncEvaluations: f.opts.MaxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   f.opts.Tolerance,
			Iterations: 100,
		},
	}
	res, err := optimize.Minimize(optimize.Problem{Func: sse}, init, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, &domain.FitConvergenceError{Method: string(NelsonSiegel), Iterations: iterationsOf(res), Status: err.Error()}
	}
	if !converged(res.Status) {
		return nil, &domain.FitConvergenceError{Method: string(NelsonSiegel), Iterations: res.Stats.MajorIterations, Status: res.Status.String()}
	}

	best := res.X
	bestSSE := res.F
	if !(bestSSE <= seedSSE) {
		best = init
		bestSSE = seedSSE
	}
	out := &NelsonSiegelCurve{
		Beta0:      best[0],
		Beta1:      best[1],
		Beta2:      best[2],
		Lambda:     boundedLambda(best[3], lo, hi),
		RMSE:       math.Sqrt(bestSSE / float64(len(xs))),
		Iterations: res.Stats.MajorIterations,
	}
	for _, v := range []float64{out.Beta0, out.Beta1, out.Beta2, out.Lambda} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &domain.FitConvergenceError{Method: string(NelsonSiegel), Iterations: out.Iterations, Status: "non-finite parameters"}
		}
	}
	return out, nil
}

// seed scans a log-spaced λ grid and solves the betas by linear least
// squares at each λ, keeping the best.
func (f *NelsonSiegelFitter) seed(xs, ys []float64) ([]float64, float64, error) {
	n := len(xs)
	logs := floats.Span(make([]float64, f.opts.SeedGridSize), math.Log(f.opts.LambdaMin), math.Log(f.opts.LambdaMax))

	b := mat.NewVecDense(n, append([]float64(nil), ys...))
	a := mat.NewDense(n, 3, nil)
	var (
		best    []float64
		bestSSE = math.Inf(1)
	)
	for _, l := range logs {
		lambda := math.Exp(l)
		for i, x := range xs {
			f1, f2 := nsLoadings(x, lambda)
			a.Set(i, 0, 1)
			a.Set(i, 1, f1)
			a.Set(i, 2, f2)
		}
		var beta mat.VecDense
		if err := beta.SolveVec(a, b); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				continue
			}
		}
		var resid mat.VecDense
		resid.MulVec(a, &beta)
		resid.SubVec(&resid, b)
		sse := mat.Dot(&resid, &resid)
		if math.IsNaN(sse) || sse >= bestSSE {
			continue
		}
		bestSSE = sse
		best = []float64{beta.AtVec(0), beta.AtVec(1), beta.AtVec(2), lambda}
	}
	if best == nil {
		return nil, 0, &domain.FitConvergenceError{Method: string(NelsonSiegel), Status: "no admissible starting point"}
	}
	return best, bestSSE, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.FunctionThreshold,
		optimize.GradientThreshold, optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}

func iterationsOf(res *optimize.Result) int {
	if res == nil {
		return 0
	}
	return res.Stats.MajorIterations
}

// boundedLambda maps an unconstrained u onto (lo, hi) with a logistic.
func boundedLambda(u, lo, hi float64) float64 {
	return lo + (hi-lo)/(1+math.Exp(-u))
}

func unboundLambda(lambda, lo, hi float64) float64 {
	const eps = 1e-9
	p := (lambda - lo) / (hi - lo)
	p = math.Min(math.Max(p, eps), 1-eps)
	return math.Log(p / (1 - p))
}
