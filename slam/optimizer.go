package slam

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/stereovo/frontend/config"
	"github.com/stereovo/frontend/spatialmath"
)

// poseObservation is one feature's contribution to the motion-only pose
// optimization: its pixel measurement and the landmark it's linked to.
type poseObservation struct {
	featureIndex int
	pixel        r2.Point
	landmark     r3.Vector
	outlier      bool
	// degenerate marks an observation whose geometry broke (missing
	// landmark, non-positive depth) rather than one excluded by a chi-square
	// test; unlike outlier, it's never re-admitted between outer iterations.
	degenerate bool
}

// OptimizeResult reports what the optimizer did to a frame's pose.
type OptimizeResult struct {
	Pose       spatialmath.Pose
	Inliers    int
	OutlierIdx []int
}

// OptimizePose refines frame's pose against the landmarks its left-image
// features are already linked to, by motion-only Gauss-Newton iterations:
// the map is held fixed and only the 6-DoF pose is adjusted. The normal
// equations are solved as they are, with no Levenberg-Marquardt damping term
// and no rejection of steps that increase the cost. It runs a fixed number
// of outer iterations, each restarting from frame.Pose, rebuilding the
// normal equations from scratch and then reclassifying every observation's
// chi-square against
// OutlierChiSq, so an edge excluded in one outer iteration can be
// re-admitted once the pose improves and vice versa. A Huber robust kernel
// down-weights large residuals for the first few outer iterations; once it's
// dropped, only the (by-then converged) outlier set is excluded, so the
// final iterations fit inliers at full quadratic weight.
func OptimizePose(frame *Frame, camera *spatialmath.PinholeCamera, m *Map, cfg config.Config) OptimizeResult {
	obs := make([]poseObservation, 0, len(frame.FeaturesLeft))
	for i, feat := range frame.FeaturesLeft {
		if !feat.HasMapPoint() {
			continue
		}
		obs = append(obs, poseObservation{featureIndex: i, pixel: r2.Point{X: feat.Position.X, Y: feat.Position.Y}})
	}

	for idx := range obs {
		o := &obs[idx]
		feat := frame.FeaturesLeft[o.featureIndex]
		mp, ok := m.MapPoint(feat.MapPointID)
		if !ok {
			o.degenerate, o.outlier = true, true
			continue
		}
		o.landmark = mp.Position
	}

	// Every outer iteration starts again from the prior pose frame.Pose; outer
	// iterations differ only in which edges are admitted and whether the
	// robust kernel is on, and the last one's estimate is the result.
	pose := frame.Pose
	for outer := 0; outer < cfg.LMOuterIterations; outer++ {
		pose = frame.Pose
		useRobust := outer < cfg.RobustKernelUntil
		for inner := 0; inner < cfg.LMInnerIterations; inner++ {
			h := mat.NewDense(6, 6, nil)
			b := mat.NewVecDense(6, nil)

			for idx := range obs {
				o := &obs[idx]
				if o.outlier || o.degenerate {
					continue
				}
				pc := pose.Transform(o.landmark)
				if pc.Z <= 0 {
					o.degenerate, o.outlier = true, true
					continue
				}
				u, v, ok := camera.WorldToPixel(o.landmark, pose)
				if !ok {
					o.degenerate, o.outlier = true, true
					continue
				}
				ex, ey := o.pixel.X-u, o.pixel.Y-v
				chiSq := ex*ex + ey*ey

				weight := 1.0
				if useRobust {
					weight = huberWeight(chiSq, cfg.HuberDeltaSq)
				}

				jac := poseJacobian(pc, camera.K.Fx, camera.K.Fy)
				accumulateNormalEquations(h, b, jac, ex, ey, weight)
			}

			delta, ok := solveNormalEquations(h, b)
			if !ok {
				break
			}
			dTrans := r3.Vector{X: delta.AtVec(0), Y: delta.AtVec(1), Z: delta.AtVec(2)}
			dRot := spatialmath.R3AA{X: delta.AtVec(3), Y: delta.AtVec(4), Z: delta.AtVec(5)}
			pose = pose.Perturb(dTrans, dRot)

			if dTrans.Norm2()+dRot.X*dRot.X+dRot.Y*dRot.Y+dRot.Z*dRot.Z < 1e-12 {
				break
			}
		}

		// Reclassify every non-degenerate edge against the updated pose: an
		// edge over threshold here is excluded from the next outer
		// iteration's normal equations, and one that's dropped back under
		// is re-admitted, so the robust-kernel-off passes see only the
		// edges that actually converged as inliers.
		for idx := range obs {
			o := &obs[idx]
			if o.degenerate {
				continue
			}
			u, v, ok := camera.WorldToPixel(o.landmark, pose)
			if !ok {
				o.degenerate, o.outlier = true, true
				continue
			}
			ex, ey := o.pixel.X-u, o.pixel.Y-v
			o.outlier = ex*ex+ey*ey > cfg.OutlierChiSq
		}
	}

	inliers := 0
	outlierIdx := make([]int, 0)
	for _, o := range obs {
		if o.outlier {
			outlierIdx = append(outlierIdx, o.featureIndex)
		} else {
			inliers++
		}
	}

	return OptimizeResult{Pose: pose, Inliers: inliers, OutlierIdx: outlierIdx}
}

// huberWeight returns the Huber robust-kernel weight for a squared residual,
// downweighting residuals beyond deltaSq so a handful of bad matches don't
// dominate the normal equations.
func huberWeight(chiSq, deltaSq float64) float64 {
	if chiSq <= deltaSq {
		return 1
	}
	return math.Sqrt(deltaSq / chiSq)
}

// poseJacobian returns the 2x6 Jacobian of pixel reprojection with respect
// to a right-multiplicative se(3) perturbation [translation; rotation],
// evaluated at the camera-frame point pc = (X, Y, Z).
func poseJacobian(pc r3.Vector, fx, fy float64) *mat.Dense {
	x, y, z := pc.X, pc.Y, pc.Z
	zInv := 1 / z
	zInv2 := zInv * zInv

	// d(proj)/d(pc), standard pinhole Jacobian.
	dProjDPc := mat.NewDense(2, 3, []float64{
		fx * zInv, 0, -fx * x * zInv2,
		0, fy * zInv, -fy * y * zInv2,
	})

	// d(pc)/d(xi) = [I | -skew(pc)] for a right perturbation T' = T*exp(xi^).
	dPcDXi := mat.NewDense(3, 6, []float64{
		1, 0, 0, 0, z, -y,
		0, 1, 0, -z, 0, x,
		0, 0, 1, y, -x, 0,
	})

	var projDXi mat.Dense
	projDXi.Mul(dProjDPc, dPcDXi)
	return &projDXi
}

// accumulateNormalEquations adds one observation's weighted contribution
// J^T W J and J^T W e into the running normal equations h, b. The residual
// is (ex, ey) = observed - projected, and de/dxi = -dproj/dxi, so b
// accumulates +J^T W e.
func accumulateNormalEquations(h *mat.Dense, b *mat.VecDense, jac *mat.Dense, ex, ey, weight float64) {
	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)
	jtj.Scale(weight, &jtj)
	h.Add(h, &jtj)

	e := mat.NewVecDense(2, []float64{ex, ey})
	var jte mat.VecDense
	jte.MulVec(jac.T(), e)
	jte.ScaleVec(weight, &jte)
	b.AddVec(b, &jte)
}

// solveNormalEquations solves h*delta = b via Cholesky, falling back to
// reporting failure (rather than a garbage solution) when h isn't positive
// definite, which happens when too few observations survive to constrain
// all six degrees of freedom.
func solveNormalEquations(h *mat.Dense, b *mat.VecDense) (*mat.VecDense, bool) {
	var chol mat.Cholesky
	if !chol.Factorize(mat.NewSymDense(6, denseToSymData(h))) {
		return nil, false
	}
	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, b); err != nil {
		return nil, false
	}
	return &delta, true
}

// denseToSymData extracts the symmetric data gonum's SymDense constructor
// expects from a square Dense matrix that is (numerically) symmetric.
func denseToSymData(h *mat.Dense) []float64 {
	n, _ := h.Dims()
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data[i*n+j] = h.At(i, j)
		}
	}
	return data
}
