package dynamics_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/compute"
	"github.com/san-kum/rbdyn/internal/config"
	"github.com/san-kum/rbdyn/internal/dynamics"
	"github.com/san-kum/rbdyn/internal/forces"
	"github.com/san-kum/rbdyn/internal/kinematics"
	"github.com/san-kum/rbdyn/internal/models"
	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/spatial"
	"github.com/san-kum/rbdyn/internal/verify"
)

func build(cfg *config.Config) *multibody.Model {
	m, err := cfg.Build()
	Expect(err).NotTo(HaveOccurred())
	return m
}

func preset(name string) (*multibody.Model, *config.Config) {
	cfg := config.GetPreset(name)
	Expect(cfg).NotTo(BeNil())
	return build(cfg), cfg
}

func evaluate(m *multibody.Model, req dynamics.Request) *dynamics.Result {
	res, err := dynamics.Compute(m, req)
	Expect(err).NotTo(HaveOccurred())
	return res
}

// plainForce has no gradient implementation.
type plainForce struct {
	frames []string
	width  int
}

func (p plainForce) Name() string            { return "plain" }
func (p plainForce) Frames() []string        { return p.frames }
func (p plainForce) DirectFeedthrough() bool { return false }
func (p plainForce) SpatialForce(m *multibody.Model, q, v []float64) (multibody.ForceOutput, error) {
	return multibody.ForceOutput{Wrench: mat.NewDense(6, p.width, nil)}, nil
}

// dragForce pushes twice on one body along its local x axis, quadratically
// and linearly in velocity coordinate k.
type dragForce struct {
	frame string
	k     int
}

func (d dragForce) Name() string            { return "drag" }
func (d dragForce) Frames() []string        { return []string{d.frame, d.frame} }
func (d dragForce) DirectFeedthrough() bool { return false }
func (d dragForce) SpatialForce(m *multibody.Model, q, v []float64) (multibody.ForceOutput, error) {
	w := mat.NewDense(6, 2, nil)
	w.Set(3, 0, -0.7*v[d.k]*v[d.k])
	w.Set(3, 1, -0.3*v[d.k])
	return multibody.ForceOutput{Wrench: w}, nil
}

func (d dragForce) SpatialForceGradient(m *multibody.Model, q, v []float64) (multibody.ForceOutput, error) {
	out, err := d.SpatialForce(m, q, v)
	if err != nil {
		return out, err
	}
	nq := m.NumPositions()
	out.DWrench = mat.NewDense(12, nq+m.NumVelocities(), nil)
	out.DWrench.Set(3, nq+d.k, -1.4*v[d.k])
	out.DWrench.Set(9, nq+d.k, -0.3)
	return out, nil
}

// randomTree builds a reproducible tree mixing revolute, prismatic and fixed
// joints, every body attached to a random earlier one.
func randomTree(bodies int, seed uint64) *multibody.Model {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	sym := func() float64 { return rng.Float64() - 0.5 }
	types := []multibody.JointType{multibody.Revolute, multibody.Prismatic, multibody.Fixed}

	m := multibody.New("tree")
	for i := 1; i <= bodies; i++ {
		joint := multibody.Joint{
			Type:   types[i%len(types)],
			Axis:   spatial.Normalize([3]float64{sym(), sym(), 1 + sym()}),
			Origin: spatial.Homogeneous(spatial.RPY(sym(), sym(), sym()), [3]float64{sym(), sym(), sym()}),
		}
		icom := mat.NewDiagDense(3, []float64{0.02 + 0.05*rng.Float64(), 0.02 + 0.05*rng.Float64(), 0.02 + 0.05*rng.Float64()})
		inertia := spatial.Inertia(0.5+rng.Float64(), [3]float64{sym(), sym(), sym()}, icom)
		_, err := m.AddBody(fmt.Sprintf("link%d", i), rng.IntN(i), joint, inertia)
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(m.Compile()).To(Succeed())
	return m
}

func randomState(rng *rand.Rand, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = 2*rng.Float64() - 1
	}
	return x
}

func positiveDefinite(h *mat.Dense) bool {
	n, _ := h.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, h.At(i, j))
		}
	}
	var eig mat.EigenSym
	if !eig.Factorize(sym, false) {
		return false
	}
	for _, ev := range eig.Values(nil) {
		if ev <= 0 {
			return false
		}
	}
	return true
}

var _ = Describe("Equations of motion", func() {
	Describe("single pendulum", func() {
		It("matches the closed form", func() {
			ref := models.NewPendulum()
			for _, theta := range []float64{0, 0.4, -1.3, 2.9} {
				q, v := []float64{theta}, []float64{0.7}
				res := evaluate(build(ref.Config(q, v)), dynamics.Request{Q: q, V: v})

				Expect(res.H.At(0, 0)).To(BeNumerically("~", ref.MassMatrix(q).At(0, 0), 1e-12))
				Expect(res.C.AtVec(0)).To(BeNumerically("~", ref.Bias(q, v)[0], 1e-12))
			}
		})

		It("has H = m·l² and C = m·g·l·sin θ without damping", func() {
			m := build(config.PendulumConfig(3, 0.8, 0.5, 0))
			res := evaluate(m, dynamics.Request{Q: []float64{0.5}, V: []float64{0}})

			Expect(res.H.At(0, 0)).To(BeNumerically("~", 3*0.8*0.8, 1e-12))
			Expect(res.C.AtVec(0)).To(BeNumerically("~", 3*9.81*0.8*math.Sin(0.5), 1e-12))
		})
	})

	Describe("double pendulum", func() {
		It("matches the closed form including velocity products", func() {
			ref := models.NewDoublePendulum()
			ref.M2, ref.L2 = 0.7, 1.3
			states := [][4]float64{
				{0.3, 0.3, 0, 0},
				{1.1, -0.4, 0.8, -1.5},
				{-2.0, 2.5, 2.0, 0.3},
			}
			for _, s := range states {
				q, v := []float64{s[0], s[1]}, []float64{s[2], s[3]}
				res := evaluate(build(ref.Config(q, v)), dynamics.Request{Q: q, V: v})

				Expect(mat.EqualApprox(res.H, ref.MassMatrix(q), 1e-10)).To(BeTrue())
				want := ref.Bias(q, v)
				Expect(res.C.AtVec(0)).To(BeNumerically("~", want[0], 1e-10))
				Expect(res.C.AtVec(1)).To(BeNumerically("~", want[1], 1e-10))
			}
		})

		It("reduces C to the gravity torque at rest", func() {
			ref := models.NewDoublePendulum()
			q := []float64{0.9, -0.6}
			res := evaluate(build(ref.Config(q, []float64{0, 0})), dynamics.Request{Q: q, V: []float64{0, 0}})

			g := ref.GravityTorque(q)
			Expect(res.C.AtVec(0)).To(BeNumerically("~", g[0], 1e-10))
			Expect(res.C.AtVec(1)).To(BeNumerically("~", g[1], 1e-10))
		})
	})

	Describe("mass matrix", func() {
		It("is exactly symmetric and positive definite", func() {
			m, cfg := preset("arm")
			res := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V})

			Expect(mat.Equal(res.H, res.H.T())).To(BeTrue())
			Expect(positiveDefinite(res.H)).To(BeTrue())
		})

		It("is block diagonal for bodies that do not share a chain", func() {
			m, cfg := preset("twin")
			res := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true})

			Expect(res.H.At(0, 1)).To(Equal(0.0))
			Expect(res.H.At(1, 0)).To(Equal(0.0))
			// vec index of (0,1) is 2, of (1,0) is 1
			_, cols := res.DH.Dims()
			for k := 0; k < cols; k++ {
				Expect(res.DH.At(1, k)).To(Equal(0.0))
				Expect(res.DH.At(2, k)).To(Equal(0.0))
			}
		})
	})

	Describe("gradients", func() {
		It("returns blocks of the documented shapes", func() {
			m, cfg := preset("thruster")
			res := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true})

			nq, nv, nu := m.NumPositions(), m.NumVelocities(), m.NumInputs()
			r, c := res.DH.Dims()
			Expect([]int{r, c}).To(Equal([]int{nv * nv, nq + nv}))
			r, c = res.DC.Dims()
			Expect([]int{r, c}).To(Equal([]int{nv, nq + nv}))
			r, c = res.DB.Dims()
			Expect([]int{r, c}).To(Equal([]int{nv * nu, nq + nv}))
		})

		It("has exactly zero velocity columns in dH", func() {
			m, cfg := preset("arm")
			res := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true})

			nq := m.NumPositions()
			rows, cols := res.DH.Dims()
			for k := nq; k < cols; k++ {
				for i := 0; i < rows; i++ {
					Expect(res.DH.At(i, k)).To(Equal(0.0))
				}
			}
		})

		DescribeTable("match central differences",
			func(name string) {
				m, cfg := preset(name)
				opts := verify.DefaultOptions()
				sample, err := verify.CheckAt(m, dynamics.NewDispatcher(), cfg.State.Q, cfg.State.V, opts)
				Expect(err).NotTo(HaveOccurred())
				Expect(sample.DH).To(BeNumerically("<", 1e-4))
				Expect(sample.DC).To(BeNumerically("<", 1e-4))
				Expect(sample.DB).To(BeNumerically("<", 1e-4))
			},
			Entry("pendulum", "pendulum"),
			Entry("double pendulum", "double_pendulum"),
			Entry("twin", "twin"),
			Entry("arm with friction and springs", "arm"),
			Entry("thruster through the input matrix", "thruster"),
		)

		It("match central differences at random states", func() {
			m, _ := preset("arm")
			opts := verify.DefaultOptions()
			opts.Samples = 3
			rep, err := verify.CheckGradients(m, dynamics.NewDispatcher(), opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Passed).To(BeTrue(), "max relative error %g", rep.MaxError)
		})

		It("are chained through a seed", func() {
			m, cfg := preset("double_pendulum")
			full := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true})

			seed := mat.NewDense(4, 2, []float64{
				1, 0,
				0.5, 0,
				0, 1,
				0, -2,
			})
			seeded := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Seed: seed})

			var wantH, wantC mat.Dense
			wantH.Mul(full.DH, seed)
			wantC.Mul(full.DC, seed)
			Expect(mat.EqualApprox(seeded.DH, &wantH, 1e-12)).To(BeTrue())
			Expect(mat.EqualApprox(seeded.DC, &wantC, 1e-12)).To(BeTrue())
			Expect(seeded.DB).To(BeNil())
		})
	})

	Describe("evaluation", func() {
		It("is bit-identical across repeated calls", func() {
			m, cfg := preset("arm")
			req := dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true}
			a := evaluate(m, req)
			b := evaluate(m, req)

			Expect(mat.Equal(a.H, b.H)).To(BeTrue())
			Expect(mat.Equal(a.C, b.C)).To(BeTrue())
			Expect(mat.Equal(a.B, b.B)).To(BeTrue())
			Expect(mat.Equal(a.DH, b.DH)).To(BeTrue())
			Expect(mat.Equal(a.DC, b.DC)).To(BeTrue())
		})

		It("is bit-identical and positive definite on a large tree", func() {
			// enough bodies for the world inertias to be split across workers
			m := randomTree(48, 7)
			Expect(m.NumBodies() - 1).To(BeNumerically(">", 32))

			rng := rand.New(rand.NewPCG(11, 12))
			req := dynamics.Request{
				Q:         randomState(rng, m.NumPositions()),
				V:         randomState(rng, m.NumVelocities()),
				Gradients: true,
			}
			first := evaluate(m, req)
			Expect(positiveDefinite(first.H)).To(BeTrue())
			Expect(mat.Equal(first.H, first.H.T())).To(BeTrue())

			for i := 0; i < 4; i++ {
				again := evaluate(m, req)
				Expect(mat.Equal(again.H, first.H)).To(BeTrue())
				Expect(mat.Equal(again.C, first.C)).To(BeTrue())
				Expect(mat.Equal(again.DH, first.DH)).To(BeTrue())
				Expect(mat.Equal(again.DC, first.DC)).To(BeTrue())
			}

			// the native kernel assembles H serially
			d := dynamics.NewDispatcher(dynamics.WithKernel(compute.NewCPUKernel()))
			native, err := d.Compute(m, dynamics.Request{Q: req.Q, V: req.V, PreferNative: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(native.Engine).To(Equal("native:cpu"))
			Expect(mat.EqualApprox(native.H, first.H, 1e-9)).To(BeTrue())
			Expect(mat.EqualApprox(native.C, first.C, 1e-9)).To(BeTrue())
		})

		It("rejects states of the wrong size", func() {
			m, _ := preset("double_pendulum")
			_, err := dynamics.Compute(m, dynamics.Request{Q: []float64{0}, V: []float64{0, 0}})
			Expect(err).To(MatchError(multibody.ErrDimensionMismatch))

			_, err = dynamics.Compute(m, dynamics.Request{Q: []float64{0, 0}, V: []float64{0, 0}, Seed: mat.NewDense(3, 1, nil)})
			Expect(err).To(MatchError(multibody.ErrDimensionMismatch))
		})

		It("rejects a model modified after compilation", func() {
			m, cfg := preset("double_pendulum")
			Expect(m.SetInertia(1, multibody.PointMass(5, [3]float64{0, -1, 0}))).To(Succeed())

			_, err := dynamics.Compute(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V})
			Expect(err).To(MatchError(multibody.ErrStaleState))

			Expect(m.Compile()).To(Succeed())
			_, err = dynamics.Compute(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V})
			Expect(err).NotTo(HaveOccurred())
		})

		It("detects a kinematics cache from another revision", func() {
			m, cfg := preset("pendulum")
			kin, err := kinematics.Compute(m, cfg.State.Q, cfg.State.V, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(dynamics.IsCacheCurrent(m, kin)).To(BeTrue())

			m.SetGravity([3]float64{0, -1, 0})
			Expect(m.Compile()).To(Succeed())
			Expect(dynamics.IsCacheCurrent(m, kin)).To(BeFalse())
		})
	})

	Describe("external forces", func() {
		It("subtracts a body torque from C", func() {
			cfg := config.PendulumConfig(1, 1, 0.7, 0)
			base := evaluate(build(cfg), dynamics.Request{Q: cfg.State.Q, V: cfg.State.V})

			cfg.Model.Forces = []config.ForceConfig{{Type: "wrench", Name: "twist", Body: "link", Torque: [3]float64{0, 0, 1}}}
			loaded := evaluate(build(cfg), dynamics.Request{Q: cfg.State.Q, V: cfg.State.V})

			Expect(loaded.C.AtVec(0)).To(BeNumerically("~", base.C.AtVec(0)-1, 1e-12))
		})

		It("sums slots that map to the same body", func() {
			m := multibody.New("doubled")
			_, err := m.AddBody("link", multibody.World, multibody.Joint{Type: multibody.Revolute, Axis: [3]float64{0, 0, 1}},
				multibody.PointMass(1, [3]float64{0, -1, 0}))
			Expect(err).NotTo(HaveOccurred())
			m.AddForceElement(forces.NewBodyWrench("a", "link", [3]float64{}, [3]float64{1, 0, 0}))
			m.AddForceElement(forces.NewBodyWrench("b", "link", [3]float64{}, [3]float64{1, 0, 0}))
			Expect(m.Compile()).To(Succeed())

			ext, err := dynamics.AggregateExternal(m, []float64{0.2}, []float64{0}, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(ext.Wrenches[1].Val.At(3, 0)).To(Equal(2.0))
			Expect(ext.Wrenches[0].Val).To(BeNil())
			Expect(ext.Input.Val).To(BeNil())
		})

		Describe("with velocity-dependent drag on two slots of one body", func() {
			var (
				m   *multibody.Model
				cfg *config.Config
			)

			BeforeEach(func() {
				m, cfg = preset("arm")
				// tool is welded to the forearm; drag follows the shoulder rate
				m.AddForceElement(dragForce{frame: "tool", k: 1})
				Expect(m.Compile()).To(Succeed())
			})

			It("sums both slots into the body wrench", func() {
				ext, err := dynamics.AggregateExternal(m, cfg.State.Q, cfg.State.V, true)
				Expect(err).NotTo(HaveOccurred())

				tool, ok := m.BodyIndex("tool")
				Expect(ok).To(BeTrue())
				vk := cfg.State.V[1]
				Expect(ext.Wrenches[tool].Val.At(3, 0)).To(BeNumerically("~", -0.7*vk*vk-0.3*vk, 1e-15))
			})

			It("matches central differences in dC on the analytic engine", func() {
				d := dynamics.NewDispatcher()
				res, err := d.Compute(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true})
				Expect(err).NotTo(HaveOccurred())
				_, dc, _, err := verify.FiniteDifference(m, d, cfg.State.Q, cfg.State.V, verify.DefaultStep)
				Expect(err).NotTo(HaveOccurred())

				Expect(verify.RelativeError(res.DC, dc)).To(BeNumerically("<", 1e-4))

				// the drag shows up in the shoulder velocity column
				base, _ := preset("arm")
				plain := evaluate(base, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true})
				nq := m.NumPositions()
				Expect(mat.Equal(res.DC.ColView(nq+1), plain.DC.ColView(nq+1))).To(BeFalse())
			})

			It("matches central differences in the position columns of dC on the native engine", func() {
				d := dynamics.NewDispatcher(dynamics.WithKernel(compute.NewCPUKernel()))
				res, err := d.Compute(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true, PreferNative: true})
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Engine).To(Equal("native:cpu"))
				_, dc, _, err := verify.FiniteDifference(m, d, cfg.State.Q, cfg.State.V, verify.DefaultStep)
				Expect(err).NotTo(HaveOccurred())

				nq, nv := m.NumPositions(), m.NumVelocities()
				got := mat.DenseCopyOf(res.DC.Slice(0, nv, 0, nq))
				want := mat.DenseCopyOf(dc.Slice(0, nv, 0, nq))
				Expect(verify.RelativeError(got, want)).To(BeNumerically("<", 1e-4))

				analytic := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V})
				Expect(mat.EqualApprox(res.C, analytic.C, 1e-10)).To(BeTrue())
			})
		})

		It("requires gradient support only when gradients are requested", func() {
			m, cfg := preset("double_pendulum")
			m.AddForceElement(plainForce{frames: []string{"lower"}, width: 1})
			Expect(m.Compile()).To(Succeed())

			_, err := dynamics.Compute(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V})
			Expect(err).NotTo(HaveOccurred())

			_, err = dynamics.Compute(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true})
			Expect(err).To(MatchError(multibody.ErrMissingCapability))
		})

		It("rejects wrench matrices of the wrong shape", func() {
			m, cfg := preset("double_pendulum")
			m.AddForceElement(plainForce{frames: []string{"lower"}, width: 2})
			Expect(m.Compile()).To(Succeed())

			_, err := dynamics.Compute(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V})
			Expect(err).To(MatchError(multibody.ErrDimensionMismatch))
		})

		It("adds direct-feedthrough contributions to B", func() {
			m, cfg := preset("thruster")
			res := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true})

			Expect(res.B.At(0, 0)).To(Equal(1.0))
			Expect(res.B.At(1, 0)).To(Equal(0.0))
			// a thrust perpendicular to the lower link acts on both joints
			Expect(math.Abs(res.B.At(0, 1))).To(BeNumerically(">", 0))
			Expect(math.Abs(res.B.At(1, 1))).To(BeNumerically(">", 0))
			Expect(mat.Norm(res.DB, 2)).To(BeNumerically(">", 0))
		})

		It("leaves B empty without inputs", func() {
			m, cfg := preset("twin")
			res := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true})
			Expect(res.B).To(BeNil())
			Expect(res.DB).To(BeNil())
		})
	})

	Describe("dispatcher", func() {
		var (
			logs   *bytes.Buffer
			logger *slog.Logger
		)

		BeforeEach(func() {
			logs = &bytes.Buffer{}
			logger = slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		})

		It("uses the analytic engine by default", func() {
			m, cfg := preset("arm")
			res := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V})
			Expect(res.Engine).To(Equal("analytic"))
		})

		It("routes to the native kernel when preferred", func() {
			m, cfg := preset("arm")
			d := dynamics.NewDispatcher(dynamics.WithLogger(logger), dynamics.WithKernel(compute.NewCPUKernel()))

			analytic := evaluate(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true})
			native, err := d.Compute(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, Gradients: true, PreferNative: true})
			Expect(err).NotTo(HaveOccurred())

			Expect(native.Engine).To(Equal("native:cpu"))
			Expect(mat.EqualApprox(native.H, analytic.H, 1e-10)).To(BeTrue())
			Expect(mat.EqualApprox(native.C, analytic.C, 1e-10)).To(BeTrue())
			Expect(mat.Equal(native.DB, analytic.DB)).To(BeTrue())

			r, c := native.DH.Dims()
			ar, ac := analytic.DH.Dims()
			Expect([]int{r, c}).To(Equal([]int{ar, ac}))
		})

		It("falls back to the analytic engine for seeded inputs", func() {
			m, cfg := preset("double_pendulum")
			d := dynamics.NewDispatcher(dynamics.WithLogger(logger), dynamics.WithKernel(compute.NewCPUKernel()))

			seed := mat.NewDense(4, 1, []float64{1, 0, 0, 0})
			res, err := d.Compute(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, PreferNative: true, Seed: seed})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Engine).To(Equal("analytic"))
			Expect(logs.String()).To(ContainSubstring("falling back"))
			Expect(logs.String()).To(ContainSubstring(multibody.ErrUnsupportedPath.Error()))
		})

		It("falls back when the kernel is unavailable", func() {
			m, cfg := preset("pendulum")
			d := dynamics.NewDispatcher(dynamics.WithLogger(logger), dynamics.WithKernel(compute.NewCUDAKernel()))

			res, err := d.Compute(m, dynamics.Request{Q: cfg.State.Q, V: cfg.State.V, PreferNative: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Engine).To(Equal("analytic"))
			Expect(logs.String()).To(ContainSubstring("unavailable"))
		})
	})
})
