package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/compute"
	"github.com/san-kum/rbdyn/internal/config"
	"github.com/san-kum/rbdyn/internal/dynamics"
	"github.com/san-kum/rbdyn/internal/metrics"
	"github.com/san-kum/rbdyn/internal/models"
	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/report"
	"github.com/san-kum/rbdyn/internal/storage"
	"github.com/san-kum/rbdyn/internal/store"
	"github.com/san-kum/rbdyn/internal/verify"
)

var (
	configFile string
	verbose    bool
	kernelName string
	// state overrides
	qFlag     []float64
	vFlag     []float64
	gradients bool
	native    bool
	precision int
	// check
	samples   int
	step      float64
	tolerance float64
	checkSeed uint64
	runsDir   string
	// sweep
	joint     int
	from      float64
	to        float64
	points    int
	condLimit float64
	// export
	outFile string
	format  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rbdyn [command]",
		Short: "rigid-body equations of motion with analytic gradients",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			k, err := compute.Lookup(kernelName)
			if err != nil {
				return err
			}
			compute.SetKernel(k)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "mechanism file (yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&kernelName, "kernel", "cpu", "native kernel (cpu, cuda)")

	evalCmd := &cobra.Command{
		Use:   "eval [preset]",
		Short: "evaluate H, C and B at a state",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEval,
	}
	addStateFlags(evalCmd)
	evalCmd.Flags().IntVar(&precision, "precision", 4, "digits after the decimal point")

	checkCmd := &cobra.Command{
		Use:   "check [preset]",
		Short: "check analytic gradients against finite differences",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
	}
	checkCmd.Flags().IntVar(&samples, "samples", verify.DefaultSamples, "number of random states")
	checkCmd.Flags().Float64Var(&step, "step", verify.DefaultStep, "finite-difference step")
	checkCmd.Flags().Float64Var(&tolerance, "tol", verify.DefaultTolerance, "relative tolerance")
	checkCmd.Flags().Uint64Var(&checkSeed, "seed", 1, "random seed")
	checkCmd.Flags().BoolVar(&native, "native", false, "use the native kernel")
	checkCmd.Flags().StringVar(&runsDir, "save", "", "directory to record the run in")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "plot H and C while sweeping one coordinate",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addStateFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&joint, "joint", 0, "position coordinate to sweep")
	sweepCmd.Flags().Float64Var(&from, "from", -math.Pi, "sweep start")
	sweepCmd.Flags().Float64Var(&to, "to", math.Pi, "sweep end")
	sweepCmd.Flags().IntVar(&points, "points", 72, "number of samples")
	sweepCmd.Flags().Float64Var(&condLimit, "cond", 1e6, "condition number limit for H")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in mechanisms",
		RunE: func(cmd *cobra.Command, args []string) error {
			closed := make(map[string]bool)
			for _, name := range models.List() {
				closed[name] = true
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBODIES\tNQ\tNU\tFORCES\tCLOSED FORM")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				m, err := cfg.Build()
				if err != nil {
					return err
				}
				ref := "-"
				if closed[name] {
					ref = "yes"
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n", name, m.NumBodies()-1, m.NumPositions(), m.NumInputs(), len(m.ForceElements()), ref)
			}
			return w.Flush()
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [preset]",
		Short: "write an evaluation to JSON or CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExport,
	}
	addStateFlags(exportCmd)
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (stdout if empty)")
	exportCmd.Flags().StringVar(&format, "format", "json", "json or csv")

	saveCmd := &cobra.Command{
		Use:   "save [preset] [file]",
		Short: "write a preset as a mechanism file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			return config.Save(args[1], cfg)
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs [dir]",
		Short: "list recorded gradient checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(args[0]).List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODEL\tTIME\tSAMPLES\tMAX ERROR\tSTATUS")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2e\t%s\n", r.ID, r.Model, r.Timestamp.Format(time.DateTime), r.Samples, r.MaxError, report.Status(r.Passed))
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(evalCmd, checkCmd, sweepCmd, presetsCmd, exportCmd, saveCmd, runsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&qFlag, "q", nil, "joint positions")
	cmd.Flags().Float64SliceVar(&vFlag, "v", nil, "joint velocities")
	cmd.Flags().BoolVar(&gradients, "gradients", false, "compute gradients")
	cmd.Flags().BoolVar(&native, "native", false, "prefer the native kernel")
}

// loadConfig resolves the mechanism from --config or a preset name, then
// applies state flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case len(args) > 0:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Lookup("q") != nil && flags.Changed("q") {
		cfg.State.Q = qFlag
	}
	if flags.Lookup("v") != nil && flags.Changed("v") {
		cfg.State.V = vFlag
	}
	if flags.Lookup("gradients") != nil && flags.Changed("gradients") {
		cfg.State.Gradients = gradients
	}
	if flags.Lookup("native") != nil && flags.Changed("native") {
		cfg.State.Native = native
	}
	return cfg, nil
}

func request(cfg *config.Config) dynamics.Request {
	return dynamics.Request{
		Q:            cfg.State.Q,
		V:            cfg.State.V,
		Gradients:    cfg.State.Gradients,
		PreferNative: cfg.State.Native,
	}
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	m, err := cfg.Build()
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := dynamics.NewDispatcher(dynamics.WithLogger(slog.Default())).Compute(m, request(cfg))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Println(report.Title.Render(m.Name))
	fmt.Println(report.KeyValue("engine", res.Engine))
	fmt.Println(report.KeyValue("q", cfg.State.Q))
	fmt.Println(report.KeyValue("v", cfg.State.V))
	if acts := m.Actuators(); len(acts) > 0 {
		names := make([]string, len(acts))
		for i, a := range acts {
			names[i] = a.Name
		}
		fmt.Println(report.KeyValue("inputs", strings.Join(names, ", ")))
	}
	fmt.Println(report.KeyValue("time", elapsed))
	fmt.Println(report.Row(
		report.Matrix("H", res.H, precision),
		report.Matrix("C", res.C, precision),
		report.Matrix("B", nilIfEmpty(res.B), precision),
	))

	if res.DH != nil {
		fmt.Println(report.Separator(60))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BLOCK\tROWS\tCOLS\tNORM")
		for _, b := range []struct {
			name string
			m    *mat.Dense
		}{{"dH", res.DH}, {"dC", res.DC}, {"dB", res.DB}} {
			if b.m == nil {
				continue
			}
			r, c := b.m.Dims()
			fmt.Fprintf(w, "%s\t%d\t%d\t%.6g\n", b.name, r, c, mat.Norm(b.m, 2))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Println(report.Matrix("dC", res.DC, precision))
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	m, err := cfg.Build()
	if err != nil {
		return err
	}

	opts := verify.DefaultOptions()
	opts.Samples = samples
	opts.Step = step
	opts.Tolerance = tolerance
	opts.Seed = checkSeed
	opts.Native = native

	d := dynamics.NewDispatcher(dynamics.WithLogger(slog.Default()))
	rep, err := verify.CheckGradients(m, d, opts)
	if err != nil {
		return err
	}

	fmt.Printf("gradient check: %s (%d samples, step %g, tol %g)\n\n", m.Name, opts.Samples, opts.Step, opts.Tolerance)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tdH\tdC\tdB\tSTATUS")
	for i, s := range rep.Samples {
		fmt.Fprintf(w, "%d\t%.2e\t%.2e\t%.2e\t%s\n", i, s.DH, s.DC, s.DB, report.Status(s.Passed))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nmax relative error: %.3e  %s\n", rep.MaxError, report.Status(rep.Passed))

	if runsDir != "" {
		st := storage.New(runsDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(m.Name, opts, rep)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		fmt.Printf("recorded run %s\n", id)
	}

	if len(args) > 0 {
		if err := checkReference(d, args[0]); err != nil {
			return err
		}
	}
	if !rep.Passed {
		return fmt.Errorf("gradient check failed for %s", m.Name)
	}
	return nil
}

// checkReference compares the computed H and C of a preset with its
// closed-form model, when one exists.
func checkReference(d *dynamics.Dispatcher, name string) error {
	ref, err := models.Get(name)
	if err != nil {
		return nil
	}
	q := make([]float64, ref.Dim())
	v := make([]float64, ref.Dim())
	for i := range q {
		q[i] = 0.3 + 0.2*float64(i)
		v[i] = 0.5 - 0.4*float64(i)
	}
	m, err := ref.Config(q, v).Build()
	if err != nil {
		return err
	}
	res, err := d.Compute(m, dynamics.Request{Q: q, V: v})
	if err != nil {
		return err
	}

	h := ref.MassMatrix(q)
	c := mat.NewDense(ref.Dim(), 1, ref.Bias(q, v))
	eh := verify.RelativeError(res.H, h)
	ec := verify.RelativeError(mat.DenseCopyOf(res.C), c)
	ok := eh < 1e-9 && ec < 1e-9
	fmt.Printf("closed form %s: H %.2e, C %.2e  %s\n", name, eh, ec, report.Status(ok))
	if !ok {
		return fmt.Errorf("closed-form mismatch for %s", name)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	m, err := cfg.Build()
	if err != nil {
		return err
	}
	if joint < 0 || joint >= m.NumPositions() {
		return fmt.Errorf("%w: joint %d, model has %d coordinates", multibody.ErrDimensionMismatch, joint, m.NumPositions())
	}
	if points < 2 {
		return fmt.Errorf("need at least 2 points, got %d", points)
	}

	d := dynamics.NewDispatcher(dynamics.WithLogger(slog.Default()))
	nv := m.NumVelocities()
	diag := make([][]float64, nv)
	bias := make([][]float64, nv)
	req := request(cfg)
	req.Gradients = false
	req.Q = append([]float64(nil), cfg.State.Q...)

	energy := metrics.NewEnergy(m)
	cond := metrics.NewConditioning(condLimit)
	for k := 0; k < points; k++ {
		req.Q[joint] = from + (to-from)*float64(k)/float64(points-1)
		res, err := d.Compute(m, req)
		if err != nil {
			return err
		}
		for i := 0; i < nv; i++ {
			diag[i] = append(diag[i], res.H.At(i, i))
			bias[i] = append(bias[i], res.C.AtVec(i))
		}
		for _, mt := range []metrics.Metric{energy, cond} {
			mt.Observe(req.Q, req.V, res)
		}
	}
	if err := energy.Err(); err != nil {
		return err
	}

	fmt.Println(report.Plot(fmt.Sprintf("diag(H) vs q[%d] in [%.2f, %.2f]", joint, from, to), legends("H", nv), diag...))
	fmt.Println()
	fmt.Println(report.Plot(fmt.Sprintf("C vs q[%d] in [%.2f, %.2f]", joint, from, to), legends("C", nv), bias...))
	fmt.Println()
	fmt.Println(report.KeyValue("energy", fmt.Sprintf("%.6g (mean)", energy.Value())))
	fmt.Println(report.KeyValue("cond(H)", fmt.Sprintf("%.4g (worst), %.0f%% below %g", cond.Worst(), 100*cond.Value(), condLimit)))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	m, err := cfg.Build()
	if err != nil {
		return err
	}
	req := request(cfg)
	res, err := dynamics.NewDispatcher(dynamics.WithLogger(slog.Default())).Compute(m, req)
	if err != nil {
		return err
	}
	data := store.NewExportData(m.Name, req, res)

	switch strings.ToLower(format) {
	case "json":
		if outFile == "" {
			return store.WriteJSON(os.Stdout, data)
		}
		err = store.ExportJSON(outFile, data)
	case "csv":
		if outFile == "" {
			return store.WriteCSV(os.Stdout, data)
		}
		err = store.ExportCSV(outFile, data)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", m.Name, outFile)
	return nil
}

func legends(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s[%d]", prefix, i)
	}
	return out
}

func nilIfEmpty(b *mat.Dense) mat.Matrix {
	if b == nil {
		return nil
	}
	return b
}
