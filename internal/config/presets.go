package config

import "sort"

// Presets are built-in mechanisms. Pendulums swing in the x-y plane about z
// with gravity along −y, so θ = 0 hangs straight down.
var Presets = map[string]func() *Config{
	"pendulum": func() *Config {
		return PendulumConfig(DefaultMass, DefaultLength, DefaultTheta, 0)
	},
	"double_pendulum": func() *Config {
		return DoublePendulumConfig(1.0, 1.0, 1.0, 1.0, [2]float64{0.3, 0.3}, [2]float64{0, 0})
	},
	"twin":     TwinConfig,
	"arm":      ArmConfig,
	"thruster": ThrusterConfig,
}

func PendulumConfig(mass, length, theta, omega float64) *Config {
	return &Config{
		Model: MechanismConfig{
			Name:    "pendulum",
			Gravity: [3]float64{0, DefaultGravity, 0},
			Bodies: []BodyConfig{
				pendulumLink("link", "", 0, mass, length),
			},
			Actuators: []ActuatorConfig{{Name: "motor", Body: "link", Gear: DefaultGear}},
		},
		State: StateConfig{Q: []float64{theta}, V: []float64{omega}},
	}
}

// DoublePendulumConfig uses relative joint angles: q[1] is the angle of the
// second link with respect to the first.
func DoublePendulumConfig(m1, m2, l1, l2 float64, q, v [2]float64) *Config {
	return &Config{
		Model: MechanismConfig{
			Name:    "double_pendulum",
			Gravity: [3]float64{0, DefaultGravity, 0},
			Bodies: []BodyConfig{
				pendulumLink("upper", "", 0, m1, l1),
				pendulumLink("lower", "upper", l1, m2, l2),
			},
		},
		State: StateConfig{Q: q[:], V: v[:]},
	}
}

// TwinConfig is two pendulums hanging from the world side by side, with no
// coupling between them.
func TwinConfig() *Config {
	left := pendulumLink("left", "", 0, 1.0, 1.0)
	right := pendulumLink("right", "", 0, 2.0, 0.5)
	right.Joint.Origin.XYZ = [3]float64{1.5, 0, 0}
	return &Config{
		Model: MechanismConfig{
			Name:    "twin",
			Gravity: [3]float64{0, DefaultGravity, 0},
			Bodies:  []BodyConfig{left, right},
		},
		State: StateConfig{Q: []float64{0.4, -0.7}, V: []float64{1.0, 0.5}},
	}
}

// ArmConfig is a spatial arm: a base yaw joint, a shoulder pitch joint, a
// telescoping prismatic link and a rigidly mounted tool, with joint friction,
// a spring pulling the tool, and a constant load on the forearm.
func ArmConfig() *Config {
	return &Config{
		Model: MechanismConfig{
			Name:    "arm",
			Gravity: [3]float64{0, 0, DefaultGravity},
			Bodies: []BodyConfig{
				{
					Name:    "base",
					Joint:   JointConfig{Type: "revolute", Axis: [3]float64{0, 0, 1}, Damping: 0.05},
					Inertia: InertiaConfig{Mass: 2.0, COM: [3]float64{0, 0, 0.1}, Ixx: 0.02, Iyy: 0.02, Izz: 0.01},
				},
				{
					Name:   "shoulder",
					Parent: "base",
					Joint: JointConfig{
						Type:          "revolute",
						Axis:          [3]float64{0, 1, 0},
						Origin:        OriginConfig{XYZ: [3]float64{0, 0, 0.3}},
						Damping:       0.1,
						Coulomb:       0.2,
						CoulombWindow: 0.05,
					},
					Inertia: InertiaConfig{Mass: 1.5, COM: [3]float64{0.25, 0, 0}, Ixx: 0.005, Iyy: 0.03, Izz: 0.03, Ixz: 0.001},
				},
				{
					Name:    "forearm",
					Parent:  "shoulder",
					Joint:   JointConfig{Type: "prismatic", Axis: [3]float64{1, 0, 0}, Origin: OriginConfig{XYZ: [3]float64{0.5, 0, 0}, RPY: [3]float64{0.1, 0, 0}}, Damping: 0.5},
					Inertia: InertiaConfig{Mass: 0.8, COM: [3]float64{0.15, 0.01, 0}, Ixx: 0.001, Iyy: 0.01, Izz: 0.01, Ixy: 0.0005},
				},
				{
					Name:    "tool",
					Parent:  "forearm",
					Joint:   JointConfig{Type: "fixed", Origin: OriginConfig{XYZ: [3]float64{0.3, 0, 0}, RPY: [3]float64{0, 0.2, 0.3}}},
					Inertia: InertiaConfig{Mass: 0.3, COM: [3]float64{0.05, 0, 0.02}, Ixx: 0.0004, Iyy: 0.0004, Izz: 0.0002},
				},
			},
			Actuators: []ActuatorConfig{
				{Name: "yaw", Body: "base", Gear: 50},
				{Name: "pitch", Body: "shoulder", Gear: 80},
				{Name: "extend", Body: "forearm"},
			},
			Forces: []ForceConfig{
				{Type: "spring", Name: "tether", Body: "tool", Point: [3]float64{0.05, 0, 0}, Anchor: [3]float64{1, 0.5, 0}, Stiffness: 20, RestLength: 0.2},
				{Type: "wrench", Name: "payload", Body: "forearm", Torque: [3]float64{0, 0.1, 0}, Force: [3]float64{0, 0, -2}},
			},
		},
		State: StateConfig{
			Q:         []float64{0.3, -0.4, 0.1},
			V:         []float64{0.5, -0.2, 0.3},
			Gradients: true,
		},
	}
}

// ThrusterConfig is a double pendulum driven by a thruster on the lower link
// through a free input, next to a motor on the upper joint.
func ThrusterConfig() *Config {
	cfg := DoublePendulumConfig(1.0, 0.5, 1.0, 0.8, [2]float64{0.6, -0.3}, [2]float64{0.2, 0.4})
	cfg.Model.Name = "thruster"
	cfg.Model.Actuators = []ActuatorConfig{{Name: "motor", Body: "upper", Gear: DefaultGear}}
	cfg.Model.Inputs = []string{"thrust"}
	cfg.Model.Forces = []ForceConfig{
		{Type: "thruster", Name: "jet", Body: "lower", Point: [3]float64{0, -0.8, 0}, Axis: [3]float64{1, 0, 0}, Input: "thrust"},
	}
	cfg.State.Gradients = true
	return cfg
}

func pendulumLink(name, parent string, offset, mass, length float64) BodyConfig {
	return BodyConfig{
		Name:   name,
		Parent: parent,
		Joint: JointConfig{
			Type:   "revolute",
			Axis:   [3]float64{0, 0, 1},
			Origin: OriginConfig{XYZ: [3]float64{0, -offset, 0}},
		},
		Inertia: InertiaConfig{Mass: mass, COM: [3]float64{0, -length, 0}},
	}
}

func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
