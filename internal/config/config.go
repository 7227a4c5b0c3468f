package config

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rbdyn/internal/forces"
	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/spatial"
)

const (
	DefaultGravity = -9.81
	DefaultMass    = 1.0
	DefaultLength  = 1.0
	DefaultTheta   = 0.5
	DefaultGear    = 1.0
)

// Config is a mechanism description plus the state to evaluate it at.
type Config struct {
	Model MechanismConfig `yaml:"model"`
	State StateConfig     `yaml:"state"`
}

type MechanismConfig struct {
	Name      string           `yaml:"name"`
	Gravity   [3]float64       `yaml:"gravity"`
	Bodies    []BodyConfig     `yaml:"bodies"`
	Actuators []ActuatorConfig `yaml:"actuators,omitempty"`
	Inputs    []string         `yaml:"inputs,omitempty"`
	Forces    []ForceConfig    `yaml:"forces,omitempty"`
}

// BodyConfig describes one body. Parent names an earlier body; empty or
// "world" attaches to the world.
type BodyConfig struct {
	Name    string        `yaml:"name"`
	Parent  string        `yaml:"parent,omitempty"`
	Joint   JointConfig   `yaml:"joint"`
	Inertia InertiaConfig `yaml:"inertia"`
}

type JointConfig struct {
	Type          string       `yaml:"type"`
	Axis          [3]float64   `yaml:"axis"`
	Origin        OriginConfig `yaml:"origin"`
	Damping       float64      `yaml:"damping,omitempty"`
	Coulomb       float64      `yaml:"coulomb,omitempty"`
	CoulombWindow float64      `yaml:"coulomb_window,omitempty"`
}

type OriginConfig struct {
	XYZ [3]float64 `yaml:"xyz"`
	RPY [3]float64 `yaml:"rpy"`
}

// InertiaConfig gives the mass, the centre of mass in the body frame and the
// rotational inertia about the centre of mass.
type InertiaConfig struct {
	Mass float64    `yaml:"mass"`
	COM  [3]float64 `yaml:"com"`
	Ixx  float64    `yaml:"ixx,omitempty"`
	Iyy  float64    `yaml:"iyy,omitempty"`
	Izz  float64    `yaml:"izz,omitempty"`
	Ixy  float64    `yaml:"ixy,omitempty"`
	Ixz  float64    `yaml:"ixz,omitempty"`
	Iyz  float64    `yaml:"iyz,omitempty"`
}

type ActuatorConfig struct {
	Name string  `yaml:"name"`
	Body string  `yaml:"body"`
	Gear float64 `yaml:"gear,omitempty"`
}

// ForceConfig describes a force element. Type is one of "wrench", "spring"
// or "thruster"; the remaining fields apply per type.
type ForceConfig struct {
	Type       string     `yaml:"type"`
	Name       string     `yaml:"name"`
	Body       string     `yaml:"body"`
	Torque     [3]float64 `yaml:"torque,omitempty"`
	Force      [3]float64 `yaml:"force,omitempty"`
	Point      [3]float64 `yaml:"point,omitempty"`
	Anchor     [3]float64 `yaml:"anchor,omitempty"`
	Axis       [3]float64 `yaml:"axis,omitempty"`
	Stiffness  float64    `yaml:"stiffness,omitempty"`
	RestLength float64    `yaml:"rest_length,omitempty"`
	Input      string     `yaml:"input,omitempty"`
}

type StateConfig struct {
	Q         []float64 `yaml:"q"`
	V         []float64 `yaml:"v"`
	Gradients bool      `yaml:"gradients"`
	Native    bool      `yaml:"native"`
}

func DefaultConfig() *Config {
	return PendulumConfig(DefaultMass, DefaultLength, DefaultTheta, 0)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Build creates and compiles the model described by c.
func (c *MechanismConfig) Build() (*multibody.Model, error) {
	m := multibody.New(c.Name)
	m.SetGravity(c.Gravity)

	for _, b := range c.Bodies {
		parent := multibody.World
		if b.Parent != "" && b.Parent != "world" {
			idx, ok := m.BodyIndex(b.Parent)
			if !ok {
				return nil, fmt.Errorf("config: %w: body %q has undefined parent %q", multibody.ErrInvalidModel, b.Name, b.Parent)
			}
			parent = idx
		}
		jt, err := multibody.ParseJointType(b.Joint.Type)
		if err != nil {
			return nil, fmt.Errorf("config: body %q: %w", b.Name, err)
		}
		joint := multibody.Joint{
			Type:          jt,
			Axis:          b.Joint.Axis,
			Origin:        spatial.Homogeneous(spatial.RPY(b.Joint.Origin.RPY[0], b.Joint.Origin.RPY[1], b.Joint.Origin.RPY[2]), b.Joint.Origin.XYZ),
			Damping:       b.Joint.Damping,
			Coulomb:       b.Joint.Coulomb,
			CoulombWindow: b.Joint.CoulombWindow,
		}
		if _, err := m.AddBody(b.Name, parent, joint, b.Inertia.Spatial()); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	inputs := make(map[string]int)
	for _, a := range c.Actuators {
		if _, dup := inputs[a.Name]; dup {
			return nil, fmt.Errorf("config: %w: input %q defined twice", multibody.ErrInvalidModel, a.Name)
		}
		idx, ok := m.BodyIndex(a.Body)
		if !ok {
			return nil, fmt.Errorf("config: %w: actuator %q on undefined body %q", multibody.ErrInvalidModel, a.Name, a.Body)
		}
		gear := a.Gear
		if gear == 0 {
			gear = DefaultGear
		}
		col, err := m.AddActuator(a.Name, idx, gear)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		inputs[a.Name] = col
	}
	for _, name := range c.Inputs {
		if _, dup := inputs[name]; dup {
			return nil, fmt.Errorf("config: %w: input %q defined twice", multibody.ErrInvalidModel, name)
		}
		inputs[name] = m.AddInput(name)
	}

	for _, f := range c.Forces {
		fe, err := f.element(inputs)
		if err != nil {
			return nil, err
		}
		m.AddForceElement(fe)
	}

	if err := m.Compile(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return m, nil
}

// Spatial returns the 6×6 body-frame spatial inertia.
func (in InertiaConfig) Spatial() *mat.Dense {
	icom := mat.NewDense(3, 3, []float64{
		in.Ixx, in.Ixy, in.Ixz,
		in.Ixy, in.Iyy, in.Iyz,
		in.Ixz, in.Iyz, in.Izz,
	})
	return spatial.Inertia(in.Mass, in.COM, icom)
}

func (f ForceConfig) element(inputs map[string]int) (multibody.ForceElement, error) {
	switch f.Type {
	case "wrench":
		return forces.NewBodyWrench(f.Name, f.Body, f.Torque, f.Force), nil
	case "spring":
		return &forces.Spring{
			Label:      f.Name,
			Frame:      f.Body,
			Point:      f.Point,
			Anchor:     f.Anchor,
			Stiffness:  f.Stiffness,
			RestLength: f.RestLength,
		}, nil
	case "thruster":
		col, ok := inputs[f.Input]
		if !ok {
			return nil, fmt.Errorf("config: %w: thruster %q drives undefined input %q", multibody.ErrInvalidModel, f.Name, f.Input)
		}
		return &forces.Thruster{Label: f.Name, Frame: f.Body, Point: f.Point, Axis: f.Axis, Input: col}, nil
	}
	return nil, fmt.Errorf("config: %w: unknown force type %q", multibody.ErrInvalidModel, f.Type)
}

// Build creates the model and checks that the state matches its dimensions.
func (c *Config) Build() (*multibody.Model, error) {
	m, err := c.Model.Build()
	if err != nil {
		return nil, err
	}
	if len(c.State.Q) != m.NumPositions() || len(c.State.V) != m.NumVelocities() {
		return nil, fmt.Errorf("config: %w: state has %d positions and %d velocities, model %q needs %d and %d",
			multibody.ErrDimensionMismatch, len(c.State.Q), len(c.State.V), m.Name, m.NumPositions(), m.NumVelocities())
	}
	return m, nil
}
