package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

func TestDistanceJointHoldsLength(t *testing.T) {
	w := newTestWorld(t, vec.Vec2{})
	a := circleBody(t, w, vec.V(-1, 5), 0.5, 1)
	b := circleBody(t, w, vec.V(1, 5), 0.5, 1)

	j := mustJoint(t, w, &DistanceJointDef{
		JointDefBase: JointDefBase{Body1: a, Body2: b},
		Anchor1:      vec.V(-1, 5),
		Anchor2:      vec.V(1, 5),
	}).(*DistanceJoint)

	if math.Abs(j.Length()-2) > 1e-12 {
		t.Fatalf("expected rest length 2, got %f", j.Length())
	}

	a.SetLinearVelocity(vec.V(-4, 1))
	b.SetLinearVelocity(vec.V(4, -1))

	swing := 0.0
	for i := 0; i < 300; i++ {
		w.Step(testDt, testIterations)
		d := vec.Distance(j.Anchor1(), j.Anchor2())
		if math.Abs(d-2) > settings.MaxLinearCorrection {
			t.Fatalf("step %d: expected length 2 within %f, got %f", i, settings.MaxLinearCorrection, d)
		}
		swing = math.Max(swing, math.Abs(b.CenterPosition().Y-a.CenterPosition().Y))
	}

	if swing < 0.5 {
		t.Errorf("expected the tangential push to swing the pair around, max offset %f", swing)
	}
	if c := a.CenterPosition().Add(b.CenterPosition()).Scale(0.5); vec.Distance(c, vec.V(0, 5)) > 1e-6 {
		t.Errorf("expected the midpoint to stay put, got %v", c)
	}
}

func TestRevoluteMotorReachesSpeed(t *testing.T) {
	w := newTestWorld(t, vec.V(0, -10))
	arm := boxBody(t, w, vec.V(0, 10), vec.V(1, 0.25), 1)

	j := mustJoint(t, w, &RevoluteJointDef{
		JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: arm},
		Anchor:       vec.V(0, 10),
		MotorSpeed:   2,
		MotorTorque:  1000,
		EnableMotor:  true,
	}).(*RevoluteJoint)

	run(w, 60)

	if math.Abs(j.JointSpeed()-2) > 0.05 {
		t.Errorf("expected joint speed 2, got %f", j.JointSpeed())
	}
	if math.Abs(j.JointAngle()-2) > 0.2 {
		t.Errorf("expected joint angle near 2 after 1s, got %f", j.JointAngle())
	}
	if d := vec.Distance(j.Anchor1(), j.Anchor2()); d > 0.01 {
		t.Errorf("expected anchors to coincide, got separation %f", d)
	}
}

func TestRevoluteMotorBoundedByTorque(t *testing.T) {
	w := newTestWorld(t, vec.Vec2{})
	arm := boxBody(t, w, vec.V(0, 10), vec.V(1, 0.25), 1)

	const torque = 0.01
	j := mustJoint(t, w, &RevoluteJointDef{
		JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: arm},
		Anchor:       vec.V(0, 10),
		MotorSpeed:   10,
		MotorTorque:  torque,
		EnableMotor:  true,
	}).(*RevoluteJoint)

	run(w, 60)

	limit := torque * 1.0 / arm.Inertia()
	if j.JointSpeed() > limit*1.01 {
		t.Errorf("expected speed at most %f, got %f", limit, j.JointSpeed())
	}
	if j.JointSpeed() <= 0 {
		t.Errorf("expected the motor to turn the arm, got %f", j.JointSpeed())
	}
}

func TestRevoluteLimit(t *testing.T) {
	w := newTestWorld(t, vec.V(0, -10))
	arm := boxBody(t, w, vec.V(1, 10), vec.V(1, 0.1), 1)

	j := mustJoint(t, w, &RevoluteJointDef{
		JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: arm},
		Anchor:       vec.V(0, 10),
		LowerAngle:   -0.25 * math.Pi,
		UpperAngle:   0.25 * math.Pi,
		EnableLimit:  true,
	}).(*RevoluteJoint)

	for i := 0; i < 180; i++ {
		w.Step(testDt, testIterations)
		// The step that crosses the limit may overshoot by one step of travel.
		if a := j.JointAngle(); a < -0.25*math.Pi-0.12 {
			t.Fatalf("step %d: angle %f passed the lower limit", i, a)
		}
	}

	if j.LimitState() != LimitAtLower {
		t.Errorf("expected arm to rest on the lower limit, got state %d", j.LimitState())
	}
}

func TestPrismaticLimit(t *testing.T) {
	w := newTestWorld(t, vec.V(0, -10))
	slider := boxBody(t, w, vec.V(0, 10), vec.V(0.5, 0.5), 1)

	j := mustJoint(t, w, &PrismaticJointDef{
		JointDefBase:     JointDefBase{Body1: w.GroundBody(), Body2: slider},
		Anchor:           vec.V(0, 10),
		Axis:             vec.V(0, 1),
		LowerTranslation: -1,
		UpperTranslation: 1,
		EnableLimit:      true,
	}).(*PrismaticJoint)

	const tol = 4 * settings.LinearSlop
	for i := 0; i < 180; i++ {
		w.Step(testDt, testIterations)
		tr := j.JointTranslation()
		if tr < -1.1 || tr > 1.1 {
			t.Fatalf("step %d: translation %f outside [-1, 1]", i, tr)
		}
	}

	if tr := j.JointTranslation(); math.Abs(tr+1) > tol {
		t.Errorf("expected slider to rest on the lower limit, got %f", tr)
	}
	if x := slider.CenterPosition().X; math.Abs(x) > 1e-6 {
		t.Errorf("expected slider to stay on the axis, x=%f", x)
	}
	if math.Abs(slider.Rotation()) > 1e-6 {
		t.Errorf("expected rotation to stay locked, got %f", slider.Rotation())
	}
}

func TestPrismaticMotor(t *testing.T) {
	w := newTestWorld(t, vec.Vec2{})
	slider := boxBody(t, w, vec.V(0, 10), vec.V(0.5, 0.5), 1)

	j := mustJoint(t, w, &PrismaticJointDef{
		JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: slider},
		Anchor:       vec.V(0, 10),
		Axis:         vec.V(1, 0),
		MotorSpeed:   1.5,
		MotorForce:   100,
		EnableMotor:  true,
	}).(*PrismaticJoint)

	run(w, 60)

	if math.Abs(j.JointSpeed()-1.5) > 0.01 {
		t.Errorf("expected joint speed 1.5, got %f", j.JointSpeed())
	}
	if math.Abs(j.JointTranslation()-1.5) > 0.1 {
		t.Errorf("expected translation near 1.5 after 1s, got %f", j.JointTranslation())
	}
}

func TestPulleyKeepsConstant(t *testing.T) {
	w := newTestWorld(t, vec.V(0, -10))
	left := boxBody(t, w, vec.V(-2, 5), vec.V(0.5, 0.5), 1)
	right := boxBody(t, w, vec.V(2, 6), vec.V(0.5, 0.5), 2)

	j := mustJoint(t, w, NewPulleyJointDef(left, right,
		vec.V(-2, 10), vec.V(2, 10), vec.V(-2, 5), vec.V(2, 6), 1)).(*PulleyJoint)

	if math.Abs(j.Constant()-9) > 1e-12 {
		t.Fatalf("expected constant 9, got %f", j.Constant())
	}

	for i := 0; i < 60; i++ {
		w.Step(testDt, testIterations)
		sum := j.Length1() + j.Ratio()*j.Length2()
		if math.Abs(sum-j.Constant()) > 0.05 {
			t.Fatalf("step %d: expected length sum %f, got %f", i, j.Constant(), sum)
		}
	}

	if left.CenterPosition().Y <= 5 {
		t.Errorf("expected the lighter box to rise, y=%f", left.CenterPosition().Y)
	}
	if right.CenterPosition().Y >= 6 {
		t.Errorf("expected the heavier box to fall, y=%f", right.CenterPosition().Y)
	}
	if g := j.GroundPoint1(); g != vec.V(-2, 10) {
		t.Errorf("expected ground point (-2, 10), got %v", g)
	}
}

func TestGearCouplesRevolutes(t *testing.T) {
	w := newTestWorld(t, vec.Vec2{})
	wheel1 := circleBody(t, w, vec.V(0, 10), 1, 1)
	wheel2 := circleBody(t, w, vec.V(3, 10), 1, 1)

	r1 := mustJoint(t, w, &RevoluteJointDef{
		JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: wheel1},
		Anchor:       vec.V(0, 10),
	})
	r2 := mustJoint(t, w, &RevoluteJointDef{
		JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: wheel2},
		Anchor:       vec.V(3, 10),
	})

	g := mustJoint(t, w, &GearJointDef{Joint1: r1, Joint2: r2, Ratio: 2}).(*GearJoint)
	if g.Body1() != wheel1 || g.Body2() != wheel2 {
		t.Fatal("expected gear to connect the two wheels")
	}

	wheel1.SetAngularVelocity(1)

	for i := 0; i < 60; i++ {
		w.Step(testDt, testIterations)
		if d := math.Abs(g.Coordinate() - g.Constant()); d > 0.01 {
			t.Fatalf("step %d: gear drifted by %f", i, d)
		}
	}

	w1, w2 := wheel1.AngularVelocity(), wheel2.AngularVelocity()
	if math.Abs(w1+2*w2) > 1e-6 {
		t.Errorf("expected w1 + 2*w2 = 0, got w1=%f w2=%f", w1, w2)
	}
	if w1 == 0 {
		t.Error("expected the wheels to keep turning")
	}
}

func TestGearRejectsDynamicGround(t *testing.T) {
	w := newTestWorld(t, vec.Vec2{})
	a := circleBody(t, w, vec.V(0, 10), 1, 1)
	b := circleBody(t, w, vec.V(3, 10), 1, 1)
	c := circleBody(t, w, vec.V(6, 10), 1, 1)

	r1 := mustJoint(t, w, &RevoluteJointDef{
		JointDefBase: JointDefBase{Body1: a, Body2: b},
		Anchor:       vec.V(1.5, 10),
	})
	r2 := mustJoint(t, w, &RevoluteJointDef{
		JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: c},
		Anchor:       vec.V(6, 10),
	})

	_, err := w.CreateJoint(&GearJointDef{Joint1: r1, Joint2: r2, Ratio: 1})
	if !errors.Is(err, ErrGearJoint) {
		t.Errorf("expected ErrGearJoint, got %v", err)
	}

	d := mustJoint(t, w, &DistanceJointDef{
		JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: a},
		Anchor1:      vec.V(0, 12),
		Anchor2:      vec.V(0, 10),
	})
	_, err = w.CreateJoint(&GearJointDef{Joint1: d, Joint2: r2, Ratio: 1})
	if !errors.Is(err, ErrGearJoint) {
		t.Errorf("expected ErrGearJoint for a distance joint, got %v", err)
	}
}

func TestMouseJointReachesTarget(t *testing.T) {
	w := newTestWorld(t, vec.Vec2{})
	box := boxBody(t, w, vec.V(0, 5), vec.V(0.5, 0.5), 1)

	j := mustJoint(t, w, NewMouseJointDef(box, box.CenterPosition(), 1000*box.Mass())).(*MouseJoint)

	if j.Body1() != w.GroundBody() {
		t.Fatal("expected mouse joint to default to the ground body")
	}

	target := vec.V(3, 5)
	j.SetTarget(target)
	run(w, 120)

	if d := vec.Distance(box.CenterPosition(), target); d > 0.1 {
		t.Errorf("expected box near the target, distance %f", d)
	}

	j.SetTarget(vec.V(3, 8))
	run(w, 120)
	if d := vec.Distance(box.CenterPosition(), vec.V(3, 8)); d > 0.1 {
		t.Errorf("expected box to follow the new target, distance %f", d)
	}
}

func TestCreateJointErrors(t *testing.T) {
	w := newTestWorld(t, vec.Vec2{})
	a := circleBody(t, w, vec.V(0, 0), 1, 1)
	static := addGround(t, w)
	mouse := func(edit func(d *MouseJointDef)) *MouseJointDef {
		d := NewMouseJointDef(a, vec.V(0, 0), 100)
		edit(d)
		return d
	}

	tests := []struct {
		name string
		def  JointDef
	}{
		{"nil definition", nil},
		{"missing body", &DistanceJointDef{JointDefBase: JointDefBase{Body1: a}}},
		{"same body", &DistanceJointDef{JointDefBase: JointDefBase{Body1: a, Body2: a}}},
		{"both static", &RevoluteJointDef{JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: static}}},
		{"zero axis", &PrismaticJointDef{JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: a}}},
		{"zero ratio", &PulleyJointDef{JointDefBase: JointDefBase{Body1: w.GroundBody(), Body2: a}}},
		{"mouse zero frequency", mouse(func(d *MouseJointDef) { d.FrequencyHz = 0 })},
		{"mouse zero time step", mouse(func(d *MouseJointDef) { d.TimeStep = 0 })},
		{"mouse negative damping", mouse(func(d *MouseJointDef) { d.DampingRatio = -0.5 })},
		{"mouse negative force", mouse(func(d *MouseJointDef) { d.MaxForce = -1 })},
		{"mouse NaN frequency", mouse(func(d *MouseJointDef) { d.FrequencyHz = math.NaN() })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := w.CreateJoint(tt.def); !errors.Is(err, ErrInvalidJoint) {
				t.Errorf("expected ErrInvalidJoint, got %v", err)
			}
		})
	}

	if w.JointCount() != 0 {
		t.Errorf("expected no joints, got %d", w.JointCount())
	}
}

func TestJointTypeString(t *testing.T) {
	tests := []struct {
		typ  JointType
		want string
	}{
		{DistanceJointType, "distance"},
		{RevoluteJointType, "revolute"},
		{PrismaticJointType, "prismatic"},
		{PulleyJointType, "pulley"},
		{GearJointType, "gear"},
		{MouseJointType, "mouse"},
		{UnknownJoint, "unknown"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
