package scene

import (
	"fmt"
	"math"

	"github.com/san-kum/boxsim/internal/dynamics"
	"github.com/san-kum/boxsim/internal/vec"
)

const (
	maxStackRows = 20
	maxLinks     = 100
)

func addGround(w *dynamics.World, friction float64) (*dynamics.Body, error) {
	bd := dynamics.NewBodyDef()
	bd.AddShape(dynamics.NewBoxDef(vec.V(50, 1)).WithFriction(friction))
	return w.CreateBody(bd)
}

func addBox(w *dynamics.World, p, extents vec.Vec2, density, friction float64) (*dynamics.Body, error) {
	bd := dynamics.NewBodyDef()
	bd.Position = p
	bd.AddShape(dynamics.NewBoxDef(extents).WithDensity(density).WithFriction(friction))
	return w.CreateBody(bd)
}

func addCircle(w *dynamics.World, p vec.Vec2, radius, density float64) (*dynamics.Body, error) {
	bd := dynamics.NewBodyDef()
	bd.Position = p
	bd.AddShape(dynamics.NewCircleDef(radius).WithDensity(density))
	return w.CreateBody(bd)
}

func pin(w *dynamics.World, b1, b2 *dynamics.Body, anchor vec.Vec2) (*dynamics.RevoluteJoint, error) {
	j, err := w.CreateJoint(&dynamics.RevoluteJointDef{
		JointDefBase: dynamics.JointDefBase{Body1: b1, Body2: b2},
		Anchor:       anchor,
	})
	if err != nil {
		return nil, err
	}
	return j.(*dynamics.RevoluteJoint), nil
}

func buildDrop(p Params) (*Scene, error) {
	s := newScene("drop", p)
	if _, err := addGround(s.World, p.friction(0.6)); err != nil {
		return nil, err
	}

	bd := dynamics.NewBodyDef()
	bd.Position = vec.V(0, p.spacing(10))
	bd.AddShape(dynamics.NewCircleDef(p.radius(0.5)).
		WithDensity(1).
		WithFriction(p.friction(0.6)).
		WithRestitution(p.Restitution))
	ball, err := s.World.CreateBody(bd)
	if err != nil {
		return nil, err
	}
	s.Track("ball", ball)
	return s, nil
}

func buildStack(p Params) (*Scene, error) {
	rows := p.count(5)
	if rows > maxStackRows {
		return nil, fmt.Errorf("%w: %d rows, at most %d", ErrBadParams, rows, maxStackRows)
	}

	s := newScene("stack", p)
	if _, err := addGround(s.World, p.friction(0.6)); err != nil {
		return nil, err
	}

	const h = 0.5
	spacing := p.spacing(1.05)
	for i := 0; i < rows; i++ {
		n := rows - i
		y := 1 + h + float64(i)*2*h
		for k := 0; k < n; k++ {
			x := (float64(k) - float64(n-1)/2) * spacing
			b, err := addBox(s.World, vec.V(x, y), vec.V(h, h), 1, p.friction(0.6))
			if err != nil {
				return nil, err
			}
			s.Track(fmt.Sprintf("box%d_%d", i, k), b)
		}
	}
	return s, nil
}

func buildPendulum(p Params) (*Scene, error) {
	s := newScene("pendulum", p)
	w := s.World

	anchor := vec.V(0, 10)
	bob, err := addBox(w, anchor.Add(vec.V(p.spacing(3), 0)), vec.V(0.25, 0.25), 1, 0.2)
	if err != nil {
		return nil, err
	}

	def := &dynamics.RevoluteJointDef{
		JointDefBase: dynamics.JointDefBase{Body1: w.GroundBody(), Body2: bob},
		Anchor:       anchor,
	}
	if p.MotorTorque > 0 {
		def.EnableMotor = true
		def.MotorTorque = p.MotorTorque
		def.MotorSpeed = p.MotorSpeed
	}
	if _, err := w.CreateJoint(def); err != nil {
		return nil, err
	}
	s.Track("bob", bob)
	return s, nil
}

func buildChain(p Params) (*Scene, error) {
	links := p.count(10)
	if links > maxLinks {
		return nil, fmt.Errorf("%w: %d links, at most %d", ErrBadParams, links, maxLinks)
	}

	s := newScene("chain", p)
	w := s.World
	if _, err := addGround(w, p.friction(0.6)); err != nil {
		return nil, err
	}

	const y = 20.0
	length := p.spacing(1)
	prev := w.GroundBody()
	for i := 0; i < links; i++ {
		x := (float64(i) + 0.5) * length
		link, err := addBox(w, vec.V(x, y), vec.V(length/2, 0.125), 1, 0.2)
		if err != nil {
			return nil, err
		}
		if _, err := pin(w, prev, link, vec.V(float64(i)*length, y)); err != nil {
			return nil, err
		}
		s.Track(fmt.Sprintf("link%d", i), link)
		prev = link
	}
	return s, nil
}

func buildBridge(p Params) (*Scene, error) {
	planks := p.count(10)
	if planks > maxLinks {
		return nil, fmt.Errorf("%w: %d planks, at most %d", ErrBadParams, planks, maxLinks)
	}

	s := newScene("bridge", p)
	w := s.World
	ground, err := addGround(w, p.friction(0.6))
	if err != nil {
		return nil, err
	}

	const y = 8.0
	length := p.spacing(1)
	x0 := -float64(planks) * length / 2
	prev := ground
	for i := 0; i < planks; i++ {
		x := x0 + (float64(i)+0.5)*length
		plank, err := addBox(w, vec.V(x, y), vec.V(length/2, 0.125), 20, 0.2)
		if err != nil {
			return nil, err
		}
		if _, err := pin(w, prev, plank, vec.V(x0+float64(i)*length, y)); err != nil {
			return nil, err
		}
		s.Track(fmt.Sprintf("plank%d", i), plank)
		prev = plank
	}
	if _, err := pin(w, prev, ground, vec.V(x0+float64(planks)*length, y)); err != nil {
		return nil, err
	}
	return s, nil
}

func buildPulley(p Params) (*Scene, error) {
	s := newScene("pulley", p)
	w := s.World
	if _, err := addGround(w, p.friction(0.6)); err != nil {
		return nil, err
	}

	half := p.spacing(3)
	heavy, err := addBox(w, vec.V(-half, 10), vec.V(0.5, 0.5), 2, 0.2)
	if err != nil {
		return nil, err
	}
	light, err := addBox(w, vec.V(half, 10), vec.V(0.5, 0.5), 1, 0.2)
	if err != nil {
		return nil, err
	}

	def := dynamics.NewPulleyJointDef(heavy, light,
		vec.V(-half, 18), vec.V(half, 18),
		heavy.CenterPosition(), light.CenterPosition(),
		p.ratio(1))
	if _, err := w.CreateJoint(def); err != nil {
		return nil, err
	}
	s.Track("heavy", heavy)
	s.Track("light", light)
	return s, nil
}

func buildGear(p Params) (*Scene, error) {
	s := newScene("gear", p)
	w := s.World

	ratio := p.ratio(2)
	r := p.radius(1)
	wheel1, err := addCircle(w, vec.V(-3, 10), r, 1)
	if err != nil {
		return nil, err
	}
	wheel2, err := addCircle(w, vec.V(3, 10), r*math.Abs(ratio), 1)
	if err != nil {
		return nil, err
	}

	j1, err := w.CreateJoint(&dynamics.RevoluteJointDef{
		JointDefBase: dynamics.JointDefBase{Body1: w.GroundBody(), Body2: wheel1},
		Anchor:       wheel1.CenterPosition(),
		EnableMotor:  true,
		MotorSpeed:   p.motorSpeed(1),
		MotorTorque:  p.motorTorque(100),
	})
	if err != nil {
		return nil, err
	}
	j2, err := pin(w, w.GroundBody(), wheel2, wheel2.CenterPosition())
	if err != nil {
		return nil, err
	}

	if _, err := w.CreateJoint(&dynamics.GearJointDef{Joint1: j1, Joint2: j2, Ratio: ratio}); err != nil {
		return nil, err
	}
	s.Track("wheel1", wheel1)
	s.Track("wheel2", wheel2)
	return s, nil
}

func buildSlider(p Params) (*Scene, error) {
	s := newScene("slider", p)
	w := s.World

	cart, err := addBox(w, vec.V(0, 10), vec.V(1, 0.5), 1, 0.2)
	if err != nil {
		return nil, err
	}

	travel := p.spacing(5)
	_, err = w.CreateJoint(&dynamics.PrismaticJointDef{
		JointDefBase:     dynamics.JointDefBase{Body1: w.GroundBody(), Body2: cart},
		Anchor:           cart.CenterPosition(),
		Axis:             vec.V(1, 0),
		LowerTranslation: -travel,
		UpperTranslation: travel,
		EnableLimit:      true,
		MotorForce:       p.motorTorque(50),
		MotorSpeed:       p.motorSpeed(2),
		EnableMotor:      true,
	})
	if err != nil {
		return nil, err
	}
	s.Track("cart", cart)
	return s, nil
}

func buildMouse(p Params) (*Scene, error) {
	s := newScene("mouse", p)
	w := s.World
	if _, err := addGround(w, p.friction(0.6)); err != nil {
		return nil, err
	}

	center := vec.V(0, 5)
	box, err := addBox(w, center, vec.V(0.5, 0.5), 1, 0.2)
	if err != nil {
		return nil, err
	}
	j, err := w.CreateJoint(dynamics.NewMouseJointDef(box, box.CenterPosition(), 1000*box.Mass()))
	if err != nil {
		return nil, err
	}
	mouse := j.(*dynamics.MouseJoint)

	radius := p.spacing(3)
	speed := p.motorSpeed(1)
	s.AddHook(func(t float64) {
		a := speed * t
		mouse.SetTarget(center.Add(vec.V(radius*math.Cos(a), radius*math.Sin(a))))
	})
	s.Track("box", box)
	return s, nil
}

func buildFast(p Params) (*Scene, error) {
	s := newScene("fast", p)
	w := s.World
	if _, err := addGround(w, p.friction(0.6)); err != nil {
		return nil, err
	}

	wall := dynamics.NewBodyDef()
	wall.Position = vec.V(8, 5)
	wall.AddShape(dynamics.NewBoxDef(vec.V(0.1, 4)))
	if _, err := w.CreateBody(wall); err != nil {
		return nil, err
	}

	bd := dynamics.NewBodyDef()
	bd.Position = vec.V(0, 5)
	bd.LinearVelocity = vec.V(p.motorSpeed(150), 0)
	bd.IsFast = true
	bd.AddShape(dynamics.NewCircleDef(p.radius(0.25)).WithDensity(1).WithRestitution(p.Restitution))
	bullet, err := w.CreateBody(bd)
	if err != nil {
		return nil, err
	}
	s.Track("bullet", bullet)
	return s, nil
}

func buildDistance(p Params) (*Scene, error) {
	s := newScene("distance", p)
	w := s.World

	half := p.spacing(2)
	a, err := addCircle(w, vec.V(-half, 10), p.radius(0.5), 1)
	if err != nil {
		return nil, err
	}
	b, err := addCircle(w, vec.V(half, 10), p.radius(0.5), 1)
	if err != nil {
		return nil, err
	}
	if _, err := pin(w, w.GroundBody(), a, a.CenterPosition()); err != nil {
		return nil, err
	}
	_, err = w.CreateJoint(&dynamics.DistanceJointDef{
		JointDefBase: dynamics.JointDefBase{Body1: a, Body2: b},
		Anchor1:      a.CenterPosition(),
		Anchor2:      b.CenterPosition(),
	})
	if err != nil {
		return nil, err
	}

	pull := p.motorTorque(20)
	s.AddHook(func(float64) {
		b.ApplyForce(vec.V(pull, 0), b.CenterPosition())
	})
	s.Track("a", a)
	s.Track("b", b)
	return s, nil
}
