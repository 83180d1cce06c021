// Package dynamics steps rigid bodies through time.
//
// A [World] owns bodies, joints and the contacts found between body shapes.
// Each call to [World.Step] runs a fixed pipeline:
//
//   - flush contacts and bodies whose destruction was deferred
//   - integrate velocities, solve velocity constraints per island and
//     integrate positions
//   - commit broad-phase moves and report bodies that left the world bounds
//   - update contacts, including the time-of-impact pass for fast bodies
//   - correct positions per island and put resting islands to sleep
//
// Shapes and joints are closed sets. Geometry is a [collision.Geometry]
// (circle or polygon); joints are one of the six types returned by
// [World.CreateJoint].
//
// # Example
//
//	w := dynamics.NewWorld(dynamics.DefaultWorldDef())
//	ground := dynamics.NewBodyDef()
//	ground.AddShape(dynamics.NewBoxDef(vec.V(50, 1)))
//	w.CreateBody(ground)
//
//	ball := dynamics.NewBodyDef()
//	ball.Position = vec.V(0, 10)
//	ball.AddShape(dynamics.NewCircleDef(1).WithDensity(1))
//	b, _ := w.CreateBody(ball)
//
//	for i := 0; i < 600; i++ {
//		w.Step(1.0/60, 10)
//	}
//
// # Thread Safety
//
// A World is NOT safe for concurrent use. Run separate worlds in separate
// goroutines instead.
package dynamics
