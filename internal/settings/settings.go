// Package settings holds the global tuning constants shared by the
// collision and dynamics packages. Lengths are in meters, angles in radians.
package settings

import "math"

const (
	// Collision

	MaxManifoldPoints = 2
	MaxPolyVertices   = 8
	MaxShapesPerBody  = 64

	// LinearSlop is the collision and constraint tolerance.
	LinearSlop = 0.005
	// AngularSlop is the angular constraint tolerance.
	AngularSlop = 2.0 / 180.0 * math.Pi
	// TOISlop is how far core shapes are shrunk for continuous collision.
	TOISlop = 8.0 * LinearSlop

	// Dynamics

	// VelocityThreshold is the closing speed below which collisions are inelastic.
	VelocityThreshold = 1.0
	// MaxLinearCorrection bounds a single position correction step.
	MaxLinearCorrection = 0.2
	// MaxAngularCorrection bounds a single angular correction step.
	MaxAngularCorrection = 8.0 / 180.0 * math.Pi
	// ContactBaumgarte is the fraction of overlap resolved per position pass.
	ContactBaumgarte = 0.2

	// Sleep

	TimeToSleep           = 0.5
	LinearSleepTolerance  = 0.01
	AngularSleepTolerance = 2.0 / 180.0

	// Joints

	// MinPulleyLength keeps either side of a pulley from collapsing to zero.
	MinPulleyLength = 1.0
)
