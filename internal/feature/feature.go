// Package feature converts raw hand landmarks into the fixed-length feature
// vectors consumed by the gesture classifier.
package feature

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Center of the unit image plane. Rotation correction pivots here so a
// rotated camera mount maps back onto the orientation the model was
// trained with.
const (
	centerX = 0.5
	centerY = 0.5
)

// Flatten converts landmark points into a flat feature vector of length
// expectedCount*3, ordered landmark-index-major as x, y, z. Input with
// fewer points than expectedCount is zero-filled at the tail; extra points
// are ignored. Short input is a defined degradation, not an error.
func Flatten(points []detector.Point3D, expectedCount int) []float64 {
	if expectedCount < 0 {
		expectedCount = 0
	}

	vector := make([]float64, expectedCount*3)
	for i := 0; i < expectedCount && i < len(points); i++ {
		vector[i*3] = points[i].X
		vector[i*3+1] = points[i].Y
		vector[i*3+2] = points[i].Z
	}

	return vector
}

// Rotate rigidly rotates the (x, y) of every landmark in the vector about
// the image center (0.5, 0.5) by the given angle in degrees; z values pass
// through unchanged. A zero angle returns the input unchanged. The function
// is pure and deterministic for identical inputs.
func Rotate(vector []float64, degrees int) []float64 {
	if degrees == 0 {
		return vector
	}

	radians := float64(degrees) * math.Pi / 180.0
	sin, cos := math.Sincos(radians)

	rotated := make([]float64, len(vector))
	copy(rotated, vector)

	for i := 0; i+1 < len(vector); i += 3 {
		dx := vector[i] - centerX
		dy := vector[i+1] - centerY
		rotated[i] = centerX + dx*cos - dy*sin
		rotated[i+1] = centerY + dx*sin + dy*cos
	}

	return rotated
}
