package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-9

func TestDistanceAlongMeridian(t *testing.T) {
	// 0.3 km due north of the origin
	lat := 0.3 / EarthRadiusKm * 180 / math.Pi
	d := Distance(Point{0, 0}, Point{lat, 0})
	assert.InDelta(t, 0.3, d, tolerance)
}

func TestDistanceOneDegreeOnEquator(t *testing.T) {
	d := Distance(Point{0, 0}, Point{0, 1})
	assert.InDelta(t, EarthRadiusKm*math.Pi/180, d, tolerance)
}

func TestDistanceIsSymmetric(t *testing.T) {
	pairs := [][2]Point{
		{{-33.4489, -70.6693}, {-33.4491, -70.6695}},
		{{-33.4489, -70.6693}, {-34.0, -71.0}},
		{{51.5074, -0.1278}, {48.8566, 2.3522}},
		{{89.9, 179.9}, {-89.9, -179.9}},
	}
	for _, p := range pairs {
		assert.InDelta(t, Distance(p[0], p[1]), Distance(p[1], p[0]), tolerance)
	}
}

func TestDistanceZeroForIdenticalPoints(t *testing.T) {
	p := Point{-33.4489, -70.6693}
	assert.Equal(t, 0.0, Distance(p, p))
}

func TestDistanceSantiagoFixtures(t *testing.T) {
	anchor := Point{-33.4489, -70.6693}

	near := Distance(anchor, Point{-33.4491, -70.6695})
	assert.Greater(t, near, 0.02)
	assert.Less(t, near, 0.04)

	far := Distance(anchor, Point{-34.0, -71.0})
	assert.Greater(t, far, 60.0)
	assert.Less(t, far, 75.0)
}

func TestDistanceAntipodal(t *testing.T) {
	d := Distance(Point{0, 0}, Point{0, 180})
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 1e-6)
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{-33.4, -70.6}.Valid())
	assert.True(t, Point{90, 180}.Valid())
	assert.False(t, Point{90.1, 0}.Valid())
	assert.False(t, Point{0, -180.5}.Valid())
	assert.False(t, Point{math.NaN(), 0}.Valid())
}
