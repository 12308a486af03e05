package corridor

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func within(p geom.Point, zone geom.Polygon) bool {
	return p.Within(zone) != geom.Outside
}

func TestBufferStraightLine(t *testing.T) {
	line := geom.LineString{{X: 0, Y: 0}, {X: 1000, Y: 0}}
	zone, err := Buffer(line, 100)
	require.NoError(t, err)

	// Rectangle plus two semicircular caps; the sampled caps undershoot the
	// true circle area slightly.
	want := 2*100*1000 + math.Pi*100*100
	assert.InEpsilon(t, want, zone.Area(), 0.01)

	assert.True(t, within(geom.Point{X: 500, Y: 99}, zone))
	assert.True(t, within(geom.Point{X: -50, Y: 0}, zone))
	assert.False(t, within(geom.Point{X: 500, Y: 101}, zone))
	assert.False(t, within(geom.Point{X: 1101, Y: 0}, zone))
}

func TestBufferBentLine(t *testing.T) {
	line := geom.LineString{{X: 0, Y: 0}, {X: 500, Y: 0}, {X: 500, Y: 500}}
	zone, err := Buffer(line, 50)
	require.NoError(t, err)

	// Inside both legs and around the joint.
	assert.True(t, within(geom.Point{X: 250, Y: 10}, zone))
	assert.True(t, within(geom.Point{X: 510, Y: 250}, zone))
	assert.True(t, within(geom.Point{X: 540, Y: 10}, zone))
	assert.False(t, within(geom.Point{X: 250, Y: 250}, zone))
}

func TestBufferPolygonCorridor(t *testing.T) {
	poly := geom.Polygon{{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}}
	zone, err := Buffer(poly, 10)
	require.NoError(t, err)

	// Interior of the corridor polygon itself is part of the zone.
	assert.True(t, within(geom.Point{X: 50, Y: 50}, zone))
	assert.True(t, within(geom.Point{X: -5, Y: 50}, zone))
	assert.False(t, within(geom.Point{X: -15, Y: 50}, zone))
	assert.Greater(t, zone.Area(), poly.Area())
}

func TestBufferErrors(t *testing.T) {
	line := geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}}

	_, err := Buffer(line, 0)
	assert.True(t, eris.Is(err, ErrBadDistance))

	_, err = Buffer(line, -5)
	assert.True(t, eris.Is(err, ErrBadDistance))

	_, err = Buffer(nil, 100)
	assert.True(t, eris.Is(err, ErrEmptyCorridor))

	_, err = Buffer(geom.LineString{}, 100)
	assert.True(t, eris.Is(err, ErrEmptyCorridor))

	_, err = Buffer(geom.Point{X: 1, Y: 2}, 100)
	assert.True(t, eris.Is(err, ErrNotBufferable))
}

func TestBufferDeterministic(t *testing.T) {
	line := geom.LineString{{X: 0, Y: 0}, {X: 300, Y: 200}, {X: 700, Y: 150}}
	a, err := Buffer(line, 100)
	require.NoError(t, err)
	b, err := Buffer(line, 100)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
