package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBoxOf(t *testing.T) {
	box := BoundingBoxOf([]Point{{X: 0, Y: 0}, {X: 256, Y: 0}, {X: 256, Y: 256}, {X: 0, Y: 256}})
	assert.Equal(t, Point{X: 0, Y: 0}, box.Min)
	assert.Equal(t, Point{X: 256, Y: 256}, box.Max)
	assert.Equal(t, Point{X: 128, Y: 128}, box.Center())

	assert.Equal(t, BoundingBox{}, BoundingBoxOf(nil))
}

func TestEnsureDefaultInstances(t *testing.T) {
	m := &Model{Objects: []*Object{
		{Name: "a", Size: Point{X: 10, Y: 10}},
		{Name: "b", Size: Point{X: 10, Y: 10}, Instances: []*Instance{{Offset: Point{X: 5, Y: 5}}}},
	}}

	m.EnsureDefaultInstances()
	require.Len(t, m.Objects[0].Instances, 1)
	assert.Equal(t, Point{}, m.Objects[0].Instances[0].Offset)
	// Existing placements are untouched.
	require.Len(t, m.Objects[1].Instances, 1)
	assert.Equal(t, Point{X: 5, Y: 5}, m.Objects[1].Instances[0].Offset)

	assert.Equal(t, 2, m.InstanceCount())
}

func TestCenterInstances(t *testing.T) {
	m := &Model{Objects: []*Object{
		{Size: Point{X: 20, Y: 20}, Instances: []*Instance{{Offset: Point{X: -10, Y: 0}}, {Offset: Point{X: 10, Y: 0}}}},
	}}

	m.CenterInstances(Point{X: 128, Y: 128})
	box := m.BoundingBox()
	assert.Equal(t, Point{X: 128, Y: 128}, box.Center())
	// Relative placement is preserved.
	assert.Equal(t, 20.0, m.Objects[0].Instances[1].Offset.X-m.Objects[0].Instances[0].Offset.X)
}

func TestModelEmpty(t *testing.T) {
	var m *Model
	assert.True(t, m.Empty())
	assert.True(t, (&Model{}).Empty())
	assert.False(t, (&Model{Objects: []*Object{{}}}).Empty())
}
