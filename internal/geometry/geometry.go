package geometry

// Point is a 2D coordinate on the print bed, in millimeters.
type Point struct {
	X float64
	Y float64
}

// BoundingBox is an axis-aligned 2D bounding box.
type BoundingBox struct {
	Min Point
	Max Point
}

// Center returns the center point of the box.
func (b BoundingBox) Center() Point {
	return Point{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
	}
}

// Extend grows the box to include p.
func (b *BoundingBox) Extend(p Point) {
	if p.X < b.Min.X {
		b.Min.X = p.X
	}
	if p.Y < b.Min.Y {
		b.Min.Y = p.Y
	}
	if p.X > b.Max.X {
		b.Max.X = p.X
	}
	if p.Y > b.Max.Y {
		b.Max.Y = p.Y
	}
}

// BoundingBoxOf computes the bounding box of a set of points.
// Returns the zero box for an empty set.
func BoundingBoxOf(points []Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	box := BoundingBox{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Extend(p)
	}
	return box
}

// Instance is one placement of an object on the bed.
type Instance struct {
	// Offset is the XY translation applied to the object for this placement.
	Offset Point
}

// Object is one printable object in a model.
type Object struct {
	Name string

	// Size is the object's XY footprint in millimeters, centered on its
	// local origin. Parsed by the format loader.
	Size Point

	// Instances are the placements of this object. A freshly parsed
	// object may have none; EnsureDefaultInstances synthesizes one.
	Instances []*Instance
}

// footprint returns the bounding box of one instance of the object.
func (o *Object) footprint(inst *Instance) BoundingBox {
	half := Point{X: o.Size.X / 2, Y: o.Size.Y / 2}
	return BoundingBox{
		Min: Point{X: inst.Offset.X - half.X, Y: inst.Offset.Y - half.Y},
		Max: Point{X: inst.Offset.X + half.X, Y: inst.Offset.Y + half.Y},
	}
}

// Model is the geometry tree produced by a format loader: a flat list of
// objects, each with zero or more placed instances.
type Model struct {
	Objects []*Object
}

// Empty reports whether the model has no objects.
func (m *Model) Empty() bool {
	return m == nil || len(m.Objects) == 0
}

// EnsureDefaultInstances guarantees every object has at least one placed
// instance, synthesizing a placement at the origin where none exists.
func (m *Model) EnsureDefaultInstances() {
	for _, obj := range m.Objects {
		if len(obj.Instances) == 0 {
			obj.Instances = append(obj.Instances, &Instance{})
		}
	}
}

// BoundingBox returns the combined footprint of all placed instances.
func (m *Model) BoundingBox() BoundingBox {
	var box BoundingBox
	first := true
	for _, obj := range m.Objects {
		for _, inst := range obj.Instances {
			fp := obj.footprint(inst)
			if first {
				box = fp
				first = false
				continue
			}
			box.Extend(fp.Min)
			box.Extend(fp.Max)
		}
	}
	return box
}

// CenterInstances translates all instances so the combined footprint is
// centered on the given point.
func (m *Model) CenterInstances(center Point) {
	box := m.BoundingBox()
	cur := box.Center()
	dx := center.X - cur.X
	dy := center.Y - cur.Y
	for _, obj := range m.Objects {
		for _, inst := range obj.Instances {
			inst.Offset.X += dx
			inst.Offset.Y += dy
		}
	}
}

// InstanceCount returns the total number of placed instances.
func (m *Model) InstanceCount() int {
	n := 0
	for _, obj := range m.Objects {
		n += len(obj.Instances)
	}
	return n
}
