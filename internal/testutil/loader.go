package testutil

import (
	"github.com/dimenl/slicerd/internal/geometry"
)

// StaticLoader is a format loader that returns a fixed model regardless
// of path.
type StaticLoader struct {
	Objects int
	Err     error
	Calls   int
}

// Load implements geometry.Loader.
func (l *StaticLoader) Load(path string) (*geometry.Model, error) {
	l.Calls++
	if l.Err != nil {
		return nil, l.Err
	}
	m := &geometry.Model{}
	for i := 0; i < l.Objects; i++ {
		m.Objects = append(m.Objects, &geometry.Object{
			Name: "object",
			Size: geometry.Point{X: 20, Y: 20},
		})
	}
	return m, nil
}

// NewRegistry returns a loader registry with one static loader bound to
// every supported extension.
func NewRegistry(objects int) (*geometry.Registry, *StaticLoader) {
	l := &StaticLoader{Objects: objects}
	r := geometry.NewRegistry()
	for _, ext := range geometry.SupportedExtensions {
		r.Register(ext, l)
	}
	return r, l
}
