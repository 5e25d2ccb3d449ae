package testtypes

import "sync/atomic"

// Factory creates services tagged with the number of services created before them.
type Factory struct {
	count atomic.Int64
}

func (f *Factory) NewStructA() *StructA {
	n := f.count.Add(1) - 1
	return &StructA{
		Tag: int(n),
	}
}

// Count returns the number of services created.
func (f *Factory) Count() int {
	return int(f.count.Load())
}
