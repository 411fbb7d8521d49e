// Package pool provides bucketed sync.Pool instances for the scratch
// buffers of residual reconstruction and picture I/O. Buffers are organized
// by size class to minimize waste.
package pool

import "sync"

// Size classes, in elements. The smallest class holds a 4x4 block and
// Size4K a full 64x64 transform block.
const (
	Size16  = 16
	Size64  = 64
	Size256 = 256
	Size1K  = 1024
	Size4K  = 4096
	Size16K = 16384
	Size64K = 65536
)

const numBuckets = 7

var sizes = [numBuckets]int{Size16, Size64, Size256, Size1K, Size4K, Size16K, Size64K}

// bucketIndex returns the pool index for a given size.
func bucketIndex(size int) int {
	switch {
	case size <= Size16:
		return 0
	case size <= Size64:
		return 1
	case size <= Size256:
		return 2
	case size <= Size1K:
		return 3
	case size <= Size4K:
		return 4
	case size <= Size16K:
		return 5
	default:
		return 6
	}
}

// bucketed is a set of pools of []T, one per size class.
type bucketed[T any] struct {
	pools [numBuckets]sync.Pool
}

func newBucketed[T any]() *bucketed[T] {
	b := &bucketed[T]{}
	for i := range b.pools {
		sz := sizes[i]
		b.pools[i].New = func() any {
			s := make([]T, sz)
			return &s
		}
	}
	return b
}

func (b *bucketed[T]) get(size int) []T {
	sp := b.pools[bucketIndex(size)].Get().(*[]T)
	s := *sp
	if cap(s) < size {
		s = make([]T, size)
		*sp = s
		return s
	}
	return s[:size]
}

func (b *bucketed[T]) put(s []T) {
	c := cap(s)
	if c < Size16 {
		return
	}
	// A slice grown past its class by get goes back to the largest class
	// it fully covers.
	idx := bucketIndex(c)
	if c < sizes[idx] {
		idx--
	}
	s = s[:c]
	b.pools[idx].Put(&s)
}

var (
	bytePool  = newBucketed[byte]()
	int32Pool = newBucketed[int32]()
)

// Get returns a byte slice of the requested length from the pool. The
// contents are unspecified. The caller must call Put when done.
func Get(size int) []byte { return bytePool.get(size) }

// Put returns a byte slice to the pool. Slices smaller than Size16 are not
// pooled.
func Put(b []byte) { bytePool.put(b) }

// GetInt32 returns an int32 slice of the requested length from the pool.
// The contents are unspecified; transform kernels overwrite every element
// they produce.
func GetInt32(length int) []int32 { return int32Pool.get(length) }

// PutInt32 returns an int32 slice obtained from GetInt32.
func PutInt32(s []int32) { int32Pool.put(s) }

// GetInt32Zeroed is GetInt32 followed by clearing the slice.
func GetInt32Zeroed(length int) []int32 {
	s := int32Pool.get(length)
	clear(s)
	return s
}
