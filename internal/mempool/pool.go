// Package mempool pools the tensor and mask buffers allocated for every image
// and every recognized region.
package mempool

import (
	"sync"
)

var (
	float32Pools sync.Map // key: size class (int), value: *sync.Pool
	boolPools    sync.Map // key: size class (int), value: *sync.Pool
)

const classStep = 1024

// sizeClass rounds n up to the next multiple of 1024.
func sizeClass(n int) int {
	if n <= classStep {
		return classStep
	}
	return (n + classStep - 1) / classStep * classStep
}

func pool[T any](pools *sync.Map, cls int) *sync.Pool {
	if p, ok := pools.Load(cls); ok {
		return p.(*sync.Pool) //nolint:forcetypeassert
	}
	p, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	return p.(*sync.Pool) //nolint:forcetypeassert
}

func get[T any](pools *sync.Map, n int) []T {
	if n <= 0 {
		return nil
	}
	cls := sizeClass(n)
	buf, ok := pool[T](pools, cls).Get().([]T)
	if !ok || cap(buf) < cls {
		buf = make([]T, cls)
	}
	return buf[:n]
}

func put[T any](pools *sync.Map, buf []T) {
	if cap(buf) < classStep || cap(buf)%classStep != 0 {
		// Not from the pool.
		return
	}
	pool[T](pools, cap(buf)).Put(buf[:cap(buf)]) //nolint:staticcheck
}

// GetFloat32 returns a buffer of length n. Its contents are undefined; the
// caller must overwrite every element and hand it back with PutFloat32.
func GetFloat32(n int) []float32 {
	return get[float32](&float32Pools, n)
}

// PutFloat32 returns a buffer to the pool. It is safe to pass a nil slice.
func PutFloat32(buf []float32) {
	put(&float32Pools, buf)
}

// GetBool returns a zeroed buffer of length n.
func GetBool(n int) []bool {
	buf := get[bool](&boolPools, n)
	clear(buf)
	return buf
}

// PutBool returns a buffer to the pool. It is safe to pass a nil slice.
func PutBool(buf []bool) {
	put(&boolPools, buf)
}
