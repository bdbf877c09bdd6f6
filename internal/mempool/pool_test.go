package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1, 1024},
		{1024, 1024},
		{1025, 2048},
		{3 * 48 * 320, 46080},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sizeClass(tt.n), "n=%d", tt.n)
	}
}

func TestGetFloat32(t *testing.T) {
	buf := GetFloat32(100)
	assert.Len(t, buf, 100)
	assert.GreaterOrEqual(t, cap(buf), 1024)
	PutFloat32(buf)

	assert.Nil(t, GetFloat32(0))
	assert.NotPanics(t, func() { PutFloat32(nil) })
	// Foreign slices are ignored.
	assert.NotPanics(t, func() { PutFloat32(make([]float32, 10)) })
}

func TestGetBoolIsZeroed(t *testing.T) {
	buf := GetBool(2000)
	for i := range buf {
		buf[i] = true
	}
	PutBool(buf)

	for range 10 {
		again := GetBool(1500)
		assert.Len(t, again, 1500)
		for i, v := range again {
			if v {
				t.Fatalf("element %d not cleared", i)
			}
		}
		PutBool(again)
	}
}

func TestConcurrentUse(t *testing.T) {
	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := range 100 {
				buf := GetFloat32(512 + i*37)
				for j := range buf {
					buf[j] = float32(j)
				}
				PutFloat32(buf)
			}
		}()
	}
	for range 8 {
		<-done
	}
}
