package rastergrid

import "sync"

// Size-classed byte buffer pools for decode windows. Windowed decodes churn
// through buffers proportional to destW*destH*bands; pooling the common
// sizes keeps GC pressure down on repeated reads.

const (
	smallBufferSize  = 64 * 1024
	mediumBufferSize = 1024 * 1024
	largeBufferSize  = 16 * 1024 * 1024
)

var bufferPools = [...]struct {
	size int
	pool sync.Pool
}{
	{size: smallBufferSize},
	{size: mediumBufferSize},
	{size: largeBufferSize},
}

// GetBuffer returns a byte slice of exactly the requested length, backed by
// a pooled allocation when the size fits a class. Return it with PutBuffer
// when done. Contents are not zeroed.
func GetBuffer(size int) []byte {
	for i := range bufferPools {
		if size <= bufferPools[i].size {
			if v := bufferPools[i].pool.Get(); v != nil {
				return (*(v.(*[]byte)))[:size]
			}
			return make([]byte, size, bufferPools[i].size)
		}
	}
	return make([]byte, size)
}

// PutBuffer returns a buffer obtained from GetBuffer to its pool. Buffers
// with non-class capacities are left for the GC.
func PutBuffer(buf []byte) {
	c := cap(buf)
	for i := range bufferPools {
		if c == bufferPools[i].size {
			buf = buf[:c]
			bufferPools[i].pool.Put(&buf)
			return
		}
	}
}
