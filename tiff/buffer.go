package tiff

import "sync"

// rawBuffer is the handle's raw strip and tile buffer. It grows to the
// largest payload seen and is reused for every read.
type rawBuffer struct {
	buf     []byte
	minSize int
	limit   int64 // 0 = unlimited
}

// get returns a buffer of n bytes. Its contents are undefined.
func (b *rawBuffer) get(n int) ([]byte, error) {
	want := max(n, b.minSize)
	if b.limit > 0 && int64(want) > b.limit {
		if int64(n) > b.limit {
			return nil, &MemoryLimitExceededError{Requested: int64(n), Limit: b.limit}
		}
		want = n
	}
	if cap(b.buf) < want {
		b.buf = make([]byte, want)
	}
	return b.buf[:n], nil
}

func (b *rawBuffer) release() { b.buf = nil }

// SetupReadBuffer sets the minimum size of the raw strip buffer. The
// buffer is allocated on the next read.
func (f *File) SetupReadBuffer(size int) {
	f.raw.minSize = size
	f.raw.buf = nil
}

// SetMaxBufferSize changes the raw buffer ceiling and returns the old one.
// 0 means unlimited.
func (f *File) SetMaxBufferSize(limit int64) int64 {
	old := f.raw.limit
	f.raw.limit = limit
	return old
}

// scratchSizes are the pooled scratch buffer classes.
var scratchSizes = []int{
	4 << 10,
	16 << 10,
	64 << 10,
	256 << 10,
	1 << 20,
}

var scratchPools = func() []*sync.Pool {
	pools := make([]*sync.Pool, len(scratchSizes))
	for i, size := range scratchSizes {
		pools[i] = &sync.Pool{New: func() any {
			b := make([]byte, size)
			return &b
		}}
	}
	return pools
}()

// getScratch returns a buffer of n bytes for short-lived encode copies.
// Release it with putScratch.
func getScratch(n int) *[]byte {
	for i, size := range scratchSizes {
		if n <= size {
			p := scratchPools[i].Get().(*[]byte)
			*p = (*p)[:n]
			return p
		}
	}
	b := make([]byte, n)
	return &b
}

func putScratch(p *[]byte) {
	c := cap(*p)
	for i, size := range scratchSizes {
		if c == size {
			*p = (*p)[:size]
			scratchPools[i].Put(p)
			return
		}
	}
}
