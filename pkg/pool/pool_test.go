// Unit tests for object pools

package pool

import (
	"sync"
	"testing"
)

func TestByteBufferPool(t *testing.T) {
	b := GetByteBuffer()
	if b == nil {
		t.Fatal("GetByteBuffer returned nil")
	}

	b.WriteString("gcodeview_lines_total ")
	b.WriteString("42")
	b.WriteByte('\n')

	if got := b.String(); got != "gcodeview_lines_total 42\n" {
		t.Errorf("buffer contents = %q", got)
	}

	PutByteBuffer(b)

	// A pooled buffer must come back empty
	b2 := GetByteBuffer()
	if b2.Len() != 0 {
		t.Errorf("pooled buffer should be empty, got %d bytes", b2.Len())
	}
	PutByteBuffer(b2)
}

func TestByteBufferPoolNil(t *testing.T) {
	// Should not panic
	PutByteBuffer(nil)
}

func TestByteBufferWrite(t *testing.T) {
	b := GetByteBuffer()
	defer PutByteBuffer(b)

	n, err := b.Write([]byte("abc"))
	if err != nil || n != 3 {
		t.Errorf("Write = (%d, %v), want (3, nil)", n, err)
	}

	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", b.Len())
	}
}

func TestByteBufferConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := GetByteBuffer()
				b.WriteString("segment")
				PutByteBuffer(b)
			}
		}()
	}
	wg.Wait()
}
