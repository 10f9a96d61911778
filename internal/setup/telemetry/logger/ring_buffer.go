package logger

// RingBuffer keeps the most recent lines up to a fixed capacity.
type RingBuffer struct {
	lines []string
	next  int
	full  bool
}

// NewRingBuffer creates a buffer holding at most capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{lines: make([]string, max(capacity, 1))}
}

// Add appends a line, dropping the oldest one when full.
func (rb *RingBuffer) Add(line string) {
	rb.lines[rb.next] = line
	rb.next = (rb.next + 1) % len(rb.lines)
	if rb.next == 0 {
		rb.full = true
	}
}

// Len returns the number of buffered lines.
func (rb *RingBuffer) Len() int {
	if rb.full {
		return len(rb.lines)
	}
	return rb.next
}

// Cap returns the buffer capacity.
func (rb *RingBuffer) Cap() int {
	return len(rb.lines)
}

// Lines returns the buffered lines oldest first.
func (rb *RingBuffer) Lines() []string {
	if !rb.full {
		return append([]string(nil), rb.lines[:rb.next]...)
	}

	result := make([]string, 0, len(rb.lines))
	result = append(result, rb.lines[rb.next:]...)
	return append(result, rb.lines[:rb.next]...)
}
