package broadcast

// queue is a FIFO ring that doubles its capacity when it reaches 70% full.
// A positive limit caps the depth; pushing onto a full queue evicts the
// oldest element. Not safe for concurrent use; Subscription guards it.
type queue[T any] struct {
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	limit    int // 0 = unbounded

	resizeCount int
}

func newQueue[T any](initialCapacity, limit int) *queue[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	if limit > 0 && initialCapacity > limit {
		initialCapacity = limit
	}
	return &queue[T]{
		buf:      make([]T, initialCapacity),
		capacity: initialCapacity,
		limit:    limit,
	}
}

// push appends item. Reports whether an older element was evicted to make room.
func (q *queue[T]) push(item T) (evicted bool) {
	if q.limit > 0 && q.count >= q.limit {
		q.pop()
		evicted = true
	}

	threshold := (q.capacity * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if q.count+1 >= threshold && (q.limit == 0 || q.capacity < q.limit) {
		q.grow()
	}

	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % q.capacity
	q.count++
	return evicted
}

// pop removes and returns the oldest element.
func (q *queue[T]) pop() (T, bool) {
	var zero T
	if q.count == 0 {
		return zero, false
	}
	item := q.buf[q.head]
	q.buf[q.head] = zero // release reference
	q.head = (q.head + 1) % q.capacity
	q.count--
	return item, true
}

func (q *queue[T]) len() int {
	return q.count
}

// grow doubles the capacity, clamped to limit.
func (q *queue[T]) grow() {
	newCapacity := q.capacity * 2
	if q.limit > 0 && newCapacity > q.limit {
		newCapacity = q.limit
	}
	newBuf := make([]T, newCapacity)

	if q.count > 0 {
		if q.head < q.tail {
			copy(newBuf, q.buf[q.head:q.tail])
		} else {
			n := copy(newBuf, q.buf[q.head:])
			copy(newBuf[n:], q.buf[:q.tail])
		}
	}

	q.buf = newBuf
	q.head = 0
	q.tail = q.count % newCapacity
	q.capacity = newCapacity
	q.resizeCount++
}
