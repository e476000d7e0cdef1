// This file implements FIFO eviction.

package eviction

import orderedmap "github.com/wk8/go-ordered-map/v2"

type fifo struct {
	// queue keeps keys in the order they were first inserted, oldest first.
	queue *orderedmap.OrderedMap[any, struct{}]
}

func newFIFO() *fifo {
	return &fifo{queue: orderedmap.New[any, struct{}]()}
}

func (f *fifo) OnGet(any) {}

// OnPut only records the first insertion; rewriting a key keeps its place.
func (f *fifo) OnPut(key any) {
	if _, ok := f.queue.Get(key); ok {
		return
	}
	f.queue.Set(key, struct{}{})
}

func (f *fifo) Evict() (any, bool) {
	oldest := f.queue.Oldest()
	if oldest == nil {
		return nil, false
	}
	f.queue.Delete(oldest.Key)
	return oldest.Key, true
}

func (f *fifo) Remove(key any) {
	f.queue.Delete(key)
}

func (f *fifo) Len() int {
	return f.queue.Len()
}
