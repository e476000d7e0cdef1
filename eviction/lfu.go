// This file implements LFU eviction.

package eviction

import orderedmap "github.com/wk8/go-ordered-map/v2"

type lfu struct {
	// freq is the read count of every tracked key.
	freq map[any]int

	// buckets groups keys by count. Each bucket keeps insertion order so ties
	// evict the key that reached that count first.
	buckets map[int]*orderedmap.OrderedMap[any, struct{}]

	// minFreq is the smallest count currently present. It avoids scanning on eviction.
	minFreq int
}

func newLFU() *lfu {
	return &lfu{
		freq:    make(map[any]int),
		buckets: make(map[int]*orderedmap.OrderedMap[any, struct{}]),
	}
}

func (l *lfu) OnGet(key any) {
	old, ok := l.freq[key]
	if !ok {
		return
	}
	l.unlink(key, old)
	if _, still := l.buckets[old]; !still && l.minFreq == old {
		l.minFreq = old + 1
	}
	l.freq[key] = old + 1
	l.link(key, old+1)
}

// OnPut starts new keys at a count of 1.
func (l *lfu) OnPut(key any) {
	if _, ok := l.freq[key]; ok {
		return
	}
	l.freq[key] = 1
	l.link(key, 1)
	l.minFreq = 1
}

func (l *lfu) Evict() (any, bool) {
	if len(l.freq) == 0 {
		return nil, false
	}
	b, ok := l.buckets[l.minFreq]
	if !ok {
		// minFreq is stale after a Remove; recompute it.
		l.minFreq = l.lowest()
		b = l.buckets[l.minFreq]
	}
	key := b.Oldest().Key
	l.unlink(key, l.minFreq)
	delete(l.freq, key)
	return key, true
}

func (l *lfu) Remove(key any) {
	n, ok := l.freq[key]
	if !ok {
		return
	}
	l.unlink(key, n)
	delete(l.freq, key)
}

func (l *lfu) Len() int {
	return len(l.freq)
}

func (l *lfu) link(key any, n int) {
	b, ok := l.buckets[n]
	if !ok {
		b = orderedmap.New[any, struct{}]()
		l.buckets[n] = b
	}
	b.Set(key, struct{}{})
}

func (l *lfu) unlink(key any, n int) {
	b, ok := l.buckets[n]
	if !ok {
		return
	}
	b.Delete(key)
	if b.Len() == 0 {
		delete(l.buckets, n)
	}
}

func (l *lfu) lowest() int {
	lowest := 0
	for n := range l.buckets {
		if lowest == 0 || n < lowest {
			lowest = n
		}
	}
	return lowest
}
