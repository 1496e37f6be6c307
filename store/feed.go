package store

import (
	"sync"
	"time"
)

type subscriber struct {
	coll string
	ch   chan Change
}

type feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

func newFeed() *feed {
	return &feed{subs: make(map[int]*subscriber)}
}

func (f *feed) subscribe(coll string) (int, <-chan Change) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	sub := &subscriber{coll: coll, ch: make(chan Change, 1)}
	f.subs[f.nextID] = sub
	return f.nextID, sub.ch
}

func (f *feed) unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sub, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(sub.ch)
	}
}

func (f *feed) publish(colls ...string) {
	if len(colls) == 0 {
		return
	}
	touched := make(map[string]bool, len(colls))
	for _, c := range colls {
		touched[c] = true
	}

	now := time.Now()
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subs {
		if !touched[sub.coll] {
			continue
		}
		// buffer 1: kalau sudah ada notifikasi yang belum dibaca, cukup itu saja
		select {
		case sub.ch <- Change{Collection: sub.coll, At: now}:
		default:
		}
	}
}
