package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// drinkWords is the vocabulary table passwords are drawn from. Short and
// easy to read aloud across the counter.
var drinkWords = []string{
	"latte", "mocha", "espresso", "americano", "cappuccino", "turkkahvesi",
	"sutlu", "filtrekahve", "cay", "nane", "limonata", "portakalsuyu",
	"elmasuyu", "visne", "soda", "kola", "fanta", "ayran", "salep",
	"sicakcikolata", "meyvesuyu", "icecek", "kahve", "su", "madensuyu",
	"limon", "cilek", "muz", "sogukcay",
}

// PasswordSource produces table passwords.
type PasswordSource interface {
	Next(now time.Time) string
}

// WordPasswords builds "<month+day><word><01-99>", e.g. "07latte42".
type WordPasswords struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewWordPasswords(seed int64) *WordPasswords {
	return &WordPasswords{rnd: rand.New(rand.NewSource(seed))}
}

func (w *WordPasswords) Next(now time.Time) string {
	w.mu.Lock()
	word := drinkWords[w.rnd.Intn(len(drinkWords))]
	suffix := w.rnd.Intn(99) + 1
	w.mu.Unlock()

	prefix := int(now.Month()) + now.Day()
	return fmt.Sprintf("%02d%s%02d", prefix, word, suffix)
}

// FixedPasswords hands out the given passwords in order and then repeats the
// last one. Used to pin passwords in tests and demos.
type FixedPasswords struct {
	mu   sync.Mutex
	list []string
	i    int
}

func NewFixedPasswords(list ...string) *FixedPasswords {
	return &FixedPasswords{list: list}
}

func (f *FixedPasswords) Next(time.Time) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.list) == 0 {
		return ""
	}
	pw := f.list[f.i]
	if f.i < len(f.list)-1 {
		f.i++
	}
	return pw
}
