// Package targetctl is the target hint controller: it holds the target the
// next outward trial should use and serves it over HTTP.
package targetctl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"centerout/domain/core"
)

// Hub holds the current target, how often each target was set, and an
// optional looping sequence.
type Hub struct {
	mu      sync.Mutex
	n       int
	current int
	counts  []int
	seq     []int
	pos     int
	subs    map[chan int]struct{}
}

// NewHub creates a hub for n targets. A non-empty seq makes Next walk it,
// starting at its first entry.
func NewHub(n int, seq []int) (*Hub, error) {
	if n <= 0 {
		return nil, core.NewConfigError("targets", "count must be positive")
	}
	for _, i := range seq {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: %d in sequence", core.ErrTargetOutOfRange, i)
		}
	}
	h := &Hub{n: n, counts: make([]int, n), seq: seq, subs: make(map[chan int]struct{})}
	if len(seq) > 0 {
		h.current = seq[0]
	}
	return h, nil
}

// Current returns the target hint.
func (h *Hub) Current() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Set replaces the hint and counts it.
func (h *Hub) Set(i int) error {
	if i < 0 || i >= h.n {
		return fmt.Errorf("%w: %d", core.ErrTargetOutOfRange, i)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setLocked(i)
	return nil
}

// Next advances through the sequence, looping at its end. Without a
// sequence it steps to the next index.
func (h *Hub) Next() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := (h.current + 1) % h.n
	if len(h.seq) > 0 {
		h.pos = (h.pos + 1) % len(h.seq)
		next = h.seq[h.pos]
	}
	h.setLocked(next)
	return next
}

func (h *Hub) setLocked(i int) {
	h.current = i
	h.counts[i]++
	for ch := range h.subs {
		select {
		case ch <- i:
		default:
		}
	}
}

// Counts returns how many times each target was set.
func (h *Hub) Counts() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int, len(h.counts))
	copy(out, h.counts)
	return out
}

// Subscribe returns a channel of hint changes. Slow readers miss updates.
func (h *Hub) Subscribe() (<-chan int, func()) {
	ch := make(chan int, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// ReadSequence parses one target index per line. Blank lines and lines
// starting with '#' are skipped.
func ReadSequence(r io.Reader) ([]int, error) {
	var seq []int
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		i, err := strconv.Atoi(text)
		if err != nil {
			return nil, core.NewConfigError(fmt.Sprintf("targets line %d", line), err.Error())
		}
		seq = append(seq, i)
	}
	return seq, sc.Err()
}

// LoadSequence reads a targets file. An empty path yields no sequence.
func LoadSequence(path string) ([]int, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSequence(f)
}
