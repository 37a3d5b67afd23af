package view

import (
	"slices"
	"sync"
	"time"
)

type Phase string

const (
	PhaseEmpty   Phase = "empty"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
)

type Entry struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Snippet     string    `json:"snippet"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Snapshot is a copy of the display taken under lock.
type Snapshot struct {
	Phase        Phase     `json:"phase"`
	Index        int       `json:"index"`
	LoadingIndex int       `json:"loading_index"`
	Title        string    `json:"title"`
	Entries      []Entry   `json:"entries"`
	LoadedAt     time.Time `json:"loaded_at"`
	Version      uint64    `json:"version"`
}

// Equivalent reports whether both snapshots show the same feed content.
func (s Snapshot) Equivalent(other Snapshot) bool {
	return s.Index == other.Index &&
		s.Title == other.Title &&
		slices.EqualFunc(s.Entries, other.Entries, func(a, b Entry) bool {
			return a.Title == b.Title &&
				a.Link == b.Link &&
				a.Snippet == b.Snippet &&
				a.Author == b.Author &&
				a.PublishedAt.Equal(b.PublishedAt)
		})
}

// Display holds the currently shown feed. Content changes only through
// BeginLoad / Complete / Abort.
type Display struct {
	mu           sync.RWMutex
	phase        Phase
	settled      Phase
	index        int
	loadingIndex int
	title        string
	entries      []Entry
	loadedAt     time.Time
	version      uint64
}

func NewDisplay() *Display {
	return &Display{
		phase:        PhaseEmpty,
		settled:      PhaseEmpty,
		index:        -1,
		loadingIndex: -1,
	}
}

// BeginLoad moves the display into Loading(index). The previous content stays
// visible until Complete.
func (d *Display) BeginLoad(index int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.phase = PhaseLoading
	d.loadingIndex = index
}

// Complete replaces title and entries and moves to Loaded(index).
func (d *Display) Complete(index int, title string, entries []Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.phase = PhaseLoaded
	d.settled = PhaseLoaded
	d.index = index
	d.loadingIndex = -1
	d.title = title
	d.entries = slices.Clone(entries)
	d.loadedAt = time.Now().UTC()
	d.version++
}

// Abort returns to the phase before BeginLoad, keeping the previous content.
func (d *Display) Abort(index int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase != PhaseLoading || d.loadingIndex != index {
		return
	}
	d.phase = d.settled
	d.loadingIndex = -1
}

func (d *Display) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries := slices.Clone(d.entries)
	if entries == nil {
		entries = []Entry{}
	}

	return Snapshot{
		Phase:        d.phase,
		Index:        d.index,
		LoadingIndex: d.loadingIndex,
		Title:        d.title,
		Entries:      entries,
		LoadedAt:     d.loadedAt,
		Version:      d.version,
	}
}
