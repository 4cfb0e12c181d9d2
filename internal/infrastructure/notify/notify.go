package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

type Toast struct {
	ID          string    `json:"id"`
	Variant     Variant   `json:"variant"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// Announcement is a message meant for a screen-reader live region.
type Announcement struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier is what the API client and the services emit toasts through.
type Notifier interface {
	Success(title, description string)
	Error(title, description string)
}

// Center keeps the most recent toasts and announcements in memory and fans
// every new toast out to subscribers. Slow subscribers miss toasts rather
// than block the emitter.
type Center struct {
	mu            sync.Mutex
	limit         int
	toasts        []Toast
	announcements []Announcement
	subs          map[int]chan Toast
	nextSub       int
	now           func() time.Time
}

func NewCenter(limit int) *Center {
	if limit <= 0 {
		limit = 50
	}
	return &Center{
		limit: limit,
		subs:  make(map[int]chan Toast),
		now:   time.Now,
	}
}

func (c *Center) Success(title, description string) {
	c.push(VariantDefault, title, description)
}

func (c *Center) Error(title, description string) {
	c.push(VariantDestructive, title, description)
}

func (c *Center) push(variant Variant, title, description string) {
	t := Toast{
		ID:          uuid.NewString(),
		Variant:     variant,
		Title:       title,
		Description: description,
		At:          c.now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.toasts = append(c.toasts, t)
	if len(c.toasts) > c.limit {
		c.toasts = c.toasts[len(c.toasts)-c.limit:]
	}
	for _, ch := range c.subs {
		select {
		case ch <- t:
		default:
		}
	}
}

// Announce records a live-region message. Identical consecutive messages are
// kept once.
func (c *Center) Announce(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.announcements); n > 0 && c.announcements[n-1].Message == message {
		return
	}
	c.announcements = append(c.announcements, Announcement{Message: message, At: c.now()})
	if len(c.announcements) > c.limit {
		c.announcements = c.announcements[len(c.announcements)-c.limit:]
	}
}

// Recent returns copies of the stored toasts and announcements, oldest first.
func (c *Center) Recent() ([]Toast, []Announcement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	toasts := make([]Toast, len(c.toasts))
	copy(toasts, c.toasts)
	ann := make([]Announcement, len(c.announcements))
	copy(ann, c.announcements)
	return toasts, ann
}

// Subscribe returns a buffered channel of new toasts and a cancel func.
func (c *Center) Subscribe(buffer int) (<-chan Toast, func()) {
	ch := make(chan Toast, buffer)
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}
