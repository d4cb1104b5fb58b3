package replay

import (
	"errors"
	"sync"
	"time"

	"backend-fitlog/internal/run"
)

var (
	ErrNoWaypoints = errors.New("run has no waypoints to replay")
	ErrBadSpeed    = errors.New("unsupported playback speed")
	ErrClosed      = errors.New("player closed")
)

const baseFrameInterval = 100 * time.Millisecond

// Frame is one cursor position emitted during playback or scrubbing.
type Frame struct {
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Playing  bool         `json:"playing"`
	Waypoint run.Waypoint `json:"waypoint"`
}

// Player walks a recorded waypoint trail. Autoplay advances the cursor on a
// ticker; scrubbing moves it directly and cancels any autoplay in flight.
type Player struct {
	mu        sync.Mutex
	waypoints []run.Waypoint
	cursor    int
	playing   bool
	cancel    chan struct{}
	frames    chan Frame
	closed    bool
}

func NewPlayer(waypoints []run.Waypoint) (*Player, error) {
	if len(waypoints) == 0 {
		return nil, ErrNoWaypoints
	}
	return &Player{
		waypoints: waypoints,
		frames:    make(chan Frame, 64),
	}, nil
}

// Frames delivers cursor updates. Slow consumers drop frames rather than
// stalling playback.
func (p *Player) Frames() <-chan Frame { return p.frames }

// Cursor reports the current position.
func (p *Player) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Playing reports whether autoplay is running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Scrub moves the cursor to index, clamped to the trail, and cancels autoplay.
func (p *Player) Scrub(index int) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.stopLocked()
	if index < 0 {
		index = 0
	}
	if index > len(p.waypoints)-1 {
		index = len(p.waypoints) - 1
	}
	p.cursor = index
	p.emitLocked()
	p.mu.Unlock()
	return nil
}

// Play starts autoplay at the given speed multiplier. Playing from the end of
// the trail rewinds to the start first.
func (p *Player) Play(speed int) error {
	switch speed {
	case 1, 2, 5, 10:
	default:
		return ErrBadSpeed
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.stopLocked()

	if p.cursor >= len(p.waypoints)-1 {
		p.cursor = 0
	}
	p.playing = true
	p.cancel = make(chan struct{})
	p.emitLocked()

	go p.advanceLoop(p.cancel, baseFrameInterval/time.Duration(speed))
	return nil
}

// Stop cancels autoplay. The cursor keeps its position.
func (p *Player) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.emitLocked()
	p.mu.Unlock()
}

// Close stops playback and releases the frame channel.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.stopLocked()
	p.closed = true
	close(p.frames)
}

func (p *Player) advanceLoop(cancel chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if done := p.advance(cancel); done {
				return
			}
		}
	}
}

// advance moves the cursor one step; at the last waypoint autoplay ends
// without wrapping.
func (p *Player) advance(cancel chan struct{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != cancel {
		// A scrub or a later Play superseded this loop.
		return true
	}
	p.cursor++
	if p.cursor >= len(p.waypoints)-1 {
		p.cursor = len(p.waypoints) - 1
		p.stopLocked()
		p.emitLocked()
		return true
	}
	p.emitLocked()
	return false
}

func (p *Player) stopLocked() {
	if p.playing {
		close(p.cancel)
		p.cancel = nil
		p.playing = false
	}
}

func (p *Player) emitLocked() {
	if p.closed {
		return
	}
	frame := Frame{
		Index:    p.cursor,
		Total:    len(p.waypoints),
		Playing:  p.playing,
		Waypoint: p.waypoints[p.cursor],
	}
	select {
	case p.frames <- frame:
	default:
	}
}
