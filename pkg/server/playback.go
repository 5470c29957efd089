package server

import "sync"

// playbackState is a snapshot of the playback clock at one tick.
type playbackState struct {
	Playing  bool    `json:"playing"`
	Speed    float64 `json:"speed"`
	Elapsed  float64 `json:"elapsed"`
	Traveled float64 `json:"traveled"`
	Segment  int     `json:"segment"`
	Progress float64 `json:"progress"`
	Done     bool    `json:"done"`
}

// player is the playback clock for the active document. The broadcast
// loop advances it; websocket commands control it.
type player struct {
	mu       sync.Mutex
	playing  bool
	speed    float64
	elapsed  float64 // playback seconds, already speed-scaled
	traveled float64 // cut distance consumed, mm
}

func newPlayer() *player {
	return &player{speed: 1}
}

// reset rewinds to the start and pauses.
func (p *player) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.elapsed = 0
	p.traveled = 0
}

func (p *player) play()  { p.mu.Lock(); p.playing = true; p.mu.Unlock() }
func (p *player) pause() { p.mu.Lock(); p.playing = false; p.mu.Unlock() }

// setSpeed clamps the multiplier to a sane positive range.
func (p *player) setSpeed(speed float64) float64 {
	if speed <= 0 {
		speed = 1
	} else if speed > 100 {
		speed = 100
	}
	p.mu.Lock()
	p.speed = speed
	p.mu.Unlock()
	return speed
}

// seek jumps to a cut-distance offset and recomputes the matching
// elapsed time proportionally.
func (p *player) seek(traveled float64, doc *Document) {
	if traveled < 0 {
		traveled = 0
	}
	total := doc.Index.TotalDistance()
	if total > 0 && traveled > total {
		traveled = total
	}

	p.mu.Lock()
	p.traveled = traveled
	if total > 0 {
		p.elapsed = doc.Report.TotalSeconds * (traveled / total)
	}
	p.mu.Unlock()
}

// advance moves the clock by dt wall-clock seconds and returns the
// located playback state. Distance advances proportionally to the time
// share of the estimate, so seeking and playing stay consistent.
func (p *player) advance(dt float64, doc *Document) playbackState {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := doc.Report.TotalSeconds
	if p.playing && dt > 0 {
		p.elapsed += dt * p.speed
		if total > 0 && p.elapsed > total {
			p.elapsed = total
		}
		if total > 0 {
			p.traveled = doc.Index.TotalDistance() * (p.elapsed / total)
		}
	}

	loc := doc.Index.Locate(p.traveled, p.elapsed, p.speed)
	done := total > 0 && p.elapsed >= total
	if done {
		p.playing = false
	}

	return playbackState{
		Playing:  p.playing,
		Speed:    p.speed,
		Elapsed:  p.elapsed,
		Traveled: p.traveled,
		Segment:  loc.Segment,
		Progress: loc.Progress,
		Done:     done,
	}
}

// snapshot locates the current state without advancing the clock.
func (p *player) snapshot(doc *Document) playbackState {
	return p.advance(0, doc)
}
