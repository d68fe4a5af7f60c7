package session

import "time"

// Pacing is the user-set playback speed. Only the rendering collaborator
// gives it meaning.
type Pacing int

const (
	MinPacing     Pacing = 20
	MaxPacing     Pacing = 100
	DefaultPacing Pacing = 30
)

// Clamp bounds p to [MinPacing, MaxPacing].
func (p Pacing) Clamp() Pacing {
	return min(max(p, MinPacing), MaxPacing)
}

// UnitDuration is how long a renderer that has no timing of its own should
// hold a single unit, reading pacing as units per minute.
func (p Pacing) UnitDuration() time.Duration {
	return time.Minute / time.Duration(p.Clamp())
}
