package game

// DefaultTickRate is the session loop frequency in ticks per second.
const DefaultTickRate = 20

// SecsToTicks converts a duration in seconds to ticks at rate. Any
// positive duration is at least one tick.
func SecsToTicks(s float64, rate int) int {
	if s <= 0 {
		return 0
	}
	t := int(s * float64(rate))
	if t < 1 {
		t = 1
	}
	return t
}

// Timing defaults, in seconds.
const (
	DefaultMoveRepeat = 0.15 // min time between moves when holding a key
	MessageDuration   = 4.0  // how long an announcement stays on the HUD
)

// DefaultThinkSpeed is the number of ticks between wander steps for an
// NPC whose props carry no thinkSpeed.
const DefaultThinkSpeed = 10

// InputChanSize bounds the queued commands per session.
const InputChanSize = 64
