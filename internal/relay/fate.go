package relay

import "time"

const (
	fateProgressTolerance = 10.0
	fateDuplicateWindow   = 15 * time.Minute

	// fateStatusGrace is how long past the computed end time a running
	// event keeps its status before degrading to unknown.
	fateStatusGrace = 15 * time.Second
)

// FateStatus is the lifecycle state of a world event.
type FateStatus uint8

const (
	FateStatusUnknown FateStatus = iota
	FateStatusPreparation
	FateStatusRunning
	FateStatusComplete
	FateStatusFailed
)

var fateStatusNames = [...]string{"unknown", "preparation", "running", "complete", "failed"}

func (s FateStatus) String() string {
	if int(s) < len(fateStatusNames) {
		return fateStatusNames[s]
	}
	return "unknown"
}

// Fate is a timed world-event report. StartTime and Duration are in
// milliseconds since the Unix epoch, as the game client reports them.
type Fate struct {
	Progress  uint8
	Status    FateStatus
	StartTime float64
	Duration  float64
	Players   int
}

// EndTime is the computed event end in epoch milliseconds.
func (f *Fate) EndTime() float64 {
	return f.StartTime + f.Duration
}

// StatusAt re-derives the reported status lazily. A running event that
// reached full progress reads as complete; one whose end time passed more
// than the grace period ago without a fresh report reads as unknown, not as
// explicitly closed. Never fails: missing data degrades to the stored value.
func (f *Fate) StatusAt(now time.Time) FateStatus {
	if f.Status != FateStatusRunning {
		return f.Status
	}
	if f.Progress >= 100 {
		return FateStatusComplete
	}
	if f.StartTime != 0 {
		sinceEnd := float64(now.UnixMilli()) - f.EndTime()
		if sinceEnd > float64(fateStatusGrace.Milliseconds()) {
			return FateStatusUnknown
		}
	}
	return FateStatusRunning
}

func (f *Fate) mergeFrom(incoming *Fate, dead bool) {
	if dead || incoming.Players > f.Players {
		f.Players = incoming.Players
	}
	f.Progress = incoming.Progress
	f.Duration = incoming.Duration
	f.Status = incoming.Status
	// A started event assigns the identity a preparation-phase report was
	// still missing; a zero incoming start never erases a known one.
	if incoming.StartTime != 0 {
		f.StartTime = incoming.StartTime
	}
}

// NewFate builds a world-event relay snapshot.
func NewFate(place Place, eventID uint32, fate Fate) *Relay {
	return &Relay{Kind: KindFate, Place: place, ID: eventID, Fate: &fate}
}
