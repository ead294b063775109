package audio

import "time"

type Op int

const (
	OpPlay Op = iota
	OpPause
	OpResume
	OpStop
)

func (o Op) String() string {
	switch o {
	case OpPlay:
		return "play"
	case OpPause:
		return "pause"
	case OpResume:
		return "resume"
	case OpStop:
		return "stop"
	}
	return "unknown"
}

// Command is a side effect for the playback driver.
type Command struct {
	Op       Op
	Source   string
	Position time.Duration
	// Trigger is set for play and resume.
	Trigger *Trigger
}

func play(t Trigger) Command {
	return Command{Op: OpPlay, Source: t.Source, Trigger: &t}
}

func resume(p PausedMurottal) Command {
	t := p.Trigger
	return Command{Op: OpResume, Source: t.Source, Position: p.Position, Trigger: &t}
}
