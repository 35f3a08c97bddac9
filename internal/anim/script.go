package anim

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/wethinkt/go-yesand/internal/token"
)

// ScriptLine is one line of a scripted sequence.
type ScriptLine struct {
	Text  string
	Speed time.Duration // delay between typewriter ticks
	Step  int           // runes revealed per tick

	// NoBreak joins this line with an immediately following Inline line on
	// one row.
	NoBreak bool
	Inline  bool

	// Pause, when positive, makes this a silent line that only waits.
	Pause time.Duration
}

// IsPause reports whether the line waits instead of typing.
func (l ScriptLine) IsPause() bool { return l.Pause > 0 }

// ScriptDoneMsg is emitted once, when the script has played through and the
// readiness condition holds.
type ScriptDoneMsg struct {
	Token token.Token
}

type scriptPauseMsg struct {
	Token token.Token
	Run   uint64
}

// unit is one row of the script: a single line, or a noBreak line and the
// inline line that follows it.
type unit struct {
	first  int
	second int // -1 for a single line
}

// Row is one rendered row of the transcript.
type Row struct {
	Segments []string
	Typing   bool // the row holds the line being typed
	Waiting  bool // synthetic row shown while parked
}

// Sequencer drives a script one unit at a time. Its position is (unit,
// slot): slot 1 is the inline member of a pair, so a pair is only left once
// both members have completed.
type Sequencer struct {
	tok    token.Token
	clock  Clock
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	tw     *Typewriter

	loaded  bool
	subject string
	lines   []ScriptLine
	units   []unit
	unit    int
	slot    int
	run     uint64
	ready   bool
	done    bool
}

// NewSequencer returns an empty sequencer. Its timers stop when ctx is done.
func NewSequencer(ctx context.Context, tok token.Token, clock Clock) *Sequencer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Sequencer{
		tok:    tok,
		clock:  clock,
		parent: ctx,
		tw:     NewTypewriter(ctx, tok, clock),
	}
}

// Load installs a script. A new subject restarts from the first line; the
// same subject keeps its position, so a script rebuilt with more lines picks
// up where it parked. ready is the external condition that must hold before
// completion is reported.
func (s *Sequencer) Load(subject string, lines []ScriptLine, ready bool) tea.Cmd {
	if !s.loaded || subject != s.subject {
		s.loaded = true
		s.subject = subject
		s.lines = lines
		s.units = groupUnits(lines)
		s.unit, s.slot = 0, 0
		s.ready = ready
		s.done = false
		return s.startActive()
	}

	parked := s.Parked()
	s.lines = lines
	s.units = groupUnits(lines)
	s.ready = ready
	if parked {
		return s.startActive()
	}
	return nil
}

// Update routes this sequencer's ticks. Typewriter completion is observed
// directly rather than through TypewriterDoneMsg.
func (s *Sequencer) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case TypewriterTickMsg:
		if msg.Token != s.tok {
			return nil
		}
		wasDone := s.tw.Done()
		cmd := s.tw.Update(msg)
		if !wasDone && s.tw.Done() {
			return s.advance()
		}
		return cmd

	case scriptPauseMsg:
		if msg.Token != s.tok || msg.Run != s.run || s.unit >= len(s.units) {
			return nil
		}
		if !s.lines[s.activeIndex()].IsPause() {
			return nil
		}
		return s.advance()
	}
	return nil
}

// Stop cancels any pending tick or pause.
func (s *Sequencer) Stop() {
	s.tw.Stop()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Active returns the index of the line being played, or -1 when past the end.
func (s *Sequencer) Active() int {
	if s.unit >= len(s.units) {
		return -1
	}
	return s.activeIndex()
}

// Unit returns the index of the current unit.
func (s *Sequencer) Unit() int { return s.unit }

// Parked reports whether the script has played out but is not yet ready.
func (s *Sequencer) Parked() bool {
	return s.loaded && s.unit >= len(s.units) && !s.done
}

// Done reports whether completion has been emitted.
func (s *Sequencer) Done() bool { return s.done }

// Subject returns the subject of the loaded script.
func (s *Sequencer) Subject() string { return s.subject }

// Rows returns every row at or before the current position.
func (s *Sequencer) Rows() []Row {
	var rows []Row
	for i, u := range s.units {
		if i > s.unit {
			break
		}
		current := i == s.unit
		first := s.lines[u.first]
		if u.second < 0 {
			if first.IsPause() {
				continue
			}
			rows = append(rows, Row{Segments: []string{s.lineText(u.first, current)}, Typing: current})
			continue
		}
		row := Row{Segments: []string{s.lineText(u.first, current && s.slot == 0)}, Typing: current}
		if !current || s.slot == 1 {
			row.Segments = append(row.Segments, s.lineText(u.second, current))
		}
		rows = append(rows, row)
	}
	if s.Parked() {
		rows = append(rows, Row{Waiting: true})
	}
	return rows
}

// Transcript lays out every line of a script fully typed, the way Rows
// shows it once the script has played through.
func Transcript(lines []ScriptLine) []Row {
	var rows []Row
	for _, u := range groupUnits(lines) {
		first := lines[u.first]
		if first.IsPause() {
			continue
		}
		row := Row{Segments: []string{first.Text}}
		if u.second >= 0 {
			row.Segments = append(row.Segments, lines[u.second].Text)
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Sequencer) lineText(idx int, typing bool) string {
	if typing {
		return s.tw.View()
	}
	return s.lines[idx].Text
}

func (s *Sequencer) activeIndex() int {
	u := s.units[s.unit]
	if s.slot == 1 {
		return u.second
	}
	return u.first
}

func (s *Sequencer) advance() tea.Cmd {
	u := s.units[s.unit]
	if s.slot == 0 && u.second >= 0 {
		s.slot = 1
	} else {
		s.unit++
		s.slot = 0
	}
	return s.startActive()
}

func (s *Sequencer) startActive() tea.Cmd {
	s.Stop()
	if s.unit >= len(s.units) {
		if s.ready && !s.done {
			s.done = true
			done := ScriptDoneMsg{Token: s.tok}
			return func() tea.Msg { return done }
		}
		return nil
	}

	s.run++
	line := s.lines[s.activeIndex()]
	if line.IsPause() {
		s.ctx, s.cancel = context.WithCancel(s.parent)
		return s.clock.After(s.ctx, line.Pause, scriptPauseMsg{Token: s.tok, Run: s.run})
	}
	return s.tw.Start(line.Text, line.Speed, line.Step)
}

func groupUnits(lines []ScriptLine) []unit {
	var units []unit
	for i := 0; i < len(lines); i++ {
		if lines[i].NoBreak && !lines[i].IsPause() && i+1 < len(lines) && lines[i+1].Inline {
			units = append(units, unit{first: i, second: i + 1})
			i++
			continue
		}
		units = append(units, unit{first: i, second: -1})
	}
	return units
}
