package tui

import (
	"strings"
	"time"

	"github.com/wethinkt/go-yesand/internal/anim"
	"github.com/wethinkt/go-yesand/internal/session"
)

// WaitingLine is the loading line that parks until a suggestion arrives.
const WaitingLine = "waiting for suggestion from the audience"

const loadingStep = 3

func line(text string, speedMS int) anim.ScriptLine {
	return anim.ScriptLine{Text: text, Speed: time.Duration(speedMS) * time.Millisecond, Step: loadingStep}
}

// BuildLoadingScript returns the introduction played while a persona loads.
// Without a word the script stops at the waiting line; with one it goes on
// to announce the word. The result depends only on its arguments.
func BuildLoadingScript(p *session.Persona, word string) []anim.ScriptLine {
	var name, tagline, toward, away string
	if p != nil {
		name = p.Name
		tagline = p.Tagline
		toward = strings.Join(p.Aesthetic.PullsToward, ", ")
		away = strings.Join(p.Aesthetic.PullsAwayFrom, ", ")
	}

	bar := line("████████████████", 500)
	bar.NoBreak = true
	complete := line(" complete ✓", 12)
	complete.Step = 2
	complete.Inline = true

	waiting := line(WaitingLine, 22)
	waiting.NoBreak = true
	dots := line("...", 1000)
	dots.Step = 1
	dots.Inline = true

	script := []anim.ScriptLine{
		line("loading scene partner...", 25),
		bar,
		complete,
		line("", 0),
		line("PERSONA: "+name, 22),
		line(`"`+tagline+`"`, 22),
		line("", 0),
		line("pulls toward: "+toward, 18),
		line("pulls away from: "+away, 18),
		line("", 0),
		waiting,
		dots,
	}
	if word == "" {
		return script
	}

	announce := line("▶  "+word, 45)
	announce.Step = 2
	return append(script,
		announce,
		line("", 0),
		line("your scene, your rules. begin when ready.", 22),
	)
}
