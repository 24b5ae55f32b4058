package sidecontent

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/schema"
)

// Effect is a side effect of a tab, chapter or breakpoint transition.
type Effect string

const (
	EffectClearReplOutput Effect = "clear_repl_output"
	EffectSubstOn         Effect = "subst_on"
	EffectSubstOff        Effect = "subst_off"
)

// Effects receives transition side effects in order.
type Effects interface {
	ClearReplOutput()
	SetUsingSubst(on bool)
}

// Outcome is the result of a transition.
type Outcome struct {
	Active schema.TabID `json:"active"`
	// Changed reports whether the active tab moved.
	Changed bool `json:"changed"`
	// Suppressed reports a tab change that was swallowed entirely.
	Suppressed bool     `json:"suppressed,omitempty"`
	Effects    []Effect `json:"effects,omitempty"`
}

// ChangeTab computes the transition from prev to next.
func ChangeTab(prev, next schema.TabID, chapter schema.Chapter, hasBreakpoints bool) Outcome {
	if prev == next {
		return Outcome{Active: prev}
	}
	// The stepper and the mobile run surface show the same evaluation.
	if prev == schema.TabSubstVisualizer && next == schema.TabMobileEditorRun {
		return Outcome{Active: prev, Suppressed: true}
	}
	out := Outcome{Active: next, Changed: true}
	if next == schema.TabSubstVisualizer && chapter <= 2 {
		out.Effects = append(out.Effects, EffectSubstOn)
	}
	if prev == schema.TabSubstVisualizer && !hasBreakpoints {
		out.Effects = append(out.Effects, EffectClearReplOutput, EffectSubstOff)
	}
	return out
}

// SelectChapter computes the effects of selecting chapter while active.
func SelectChapter(chapter schema.Chapter, hasBreakpoints bool, active schema.TabID) Outcome {
	out := Outcome{Active: active}
	switch {
	case chapter > 2:
		out.Effects = []Effect{EffectClearReplOutput, EffectSubstOff}
	case hasBreakpoints || active == schema.TabSubstVisualizer:
		out.Effects = []Effect{EffectSubstOn}
	}
	return out
}

// UpdateBreakpoints computes the effects of the breakpoint count moving from
// prevCount to nextCount. Only transitions across zero have effects.
func UpdateBreakpoints(prevCount, nextCount int, chapter schema.Chapter, active schema.TabID) Outcome {
	out := Outcome{Active: active}
	switch {
	case prevCount == 0 && nextCount > 0:
		if chapter <= 2 {
			out.Effects = []Effect{EffectSubstOn}
		}
	case prevCount > 0 && nextCount == 0:
		if active != schema.TabSubstVisualizer {
			out.Effects = []Effect{EffectClearReplOutput, EffectSubstOff}
		}
	}
	return out
}

// CountBreakpoints counts the set breakpoints. Editors report breakpoints as
// a sparse row-indexed list, so empty entries are holes.
func CountBreakpoints(breakpoints []string) int {
	n := 0
	for _, bp := range breakpoints {
		if bp != "" {
			n++
		}
	}
	return n
}

// Apply runs the effects of out against fx in order.
func Apply(fx Effects, out Outcome) {
	if fx == nil {
		return
	}
	for _, effect := range out.Effects {
		switch effect {
		case EffectClearReplOutput:
			fx.ClearReplOutput()
		case EffectSubstOn:
			fx.SetUsingSubst(true)
		case EffectSubstOff:
			fx.SetUsingSubst(false)
		}
	}
}

// Controller tracks the active tab, chapter and breakpoints of one
// workspace and applies each transition's effects exactly once.
type Controller struct {
	mu          sync.Mutex
	fx          Effects
	active      schema.TabID
	chapter     schema.Chapter
	breakpoints int
	log         pslog.Logger
}

// NewController returns a controller starting at active.
func NewController(fx Effects, active schema.TabID, chapter schema.Chapter, logger pslog.Logger) *Controller {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Controller{fx: fx, active: active, chapter: chapter, log: logger}
}

// Active returns the active tab.
func (c *Controller) Active() schema.TabID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Chapter returns the current chapter.
func (c *Controller) Chapter() schema.Chapter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chapter
}

// Breakpoints returns the current breakpoint count.
func (c *Controller) Breakpoints() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.breakpoints
}

// ChangeTab moves to next.
func (c *Controller) ChangeTab(next schema.TabID) Outcome {
	c.mu.Lock()
	out := ChangeTab(c.active, next, c.chapter, c.breakpoints > 0)
	c.active = out.Active
	c.mu.Unlock()
	c.apply("tab", out)
	return out
}

// SelectChapter records the chapter and applies its effects.
func (c *Controller) SelectChapter(chapter schema.Chapter) Outcome {
	c.mu.Lock()
	c.chapter = chapter
	out := SelectChapter(chapter, c.breakpoints > 0, c.active)
	c.mu.Unlock()
	c.apply("chapter", out)
	return out
}

// SetBreakpoints records the editor breakpoints and applies the effects of
// the count crossing zero.
func (c *Controller) SetBreakpoints(breakpoints []string) Outcome {
	next := CountBreakpoints(breakpoints)
	c.mu.Lock()
	out := UpdateBreakpoints(c.breakpoints, next, c.chapter, c.active)
	c.breakpoints = next
	c.mu.Unlock()
	c.apply("breakpoints", out)
	return out
}

// Redirect moves to active because the tab list no longer contains the
// current tab. Leaving effects apply as for ChangeTab, but the move itself is
// never suppressed.
func (c *Controller) Redirect(active schema.TabID) Outcome {
	c.mu.Lock()
	prev := c.active
	out := ChangeTab(prev, active, c.chapter, c.breakpoints > 0)
	if out.Suppressed {
		out = Outcome{Active: active, Changed: true}
		if c.breakpoints == 0 {
			out.Effects = []Effect{EffectClearReplOutput, EffectSubstOff}
		}
	}
	c.active = active
	c.mu.Unlock()
	if !out.Changed {
		return out
	}
	c.log.Debug("tab redirect", "from", prev, "to", active)
	c.apply("redirect", out)
	return out
}

func (c *Controller) apply(trigger string, out Outcome) {
	if out.Suppressed {
		c.log.Debug("tab change suppressed", "active", out.Active)
		return
	}
	if len(out.Effects) > 0 {
		c.log.Debug("tab transition", "trigger", trigger, "active", out.Active, "effects", out.Effects)
	}
	Apply(c.fx, out)
}
