package health

// Engine runs every registered rule over one motor's evidence.
type Engine struct {
	lim   Limits
	rules []Rule
}

// NewEngine builds an engine for lim. Staleness and the RPM reference rule
// are always registered; the stuck-rotor rule joins when its window is set,
// and each reading window joins when enabled.
func NewEngine(lim Limits) *Engine {
	e := &Engine{lim: lim}
	e.rules = append(e.rules, staleRule{}, rpmRule{})
	if lim.StuckRPMWindow > 0 {
		e.rules = append(e.rules, stuckRPMRule{})
	}
	if lim.Voltage.Enabled {
		e.rules = append(e.rules, voltageRule())
	}
	if lim.TotalCurrent.Enabled {
		e.rules = append(e.rules, totalCurrentRule())
	}
	if lim.PhaseCurrent.Enabled {
		e.rules = append(e.rules, phaseCurrentRule())
	}
	if lim.MosfetTemp.Enabled {
		e.rules = append(e.rules, mosfetTempRule())
	}
	return e
}

// Classify returns the motor's status and the names of every rule that
// fired. A motor that has never reported is unknown; no rule judges it.
func (e *Engine) Classify(in Input) (Status, []string) {
	if !in.Seen {
		return StatusUnknown, nil
	}

	var fired []string
	for _, r := range e.rules {
		if r.Fires(in, e.lim) {
			fired = append(fired, r.Name())
		}
	}
	if len(fired) > 0 {
		return StatusDown, fired
	}
	return StatusNormal, nil
}

// RuleNames reports the registered rules in evaluation order.
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}
