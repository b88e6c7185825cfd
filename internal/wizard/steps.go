package wizard

// steps.go is the wizard step controller: a finite sequence of steps with
// pure transition functions gating progress through the Validator.
//
// Every transition takes a state by value and returns the next state, so
// the session store is the only holder of "current" state and each
// transition can be tested in isolation.

// minStep is the lowest reachable step. Edit mode floors at Job Details
// because the source of an existing job cannot be changed.
func minStep(s WizardState) Step {
	if s.Mode == ModeEdit {
		return StepJobDetails
	}
	return StepSource
}

// Next validates the current step. On failure the state stays put with
// the diagnostics surfaced; on success the step is marked completed and
// the index advances, bounded at Review.
func Next(s WizardState) (WizardState, ValidationResult) {
	out := s.clone()
	result := ValidateStep(out, out.Current)

	out.Errors = result.Errors
	out.Warnings = result.Warnings
	if !result.Valid {
		return out, result
	}

	out.Completed[out.Current] = true
	if out.Current < StepReview {
		out.Current++
	}
	return out, result
}

// Back moves one step backward, bounded at the first reachable step.
// Displayed diagnostics belong to the step being left, so they clear.
func Back(s WizardState) WizardState {
	out := s.clone()
	if out.Current > minStep(out) {
		out.Current--
	}
	out.clearDiagnostics()
	return out
}

// Skip advances past a skippable step without validating it. It returns
// false, leaving the state untouched, when the current step cannot be
// skipped.
func Skip(s WizardState) (WizardState, bool) {
	if !s.Current.Skippable() {
		return s, false
	}
	out := s.clone()
	out.Completed[out.Current] = true
	if out.Current < StepReview {
		out.Current++
	}
	out.clearDiagnostics()
	return out, true
}

// Jump moves directly to the given step. Allowed only backward or to a
// step already completed; anything else is rejected and the state is
// returned unchanged.
func Jump(s WizardState, to Step) (WizardState, bool) {
	if to < minStep(s) || to >= stepCount {
		return s, false
	}
	if to >= s.Current && !s.Completed[to] {
		return s, false
	}
	out := s.clone()
	out.Current = to
	out.clearDiagnostics()
	return out, true
}

// Finalize re-runs the current step's validator ahead of submission. On
// success the returned state carries any advisory warnings; on failure it
// carries the blocking errors and the caller must not submit. The state
// itself stays intact either way so a rejected submission can be retried.
func Finalize(s WizardState) (WizardState, ValidationResult) {
	out := s.clone()
	result := ValidateStep(out, out.Current)
	out.Errors = result.Errors
	out.Warnings = result.Warnings
	return out, result
}
