package wizard

// state.go defines the accumulated wizard configuration as a value type.
//
// WizardState is never mutated in place by callers. Every update entry
// point takes a state by value and returns a new one, which makes each
// transition unit-testable and lets the HTTP layer re-run reconciliation
// speculatively without coordination. Any field update clears currently
// displayed validation diagnostics; they are re-derived on the next
// Next or submit attempt, never left stale.

// Step is one stage of the wizard.
type Step int

const (
	StepSource Step = iota
	StepJobDetails
	StepDestination
	StepColumnMapping
	StepSchedule
	StepReview

	stepCount
)

// String returns the display name of the step.
func (s Step) String() string {
	switch s {
	case StepSource:
		return "Source Selection"
	case StepJobDetails:
		return "Job Details"
	case StepDestination:
		return "Destination"
	case StepColumnMapping:
		return "Column Mapping"
	case StepSchedule:
		return "Schedule"
	case StepReview:
		return "Review"
	default:
		return "Unknown"
	}
}

// Skippable reports whether the step may be skipped without validating.
func (s Step) Skippable() bool { return s == StepSchedule }

// Mode distinguishes configuring a new job from editing an existing one.
// In edit mode the source of the job cannot be changed, so the Source
// Selection step is unreachable.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// SourceSelection is the chosen data source and its extracted columns.
type SourceSelection struct {
	Type     SourceType     `json:"type"`
	Location string         `json:"location"` // file path or spreadsheet ID
	Columns  []SourceColumn `json:"columns"`
}

// JobDetails is the job metadata configured on the second step.
type JobDetails struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Strategy    LoadStrategy `json:"loadStrategy"`
	BatchSize   int          `json:"batchSize"`
}

// Destination is the target table choice. Columns holds the fetched live
// schema when targeting an existing table; it is empty for a new table.
type Destination struct {
	CredentialID   string          `json:"credentialId"`
	Type           DestinationType `json:"type"`
	Schema         string          `json:"schema"`
	Table          string          `json:"table"`
	CreateNewTable bool            `json:"createNewTable"`
	Columns        []TableColumn   `json:"columns,omitempty"`
}

// Schedule is the optional cron schedule configured on the fifth step.
type Schedule struct {
	Cron    string `json:"cronExpression"`
	Enabled bool   `json:"enabled"`
}

// WizardState is the whole accumulated configuration plus the position in
// the step sequence. It is created empty (create mode) or pre-populated
// from an existing job (edit mode) and discarded on submit or cancel.
type WizardState struct {
	Mode        Mode            `json:"mode"`
	Source      SourceSelection `json:"source"`
	Details     JobDetails      `json:"details"`
	Destination Destination     `json:"destination"`
	Mappings    []ColumnMapping `json:"mappings"`
	UpsertKeys  []string        `json:"upsertKeys,omitempty"`
	Schedule    *Schedule       `json:"schedule,omitempty"`

	Current   Step          `json:"currentStep"`
	Completed map[Step]bool `json:"completedSteps"`

	// Diagnostics currently displayed for Current. Cleared by any field
	// update, replaced wholesale by Next/submit.
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewState returns the initial state for the given mode. Edit mode starts
// on Job Details with Source Selection pre-completed, because the source
// of an existing job is fixed.
func NewState(mode Mode) WizardState {
	s := WizardState{
		Mode:      mode,
		Details:   JobDetails{Strategy: StrategyInsert, BatchSize: DefaultBatchSize},
		Completed: make(map[Step]bool),
	}
	if mode == ModeEdit {
		s.Current = StepJobDetails
		s.Completed[StepSource] = true
	}
	return s
}

// clone returns a copy of s that shares no mutable containers with it.
func (s WizardState) clone() WizardState {
	out := s
	out.Completed = make(map[Step]bool, len(s.Completed))
	for k, v := range s.Completed {
		out.Completed[k] = v
	}
	out.Mappings = append([]ColumnMapping(nil), s.Mappings...)
	out.UpsertKeys = append([]string(nil), s.UpsertKeys...)
	out.Errors = append([]string(nil), s.Errors...)
	out.Warnings = append([]string(nil), s.Warnings...)
	if s.Schedule != nil {
		sched := *s.Schedule
		out.Schedule = &sched
	}
	return out
}

// clearDiagnostics drops displayed errors and warnings. Called by every
// field-update entry point.
func (s *WizardState) clearDiagnostics() {
	s.Errors = nil
	s.Warnings = nil
}

// WithSource replaces the source selection.
func (s WizardState) WithSource(src SourceSelection) WizardState {
	out := s.clone()
	out.Source = src
	out.clearDiagnostics()
	return out
}

// WithDetails replaces the job metadata.
func (s WizardState) WithDetails(d JobDetails) WizardState {
	out := s.clone()
	out.Details = d
	out.clearDiagnostics()
	return out
}

// WithDestination replaces the destination target and reconciles the
// mapping set against it. For a new table the mappings default every
// source column to a same-named destination column; for an existing table
// prior mappings are re-matched so carried table-only entries survive a
// revisited table choice.
func (s WizardState) WithDestination(d Destination, policy Policy) WizardState {
	out := s.clone()
	out.Destination = d
	if d.CreateNewTable {
		out.Mappings = MappingsForNewTable(out.Source.Columns)
	} else {
		prior := out.Mappings
		if len(prior) == 0 {
			prior = MappingsFromSource(out.Source.Columns)
		}
		out.Mappings = Reconcile(prior, d.Columns, out.Details.Strategy, policy)
	}
	out.clearDiagnostics()
	return out
}

// WithMappings replaces the mapping list.
func (s WizardState) WithMappings(mappings []ColumnMapping) WizardState {
	out := s.clone()
	out.Mappings = append([]ColumnMapping(nil), mappings...)
	out.clearDiagnostics()
	return out
}

// WithUpsertKeys replaces the upsert key selection.
func (s WizardState) WithUpsertKeys(keys []string) WizardState {
	out := s.clone()
	out.UpsertKeys = append([]string(nil), keys...)
	out.clearDiagnostics()
	return out
}

// WithSchedule replaces the optional schedule. A nil schedule clears it.
func (s WizardState) WithSchedule(sched *Schedule) WizardState {
	out := s.clone()
	if sched == nil {
		out.Schedule = nil
	} else {
		cp := *sched
		out.Schedule = &cp
	}
	out.clearDiagnostics()
	return out
}

// ActiveMappings returns the mappings destined for the load, in Order.
func (s WizardState) ActiveMappings() []ColumnMapping {
	var active []ColumnMapping
	for _, m := range s.Mappings {
		if m.Active() {
			active = append(active, m)
		}
	}
	sortByOrder(active)
	return active
}
