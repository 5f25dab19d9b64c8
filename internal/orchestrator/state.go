package orchestrator

// State is one node of the plan state machine.
type State string

const (
	StateStart                State = "Start"
	StateProfileFetched       State = "ProfileFetched"
	StateCandidatesFound      State = "CandidatesFound"
	StatePresented            State = "Presented"
	StateAwaitingConfirmation State = "AwaitingConfirmation"
	StateEnriching            State = "Enriching"
	StateDone                 State = "Done"
)

// Step names used in trace entries and metrics labels, one per transition.
const (
	StepFetchProfile      = "fetch-profile"
	StepDiscover          = "discover-candidates"
	StepPresent           = "present-candidates"
	StepAwaitConfirmation = "await-confirmation"
	StepEnrich            = "enrich-candidate"
)

// Discovery status annotations distinguishing an empty directory from a
// fully visited one.
const (
	DiscoveryNoResults    = "no-results"
	DiscoveryNoNewResults = "no-new-results"
)

// Run completion statuses reported to the metrics layer.
const (
	RunCompleted      = "completed"
	RunSkipped        = "skipped"
	RunDegraded       = "degraded"
	RunIterationLimit = "iteration-limit"
)
