package agent

// Step names a bootstrap stage.
type Step string

const (
	StepInterpreter Step = "interpreter"
	StepTool        Step = "wakatime-cli"
)

// Steps lists the bootstrap stages in the order they run.
var Steps = []Step{StepInterpreter, StepTool}

// State is the progress of a Step.
type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Event reports progress of one step.
type Event struct {
	Step   Step
	State  State
	Detail string
	Err    error
}

// Reporter receives bootstrap progress. Implementations must be safe to call
// from the bootstrap goroutine.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// Alerter shows user-facing messages. Error is used at most once per Agent.
type Alerter interface {
	Error(title, message string)
	Warn(title, message string)
}

type nopAlerter struct{}

func (nopAlerter) Error(string, string) {}
func (nopAlerter) Warn(string, string)  {}
