package types

import "time"

// Outcome is how a step affects the overall run.
type Outcome string

const (
	// OutcomeOK means the step succeeded.
	OutcomeOK Outcome = "ok"
	// OutcomeDegraded means the step failed but the run continues with a less complete report.
	OutcomeDegraded Outcome = "degraded"
	// OutcomeFatal means the step failed and the run stops.
	OutcomeFatal Outcome = "fatal"
)

// StepRecord is the recorded outcome of one step.
type StepRecord struct {
	Name     string        `json:"name"`
	Outcome  Outcome       `json:"outcome"`
	Result   *Result       `json:"result"`
	Duration time.Duration `json:"duration"`
}

// StepLog is the ordered list of steps a run went through.
type StepLog struct {
	Steps []StepRecord `json:"steps"`
}

// AddStep appends a step record and returns it.
func (l *StepLog) AddStep(name string, outcome Outcome, result *Result, duration time.Duration) StepRecord {
	rec := StepRecord{
		Name:     name,
		Outcome:  outcome,
		Result:   result,
		Duration: duration,
	}
	l.Steps = append(l.Steps, rec)
	return rec
}

// Degraded reports whether any step was degraded.
func (l *StepLog) Degraded() bool {
	for _, s := range l.Steps {
		if s.Outcome == OutcomeDegraded {
			return true
		}
	}
	return false
}

// DiagnosisReport aggregates what a diagnosis learned about the cluster.
// Fields other than NodeCount and CNI are nil when the step producing them was skipped or degraded.
type DiagnosisReport struct {
	StepLog
	NodeCount      int     `json:"nodeCount"`
	CNI            string  `json:"cni"`
	CNIEvidence    string  `json:"cniEvidence,omitempty"`
	PodCount       *int    `json:"podCount,omitempty"`
	NamespaceScope *string `json:"namespaceScope,omitempty"`
	DNS            *Result `json:"dns,omitempty"`
}

// PodReport is the outcome of testing a single pod.
type PodReport struct {
	StepLog
	Pod       string   `json:"pod"`
	Namespace string   `json:"namespace"`
	Phase     string   `json:"phase,omitempty"`
	IP        string   `json:"ip,omitempty"`
	Notes     []string `json:"notes,omitempty"`
	// Connectivity is nil until the connectivity step ran.
	Connectivity *Result `json:"connectivity,omitempty"`
}
