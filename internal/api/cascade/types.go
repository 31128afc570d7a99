package cascade

// Trajectory step types observed in the language server's step log.
const (
	StepPlannerResponse = "PLANNER_RESPONSE"
	StepNotifyUser      = "NOTIFY_USER"
)

// StatusDone marks a completed step.
const StatusDone = "DONE"

// StartSessionResponse is returned by StartCascade.
type StartSessionResponse struct {
	CascadeID string `json:"cascadeId"`
}

// Trajectory is the ordered step log of one cascade session.
type Trajectory struct {
	Steps []Step `json:"steps"`
}

// Step is one entry in a session trajectory. Planner responses carry
// the model's answer in Response; notify-user steps carry theirs in
// Message.
type Step struct {
	Type     string `json:"type"`
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Text returns the answer text of a step, whichever field carries it.
func (s Step) Text() string {
	if s.Response != "" {
		return s.Response
	}
	return s.Message
}
