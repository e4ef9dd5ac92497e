package core

// Recorder counts domain events for the metrics endpoint.
type Recorder interface {
	CounsellorTransition(status string)
	Invite(kind, outcome string)
	MailSent(outcome string)
	ModerationAction(action string)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) CounsellorTransition(string) {}
func (NopRecorder) Invite(string, string)       {}
func (NopRecorder) MailSent(string)             {}
func (NopRecorder) ModerationAction(string)     {}
