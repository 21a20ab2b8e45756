package payment

import "sync"

// Outcome is what the widget reports after a successful charge.
type Outcome struct {
	Reference     string `json:"reference"`
	TransactionID string `json:"transactionId"`
}

// Attempt relays the widget's asynchronous result to exactly one handler.
// Whichever of Succeed or Close is called first wins; later calls are
// ignored and report false.
type Attempt struct {
	Session *Session

	onSuccess func(Outcome)
	onClose   func()
	once      sync.Once
}

// NewAttempt wraps a session with its outcome handlers. Either handler may
// be nil.
func NewAttempt(s *Session, onSuccess func(Outcome), onClose func()) *Attempt {
	return &Attempt{Session: s, onSuccess: onSuccess, onClose: onClose}
}

// Succeed delivers a successful outcome.
func (a *Attempt) Succeed(o Outcome) bool {
	fired := false
	a.once.Do(func() {
		fired = true
		if a.onSuccess != nil {
			a.onSuccess(o)
		}
	})
	return fired
}

// Close reports that the customer dismissed the widget.
func (a *Attempt) Close() bool {
	fired := false
	a.once.Do(func() {
		fired = true
		if a.onClose != nil {
			a.onClose()
		}
	})
	return fired
}
