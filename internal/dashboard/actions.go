package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"energy_dashboard/internal/model"
)

// ActionErrorKind classifies a failed control action.
type ActionErrorKind int

const (
	KindNotConnected ActionErrorKind = iota + 1
	KindActionNotFound
	KindPublishFailed
)

func (k ActionErrorKind) String() string {
	switch k {
	case KindNotConnected:
		return "not connected"
	case KindActionNotFound:
		return "action not found"
	case KindPublishFailed:
		return "publish failed"
	default:
		return "unknown"
	}
}

// ActionError is returned by control actions. Compare with errors.Is against
// ErrNotConnected, ErrActionNotFound or ErrPublishFailed.
type ActionError struct {
	Kind ActionErrorKind
	Err  error
}

var (
	ErrNotConnected   = &ActionError{Kind: KindNotConnected}
	ErrActionNotFound = &ActionError{Kind: KindActionNotFound}
	ErrPublishFailed  = &ActionError{Kind: KindPublishFailed}
)

func (e *ActionError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *ActionError) Unwrap() error { return e.Err }

// Is matches any ActionError of the same kind.
func (e *ActionError) Is(target error) bool {
	var t *ActionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// ActionPublisher sends control commands to the IoT platform.
type ActionPublisher interface {
	PublishAction(ctx context.Context, id model.ID, value int) error
	IsConnected() bool
}

// ResetKeyword selects the peak-reset action by name.
const ResetKeyword = "reset"

// resetValue is the control value that triggers a reset on the device.
const resetValue = 1

// FindAction returns the first action whose name contains keyword,
// case-insensitively.
func FindAction(actions []model.ActionDescriptor, keyword string) (model.ActionDescriptor, bool) {
	keyword = strings.ToLower(keyword)
	for _, a := range actions {
		if a.Name != "" && strings.Contains(strings.ToLower(a.Name), keyword) {
			return a, true
		}
	}
	return model.ActionDescriptor{}, false
}

// ResetPeak publishes the reset command and optimistically zeroes the peak
// power and peak current slots. Nothing waits for an acknowledgment.
func ResetPeak(ctx context.Context, actions []model.ActionDescriptor, pub ActionPublisher, sink Sink) (model.ActionDescriptor, error) {
	if len(actions) == 0 || pub == nil || !pub.IsConnected() {
		return model.ActionDescriptor{}, ErrNotConnected
	}

	action, ok := FindAction(actions, ResetKeyword)
	if !ok {
		return model.ActionDescriptor{}, ErrActionNotFound
	}

	if err := pub.PublishAction(ctx, action.ID, resetValue); err != nil {
		return action, &ActionError{
			Kind: KindPublishFailed,
			Err:  fmt.Errorf("action %s: %w", action.ID, err),
		}
	}

	sink.WriteSlot(FormatSlot(model.SlotPMax, 0))
	sink.WriteSlot(FormatSlot(model.SlotIMax, 0))
	return action, nil
}
