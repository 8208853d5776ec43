package prompt

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"
)

const (
	Yes  = "Yes"
	No   = "No"
	Back = "back"
)

// Notifier shows a message the user has to acknowledge.
type Notifier interface {
	Notify(message string)
}

// Confirmer asks the user to explicitly approve an action.
type Confirmer interface {
	Confirm(message string) bool
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(message string)

func (f NotifyFunc) Notify(message string) { f(message) }

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) bool

func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

// Terminal implements Notifier and Confirmer with blocking promptui prompts.
type Terminal struct {
	// AutoConfirm approves every confirmation without asking.
	AutoConfirm bool
	logger      *zap.Logger
}

func NewTerminal(autoConfirm bool, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminal{AutoConfirm: autoConfirm, logger: logger}
}

// Notify blocks until the user presses ENTER. With AutoConfirm the message is
// only logged.
func (t *Terminal) Notify(message string) {
	if t.AutoConfirm {
		t.logger.Warn(message)
		return
	}

	p := promptui.Prompt{
		Label:       message + " (press ENTER)",
		HideEntered: true,
		AllowEdit:   false,
	}
	if _, err := p.Run(); err != nil {
		t.logger.Debug("notification prompt closed", zap.Error(err))
	}
}

func (t *Terminal) Confirm(message string) bool {
	if t.AutoConfirm {
		t.logger.Info("auto confirmed", zap.String("question", message))
		return true
	}

	p := promptui.Prompt{
		Label:     message,
		IsConfirm: true,
	}
	_, err := p.Run()
	return err == nil
}

// Select shows a menu and returns the chosen index and label.
func (t *Terminal) Select(label string, items []string) (int, string, error) {
	s := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
	}
	return s.Run()
}

// Ask reads a non-empty line.
func (t *Terminal) Ask(label string) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Validate: notEmpty,
	}
	value, err := p.Run()
	return strings.TrimSpace(value), err
}

// AskSecret reads a non-empty line without echoing it.
func (t *Terminal) AskSecret(label string) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: notEmpty,
	}
	return p.Run()
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value must not be empty")
	}
	return nil
}
