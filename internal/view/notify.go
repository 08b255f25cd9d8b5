package view

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	}
	return "info"
}

// Notifier shows transient toast-style messages.
type Notifier interface {
	Notify(level Level, msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, msg string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(level Level, msg string) { f(level, msg) }

// Navigator moves the user between screens.
type Navigator interface {
	// ToLogin is called after the session was cleared.
	ToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

// ToLogin implements Navigator.
func (f NavigatorFunc) ToLogin() { f() }

// SessionEnder forgets the stored login.
type SessionEnder interface {
	Clear() error
}

type nopNotifier struct{}

func (nopNotifier) Notify(Level, string) {}

type nopNavigator struct{}

func (nopNavigator) ToLogin() {}
