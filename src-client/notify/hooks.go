package notify

import "log/slog"

// AlertSounder loops the audible order cue. Only the notifier may start or
// stop it; Start on an already-playing sounder restarts the loop.
type AlertSounder interface {
	Start()
	Stop()
}

// DesktopNotifier raises native notifications on the host platform.
// Permission is never requested implicitly.
type DesktopNotifier interface {
	PermissionGranted() bool
	RequestPermission() bool
	Notify(title, body string) error
}

// LogSounder is the fallback when the terminal has no audio output.
type LogSounder struct{}

func (LogSounder) Start() { slog.Info("alert sound on") }
func (LogSounder) Stop()  { slog.Debug("alert sound off") }

// LogDesktop is the fallback desktop notifier: permission always denied,
// so alerts stay in-app.
type LogDesktop struct{}

func (LogDesktop) PermissionGranted() bool { return false }
func (LogDesktop) RequestPermission() bool {
	slog.Info("desktop notifications unavailable, staying in-app")
	return false
}
func (LogDesktop) Notify(title, body string) error {
	slog.Info("desktop notification", "title", title, "body", body)
	return nil
}
