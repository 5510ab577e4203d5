package agentsession

import "membrane-connect-be/internal/pkg/logger"

// Notifier shows user-facing progress. Calls with the same id replace the
// previous notification for that id.
type Notifier interface {
	Loading(id, message string)
	Success(id, message string)
	Error(id, message string)
	Dismiss(id string)
}

// LogNotifier writes notifications to the structured log. Useful for
// headless runs.
type LogNotifier struct {
	log logger.ILogger
}

func NewLogNotifier(log logger.ILogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Loading(id, message string) {
	n.log.Info("AGENT_SESSION", message, map[string]interface{}{"toast_id": id, "kind": "loading"})
}

func (n *LogNotifier) Success(id, message string) {
	n.log.Info("AGENT_SESSION", message, map[string]interface{}{"toast_id": id, "kind": "success"})
}

func (n *LogNotifier) Error(id, message string) {
	n.log.Error("AGENT_SESSION", message, map[string]interface{}{"toast_id": id, "kind": "error"})
}

func (n *LogNotifier) Dismiss(id string) {
	n.log.Debug("AGENT_SESSION", "Notification dismissed", map[string]interface{}{"toast_id": id})
}
