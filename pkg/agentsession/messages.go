package agentsession

import "fmt"

const (
	msgStartBuildFailed  = "Failed to start integration build"
	msgStartActionFailed = "Failed to start action creation"
)

func LoadingMessage(s StoredSession) string {
	if s.Type == TypeBuildIntegration {
		return fmt.Sprintf("Building %s integration. This usually takes a couple of minutes...", s.AppName)
	}
	return fmt.Sprintf("Adding action to %s. This usually takes a couple of minutes...", s.ServiceName)
}

func SuccessMessage(s StoredSession) string {
	if s.Type == TypeBuildIntegration {
		return fmt.Sprintf("%s integration built! You can find it in the services list.", s.AppName)
	}
	return fmt.Sprintf("New action added to %s!", s.ServiceName)
}

// FailureMessage words a terminal status. A cancelled session reads
// differently from a failed one.
func FailureMessage(s StoredSession, status string) string {
	action := fmt.Sprintf("adding action to %s", s.ServiceName)
	if s.Type == TypeBuildIntegration {
		action = fmt.Sprintf("building %s integration", s.AppName)
	}
	if status == "cancelled" {
		return fmt.Sprintf("Session %s while %s.", status, action)
	}
	return fmt.Sprintf("Failed %s. Please try again.", action)
}
