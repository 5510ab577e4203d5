// Package actionstep runs a stored service's action as a workflow step.
// Every failure is reported in the Result; Run never returns an error.
package actionstep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/pkg/apiclient"
	"membrane-connect-be/pkg/apperror"
)

const (
	TypePrefix  = "membrane:"
	InputPrefix = "membraneInput."

	// MaxRetries is zero: actions such as sending a message are not safe to
	// repeat.
	MaxRetries = 0
)

// ActionRef is a parsed action type. DisplayName is only present in the
// picker's composite form and plays no part in execution.
type ActionRef struct {
	ServiceID   string
	ActionKey   string
	DisplayName string
}

// ParseActionType reads "membrane:<serviceId>:<actionKey>", optionally
// followed by "|<displayName>". The service id ends at the first colon;
// the action key is the rest and may itself contain colons. The display
// name starts after the last "|", so a key containing "|" only survives
// when a display suffix follows it, which FormatActionType always adds
// for a named action.
func ParseActionType(actionType string) (ActionRef, error) {
	rest, ok := strings.CutPrefix(actionType, TypePrefix)
	if !ok {
		return ActionRef{}, apperror.MalformedIdentifier("Invalid Membrane action type: missing membrane prefix")
	}

	var ref ActionRef
	if i := strings.LastIndex(rest, "|"); i >= 0 {
		rest, ref.DisplayName = rest[:i], rest[i+1:]
	}

	serviceID, actionKey, found := strings.Cut(rest, ":")
	if !found || actionKey == "" {
		return ActionRef{}, apperror.MalformedIdentifier("Invalid Membrane action type: missing action key")
	}
	if serviceID == "" {
		return ActionRef{}, apperror.MalformedIdentifier("Invalid Membrane action type: missing service id")
	}

	ref.ServiceID = serviceID
	ref.ActionKey = actionKey
	return ref, nil
}

// FormatActionType is the inverse of ParseActionType for the composite
// form the picker emits.
func FormatActionType(serviceID, actionKey, displayName string) string {
	s := TypePrefix + serviceID + ":" + actionKey
	if displayName != "" {
		s += "|" + displayName
	}
	return s
}

// ExtractInput collects "membraneInput.<field>" config entries into a flat
// input object keyed by <field>. Other entries are ignored.
func ExtractInput(config map[string]interface{}) map[string]interface{} {
	input := make(map[string]interface{})
	for key, value := range config {
		if field, ok := strings.CutPrefix(key, InputPrefix); ok {
			input[field] = value
		}
	}
	return input
}

type Runner interface {
	RunAction(ctx context.Context, req dto.RunActionRequest) (*dto.RunActionResponse, error)
}

type Input struct {
	ActionType string
	Config     map[string]interface{}
}

type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type Step struct {
	runner Runner
	log    logger.ILogger
}

func NewStep(runner Runner, log logger.ILogger) *Step {
	return &Step{runner: runner, log: log}
}

func (s *Step) Run(ctx context.Context, in Input) Result {
	started := time.Now()
	s.log.Info("ACTION_STEP", "Step started", map[string]interface{}{"action_type": in.ActionType})

	result := s.run(ctx, in)

	details := map[string]interface{}{
		"action_type": in.ActionType,
		"duration_ms": time.Since(started).Milliseconds(),
		"success":     result.Success,
	}
	if result.Success {
		s.log.Info("ACTION_STEP", "Step finished", details)
	} else {
		details["error"] = result.Error
		s.log.Warn("ACTION_STEP", "Step failed", details)
	}
	return result
}

func (s *Step) run(ctx context.Context, in Input) Result {
	ref, err := ParseActionType(in.ActionType)
	if err != nil {
		if appErr, ok := apperror.As(err); ok {
			return Result{Error: appErr.Message}
		}
		return Result{Error: err.Error()}
	}

	res, err := s.runner.RunAction(ctx, dto.RunActionRequest{
		ServiceId: ref.ServiceID,
		ActionKey: ref.ActionKey,
		Input:     ExtractInput(in.Config),
	})
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Message != "" {
				return Result{Error: apiErr.Message}
			}
			return Result{Error: fmt.Sprintf("Membrane action failed (%d)", apiErr.StatusCode)}
		}
		return Result{Error: fmt.Sprintf("Membrane action failed: %v", err)}
	}
	if res == nil {
		return Result{Error: "Membrane action failed: empty response"}
	}
	if res.Error != "" {
		return Result{Error: res.Error}
	}

	return Result{Success: true, Data: res.Output}
}
