// Package appstate holds the client-side shared state that the agent
// session orchestrator and the action picker coordinate through: the
// user's services list and a counter that forces action lists to refetch.
package appstate

import (
	"context"
	"encoding/json"
	"sync"

	"membrane-connect-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	TopicServicesUpdated = "membrane.services.updated"
	TopicActionsRefetch  = "membrane.actions.refetch"
)

type ActionsRefetchPayload struct {
	Count int `json:"count"`
}

type Store struct {
	mu             sync.RWMutex
	services       []*dto.MembraneServiceResponse
	actionsRefetch int

	pubSub *gochannel.GoChannel
}

func NewStore(logger watermill.LoggerAdapter) *Store {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Store{
		services: []*dto.MembraneServiceResponse{},
		pubSub:   gochannel.NewGoChannel(gochannel.Config{}, logger),
	}
}

func (s *Store) Services() []*dto.MembraneServiceResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*dto.MembraneServiceResponse, len(s.services))
	copy(out, s.services)
	return out
}

// SetServices replaces the services list and notifies subscribers of
// TopicServicesUpdated.
func (s *Store) SetServices(services []*dto.MembraneServiceResponse) error {
	if services == nil {
		services = []*dto.MembraneServiceResponse{}
	}

	s.mu.Lock()
	s.services = services
	s.mu.Unlock()

	return s.publish(TopicServicesUpdated, services)
}

func (s *Store) ActionsRefetch() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actionsRefetch
}

// BumpActionsRefetch increments the refetch counter and returns the new
// value.
func (s *Store) BumpActionsRefetch() (int, error) {
	s.mu.Lock()
	s.actionsRefetch++
	count := s.actionsRefetch
	s.mu.Unlock()

	return count, s.publish(TopicActionsRefetch, ActionsRefetchPayload{Count: count})
}

func (s *Store) publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), data))
}

// OnActionsRefetch calls fn for every counter change until ctx is done.
func (s *Store) OnActionsRefetch(ctx context.Context, fn func(count int)) error {
	messages, err := s.pubSub.Subscribe(ctx, TopicActionsRefetch)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var payload ActionsRefetchPayload
			if err := json.Unmarshal(msg.Payload, &payload); err == nil {
				fn(payload.Count)
			}
			msg.Ack()
		}
	}()

	return nil
}

// OnServicesUpdated calls fn with every new services list until ctx is done.
func (s *Store) OnServicesUpdated(ctx context.Context, fn func([]*dto.MembraneServiceResponse)) error {
	messages, err := s.pubSub.Subscribe(ctx, TopicServicesUpdated)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var services []*dto.MembraneServiceResponse
			if err := json.Unmarshal(msg.Payload, &services); err == nil {
				fn(services)
			}
			msg.Ack()
		}
	}()

	return nil
}

func (s *Store) Close() error {
	return s.pubSub.Close()
}
