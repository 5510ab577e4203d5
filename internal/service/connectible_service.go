package service

import (
	"context"
	"encoding/json"
	"strings"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/pkg/connectible"
	"membrane-connect-be/pkg/membrane"

	"golang.org/x/sync/errgroup"
)

const connectibleListLimit = 50

type IConnectibleService interface {
	Search(ctx context.Context, user dto.AuthUser, query string) (*dto.SearchConnectiblesResponse, error)
}

type connectibleService struct {
	api    MembraneAPI
	minter TokenMinter
	logger logger.ILogger
}

func NewConnectibleService(api MembraneAPI, minter TokenMinter, logger logger.ILogger) IConnectibleService {
	return &connectibleService{api: api, minter: minter, logger: logger}
}

// Search lists integrations and external apps when query is blank, and
// otherwise searches integrations, apps and connectors in parallel. Each
// upstream call fails soft to an empty list.
func (s *connectibleService) Search(ctx context.Context, user dto.AuthUser, query string) (*dto.SearchConnectiblesResponse, error) {
	token, err := mintFor(s.minter, user, "Failed to search connectibles")
	if err != nil {
		s.logger.Error("ConnectibleService", "Failed to mint token", map[string]interface{}{
			"user_id": user.Id,
			"error":   err.Error(),
		})
		return nil, err
	}

	query = strings.TrimSpace(query)
	var integrations, apps, connectors []json.RawMessage

	var g errgroup.Group
	if query == "" {
		g.Go(func() error {
			integrations = s.softList(ctx, token, "integrations")
			return nil
		})
		g.Go(func() error {
			apps = s.softList(ctx, token, "external-apps")
			return nil
		})
	} else {
		g.Go(func() error {
			integrations = s.softSearch(ctx, token, membrane.ElementIntegration, query)
			return nil
		})
		g.Go(func() error {
			apps = s.softSearch(ctx, token, membrane.ElementApp, query)
			return nil
		})
		g.Go(func() error {
			connectors = s.softSearch(ctx, token, membrane.ElementConnector, query)
			return nil
		})
	}
	_ = g.Wait()

	merged := connectible.Merge(
		membrane.ParseIntegrations(integrations),
		membrane.ParseApps(apps),
		membrane.ParseConnectors(connectors),
	)
	if merged == nil {
		merged = []connectible.Connectible{}
	}
	return &dto.SearchConnectiblesResponse{Connectibles: merged}, nil
}

func (s *connectibleService) softSearch(ctx context.Context, token, elementType, query string) []json.RawMessage {
	items, err := s.api.Search(ctx, token, elementType, query)
	if err != nil {
		s.logger.Warn("ConnectibleService", "Search failed, continuing without results", map[string]interface{}{
			"element_type": elementType,
			"error":        err.Error(),
		})
		return nil
	}
	return items
}

func (s *connectibleService) softList(ctx context.Context, token, endpoint string) []json.RawMessage {
	items, err := s.api.List(ctx, token, endpoint, connectibleListLimit)
	if err != nil {
		s.logger.Warn("ConnectibleService", "List failed, continuing without results", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return nil
	}
	return items
}
