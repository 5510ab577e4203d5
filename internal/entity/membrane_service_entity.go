package entity

import "time"

// MembraneService is an external service a user attached. ConnectionId stays
// nil until the user finishes the connect flow.
type MembraneService struct {
	Id             string
	UserId         string
	Name           string
	LogoUri        *string
	ConnectorId    *string
	IntegrationKey *string
	ExternalAppId  *string
	ConnectionId   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (s *MembraneService) IsConnected() bool {
	return s.ConnectionId != nil && *s.ConnectionId != ""
}
