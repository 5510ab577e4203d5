package model

import "time"

type MembraneService struct {
	Id             string    `gorm:"type:varchar(64);primaryKey"`
	UserId         string    `gorm:"type:varchar(255);not null;index"`
	Name           string    `gorm:"type:varchar(255);not null"`
	LogoUri        *string   `gorm:"type:text"`
	ConnectorId    *string   `gorm:"type:varchar(255)"`
	IntegrationKey *string   `gorm:"type:varchar(255)"`
	ExternalAppId  *string   `gorm:"type:varchar(255)"`
	ConnectionId   *string   `gorm:"type:varchar(255)"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (MembraneService) TableName() string {
	return "membrane_services"
}
