package service

import (
	"context"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/logger"
)

type ITokenService interface {
	Issue(ctx context.Context, user dto.AuthUser) (*dto.TokenResponse, error)
}

type tokenService struct {
	minter TokenMinter
	logger logger.ILogger
}

func NewTokenService(minter TokenMinter, logger logger.ILogger) ITokenService {
	return &tokenService{minter: minter, logger: logger}
}

func (s *tokenService) Issue(ctx context.Context, user dto.AuthUser) (*dto.TokenResponse, error) {
	token, err := mintFor(s.minter, user, "Failed to generate token")
	if err != nil {
		s.logger.Error("TokenService", "Failed to mint token", map[string]interface{}{
			"user_id": user.Id,
			"error":   err.Error(),
		})
		return nil, err
	}
	return &dto.TokenResponse{Token: token}, nil
}
