package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"membrane-connect-be/internal/entity"
	"membrane-connect-be/internal/model"
	"membrane-connect-be/internal/repository/specification"
	"membrane-connect-be/internal/repository/unitofwork"
	"membrane-connect-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembraneServiceRepository(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err, "Failed to connect to DB")

	require.NoError(t, gormDB.AutoMigrate(&model.User{}, &model.MembraneService{}))

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(gormDB).NewUnitOfWork(ctx)

	owner := model.User{Id: uuid.NewString(), Name: "Integration Owner", Email: "owner-" + uuid.NewString() + "@example.com"}
	require.NoError(t, gormDB.Create(&owner).Error)
	t.Cleanup(func() {
		gormDB.Where("user_id = ?", owner.Id).Delete(&model.MembraneService{})
		gormDB.Delete(&owner)
	})

	t.Run("Owner lookup", func(t *testing.T) {
		user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: owner.Id})
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "Integration Owner", user.DisplayName())
	})

	connectorID := "conn-" + uuid.NewString()
	svc := &entity.MembraneService{
		Id:          uuid.NewString(),
		UserId:      owner.Id,
		Name:        "Slack",
		ConnectorId: &connectorID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	t.Run("Create and list by owner", func(t *testing.T) {
		require.NoError(t, uow.MembraneServiceRepository().Create(ctx, svc))

		services, err := uow.MembraneServiceRepository().FindAll(ctx, specification.UserOwnedBy{UserID: owner.Id})
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Nil(t, services[0].ConnectionId)
		assert.Nil(t, services[0].LogoUri)
	})

	t.Run("Update connection enforces ownership", func(t *testing.T) {
		connectionID := "connection-1"

		updated, err := uow.MembraneServiceRepository().UpdateConnection(ctx, svc.Id, uuid.NewString(), &connectionID)
		require.NoError(t, err)
		assert.Nil(t, updated)

		updated, err = uow.MembraneServiceRepository().UpdateConnection(ctx, svc.Id, owner.Id, &connectionID)
		require.NoError(t, err)
		require.NotNil(t, updated)
		require.NotNil(t, updated.ConnectionId)
		assert.Equal(t, connectionID, *updated.ConnectionId)

		updated, err = uow.MembraneServiceRepository().UpdateConnection(ctx, svc.Id, owner.Id, nil)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Nil(t, updated.ConnectionId)
	})

	t.Run("Connected filter", func(t *testing.T) {
		services, err := uow.MembraneServiceRepository().FindAll(ctx,
			specification.UserOwnedBy{UserID: owner.Id},
			specification.Connected{},
		)
		require.NoError(t, err)
		assert.Empty(t, services)
	})
}
