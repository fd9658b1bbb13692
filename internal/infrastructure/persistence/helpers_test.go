package persistence

import (
	"context"
	"testing"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared/valueobject"
	"github.com/facturacion/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database with every table.
// A single connection keeps the in-memory database shared across goroutines.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig(gormlogger.Default.LogMode(gormlogger.Silent)))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// hierarchy is a channel with one activity, branch and register
type hierarchy struct {
	owner    uuid.UUID
	channel  *organization.Channel
	activity *organization.Activity
	branch   *organization.Branch
	register *organization.Register
}

func seedChannel(t *testing.T, db *gorm.DB, code, identNumber string) (*organization.Channel, uuid.UUID) {
	t.Helper()
	li, err := valueobject.NewLegalIdent("02", identNumber)
	require.NoError(t, err)
	ch, err := organization.NewChannel(code, li, organization.ChannelContact{Name: "Channel " + code})
	require.NoError(t, err)
	owner := uuid.New()
	require.NoError(t, NewGormChannelRepository(db).Create(context.Background(), ch, owner))
	return ch, owner
}

func seedHierarchy(t *testing.T, db *gorm.DB, initial map[organization.DocumentType]uint64) hierarchy {
	t.Helper()
	ctx := context.Background()
	ch, owner := seedChannel(t, db, "SHOP-1", "3101123456")

	activity, err := organization.NewActivity(ch.ID, "523101", "Retail")
	require.NoError(t, err)
	require.NoError(t, NewGormActivityRepository(db).Create(ctx, activity))

	branch, err := organization.NewBranch(activity, "001", organization.BranchDetails{Name: "Main"})
	require.NoError(t, err)
	require.NoError(t, NewGormBranchRepository(db).Create(ctx, branch))

	register, err := organization.NewRegister(branch, "00001", "Front desk", initial)
	require.NoError(t, err)
	require.NoError(t, NewGormRegisterRepository(db).Create(ctx, register))

	return hierarchy{owner: owner, channel: ch, activity: activity, branch: branch, register: register}
}
