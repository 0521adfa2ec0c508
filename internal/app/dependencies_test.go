package app

import (
	"context"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/agromarket/internal/domain"
	"github.com/vladislavdragonenkov/agromarket/internal/seed"
)

func TestNewDependencies_Memory(t *testing.T) {
	deps, err := NewDependencies(context.Background(), Config{StorageDriver: StorageDriverMemory},
		log.WithField("test", "memory-storage"))
	require.NoError(t, err)
	defer deps.Close()

	require.NotNil(t, deps.Store)
	require.NotNil(t, deps.Registry)
	require.NotNil(t, deps.Session)
	require.NotNil(t, deps.Outbox)
	require.NotNil(t, deps.Market)
	require.NoError(t, deps.Store.Ping())
}

func TestNewDependencies_FileSurvivesReopen(t *testing.T) {
	cfg := Config{
		StorageDriver: StorageDriverFile,
		StorageFile:   filepath.Join(t.TempDir(), "market.json"),
	}

	deps, err := NewDependencies(context.Background(), cfg, nil)
	require.NoError(t, err)

	result, err := deps.Market.Migrator.EnsureMigrated(seed.Default{})
	require.NoError(t, err)
	require.Equal(t, 18, result.Products)
	require.NoError(t, deps.Close())

	reopened, err := NewDependencies(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer reopened.Close()

	require.Len(t, reopened.Market.Catalog.ListAll(), 18)
	require.Len(t, reopened.Registry.List(), 6)

	// события миграции не создаются, а вот новый заказ попадает в outbox
	order, err := reopened.Market.Ledger.Create(domain.OrderDraft{
		BuyerMobileNumber: "9876543210",
		ProductID:         "prod-001",
		QuantityOrdered:   1,
	})
	require.NoError(t, err)

	pending, err := reopened.Outbox.PullPending(10)
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	require.Equal(t, order.OrderID, pending[len(pending)-1].AggregateID)
}

func TestNewDependencies_PostgresRequiresDSN(t *testing.T) {
	_, err := NewDependencies(context.Background(), Config{StorageDriver: StorageDriverPostgres}, nil)
	require.Error(t, err)
}

func TestNewDependencies_RedisRequiresAddr(t *testing.T) {
	_, err := NewDependencies(context.Background(), Config{StorageDriver: StorageDriverRedis}, nil)
	require.Error(t, err)
}

func TestNewDependencies_UnsupportedDriver(t *testing.T) {
	_, err := NewDependencies(context.Background(), Config{StorageDriver: "sqlite"}, nil)
	require.Error(t, err)
}
