package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/loomcommerce/paygate/internal/clock"
	"github.com/loomcommerce/paygate/internal/customer/domain"
	"github.com/loomcommerce/paygate/internal/customer/repository"
	"github.com/loomcommerce/paygate/internal/processor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testDirectory struct {
	dir         domain.Directory
	db          *gorm.DB
	remoteCalls *int
}

func newTestDirectory(t *testing.T, update domain.UpdatePolicy) testDirectory {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"id":"cus_remote_1","email":"jane@shop.test","description":"Customer for user u1"}`))
	}))
	t.Cleanup(srv.Close)

	client := processor.NewClient(processor.Config{APIKey: "sk_test", BaseURL: srv.URL}, zap.NewNop())
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	if update == nil {
		update = domain.DefaultUpdatePolicy()
	}
	dir := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Repo:      repository.Provide(db),
		Processor: client,
		GenID:     node,
		Clock:     clock.SystemClock{},
		Create:    domain.DefaultCreationPolicy(),
		Update:    update,
	})
	return testDirectory{dir: dir, db: db, remoteCalls: &calls}
}

func TestResolveCreatesOnceAndCaches(t *testing.T) {
	td := newTestDirectory(t, nil)
	ctx := context.Background()
	node, _ := snowflake.NewNode(2)
	gatewayID := node.Generate()
	user := domain.User{ID: "u1", Email: "jane@shop.test"}

	created, err := td.dir.Resolve(ctx, gatewayID, user)
	require.NoError(t, err)
	require.Equal(t, "cus_remote_1", created.Reference)
	require.Equal(t, 1, *td.remoteCalls)

	// The default update policy declines, so the second resolve is served
	// entirely from the local row.
	cached, err := td.dir.Resolve(ctx, gatewayID, user)
	require.NoError(t, err)
	require.Equal(t, created.ID, cached.ID)
	require.Equal(t, 1, *td.remoteCalls)

	var count int64
	require.NoError(t, td.db.Model(&domain.Customer{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestResolveAppliesUpdatePatch(t *testing.T) {
	patching := func(ctx context.Context, c *domain.Customer) (*processor.CustomerParams, error) {
		return &processor.CustomerParams{Email: "new@shop.test"}, nil
	}
	td := newTestDirectory(t, patching)
	ctx := context.Background()
	node, _ := snowflake.NewNode(3)
	gatewayID := node.Generate()
	user := domain.User{ID: "u1", Email: "jane@shop.test"}

	_, err := td.dir.Resolve(ctx, gatewayID, user)
	require.NoError(t, err)
	require.Equal(t, 1, *td.remoteCalls)

	// An opted-in patch triggers exactly one remote update per resolve.
	_, err = td.dir.Resolve(ctx, gatewayID, user)
	require.NoError(t, err)
	require.Equal(t, 2, *td.remoteCalls)
}

func TestByReference(t *testing.T) {
	td := newTestDirectory(t, nil)
	ctx := context.Background()
	node, _ := snowflake.NewNode(4)

	_, err := td.dir.Resolve(ctx, node.Generate(), domain.User{ID: "u1"})
	require.NoError(t, err)

	found, err := td.dir.ByReference(ctx, "cus_remote_1")
	require.NoError(t, err)
	require.Equal(t, "u1", found.UserID)

	_, err = td.dir.ByReference(ctx, "cus_missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteRemovesRow(t *testing.T) {
	td := newTestDirectory(t, nil)
	ctx := context.Background()
	node, _ := snowflake.NewNode(5)

	created, err := td.dir.Resolve(ctx, node.Generate(), domain.User{ID: "u1"})
	require.NoError(t, err)
	require.NoError(t, td.dir.Delete(ctx, created.ID))

	_, err = td.dir.ByID(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
