package redisgeo_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/redisgeo"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var reportedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// GeoIndexIntegrationTestSuite runs the Redis GEO index against a real Redis.
type GeoIndexIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	client    *redis.Client
	index     *redisgeo.GeoIndex
}

func (suite *GeoIndexIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	suite.Require().NoError(err)
	suite.container = container

	endpoint, err := container.Endpoint(ctx, "")
	suite.Require().NoError(err)

	suite.client = redis.NewClient(&redis.Options{Addr: endpoint})
	suite.Require().NoError(suite.client.Ping(ctx).Err())
}

func (suite *GeoIndexIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.client.FlushDB(context.Background()).Err())
	suite.index = redisgeo.NewGeoIndex(suite.client, "")
}

func (suite *GeoIndexIntegrationTestSuite) TearDownSuite() {
	if suite.client != nil {
		suite.Require().NoError(suite.client.Close())
	}
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *GeoIndexIntegrationTestSuite) TestFindCandidates_NearestOnlineFirst() {
	ctx := context.Background()
	suite.upsert("p-far", 13.04, 77.59, partner.Online)
	suite.upsert("p-near", 12.99, 77.59, partner.Online)
	suite.upsert("p-break", 12.98, 77.59, partner.Break)
	suite.upsert("p-out", 13.12, 77.59, partner.Online)

	found, err := suite.index.FindCandidates(ctx, suite.location(12.97, 77.59), 10)

	suite.Require().NoError(err)
	suite.Require().Len(found, 2)
	suite.Equal("p-near", found[0].ID())
	suite.Equal("p-far", found[1].ID())
}

func (suite *GeoIndexIntegrationTestSuite) TestFindCandidates_RoundTripsSnapshot() {
	ctx := context.Background()
	perf := partner.Performance{AcceptanceRate: 87.5, AvgResponseTimeSeconds: 12.25, AvgDeliveryTimeMinutes: 24}
	s, err := partner.NewSnapshot("p-1", suite.location(12.975, 77.595), reportedAt, partner.Online, perf, 1, 3)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.index.Upsert(ctx, s))

	found, err := suite.index.FindCandidates(ctx, suite.location(12.97, 77.59), 5)

	suite.Require().NoError(err)
	suite.Require().Len(found, 1)
	got := found[0]
	suite.Equal(perf, got.Performance())
	suite.Equal(1, got.CurrentLoad())
	suite.Equal(3, got.MaxConcurrentOrders())
	suite.True(reportedAt.Equal(got.ReportedAt()))
	suite.InDelta(12.975, got.Location().Latitude(), 1e-4)
	suite.InDelta(77.595, got.Location().Longitude(), 1e-4)
}

func (suite *GeoIndexIntegrationTestSuite) TestUpsertMovesAndRemoveDrops() {
	ctx := context.Background()
	center := suite.location(12.97, 77.59)
	suite.upsert("p-1", 13.2, 77.59, partner.Online)

	found, err := suite.index.FindCandidates(ctx, center, 5)
	suite.Require().NoError(err)
	suite.Empty(found)

	suite.upsert("p-1", 12.98, 77.59, partner.Online)
	found, err = suite.index.FindCandidates(ctx, center, 5)
	suite.Require().NoError(err)
	suite.Len(found, 1)

	suite.Require().NoError(suite.index.Remove(ctx, "p-1"))
	found, err = suite.index.FindCandidates(ctx, center, 5)
	suite.Require().NoError(err)
	suite.Empty(found)
}

func (suite *GeoIndexIntegrationTestSuite) TestFindCandidates_SkipsMembersWithoutSnapshot() {
	ctx := context.Background()
	suite.upsert("p-1", 12.98, 77.59, partner.Online)
	suite.Require().NoError(suite.client.Del(ctx, redisgeo.DefaultKeyPrefix+"partner:p-1").Err())

	found, err := suite.index.FindCandidates(ctx, suite.location(12.97, 77.59), 5)

	suite.Require().NoError(err)
	suite.Empty(found)
}

func (suite *GeoIndexIntegrationTestSuite) TestFindCandidates_SkipsCorruptSnapshot() {
	ctx := context.Background()
	suite.upsert("p-1", 12.98, 77.59, partner.Online)
	suite.upsert("p-2", 12.99, 77.59, partner.Online)
	suite.Require().NoError(suite.client.HSet(ctx, redisgeo.DefaultKeyPrefix+"partner:p-1", "acceptance_rate", "100.5").Err())

	found, err := suite.index.FindCandidates(ctx, suite.location(12.97, 77.59), 5)

	suite.Require().NoError(err)
	suite.Require().Len(found, 1)
	suite.Equal("p-2", found[0].ID())
}

func (suite *GeoIndexIntegrationTestSuite) TestFindCandidates_RejectsNegativeRadius() {
	_, err := suite.index.FindCandidates(context.Background(), suite.location(12.97, 77.59), -1)

	suite.Require().ErrorIs(err, errs.ErrValueIsInvalid)
}

func (suite *GeoIndexIntegrationTestSuite) TestPrefixesIsolateIndexes() {
	ctx := context.Background()
	other := redisgeo.NewGeoIndex(suite.client, "other:")
	suite.upsert("p-1", 12.98, 77.59, partner.Online)

	found, err := other.FindCandidates(ctx, suite.location(12.97, 77.59), 5)

	suite.Require().NoError(err)
	suite.Empty(found)
}

func (suite *GeoIndexIntegrationTestSuite) upsert(id string, lat, lon float64, status partner.AvailabilityStatus) {
	perf := partner.Performance{AcceptanceRate: 90, AvgResponseTimeSeconds: 10}
	s, err := partner.NewSnapshot(id, suite.location(lat, lon), reportedAt, status, perf, 0, 2)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.index.Upsert(context.Background(), s))
}

func (suite *GeoIndexIntegrationTestSuite) location(lat, lon float64) kernel.Location {
	loc, err := kernel.NewLocation(lat, lon)
	suite.Require().NoError(err)
	return loc
}

func TestGeoIndexIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(GeoIndexIntegrationTestSuite))
}
