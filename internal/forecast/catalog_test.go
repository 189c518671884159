package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/replenish/internal/domain"
)

func newTestCatalog() *Catalog {
	return NewCatalog(New(Options{Backend: "naive"}))
}

func TestCatalogTrainPublishes(t *testing.T) {
	catalog := newTestCatalog()

	_, err := catalog.Model("s1", "p1")
	var notFound *domain.ModelNotFoundError
	require.ErrorAs(t, err, &notFound)

	version, err := catalog.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 60))
	require.NoError(t, err)
	assert.NotEmpty(t, version.ID)

	model, err := catalog.Model("s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, version.ID, model.Version().ID)
}

func TestCatalogVersionLogIsAppendOnly(t *testing.T) {
	catalog := newTestCatalog()
	history := syntheticHistory(trainStart, 60)

	first, err := catalog.Train(context.Background(), "s1", "p1", history)
	require.NoError(t, err)
	second, err := catalog.Train(context.Background(), "s1", "p1", history)
	require.NoError(t, err)

	versions, err := catalog.Versions("s1", "p1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, first.ID, versions[0].ID, "oldest version first")
	assert.Equal(t, second.ID, versions[1].ID)

	// Both versions stay addressable after the pointer moved on.
	got, err := catalog.Version("s1", "p1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	current, err := catalog.Model("s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.Version().ID)
}

func TestCatalogVersionNotFound(t *testing.T) {
	catalog := newTestCatalog()

	_, err := catalog.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 60))
	require.NoError(t, err)

	_, err = catalog.Version("s1", "p1", "no-such-version")
	var notFound *domain.ModelNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "no-such-version", notFound.VersionID)
}

func TestCatalogUpdatePublishesNewVersion(t *testing.T) {
	catalog := newTestCatalog()

	first, err := catalog.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 60))
	require.NoError(t, err)

	updated, err := catalog.Update(context.Background(), "s1", "p1", syntheticHistory(trainStart.AddDate(0, 0, 60), 7))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, updated.ID)

	versions, err := catalog.Versions("s1", "p1")
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestCatalogPairsAreIndependent(t *testing.T) {
	catalog := newTestCatalog()

	_, err := catalog.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 60))
	require.NoError(t, err)

	_, err = catalog.Model("s1", "p2")
	var notFound *domain.ModelNotFoundError
	require.ErrorAs(t, err, &notFound)

	_, err = catalog.Model("s2", "p1")
	require.ErrorAs(t, err, &notFound)
}

func TestTrainBatchIsolatesFailures(t *testing.T) {
	catalog := newTestCatalog()

	jobs := []TrainJob{
		{StoreID: "s1", ProductID: "good-1", History: syntheticHistory(trainStart, 60)},
		{StoreID: "s1", ProductID: "too-short", History: syntheticHistory(trainStart, 5)},
		{StoreID: "s1", ProductID: "good-2", History: syntheticHistory(trainStart, 90)},
	}

	results := catalog.TrainBatch(context.Background(), jobs, 2, time.Minute)
	require.Len(t, results, 3)

	// Results keep job order regardless of completion order.
	assert.Equal(t, "good-1", results[0].ProductID)
	assert.Equal(t, "too-short", results[1].ProductID)
	assert.Equal(t, "good-2", results[2].ProductID)

	require.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Version)

	var dataErr *domain.InsufficientDataError
	require.ErrorAs(t, results[1].Err, &dataErr)
	assert.Nil(t, results[1].Version)
	assert.NotEmpty(t, results[1].ErrMsg)

	require.NoError(t, results[2].Err)

	// The failing product never published anything; its siblings did.
	_, err := catalog.Model("s1", "too-short")
	var notFound *domain.ModelNotFoundError
	require.ErrorAs(t, err, &notFound)
	_, err = catalog.Model("s1", "good-1")
	require.NoError(t, err)
	_, err = catalog.Model("s1", "good-2")
	require.NoError(t, err)
}

// blockingForecaster hangs until its context is cancelled, standing in for a
// training run that overruns its deadline.
type blockingForecaster struct{}

func (f *blockingForecaster) Name() string { return "blocking" }

func (f *blockingForecaster) Train(ctx context.Context, storeID, productID string, history []domain.DemandObservation) (Model, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTrainBatchTimeout(t *testing.T) {
	catalog := NewCatalog(&blockingForecaster{})

	jobs := []TrainJob{{StoreID: "s1", ProductID: "slow"}}
	results := catalog.TrainBatch(context.Background(), jobs, 1, 10*time.Millisecond)

	require.Len(t, results, 1)
	var timeoutErr *domain.TrainTimeoutError
	require.ErrorAs(t, results[0].Err, &timeoutErr)
	assert.True(t, domain.IsRetryable(results[0].Err))
}

func TestTrainBatchCancelledContext(t *testing.T) {
	catalog := newTestCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []TrainJob{
		{StoreID: "s1", ProductID: "p1", History: syntheticHistory(trainStart, 60)},
		{StoreID: "s1", ProductID: "p2", History: syntheticHistory(trainStart, 60)},
	}

	results := catalog.TrainBatch(ctx, jobs, 2, time.Minute)
	require.Len(t, results, 2)
	for _, result := range results {
		assert.Error(t, result.Err)
		assert.Nil(t, result.Version)
	}
}

func TestCatalogForecastUsesCurrentModel(t *testing.T) {
	catalog := newTestCatalog()

	_, err := catalog.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 60))
	require.NoError(t, err)

	series, err := catalog.Forecast("s1", "p1", trainStart.AddDate(0, 0, 60), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, series.Len())

	metrics, err := catalog.Evaluate(context.Background(), "s1", "p1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, metrics.Coverage, 0.0)
}
