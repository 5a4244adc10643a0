package queue

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
)

func testProducer(t *testing.T, repo *stubProducerRepo) *Producer {
	t.Helper()
	producer, err := NewProducer(repo, config.QueueConfig{Name: "orders", MaxAttempts: 5},
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return producer
}

func TestEnqueueBuildsJob(t *testing.T) {
	ctx := context.Background()
	repo := &stubProducerRepo{}
	producer := testProducer(t, repo)

	orderID := uuid.New()
	key := OrderPartitionKey(orderID)
	job, err := producer.Enqueue(ctx, EnqueueParams{
		Name:         enums.JobDishUpdate,
		PartitionKey: &key,
		Payload:      DishUpdatePayload{OrderID: orderID, OccurredAt: time.Now().UTC()},
	})
	require.NoError(t, err)

	assert.Equal(t, "orders", job.Queue)
	assert.Equal(t, enums.JobDishUpdate, job.Name)
	assert.Equal(t, enums.JobStatusPending, job.Status)
	assert.Equal(t, 5, job.MaxAttempts)
	require.NotNil(t, job.PartitionKey)
	assert.Equal(t, "order:"+orderID.String(), *job.PartitionKey)
	assert.False(t, job.RunAt.IsZero())
	assert.Len(t, repo.inserted, 1)
}

func TestEnqueueRejectsUnknownJobName(t *testing.T) {
	ctx := context.Background()
	producer := testProducer(t, &stubProducerRepo{})

	_, err := producer.Enqueue(ctx, EnqueueParams{Name: enums.JobName("bogus")})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestEnqueueStoreFailureIsQueueUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := &stubProducerRepo{insertErr: errors.New("connection refused")}
	producer := testProducer(t, repo)

	_, err := producer.Enqueue(ctx, EnqueueParams{
		Name:    enums.JobCrudUpdate,
		Payload: CrudUpdatePayload{OrderID: uuid.New(), Action: enums.SnapshotActionUpdate},
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeQueueUnavailable, appErr.Code())
}

func TestEnqueueTxRequiresTransaction(t *testing.T) {
	ctx := context.Background()
	producer := testProducer(t, &stubProducerRepo{})

	_, err := producer.EnqueueTx(ctx, nil, EnqueueParams{Name: enums.JobCreateSnapshot})
	require.Error(t, err)
}

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	base := 2 * time.Second
	cap := 10 * time.Second

	first := RetryDelay(1, base, cap)
	assert.GreaterOrEqual(t, first, base)
	assert.Less(t, first, base+500*time.Millisecond)

	second := RetryDelay(2, base, cap)
	assert.GreaterOrEqual(t, second, 4*time.Second)

	deep := RetryDelay(10, base, cap)
	assert.GreaterOrEqual(t, deep, cap)
	assert.Less(t, deep, cap+500*time.Millisecond)
}

type stubProducerRepo struct {
	inserted  []*models.Job
	insertErr error
}

func (s *stubProducerRepo) Insert(ctx context.Context, job *models.Job) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, job)
	return nil
}

func (s *stubProducerRepo) InsertTx(tx *gorm.DB, job *models.Job) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, job)
	return nil
}
