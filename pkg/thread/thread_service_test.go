package thread

import (
	"chef-agent-api/domain"
	"chef-agent-api/entities"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeThreadRepository struct {
	threads map[uuid.UUID]*entities.Thread
}

func (f *fakeThreadRepository) CreateThread(_ context.Context, thread *entities.Thread) error {
	thread.ID = uuid.New()
	f.threads[thread.ID] = thread
	return nil
}

func (f *fakeThreadRepository) GetThreads(_ context.Context, userID uint) ([]entities.Thread, error) {
	var res []entities.Thread
	for _, t := range f.threads {
		if t.UserID == userID {
			res = append(res, *t)
		}
	}
	return res, nil
}

func (f *fakeThreadRepository) GetThreadByID(_ context.Context, id uuid.UUID, userID uint) (*entities.Thread, error) {
	if t, ok := f.threads[id]; ok && t.UserID == userID {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeThreadRepository) DeleteThread(_ context.Context, id uuid.UUID, userID uint) error {
	if t, ok := f.threads[id]; ok && t.UserID == userID {
		delete(f.threads, id)
		return nil
	}
	return gorm.ErrRecordNotFound
}

type fakeConversation struct {
	forgotten []string
}

func (f *fakeConversation) Forget(_ context.Context, threadID string) error {
	f.forgotten = append(f.forgotten, threadID)
	return nil
}

func TestThreadLifecycle(t *testing.T) {
	repo := &fakeThreadRepository{threads: map[uuid.UUID]*entities.Thread{}}
	conv := &fakeConversation{}
	svc := NewThreadService(repo, conv)
	ctx := context.Background()

	created, err := svc.CreateThread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), created.UserID)
	assert.NotNil(t, created.Messages)

	repo.threads[uuid.MustParse(created.ID)].Messages = []entities.Message{{ID: uuid.New(), Role: "user", Content: "hi"}}
	got, err := svc.GetThread(ctx, created.ID, 1)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hi", got.Messages[0].Content)

	list, err := svc.GetThreads(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.GetThread(ctx, created.ID, 2)
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)
	assert.ErrorIs(t, svc.DeleteThread(ctx, created.ID, 2), domain.ErrThreadNotFound)

	require.NoError(t, svc.DeleteThread(ctx, created.ID, 1))
	assert.Equal(t, []string{created.ID}, conv.forgotten)
	assert.ErrorIs(t, svc.DeleteThread(ctx, "not-a-uuid", 1), domain.ErrThreadNotFound)
}
