package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"lms/database"
	chatModels "lms/models/chat"
	"lms/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeModel struct {
	chunks    []string
	err       error
	cancelAt  int // cancel the context before emitting this chunk index
	cancel    context.CancelFunc
	gotModel  string
	gotTurns  int
}

func (f *fakeModel) StreamCompletion(ctx context.Context, model string, messages []ModelMessage, onChunk func(string) error) (string, error) {
	f.gotModel = model
	f.gotTurns = len(messages)
	var full string
	for i, chunk := range f.chunks {
		if f.cancel != nil && i == f.cancelAt {
			f.cancel()
		}
		if ctx.Err() != nil {
			return full, ctx.Err()
		}
		full += chunk
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return full, err
			}
		}
	}
	return full, f.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestSendPersistsBothTurns(t *testing.T) {
	db := newTestDB(t)
	model := &fakeModel{chunks: []string{"Hello", ", learner"}}
	svc := New(db, model)

	conv, err := svc.CreateConversation(1, "Homework help", "tutor-small")
	require.NoError(t, err)

	var streamed string
	reply, err := svc.Send(context.Background(), 1, conv.ID, "Explain interfaces", func(chunk string) error {
		streamed += chunk
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, learner", reply.Content)
	assert.Equal(t, "Hello, learner", streamed)
	assert.False(t, reply.Truncated)
	assert.Equal(t, "tutor-small", model.gotModel)
	assert.Equal(t, 1, model.gotTurns)

	messages, err := svc.Messages(1, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, chatModels.RoleUser, messages[0].Role)
	assert.Equal(t, chatModels.RoleAssistant, messages[1].Role)
}

func TestSendCancelKeepsPartialReply(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	model := &fakeModel{chunks: []string{"part one ", "part two ", "never sent"}, cancelAt: 2, cancel: cancel}
	svc := New(db, model)

	conv, err := svc.CreateConversation(1, "", "")
	require.NoError(t, err)

	reply, err := svc.Send(ctx, 1, conv.ID, "go on", nil)
	require.NoError(t, err)
	assert.True(t, reply.Truncated)
	assert.Equal(t, "part one part two ", reply.Content)

	// Both the user turn and the partial assistant turn survive the cancel
	messages, err := svc.Messages(1, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[1].Truncated)
}

func TestSendWriteErrorKeepsPartialReplyTruncated(t *testing.T) {
	db := newTestDB(t)
	model := &fakeModel{chunks: []string{"first ", "second ", "third"}}
	svc := New(db, model)

	conv, err := svc.CreateConversation(1, "", "")
	require.NoError(t, err)

	// A dropped connection surfaces as a write error from the chunk
	// callback, not as a cancelled context
	sent := 0
	reply, err := svc.Send(context.Background(), 1, conv.ID, "stream it", func(chunk string) error {
		sent++
		if sent == 2 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	require.NoError(t, err)
	assert.True(t, reply.Truncated)
	assert.Equal(t, "first second ", reply.Content)

	messages, err := svc.Messages(1, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[1].Truncated)
}

func TestSendProviderErrorBeforeOutput(t *testing.T) {
	db := newTestDB(t)
	model := &fakeModel{err: errors.New("provider down")}
	svc := New(db, model)

	conv, err := svc.CreateConversation(1, "", "")
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), 1, conv.ID, "hello", nil)
	assert.ErrorIs(t, err, services.ErrExternalDependency)
}

func TestSendValidationAndOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, &fakeModel{chunks: []string{"ok"}})

	conv, err := svc.CreateConversation(1, "", "")
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), 1, conv.ID, "   ", nil)
	assert.ErrorIs(t, err, services.ErrValidation)

	// Another user cannot post into this thread
	_, err = svc.Send(context.Background(), 2, conv.ID, "hi", nil)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDeleteConversationHidesThread(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, &fakeModel{chunks: []string{"ok"}})

	conv, err := svc.CreateConversation(1, "temp", "")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteConversation(1, conv.ID))

	convs, err := svc.ListConversations(1)
	require.NoError(t, err)
	assert.Empty(t, convs)

	_, err = svc.Messages(1, conv.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
