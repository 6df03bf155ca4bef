package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)
	ctx := context.Background()

	mock.ExpectGet("eventix:events:detail:uuid:1").SetVal(`{"id":"1","title":"Go Conference"}`)
	var got cachedEvent
	require.NoError(t, svc.Get(ctx, "eventix:events:detail:uuid:1", &got))
	assert.Equal(t, "Go Conference", got.Title)

	mock.ExpectGet("eventix:events:detail:uuid:2").RedisNil()
	assert.ErrorIs(t, svc.Get(ctx, "eventix:events:detail:uuid:2", &got), ErrCacheMiss)

	mock.ExpectGet("eventix:events:detail:uuid:3").SetErr(errors.New("connection refused"))
	err := svc.Get(ctx, "eventix:events:detail:uuid:3", &got)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectSet("eventix:events:detail:uuid:1", []byte(`{"id":"1","title":"Go Conference"}`), 2*time.Minute).SetVal("OK")
	require.NoError(t, svc.Set(context.Background(), "eventix:events:detail:uuid:1", cachedEvent{ID: "1", Title: "Go Conference"}, 2*time.Minute))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePatternScansEveryPage(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)
	pattern := "eventix:events:list:*"

	mock.ExpectScan(0, pattern, scanBatch).SetVal([]string{"eventix:events:list:page:1", "eventix:events:list:page:2"}, 7)
	mock.ExpectDel("eventix:events:list:page:1", "eventix:events:list:page:2").SetVal(2)
	mock.ExpectScan(7, pattern, scanBatch).SetVal([]string{}, 0)

	require.NoError(t, svc.DeletePattern(context.Background(), pattern))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePatternScanError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectScan(0, "eventix:*", scanBatch).SetErr(errors.New("connection refused"))
	assert.Error(t, svc.DeletePattern(context.Background(), "eventix:*"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
