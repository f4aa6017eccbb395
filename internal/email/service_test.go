package email

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviceconnect/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type fakeSender struct {
	err   error
	calls int
	last  []byte
}

func (f *fakeSender) SendMail(from string, to []string, msg []byte) error {
	f.calls++
	f.last = msg
	return f.err
}

func newTestService(rdb *redis.Client, sender Sender) *Service {
	return New(rdb, sender, Options{
		From:       "noreply@serviceconnect.test",
		FromName:   "ServiceConnect",
		RetryDelay: time.Millisecond,
		PopTimeout: time.Second,
	})
}

func TestSend(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetVal(1)

	svc := newTestService(db, &fakeSender{})

	err := svc.Send(context.Background(), "user@example.com", "User", "Hello", "Test body")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSend_EmptyRecipient(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := newTestService(db, &fakeSender{})

	err := svc.Send(context.Background(), "", "User", "Hello", "Test body")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(assert.AnError)

	svc := newTestService(db, &fakeSender{})

	err := svc.Send(context.Background(), "user@example.com", "User", "Hello", "Test body")
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func encodeJob(t *testing.T, job Job) string {
	t.Helper()
	data, err := json.Marshal(job)
	require.NoError(t, err)
	return string(data)
}

func TestProcessNext_Delivers(t *testing.T) {
	db, mock := redismock.NewClientMock()
	sender := &fakeSender{}
	svc := newTestService(db, sender)

	job := Job{To: "p@example.com", Subject: "New booking request", Body: "hi", Kind: "notification"}
	mock.ExpectBRPop(time.Second, queueKey).SetVal([]string{queueKey, encodeJob(t, job)})

	ok := svc.processNext(context.Background())
	assert.True(t, ok)
	assert.Equal(t, 1, sender.calls)
	assert.True(t, strings.Contains(string(sender.last), "Subject: New booking request\r\n"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_RequeuesOnFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	sender := &fakeSender{err: errors.New("connection refused")}
	svc := newTestService(db, sender)

	job := Job{To: "p@example.com", Subject: "s", Body: "b", Kind: "notification"}
	mock.ExpectBRPop(time.Second, queueKey).SetVal([]string{queueKey, encodeJob(t, job)})
	mock.Regexp().ExpectLPush(queueKey, `"tries":1`).SetVal(1)

	ok := svc.processNext(context.Background())
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_ParksAfterMaxAttempts(t *testing.T) {
	db, mock := redismock.NewClientMock()
	sender := &fakeSender{err: errors.New("mailbox unavailable")}
	svc := newTestService(db, sender)

	job := Job{To: "p@example.com", Subject: "s", Body: "b", Kind: "notification", Tries: maxAttempts - 1}
	mock.ExpectBRPop(time.Second, queueKey).SetVal([]string{queueKey, encodeJob(t, job)})
	mock.Regexp().ExpectLPush(failedQueueKey, `mailbox unavailable`).SetVal(1)

	ok := svc.processNext(context.Background())
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_BadPayload(t *testing.T) {
	db, mock := redismock.NewClientMock()
	sender := &fakeSender{}
	svc := newTestService(db, sender)

	mock.ExpectBRPop(time.Second, queueKey).SetVal([]string{queueKey, "{not json"})

	assert.False(t, svc.processNext(context.Background()))
	assert.Equal(t, 0, sender.calls)
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLLen(queueKey).SetVal(5)

	svc := newTestService(db, &fakeSender{})

	assert.Equal(t, int64(5), svc.QueueLength(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLLen(queueKey).SetErr(assert.AnError)

	svc := newTestService(db, &fakeSender{})

	assert.Equal(t, int64(0), svc.QueueLength(context.Background()))
}
