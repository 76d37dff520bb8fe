package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/local/finfinder/internal/classifier"
	"github.com/local/finfinder/internal/finder"
	"github.com/local/finfinder/internal/report"
)

func sampleResult() Result {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	finished := created.Add(1500 * time.Millisecond)
	return Result{
		JobID:  "job-1",
		Status: StatusDone,
		Source: "s3://filings/acme/2019.pdf",
		Document: &finder.DocumentResult{
			Company:  "acme",
			Document: "2019",
			Pages: report.DocumentPages{
				classifier.Income:        "5",
				classifier.BalanceSheets: "6",
				classifier.CashFlows:     "7",
			},
			TotalPages: 80,
			Iterations: 1,
		},
		Created:  created,
		Finished: &finished,
	}
}

type RedisResultsSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	store *RedisResults
}

func (s *RedisResultsSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.store = NewRedisResultsFromClient(db, time.Hour)
}

func (s *RedisResultsSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *RedisResultsSuite) TestSetWritesHashWithTTL() {
	r := sampleResult()
	doc, _ := json.Marshal(r.Document)

	s.mock.ExpectHSet("finfinder:result:job-1",
		"status", StatusDone,
		"source", r.Source,
		"error", "",
		"document", string(doc),
		"created", "2024-05-01T12:00:00Z",
		"finished", "2024-05-01T12:00:01.5Z",
	).SetVal(6)
	s.mock.ExpectExpire("finfinder:result:job-1", time.Hour).SetVal(true)

	s.NoError(s.store.Set(context.Background(), r))
}

func (s *RedisResultsSuite) TestSetPropagatesError() {
	s.mock.ExpectHSet("finfinder:result:job-2",
		"status", StatusFailed,
		"source", "a.pdf",
		"error", "open a.pdf: damaged",
		"document", "",
		"created", "0001-01-01T00:00:00Z",
		"finished", "",
	).SetErr(errors.New("READONLY"))

	err := s.store.Set(context.Background(), Result{JobID: "job-2", Status: StatusFailed, Source: "a.pdf", Error: "open a.pdf: damaged"})
	s.EqualError(err, "READONLY")
}

func (s *RedisResultsSuite) TestGet() {
	r := sampleResult()
	doc, _ := json.Marshal(r.Document)
	s.mock.ExpectHGetAll("finfinder:result:job-1").SetVal(map[string]string{
		"status":   StatusDone,
		"source":   r.Source,
		"error":    "",
		"document": string(doc),
		"created":  "2024-05-01T12:00:00Z",
		"finished": "2024-05-01T12:00:01.5Z",
	})

	got, ok, err := s.store.Get(context.Background(), "job-1")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(r.Source, got.Source)
	s.Equal(r.Document.Pages, got.Document.Pages)
	s.True(r.Created.Equal(got.Created))
	s.Require().NotNil(got.Finished)
	s.True(r.Finished.Equal(*got.Finished))
}

func (s *RedisResultsSuite) TestGetMissing() {
	s.mock.ExpectHGetAll("finfinder:result:nope").SetVal(map[string]string{})

	_, ok, err := s.store.Get(context.Background(), "nope")
	s.NoError(err)
	s.False(ok)
}

func (s *RedisResultsSuite) TestGetCorruptDocument() {
	s.mock.ExpectHGetAll("finfinder:result:bad").SetVal(map[string]string{"status": StatusDone, "document": "{"})

	_, _, err := s.store.Get(context.Background(), "bad")
	s.Error(err)
}

func (s *RedisResultsSuite) TestPing() {
	s.mock.ExpectPing().SetVal("PONG")
	s.NoError(s.store.Ping(context.Background()))
}

func TestRedisResultsSuite(t *testing.T) {
	suite.Run(t, new(RedisResultsSuite))
}

func TestMemoryResults(t *testing.T) {
	m := NewMemoryResults(time.Minute)
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, ok)

	r := sampleResult()
	require.NoError(t, m.Set(ctx, r))
	got, ok, err := m.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, r, got)

	assert.NoError(t, m.Ping(ctx))
	require.NoError(t, m.Close())
	_, ok, _ = m.Get(ctx, "job-1")
	assert.False(t, ok)
}

func TestMemoryResultsExpire(t *testing.T) {
	m := NewMemoryResults(20 * time.Millisecond)
	require.NoError(t, m.Set(context.Background(), Result{JobID: "short"}))
	time.Sleep(40 * time.Millisecond)
	_, ok, _ := m.Get(context.Background(), "short")
	assert.False(t, ok)
}

var _ Results = (*RedisResults)(nil)
var _ Results = (*MemoryResults)(nil)
