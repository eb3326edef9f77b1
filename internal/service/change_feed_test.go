package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/service"
	"github.com/spec-kit/contest-service/internal/testutil"
)

type publishedMessage struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	messages []publishedMessage
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	if p.err != nil {
		cmd.SetErr(p.err)
		return cmd
	}
	payload, _ := message.([]byte)
	p.messages = append(p.messages, publishedMessage{channel: channel, payload: payload})
	cmd.SetVal(1)
	return cmd
}

func decodeChanges(t *testing.T, messages []publishedMessage) []service.ContestChange {
	t.Helper()
	out := make([]service.ContestChange, 0, len(messages))
	for _, m := range messages {
		var change service.ContestChange
		if err := json.Unmarshal(m.payload, &change); err != nil {
			t.Fatalf("decode %s: %v", m.payload, err)
		}
		out = append(out, change)
	}
	return out
}

func TestChangeFeedPublishesCommittedContestChanges(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	publisher := &fakePublisher{}
	service.NewChangeFeed(publisher, "contests.changes", zap.NewNop()).RegisterHandlers(s.h.Dispatcher)

	created, err := s.contests.Create(ctx, "Relay")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.contests.Publish(ctx, created.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	user, err := s.contestants.RegisterUser(ctx, "ada")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.contestants.Enroll(ctx, created.ID, user.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	changes := decodeChanges(t, publisher.messages)
	if len(changes) != 2 {
		t.Fatalf("changes = %d, want 2 (contest insert and publish)", len(changes))
	}
	for _, m := range publisher.messages {
		if m.channel != "contests.changes" {
			t.Fatalf("channel = %q", m.channel)
		}
	}
	inserted, published := changes[0], changes[1]
	if inserted.Operation != "insert" || inserted.Status != domain.ContestStatusDraft || inserted.PreviousStatus != "" {
		t.Fatalf("insert change = %+v", inserted)
	}
	if published.Operation != "update" || published.Status != domain.ContestStatusPublic ||
		published.PreviousStatus != domain.ContestStatusDraft {
		t.Fatalf("publish change = %+v", published)
	}
	if published.ContestID != created.ID || published.Name != "Relay" || !published.LockDate.Equal(created.LockDate) {
		t.Fatalf("publish change = %+v", published)
	}
	if published.EventID == "" || published.EventID == inserted.EventID {
		t.Fatalf("event ids = %q, %q", inserted.EventID, published.EventID)
	}
}

func TestChangeFeedSkipsRejectedCommits(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	publisher := &fakePublisher{}
	service.NewChangeFeed(publisher, "contests.changes", zap.NewNop()).RegisterHandlers(s.h.Dispatcher)

	created, err := s.contests.Create(ctx, "Relay")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.contests.Finalize(ctx, created.ID); err == nil {
		t.Fatal("expected finalize of a draft to fail")
	}
	if len(publisher.messages) != 1 {
		t.Fatalf("messages = %d, want only the create", len(publisher.messages))
	}
}

func TestChangeFeedFailureDoesNotFailCommand(t *testing.T) {
	s := newServices(t)
	publisher := &fakePublisher{err: errors.New("redis unavailable")}
	service.NewChangeFeed(publisher, "contests.changes", zap.NewNop()).RegisterHandlers(s.h.Dispatcher)

	created, err := s.contests.Create(context.Background(), "Relay")
	if err != nil {
		t.Fatalf("create should succeed despite feed failure: %v", err)
	}
	if !testutil.Exists(t, s.h, domain.KindContest, created.ID) {
		t.Fatal("contest should be committed")
	}
}

func TestChangeFeedWithoutPublisherIsDisabled(t *testing.T) {
	h := testutil.NewHarness(t)
	service.NewChangeFeed(nil, "contests.changes", zap.NewNop()).RegisterHandlers(h.Dispatcher)
	h.Seed(t, domain.NewContest("Relay", h.Clock.Now()))
	uow := h.NewUnitOfWork()
	uow.Add(domain.NewContest("Sprint", h.Clock.Now()))
	if _, err := uow.SaveChanges(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
}
