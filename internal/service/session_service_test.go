package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepdesk/session-backend/internal/client"
	"github.com/prepdesk/session-backend/internal/config"
	"github.com/prepdesk/session-backend/internal/engine"
	"github.com/prepdesk/session-backend/internal/model"
	"github.com/prepdesk/session-backend/internal/store"
)

func intp(v int) *int { return &v }

// fakeProvider serves tests from a map, mirroring the content API's
// terminal-failure contract for unknown ids.
type fakeProvider struct {
	tests map[string]*model.Test
}

func (p *fakeProvider) FetchTest(ctx context.Context, testID string) (*model.Test, error) {
	t, ok := p.tests[testID]
	if !ok {
		return nil, client.ErrTestUnavailable
	}
	return t, nil
}

func mockTest(id string) *model.Test {
	return &model.Test{
		ID:           id,
		Name:         "Mock",
		TimeLimit:    30,
		PositiveMark: 2,
		NegativeMark: 0.5,
		Questions: []model.Question{
			{Text: "q1", Options: []string{"a", "b", "c", "d"}, CorrectIndex: intp(0)},
			{Text: "q2", Options: []string{"a", "b", "c", "d"}, CorrectIndex: intp(1)},
		},
	}
}

func newTestService(tests ...*model.Test) *SessionService {
	provider := &fakeProvider{tests: make(map[string]*model.Test)}
	for _, t := range tests {
		provider.tests[t.ID] = t
	}
	storeFor := func(ownerID string) engine.ProgressStore {
		return store.NewMemoryProgressStore()
	}
	// nil repo and redis client: persistence is skipped, results stay local.
	return NewSessionService(provider, storeFor, nil, nil, &config.Config{}, zerolog.Nop())
}

func TestStartAndGet(t *testing.T) {
	svc := newTestService(mockTest("t1"))

	id, sess, err := svc.Start(context.Background(), &model.StartSessionRequest{TestID: "t1", OwnerID: "o1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess == nil {
		t.Fatal("Start returned nil session")
	}

	got, err := svc.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != sess {
		t.Error("Get returned a different session instance")
	}

	if _, err := svc.Get(uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get unknown id: err = %v, want ErrSessionNotFound", err)
	}
}

func TestStartUnknownTest(t *testing.T) {
	svc := newTestService()

	_, _, err := svc.Start(context.Background(), &model.StartSessionRequest{TestID: "nope", OwnerID: "o1"})
	if !errors.Is(err, client.ErrTestUnavailable) {
		t.Fatalf("err = %v, want ErrTestUnavailable", err)
	}
}

func TestStartEmptyTest(t *testing.T) {
	empty := &model.Test{ID: "empty", Name: "Empty"}
	svc := newTestService(empty)

	_, _, err := svc.Start(context.Background(), &model.StartSessionRequest{TestID: "empty", OwnerID: "o1"})
	if !errors.Is(err, engine.ErrInvalidTest) {
		t.Fatalf("err = %v, want ErrInvalidTest", err)
	}
}

func TestSubmitFlow(t *testing.T) {
	svc := newTestService(mockTest("t1"))
	ctx := context.Background()

	id, sess, err := svc.Start(ctx, &model.StartSessionRequest{TestID: "t1", OwnerID: "o1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.Result(id); !errors.Is(err, ErrNotSubmitted) {
		t.Fatalf("Result before submit: err = %v, want ErrNotSubmitted", err)
	}

	if err := sess.SelectOption(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := sess.SaveAndAdvance(ctx); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Submit(id)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Correct != 1 || res.Score != 2 {
		t.Errorf("result = correct %d score %v, want 1 / 2", res.Correct, res.Score)
	}

	// A repeat submit returns the same result instead of failing, covering
	// the manual-click / timer-expiry race.
	again, err := svc.Submit(id)
	if err != nil {
		t.Fatalf("repeat Submit: %v", err)
	}
	if again.ID != res.ID {
		t.Error("repeat Submit produced a new result")
	}

	got, err := svc.Result(id)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if got.ID != res.ID {
		t.Error("Result disagrees with Submit")
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	svc := newTestService(mockTest("t1"))
	if _, err := svc.Submit(uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestImmediateSubmitStillFinalizes(t *testing.T) {
	svc := newTestService(mockTest("t1"))

	id, _, err := svc.Start(context.Background(), &model.StartSessionRequest{TestID: "t1", OwnerID: "o1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Submit in the same instant Start returns: the submitted event must
	// reach the watcher even though no tick has ever fired.
	if _, err := svc.Submit(id); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	svc.mu.Lock()
	ls := svc.sessions[id]
	svc.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for {
		svc.mu.Lock()
		completed := !ls.completedAt.IsZero()
		svc.mu.Unlock()
		if completed {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("session was never finalized after an immediate submit")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatchSubmissionFinalizesTimerExpiry(t *testing.T) {
	test := mockTest("t1")
	test.TimeLimit = 1
	svc := newTestService(test)

	id, sess, err := svc.Start(context.Background(), &model.StartSessionRequest{TestID: "t1", OwnerID: "o1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Drive the countdown by hand instead of waiting a wall-clock minute.
	for i := 0; i < 60; i++ {
		sess.Tick()
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := svc.Result(id); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("result never became available after timer expiry")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
