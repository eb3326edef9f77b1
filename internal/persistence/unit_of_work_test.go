package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/persistence"
	"github.com/spec-kit/contest-service/internal/testutil"
	"github.com/spec-kit/contest-service/internal/tracking"
)

// recordingInterceptor logs the save cycle and runs optional hooks.
type recordingInterceptor struct {
	calls    []string
	onSaving func(ctx context.Context, uow *persistence.UnitOfWork, changes tracking.Snapshot) error
	savedErr error
	failures []error
}

func (r *recordingInterceptor) SavingChanges(ctx context.Context, uow *persistence.UnitOfWork, changes tracking.Snapshot) error {
	r.calls = append(r.calls, "saving")
	if r.onSaving != nil {
		return r.onSaving(ctx, uow, changes)
	}
	return nil
}

func (r *recordingInterceptor) SavedChanges(context.Context, *persistence.UnitOfWork, tracking.Snapshot) error {
	r.calls = append(r.calls, "saved")
	return r.savedErr
}

func (r *recordingInterceptor) SaveChangesFailed(_ context.Context, _ *persistence.UnitOfWork, err error) {
	r.calls = append(r.calls, "failed")
	r.failures = append(r.failures, err)
}

func seed(t *testing.T, store persistence.Store, entities ...tracking.Entity) {
	t.Helper()
	uow := persistence.NewUnitOfWork(store)
	for _, entity := range entities {
		uow.Add(entity)
	}
	if _, err := uow.SaveChanges(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func draft(name string) *domain.Contest {
	return domain.NewContest(name, testutil.Epoch)
}

func TestAddAssignsIDAndPersists(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()

	uow := persistence.NewUnitOfWork(store)
	contest := draft("Spring Open")
	uow.Add(contest)
	if contest.ID == "" {
		t.Fatal("expected Add to assign an id")
	}
	n, err := uow.SaveChanges(ctx)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != 1 {
		t.Fatalf("written = %d, want 1", n)
	}
	if uow.HasChanges() {
		t.Fatal("expected no pending changes after save")
	}

	got, err := persistence.FindAs[*domain.Contest](ctx, persistence.NewUnitOfWork(store), domain.KindContest, contest.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "Spring Open" || got.Status != domain.ContestStatusDraft {
		t.Fatalf("got %+v", got)
	}
	if !got.LockDate.Equal(contest.LockDate) {
		t.Fatalf("lock date = %v, want %v", got.LockDate, contest.LockDate)
	}
}

func TestAddKeepsExistingID(t *testing.T) {
	uow := persistence.NewUnitOfWork(testutil.OpenStore(t))
	user := &domain.User{ID: "user-1", Username: "ada"}
	uow.Add(user)
	if user.ID != "user-1" {
		t.Fatalf("id = %q, want user-1", user.ID)
	}
}

func TestSaveInsertsParentsBeforeChildren(t *testing.T) {
	store := testutil.OpenStore(t)
	uow := persistence.NewUnitOfWork(store)

	user := &domain.User{Username: "ada"}
	contest := draft("Relay")
	contestant := &domain.Contestant{}
	// Tracked child first; foreign keys would reject it if written in tracking order.
	uow.Add(contestant)
	uow.Add(contest)
	uow.Add(user)
	contestant.UserID = user.ID
	contestant.ContestID = contest.ID

	n, err := uow.SaveChanges(context.Background())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != 3 {
		t.Fatalf("written = %d, want 3", n)
	}
}

func TestSaveDeletesChildrenBeforeParents(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()
	user := &domain.User{Username: "ada"}
	contest := draft("Relay")
	seed(t, store, user, contest)
	contestant := &domain.Contestant{UserID: user.ID, ContestID: contest.ID}
	seed(t, store, contestant)

	uow := persistence.NewUnitOfWork(store)
	loadedContest, err := uow.Find(ctx, domain.KindContest, contest.ID)
	if err != nil {
		t.Fatalf("find contest: %v", err)
	}
	loadedContestant, err := uow.Find(ctx, domain.KindContestant, contestant.ID)
	if err != nil {
		t.Fatalf("find contestant: %v", err)
	}
	uow.Remove(loadedContest)
	uow.Remove(loadedContestant)

	if _, err := uow.SaveChanges(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := persistence.NewUnitOfWork(store).Find(ctx, domain.KindContest, contest.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("find deleted contest err = %v, want ErrNotFound", err)
	}
}

func TestUpdateWritesOnlyModifiedEntities(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()
	contest := draft("Relay")
	seed(t, store, contest)

	uow := persistence.NewUnitOfWork(store)
	loaded, err := persistence.FindAs[*domain.Contest](ctx, uow, domain.KindContest, contest.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if uow.HasChanges() {
		t.Fatal("loaded entity should not be pending")
	}
	n, err := uow.SaveChanges(ctx)
	if err != nil || n != 0 {
		t.Fatalf("save unchanged = %d, %v; want 0, nil", n, err)
	}

	loaded.Name = "Relay Finals"
	entries := uow.Entries()
	if len(entries) != 1 || entries[0].Operation != tracking.Update {
		t.Fatalf("entries = %+v, want one update", entries)
	}
	if n, err := uow.SaveChanges(ctx); err != nil || n != 1 {
		t.Fatalf("save = %d, %v; want 1, nil", n, err)
	}

	reloaded, err := persistence.FindAs[*domain.Contest](ctx, persistence.NewUnitOfWork(store), domain.KindContest, contest.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Name != "Relay Finals" {
		t.Fatalf("name = %q, want Relay Finals", reloaded.Name)
	}
}

func TestRemoveOfAddedEntityForgetsIt(t *testing.T) {
	uow := persistence.NewUnitOfWork(testutil.OpenStore(t))
	contest := draft("Relay")
	uow.Add(contest)
	uow.Remove(contest)
	if uow.HasChanges() {
		t.Fatal("removing an added entity should leave nothing pending")
	}
}

func TestFindReturnsTrackedInstance(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()
	contest := draft("Relay")
	seed(t, store, contest)

	uow := persistence.NewUnitOfWork(store)
	first, err := uow.Find(ctx, domain.KindContest, contest.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	second, err := uow.Find(ctx, domain.KindContest, contest.ID)
	if err != nil {
		t.Fatalf("find again: %v", err)
	}
	if first != second {
		t.Fatal("expected the same tracked instance")
	}

	uow.Remove(first)
	if _, err := uow.Find(ctx, domain.KindContest, contest.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("find removed err = %v, want ErrNotFound", err)
	}
	if _, err := uow.Find(ctx, domain.KindContest, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("find missing err = %v, want ErrNotFound", err)
	}
}

func TestCountIncludesPendingChanges(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()
	ada, bob, cy := &domain.User{Username: "ada"}, &domain.User{Username: "bob"}, &domain.User{Username: "cy"}
	relay, sprint := draft("Relay"), draft("Sprint")
	seed(t, store, ada, bob, cy, relay, sprint)
	stay := &domain.Contestant{UserID: ada.ID, ContestID: relay.ID}
	leave := &domain.Contestant{UserID: bob.ID, ContestID: relay.ID}
	move := &domain.Contestant{UserID: cy.ID, ContestID: relay.ID}
	seed(t, store, stay, leave, move)

	uow := persistence.NewUnitOfWork(store)
	if n, err := uow.Count(ctx, domain.ContestantsOf(relay.ID)); err != nil || n != 3 {
		t.Fatalf("count = %d, %v; want 3", n, err)
	}

	loadedLeave, err := uow.Find(ctx, domain.KindContestant, leave.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	uow.Remove(loadedLeave)
	loadedMove, err := persistence.FindAs[*domain.Contestant](ctx, uow, domain.KindContestant, move.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	loadedMove.ContestID = sprint.ID
	uow.Add(&domain.Contestant{UserID: bob.ID, ContestID: sprint.ID})

	if n, err := uow.Count(ctx, domain.ContestantsOf(relay.ID)); err != nil || n != 1 {
		t.Fatalf("relay count = %d, %v; want 1", n, err)
	}
	if n, err := uow.Count(ctx, domain.ContestantsOf(sprint.ID)); err != nil || n != 2 {
		t.Fatalf("sprint count = %d, %v; want 2", n, err)
	}
	found, err := uow.Any(ctx, domain.ContestantsOf("nobody"))
	if err != nil || found {
		t.Fatalf("any = %v, %v; want false", found, err)
	}
}

func TestCountRejectsUnindexedField(t *testing.T) {
	uow := persistence.NewUnitOfWork(testutil.OpenStore(t))
	_, err := uow.Count(context.Background(), tracking.Query{Kind: domain.KindUser, Field: domain.UserFieldUsername, Value: "ada"})
	if !errors.Is(err, persistence.ErrUnsupportedQuery) {
		t.Fatalf("err = %v, want ErrUnsupportedQuery", err)
	}
}

func TestFailedSaveKeepsPendingChanges(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()
	recorder := &recordingInterceptor{}
	uow := persistence.NewUnitOfWork(store, persistence.WithInterceptor(recorder))

	first := &domain.User{Username: "ada"}
	second := &domain.User{Username: "ada"}
	uow.Add(first)
	uow.Add(second)

	_, err := uow.SaveChanges(ctx)
	if !errors.Is(err, persistence.ErrConstraint) {
		t.Fatalf("err = %v, want ErrConstraint", err)
	}
	if got := len(uow.Entries()); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
	if len(recorder.failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(recorder.failures))
	}
	if _, err := persistence.NewUnitOfWork(store).Find(ctx, domain.KindUser, first.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("first user should have been rolled back, find err = %v", err)
	}

	second.Username = "bob"
	if n, err := uow.SaveChanges(ctx); err != nil || n != 2 {
		t.Fatalf("retry = %d, %v; want 2, nil", n, err)
	}
}

func TestSaveChangesSyncIsUnsupported(t *testing.T) {
	uow := persistence.NewUnitOfWork(testutil.OpenStore(t))
	uow.Add(draft("Relay"))
	if _, err := uow.SaveChangesSync(); !errors.Is(err, persistence.ErrSynchronousSave) {
		t.Fatalf("err = %v, want ErrSynchronousSave", err)
	}
	if !uow.HasChanges() {
		t.Fatal("sync save must not consume pending changes")
	}
}

func TestSaveChangesHonorsCancellation(t *testing.T) {
	store := testutil.OpenStore(t)
	uow := persistence.NewUnitOfWork(store)
	contest := draft("Relay")
	uow.Add(contest)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := uow.SaveChanges(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !uow.HasChanges() {
		t.Fatal("cancelled save must keep pending changes")
	}
}

func TestInterceptorVetoRollsBack(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()
	veto := errors.New("veto")
	recorder := &recordingInterceptor{
		onSaving: func(context.Context, *persistence.UnitOfWork, tracking.Snapshot) error { return veto },
	}
	uow := persistence.NewUnitOfWork(store, persistence.WithInterceptor(recorder))
	contest := draft("Relay")
	uow.Add(contest)

	if _, err := uow.SaveChanges(ctx); !errors.Is(err, veto) {
		t.Fatalf("err = %v, want veto", err)
	}
	if want := []string{"saving", "failed"}; !equalCalls(recorder.calls, want) {
		t.Fatalf("calls = %v, want %v", recorder.calls, want)
	}
	if _, err := persistence.NewUnitOfWork(store).Find(ctx, domain.KindContest, contest.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("vetoed contest should not exist, find err = %v", err)
	}
}

func TestNestedSaveJoinsOuterTransaction(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()
	user := &domain.User{Username: "late"}
	recorder := &recordingInterceptor{}
	recorder.onSaving = func(ctx context.Context, uow *persistence.UnitOfWork, _ tracking.Snapshot) error {
		if len(recorder.calls) > 1 {
			return nil
		}
		uow.Add(user)
		_, err := uow.SaveChanges(ctx)
		return err
	}
	uow := persistence.NewUnitOfWork(store, persistence.WithInterceptor(recorder))
	contest := draft("Relay")
	uow.Add(contest)

	n, err := uow.SaveChanges(ctx)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != 2 {
		t.Fatalf("written = %d, want 2", n)
	}
	if want := []string{"saving", "saving", "saved"}; !equalCalls(recorder.calls, want) {
		t.Fatalf("calls = %v, want %v", recorder.calls, want)
	}
	for _, key := range []struct {
		kind tracking.Kind
		id   string
	}{{domain.KindContest, contest.ID}, {domain.KindUser, user.ID}} {
		if _, err := persistence.NewUnitOfWork(store).Find(ctx, key.kind, key.id); err != nil {
			t.Fatalf("find %s: %v", key.kind, err)
		}
	}
}

func TestNestedSaveRolledBackWithOuter(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()
	veto := errors.New("veto")
	user := &domain.User{Username: "late"}
	recorder := &recordingInterceptor{}
	recorder.onSaving = func(ctx context.Context, uow *persistence.UnitOfWork, _ tracking.Snapshot) error {
		if len(recorder.calls) > 1 {
			return nil
		}
		uow.Add(user)
		if _, err := uow.SaveChanges(ctx); err != nil {
			return err
		}
		return veto
	}
	uow := persistence.NewUnitOfWork(store, persistence.WithInterceptor(recorder))
	uow.Add(draft("Relay"))

	if _, err := uow.SaveChanges(ctx); !errors.Is(err, veto) {
		t.Fatalf("err = %v, want veto", err)
	}
	if len(recorder.failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(recorder.failures))
	}
	if _, err := persistence.NewUnitOfWork(store).Find(ctx, domain.KindUser, user.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("nested write should be rolled back, find err = %v", err)
	}
	if got := len(uow.Entries()); got != 1 {
		t.Fatalf("pending = %d, want only the original insert", got)
	}
}

func TestObserverFailureAfterCommit(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()
	observerErr := errors.New("observer down")
	recorder := &recordingInterceptor{savedErr: observerErr}
	uow := persistence.NewUnitOfWork(store, persistence.WithInterceptor(recorder))
	contest := draft("Relay")
	uow.Add(contest)

	n, err := uow.SaveChanges(ctx)
	var postErr *persistence.PostCommitError
	if !errors.As(err, &postErr) {
		t.Fatalf("err = %v, want PostCommitError", err)
	}
	if !errors.Is(err, observerErr) {
		t.Fatalf("err = %v, want to wrap observer error", err)
	}
	if n != 1 {
		t.Fatalf("written = %d, want 1", n)
	}
	if uow.HasChanges() {
		t.Fatal("committed changes should be accepted")
	}
	if _, err := persistence.NewUnitOfWork(store).Find(ctx, domain.KindContest, contest.ID); err != nil {
		t.Fatalf("committed contest missing: %v", err)
	}
}

func TestLockDateRoundTripsAtMillisecondPrecision(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()
	contest := draft("Relay")
	contest.LockDate = time.Date(2026, time.April, 1, 9, 30, 15, 250*int(time.Millisecond), time.UTC)
	seed(t, store, contest)

	got, err := persistence.FindAs[*domain.Contest](ctx, persistence.NewUnitOfWork(store), domain.KindContest, contest.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.LockDate.Equal(contest.LockDate) {
		t.Fatalf("lock date = %v, want %v", got.LockDate, contest.LockDate)
	}
}

func equalCalls(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
