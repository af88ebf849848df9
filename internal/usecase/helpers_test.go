package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/rummy-backend/internal/config"
	"github.com/rocketscienceinc/rummy-backend/internal/entity"
	"github.com/rocketscienceinc/rummy-backend/internal/repository"
	"github.com/rocketscienceinc/rummy-backend/internal/rummy"
	"github.com/rocketscienceinc/rummy-backend/internal/scheduler"
	"github.com/rocketscienceinc/rummy-backend/testing/suite"
)

var (
	twoSeats = entity.TableType{ID: "points-2", MaxPlayers: 2, PointValue: 1, MinBalance: 80}
	sixSeats = entity.TableType{ID: "points-6", MaxPlayers: 6, PointValue: 1, MinBalance: 80}
)

func testConfig() *config.Config {
	return &config.Config{
		Lock: config.Lock{
			TTL:        5 * time.Second,
			Retries:    400,
			RetryDelay: 5 * time.Millisecond,
		},
		Game: config.Game{
			HandSize:        13,
			MaxScore:        80,
			FirstDropScore:  20,
			MiddleDropScore: 40,
			TurnTimeout:     30 * time.Second,
			RoundStartDelay: 5 * time.Second,
			DeclareTimeout:  30 * time.Second,
			RoundEndDelay:   10 * time.Second,
			GameEndDelay:    3 * time.Second,
			CommissionRate:  0.1,
		},
		Matchmaker: config.Matchmaker{
			PollInterval: time.Second,
			WaitTimeout:  time.Minute,
		},
		TableTypes: []entity.TableType{twoSeats, sixSeats},
	}
}

// manualScheduler keeps armed jobs until a test fires them.
type manualScheduler struct {
	mu   sync.Mutex
	jobs []scheduler.Job
}

func (that *manualScheduler) Schedule(job scheduler.Job, _ time.Duration) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.jobs = append(that.jobs, job)
}

// take removes and returns the most recently armed job of the action.
func (that *manualScheduler) take(t *testing.T, action scheduler.Action) scheduler.Job {
	t.Helper()

	that.mu.Lock()
	defer that.mu.Unlock()

	for i := len(that.jobs) - 1; i >= 0; i-- {
		if that.jobs[i].Action == action {
			job := that.jobs[i]
			that.jobs = append(that.jobs[:i], that.jobs[i+1:]...)
			return job
		}
	}

	t.Fatalf("no %s job armed", action)
	return scheduler.Job{}
}

type sentEvent struct {
	userIDs []string
	event   entity.Event
	payload any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (that *recordingNotifier) Emit(_ context.Context, userIDs []string, event entity.Event, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sent = append(that.sent, sentEvent{userIDs: userIDs, event: event, payload: payload})
}

func (that *recordingNotifier) events(event entity.Event) []sentEvent {
	that.mu.Lock()
	defer that.mu.Unlock()

	var out []sentEvent
	for _, sent := range that.sent {
		if sent.event == event {
			out = append(out, sent)
		}
	}
	return out
}

type historyMock struct {
	mock.Mock
}

func (that *historyMock) RecordRound(ctx context.Context, record entity.RoundRecord) error {
	args := that.Called(ctx, record)
	return args.Error(0)
}

func (that *historyMock) RecordTable(ctx context.Context, record entity.TableRecord) error {
	args := that.Called(ctx, record)
	return args.Error(0)
}

type testEnv struct {
	ctx  context.Context
	conf *config.Config

	engine     *Engine
	matchmaker *Matchmaker

	locker   *repository.Locker
	tables   repository.TableRepository
	users    repository.UserRepository
	pool     repository.PoolRepository
	wallet   repository.WalletRepository
	history  *historyMock
	sched    *manualScheduler
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, st := suite.NewInMemory(t)
	conf := testConfig()

	env := &testEnv{
		ctx:      ctx,
		conf:     conf,
		locker:   repository.NewLocker(st.Storage, conf.Lock),
		tables:   repository.NewTableRepository(st.Storage),
		users:    repository.NewUserRepository(st.Storage),
		pool:     repository.NewPoolRepository(st.Storage),
		wallet:   repository.NewWalletRepository(st.Storage),
		history:  &historyMock{},
		sched:    &manualScheduler{},
		notifier: &recordingNotifier{},
	}

	env.history.On("RecordRound", mock.Anything, mock.Anything).Return(nil).Maybe()
	env.history.On("RecordTable", mock.Anything, mock.Anything).Return(nil).Maybe()

	env.engine = NewEngine(st.Logger, conf, env.locker, env.tables, env.users, env.sched,
		env.notifier, env.wallet, env.history, rummy.NewDealer(42))

	env.matchmaker = NewMatchmaker(st.Logger, conf, env.locker, env.pool, env.tables, env.users,
		env.wallet, env.engine, env.notifier)

	return env
}

func (that *testEnv) fire(t *testing.T, action scheduler.Action) {
	t.Helper()

	require.NoError(t, that.engine.RunJob(that.ctx, that.sched.take(t, action)))
}

func (that *testEnv) table(t *testing.T, tableID string) *entity.Table {
	t.Helper()

	table, err := that.tables.GetByID(that.ctx, tableID)
	require.NoError(t, err)

	return table
}

// rig rewrites a stored table, for tests that need known hands.
func (that *testEnv) rig(t *testing.T, tableID string, change func(table *entity.Table)) {
	t.Helper()

	table := that.table(t, tableID)
	change(table)
	require.NoError(t, that.tables.Update(that.ctx, table))
}

// dealtTable seats the users at a new table and plays it up to the first turn.
func (that *testEnv) dealtTable(t *testing.T, tableType entity.TableType, userIDs ...string) string {
	t.Helper()

	seating, err := that.engine.CreateTable(that.ctx, tableType, userIDs)
	require.NoError(t, err)
	require.Len(t, seating.Seated, len(userIDs))

	that.fire(t, scheduler.ActionStartRound)
	that.fire(t, scheduler.ActionDealCards)

	return seating.TableID
}

func (that *testEnv) fund(t *testing.T, amount float64, userIDs ...string) {
	t.Helper()

	for _, userID := range userIDs {
		require.NoError(t, that.wallet.Deposit(that.ctx, userID, amount))
	}
}

func hand(codes ...string) entity.Cards {
	out := make(entity.Cards, 0, len(codes))
	for _, code := range codes {
		out = append(out, entity.Card(code))
	}
	return out
}
