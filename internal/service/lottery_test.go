package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/jerneif/lotto-api/internal/domain"
	"github.com/jerneif/lotto-api/internal/pkg/isoweek"
	"github.com/jerneif/lotto-api/internal/repository"
	"github.com/jerneif/lotto-api/internal/repository/dao"
	"github.com/jerneif/lotto-api/internal/service"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.GameEvent
}

func (n *recordingNotifier) Publish(e domain.GameEvent) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
}

func (n *recordingNotifier) Types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]string, 0, len(n.events))
	for _, e := range n.events {
		types = append(types, e.Type)
	}
	return types
}

// heldLocker behaves as if another caller holds every lock.
type heldLocker struct{}

func (heldLocker) TryAcquire(context.Context, string) (bool, error) {
	return false, nil
}

func (heldLocker) Acquire(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

var (
	copenhagen, _ = time.LoadLocation("Europe/Copenhagen")

	// Wednesday of ISO week 42, 2026; guesses close Saturday 17 Oct 17:00
	// Copenhagen time (15:00 UTC).
	wednesday = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	sunday    = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
)

type LotterySuite struct {
	suite.Suite

	ctx      context.Context
	clock    *fakeClock
	notifier *recordingNotifier
	admin    uuid.UUID
	opts     service.Options

	games         *service.GameService
	boards        *service.BoardService
	subscriptions *service.SubscriptionService
	transactions  *service.TransactionService
	players       *service.PlayerService
}

func TestLotterySuite(t *testing.T) {
	suite.Run(t, new(LotterySuite))
}

func (s *LotterySuite) SetupSuite() {
	if testDB == nil {
		s.T().Skip("postgres container unavailable")
	}
}

func (s *LotterySuite) SetupTest() {
	s.Require().NoError(dao.ResetTables(testDB))

	s.ctx = context.Background()
	s.clock = &fakeClock{now: wednesday}
	s.notifier = &recordingNotifier{}
	s.admin = uuid.New()

	s.opts = service.Options{
		Location:       copenhagen,
		DeadlineHour:   17,
		TxTimeout:      5 * time.Second,
		RenewalWorkers: 4,
		RenewalMaxWait: 500 * time.Millisecond,
		LockDriver:     "postgres",
	}

	tx := dao.NewTxManager(testDB)
	locker := dao.NewAdvisoryLocker(testDB)
	gameRepo := repository.NewGameRepository(dao.NewGameDAO(testDB))
	boardRepo := repository.NewBoardRepository(dao.NewBoardDAO(testDB))
	playerRepo := repository.NewPlayerRepository(dao.NewPlayerDAO(testDB))
	transactionRepo := repository.NewTransactionRepository(dao.NewTransactionDAO(testDB))
	subscriptionRepo := repository.NewSubscriptionRepository(dao.NewSubscriptionDAO(testDB))
	ledger := service.NewLedger(transactionRepo)

	s.subscriptions = service.NewSubscriptionService(tx, locker, subscriptionRepo, boardRepo, gameRepo, playerRepo,
		transactionRepo, ledger, s.clock, s.opts)
	s.games = service.NewGameService(tx, locker, gameRepo, boardRepo, s.subscriptions, s.notifier, s.clock, s.opts)
	s.boards = service.NewBoardService(tx, locker, boardRepo, gameRepo, playerRepo, transactionRepo, ledger, s.clock, s.opts)
	s.transactions = service.NewTransactionService(transactionRepo, playerRepo, ledger, s.clock)
	s.players = service.NewPlayerService(playerRepo, s.clock)

	created, err := s.games.SeedGames(s.ctx, 4)
	s.Require().NoError(err)
	s.Require().Equal(4, created)
}

// fundedPlayer registers an active player with an approved deposit.
func (s *LotterySuite) fundedPlayer(amount int) uuid.UUID {
	p, err := s.players.RegisterPlayer(s.ctx, "Player "+uuid.NewString()[:8], uuid.NewString()[:8]+"@example.dk")
	s.Require().NoError(err)
	_, err = s.players.SetPlayerActive(s.ctx, p.ID, true)
	s.Require().NoError(err)

	if amount > 0 {
		d, err := s.transactions.CreateDeposit(s.ctx, p.ID, amount, "MP-"+uuid.NewString()[:8]+"1")
		s.Require().NoError(err)
		_, err = s.transactions.ApproveDeposit(s.ctx, d.ID, s.admin)
		s.Require().NoError(err)
	}

	return p.ID
}

func (s *LotterySuite) openGame() domain.Game {
	g, err := s.games.GetOrActivateOpenGame(s.ctx)
	s.Require().NoError(err)
	return g
}

func (s *LotterySuite) TestSeedActivatesCurrentWeek() {
	g := s.openGame()

	s.Equal(42, g.WeekNumber)
	s.Equal(2026, g.Year)
	s.True(g.IsActive)
	s.True(g.GuessDeadline.Equal(time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)), g.GuessDeadline.String())

	// Seeding again creates nothing new.
	created, err := s.games.SeedGames(s.ctx, 4)
	s.Require().NoError(err)
	s.Zero(created)
}

func (s *LotterySuite) TestFullWeek() {
	player := s.fundedPlayer(500)
	game := s.openGame()

	board, balance, err := s.boards.Purchase(s.ctx, game.ID, player, []int{5, 3, 1, 2, 4})
	s.Require().NoError(err)
	s.Equal(480, balance)
	s.Equal([]int{1, 2, 3, 4, 5}, board.Numbers)
	s.Equal(20, board.Price)

	loser, _, err := s.boards.Purchase(s.ctx, game.ID, player, []int{6, 7, 8, 9, 10})
	s.Require().NoError(err)

	_, err = s.games.EndGame(s.ctx, game.ID, domain.WinningNumbers{1, 2, 3})
	s.ErrorIs(err, domain.ErrDeadlineNotPassed)

	s.clock.Set(sunday)

	_, _, err = s.boards.Purchase(s.ctx, game.ID, player, []int{1, 2, 3, 4, 5})
	s.ErrorIs(err, domain.ErrDeadlinePassed)

	ended, err := s.games.EndGame(s.ctx, game.ID, domain.WinningNumbers{3, 1, 2})
	s.Require().NoError(err)
	s.Equal(domain.GameEnded, ended.State())

	won, err := s.boards.GetBoard(s.ctx, board.ID)
	s.Require().NoError(err)
	s.True(won.IsWinningBoard)

	lost, err := s.boards.GetBoard(s.ctx, loser.ID)
	s.Require().NoError(err)
	s.False(lost.IsWinningBoard)

	winning, err := s.boards.GetWinningBoardsForGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Len(winning, 1)

	all, err := s.boards.GetBoardsForGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Len(all, 2)

	next := s.openGame()
	s.Equal(isoweek.Key{Year: 2026, Week: 43}, isoweek.Key{Year: next.Year, Week: next.WeekNumber})

	_, err = s.games.EndGame(s.ctx, game.ID, domain.WinningNumbers{1, 2, 3})
	s.ErrorIs(err, domain.ErrGameFinished)

	stats, err := s.games.GetGameStats(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(2, stats.TotalBoards)
	s.Equal(1, stats.TotalWinningBoards)
	s.True(stats.IsFinished)

	s.Contains(s.notifier.Types(), domain.EventGameEnded)

	bal, err := s.transactions.GetBalance(s.ctx, player)
	s.Require().NoError(err)
	s.Equal(460, bal)
}

func (s *LotterySuite) TestPurchasePreconditions() {
	game := s.openGame()
	inactive, err := s.players.RegisterPlayer(s.ctx, "Idle Player", "idle@example.dk")
	s.Require().NoError(err)
	poor := s.fundedPlayer(10)

	tests := []struct {
		name    string
		gameID  uuid.UUID
		player  uuid.UUID
		numbers []int
		wantErr error
	}{
		{name: "four numbers", gameID: game.ID, player: poor, numbers: []int{1, 2, 3, 4}, wantErr: domain.ErrNumberCount},
		{name: "out of range", gameID: game.ID, player: poor, numbers: []int{1, 2, 3, 4, 17}, wantErr: domain.ErrNumberRange},
		{name: "duplicate", gameID: game.ID, player: poor, numbers: []int{1, 1, 3, 4, 5}, wantErr: domain.ErrNumbersNotUnique},
		{name: "unknown game", gameID: uuid.New(), player: poor, numbers: []int{1, 2, 3, 4, 5}, wantErr: domain.ErrGameNotFound},
		{name: "unknown player", gameID: game.ID, player: uuid.New(), numbers: []int{1, 2, 3, 4, 5}, wantErr: domain.ErrPlayerNotFound},
		{name: "inactive player", gameID: game.ID, player: inactive.ID, numbers: []int{1, 2, 3, 4, 5}, wantErr: domain.ErrPlayerInactive},
		{name: "insufficient funds", gameID: game.ID, player: poor, numbers: []int{1, 2, 3, 4, 5}, wantErr: domain.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, _, err := s.boards.Purchase(s.ctx, tt.gameID, tt.player, tt.numbers)
			s.ErrorIs(err, tt.wantErr)
		})
	}

	boards, err := s.boards.GetPlayerBoards(s.ctx, poor, nil)
	s.Require().NoError(err)
	s.Empty(boards)
}

func (s *LotterySuite) TestScheduledGameNotOpen() {
	player := s.fundedPlayer(100)
	s.openGame()

	history, err := s.games.GetGameHistory(s.ctx)
	s.Require().NoError(err)

	var scheduled domain.Game
	for _, g := range history {
		if g.State() == domain.GameScheduled {
			scheduled = g
			break
		}
	}
	s.Require().NotEqual(uuid.Nil, scheduled.ID)

	_, _, err = s.boards.Purchase(s.ctx, scheduled.ID, player, []int{1, 2, 3, 4, 5})
	s.ErrorIs(err, domain.ErrGameNotOpen)

	_, err = s.games.GetGameStats(s.ctx, scheduled.ID)
	s.ErrorIs(err, domain.ErrNoGameStats)
}

func (s *LotterySuite) TestConcurrentPurchasesNeverOverspend() {
	player := s.fundedPlayer(40)
	game := s.openGame()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = s.boards.Purchase(s.ctx, game.ID, player, []int{1, 2, 3, 4, 5})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrLockBusy), errors.Is(err, domain.ErrInsufficientFunds):
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.LessOrEqual(succeeded, 2)
	s.GreaterOrEqual(succeeded, 1)

	boards, err := s.boards.GetPlayerBoards(s.ctx, player, &game.ID)
	s.Require().NoError(err)
	s.Len(boards, succeeded)

	balance, err := s.transactions.GetBalance(s.ctx, player)
	s.Require().NoError(err)
	s.Equal(40-20*succeeded, balance)
}

func (s *LotterySuite) TestConcurrentEndGameSucceedsOnce() {
	game := s.openGame()
	s.clock.Set(sunday)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.games.EndGame(s.ctx, game.ID, domain.WinningNumbers{4, 5, 6})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrGameFinished):
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, succeeded)

	next := s.openGame()
	s.Equal(43, next.WeekNumber)
}

func (s *LotterySuite) TestEndGameValidatesNumbers() {
	game := s.openGame()
	s.clock.Set(sunday)

	_, err := s.games.EndGame(s.ctx, game.ID, domain.WinningNumbers{1, 1, 2})
	s.ErrorIs(err, domain.ErrWinningNumberUnique)

	_, err = s.games.EndGame(s.ctx, game.ID, domain.WinningNumbers{0, 1, 2})
	s.ErrorIs(err, domain.ErrWinningNumberRange)

	_, err = s.games.EndGame(s.ctx, uuid.New(), domain.WinningNumbers{1, 2, 3})
	s.ErrorIs(err, domain.ErrGameNotFound)
}

func (s *LotterySuite) TestDepositIdempotence() {
	player := s.fundedPlayer(0)

	first, err := s.transactions.CreateDeposit(s.ctx, player, 200, " MP-12345 ")
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, first.Status)

	again, err := s.transactions.CreateDeposit(s.ctx, player, 200, "MP-12345")
	s.Require().NoError(err)
	s.Equal(first.ID, again.ID)

	byRef, err := s.transactions.GetByReference(s.ctx, " MP-12345")
	s.Require().NoError(err)
	s.Equal(first.ID, byRef.ID)

	_, err = s.transactions.GetByReference(s.ctx, "MP-99999")
	s.ErrorIs(err, domain.ErrTransactionNotFound)

	_, err = s.transactions.CreateDeposit(s.ctx, player, 300, "MP-12345")
	s.ErrorIs(err, domain.ErrDuplicateReference)

	_, err = s.transactions.CreateDeposit(s.ctx, player, 100, "abc")
	s.ErrorIs(err, domain.ErrDepositReference)

	balance, err := s.transactions.GetBalance(s.ctx, player)
	s.Require().NoError(err)
	s.Zero(balance)

	_, err = s.transactions.ApproveDeposit(s.ctx, first.ID, s.admin)
	s.Require().NoError(err)

	_, err = s.transactions.RejectDeposit(s.ctx, first.ID, s.admin)
	s.ErrorIs(err, domain.ErrNotPending)

	balance, err = s.transactions.GetBalance(s.ctx, player)
	s.Require().NoError(err)
	s.Equal(200, balance)
}

func (s *LotterySuite) TestRenewals() {
	rich := s.fundedPlayer(100)
	poor := s.fundedPlayer(20)
	s.openGame()

	once := 1
	capped, err := s.subscriptions.CreateSubscription(s.ctx, rich, []int{1, 2, 3, 4, 5}, &once)
	s.Require().NoError(err)
	open, err := s.subscriptions.CreateSubscription(s.ctx, rich, []int{1, 2, 3, 4, 5, 6}, nil)
	s.Require().NoError(err)
	starving, err := s.subscriptions.CreateSubscription(s.ctx, poor, []int{1, 2, 3, 4, 5, 6}, nil)
	s.Require().NoError(err)

	game := s.openGame()
	report, err := s.subscriptions.ProcessRenewals(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(3, report.Candidates)
	s.Equal(2, report.Renewed)
	s.Equal(1, report.Deactivated)

	subs, err := s.subscriptions.GetPlayerSubscriptions(s.ctx, rich)
	s.Require().NoError(err)
	for _, sub := range subs {
		switch sub.ID {
		case capped.ID:
			s.False(sub.IsActive, "capped subscription ends after its last game")
			s.Equal(1, sub.GamesAlreadyPlayed)
		case open.ID:
			s.True(sub.IsActive)
			s.Equal(1, sub.GamesAlreadyPlayed)
		}
	}

	poorSubs, err := s.subscriptions.GetPlayerSubscriptions(s.ctx, poor)
	s.Require().NoError(err)
	s.Require().Len(poorSubs, 1)
	s.Equal(starving.ID, poorSubs[0].ID)
	s.False(poorSubs[0].IsActive)
	s.NotNil(poorSubs[0].CancelledAt)

	balance, err := s.transactions.GetBalance(s.ctx, rich)
	s.Require().NoError(err)
	s.Equal(100-20-40, balance)

	// A second run finds nothing left to do.
	report, err = s.subscriptions.ProcessRenewals(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Zero(report.Renewed)
}

func (s *LotterySuite) TestEndGameRenewsForNextWeek() {
	player := s.fundedPlayer(100)
	game := s.openGame()

	sub, err := s.subscriptions.CreateSubscription(s.ctx, player, []int{2, 4, 6, 8, 10}, nil)
	s.Require().NoError(err)

	s.clock.Set(sunday)
	_, err = s.games.EndGame(s.ctx, game.ID, domain.WinningNumbers{1, 2, 3})
	s.Require().NoError(err)

	next := s.openGame()
	boards, err := s.boards.GetPlayerBoards(s.ctx, player, &next.ID)
	s.Require().NoError(err)
	s.Require().Len(boards, 1)
	s.Require().NotNil(boards[0].SubscriptionID)
	s.Equal(sub.ID, *boards[0].SubscriptionID)
}

func (s *LotterySuite) TestCancelSubscription() {
	player := s.fundedPlayer(100)
	s.openGame()

	sub, err := s.subscriptions.CreateSubscription(s.ctx, player, []int{1, 2, 3, 4, 5}, nil)
	s.Require().NoError(err)

	s.ErrorIs(s.subscriptions.CancelSubscription(s.ctx, sub.ID, uuid.New()), domain.ErrSubscriptionNotFound)
	s.Require().NoError(s.subscriptions.CancelSubscription(s.ctx, sub.ID, player))
	s.ErrorIs(s.subscriptions.CancelSubscription(s.ctx, sub.ID, player), domain.ErrSubscriptionCancelled)
}

func (s *LotterySuite) TestDeleteBoardRefundsOnce() {
	player := s.fundedPlayer(100)
	game := s.openGame()

	board, balance, err := s.boards.Purchase(s.ctx, game.ID, player, []int{1, 2, 3, 4, 5, 6})
	s.Require().NoError(err)
	s.Equal(60, balance)

	s.Require().NoError(s.boards.DeleteBoard(s.ctx, board.ID, s.admin))
	s.Require().NoError(s.boards.DeleteBoard(s.ctx, board.ID, s.admin))

	_, err = s.boards.GetBoard(s.ctx, board.ID)
	s.ErrorIs(err, domain.ErrBoardNotFound)

	refunded, err := s.transactions.GetBalance(s.ctx, player)
	s.Require().NoError(err)
	s.Equal(100, refunded)

	s.ErrorIs(s.boards.DeleteBoard(s.ctx, uuid.New(), s.admin), domain.ErrBoardNotFound)
}

func (s *LotterySuite) TestEndGameDoesNotWaitForLocks() {
	game := s.openGame()
	s.clock.Set(sunday)

	tx := dao.NewTxManager(testDB)
	games := service.NewGameService(tx, heldLocker{},
		repository.NewGameRepository(dao.NewGameDAO(testDB)),
		repository.NewBoardRepository(dao.NewBoardDAO(testDB)),
		nil, nil, s.clock, s.opts)

	started := time.Now()
	_, err := games.EndGame(s.ctx, game.ID, domain.WinningNumbers{1, 2, 3})
	s.Require().NoError(err)

	_, err = games.EndGame(s.ctx, game.ID, domain.WinningNumbers{1, 2, 3})
	s.ErrorIs(err, domain.ErrGameFinished)
	s.Less(time.Since(started), s.opts.TxTimeout/2)
}

func (s *LotterySuite) TestEndGameOnScheduledGame() {
	s.openGame()

	history, err := s.games.GetGameHistory(s.ctx)
	s.Require().NoError(err)

	var week43 domain.Game
	for _, g := range history {
		if g.WeekNumber == 43 {
			week43 = g
		}
	}
	s.Require().Equal(domain.GameScheduled, week43.State())

	s.clock.Set(sunday)
	_, err = s.games.EndGame(s.ctx, week43.ID, domain.WinningNumbers{1, 2, 3})
	s.ErrorIs(err, domain.ErrDeadlineNotPassed)

	// Past week 43's deadline while week 42 was never ended.
	s.clock.Set(time.Date(2026, 10, 25, 10, 0, 0, 0, time.UTC))
	_, err = s.games.EndGame(s.ctx, week43.ID, domain.WinningNumbers{1, 2, 3})
	s.ErrorIs(err, domain.ErrGameNotActive)
}

func (s *LotterySuite) TestEndGameWithoutNextWeekRollsBack() {
	s.Require().NoError(dao.ResetTables(testDB))
	created, err := s.games.SeedGames(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Equal(1, created)

	player := s.fundedPlayer(100)
	game := s.openGame()
	board, _, err := s.boards.Purchase(s.ctx, game.ID, player, []int{1, 2, 3, 4, 5})
	s.Require().NoError(err)

	s.clock.Set(sunday)
	_, err = s.games.EndGame(s.ctx, game.ID, domain.WinningNumbers{1, 2, 3})
	s.ErrorIs(err, domain.ErrNextGameMissing)

	after, err := s.games.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(domain.GameActive, after.State())
	s.Nil(after.NumbersPublishedAt)
	s.Nil(after.WinningNumber1)

	unchanged, err := s.boards.GetBoard(s.ctx, board.ID)
	s.Require().NoError(err)
	s.False(unchanged.IsWinningBoard)
}

func (s *LotterySuite) TestActivationWithoutScheduledGame() {
	s.Require().NoError(dao.ResetTables(testDB))

	_, err := s.games.GetOrActivateOpenGame(s.ctx)
	s.ErrorIs(err, domain.ErrNoScheduledGame)
	s.Equal(domain.KindFatal, domain.KindOf(err))
}

func (s *LotterySuite) TestWinnerNeedsAllThreeNumbers() {
	player := s.fundedPlayer(100)
	game := s.openGame()

	partial, _, err := s.boards.Purchase(s.ctx, game.ID, player, []int{1, 2, 3, 4, 5})
	s.Require().NoError(err)
	full, _, err := s.boards.Purchase(s.ctx, game.ID, player, []int{8, 6, 2, 1, 7})
	s.Require().NoError(err)

	s.clock.Set(sunday)
	_, err = s.games.EndGame(s.ctx, game.ID, domain.WinningNumbers{1, 2, 6})
	s.Require().NoError(err)

	got, err := s.boards.GetBoard(s.ctx, partial.ID)
	s.Require().NoError(err)
	s.False(got.IsWinningBoard, "two of three winning numbers is not a win")

	got, err = s.boards.GetBoard(s.ctx, full.ID)
	s.Require().NoError(err)
	s.True(got.IsWinningBoard)

	winning, err := s.boards.GetWinningBoardsForGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().Len(winning, 1)
	s.Equal(full.ID, winning[0].ID)
}

func (s *LotterySuite) TestRenewalSkipsDriftedPrice() {
	player := s.fundedPlayer(100)
	game := s.openGame()

	sub, err := s.subscriptions.CreateSubscription(s.ctx, player, []int{1, 2, 3, 4, 5}, nil)
	s.Require().NoError(err)
	s.Require().NoError(testDB.Exec("UPDATE board_subscriptions SET price_per_game = ? WHERE id = ?", 15, sub.ID).Error)

	report, err := s.subscriptions.ProcessRenewals(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Candidates)
	s.Equal(1, report.Skipped)
	s.Zero(report.Renewed)

	subs, err := s.subscriptions.GetPlayerSubscriptions(s.ctx, player)
	s.Require().NoError(err)
	s.Require().Len(subs, 1)
	s.True(subs[0].IsActive)
	s.Zero(subs[0].GamesAlreadyPlayed)

	balance, err := s.transactions.GetBalance(s.ctx, player)
	s.Require().NoError(err)
	s.Equal(100, balance)
}

func (s *LotterySuite) TestCanPlayerAffordBoard() {
	player := s.fundedPlayer(20)

	ok, err := s.boards.CanPlayerAffordBoard(s.ctx, player, 5)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.boards.CanPlayerAffordBoard(s.ctx, player, 6)
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.boards.CanPlayerAffordBoard(s.ctx, player, 9)
	s.ErrorIs(err, domain.ErrUnpricedCount)
}

func (s *LotterySuite) TestRegisterPlayerValidatesEmail() {
	_, err := s.players.RegisterPlayer(s.ctx, "Ane Jensen", "not-an-email")
	s.ErrorIs(err, domain.ErrInvalidEmail)

	_, err = s.players.RegisterPlayer(s.ctx, "Ane Jensen", "Ane@Example.dk")
	s.Require().NoError(err)

	_, err = s.players.RegisterPlayer(s.ctx, "Ane J.", "ane@example.dk")
	s.ErrorIs(err, domain.ErrEmailTaken)
}
