package api

import (
	"fmt"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	v1 "github.com/jerneif/lotto-api/internal/api/handler/v1"
	"github.com/jerneif/lotto-api/internal/api/middleware"
	"github.com/jerneif/lotto-api/internal/config"
	"github.com/jerneif/lotto-api/internal/lock"
	"github.com/jerneif/lotto-api/internal/metrics"
	"github.com/jerneif/lotto-api/internal/repository"
	"github.com/jerneif/lotto-api/internal/repository/dao"
	"github.com/jerneif/lotto-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	// Games and Feed are shared with the background workers.
	Games *service.GameService
	Feed  *v1.FeedHub
}

type services struct {
	games         *service.GameService
	boards        *service.BoardService
	subscriptions *service.SubscriptionService
	transactions  *service.TransactionService
	players       *service.PlayerService
}

// NewServer wires the store, services and handlers. rdb is only used when
// the lock driver is redis and may be nil otherwise.
func NewServer(conf *config.AppConfig, db *gorm.DB, rdb *redis.Client) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		Feed:   v1.NewFeedHub(conf.API.AllowedCORSDomains),
	}

	svcs, err := s.initServices(db, rdb)
	if err != nil {
		return nil, err
	}
	s.Games = svcs.games

	s.MountMiddlewares()
	s.MountHandlers(
		v1.NewGameHandler(svcs.games, svcs.subscriptions),
		v1.NewBoardHandler(svcs.boards),
		v1.NewTransactionHandler(svcs.transactions),
		v1.NewSubscriptionHandler(svcs.subscriptions),
		v1.NewPlayerHandler(svcs.players),
	)

	return s, nil
}

func (s *Server) initLocker(db *gorm.DB, rdb *redis.Client) (service.Locker, error) {
	switch s.Config.Lock.Driver {
	case config.LockDriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("lock driver %q needs a redis client", config.LockDriverRedis)
		}
		return lock.NewRedisLocker(rdb, s.Config.Lock.TTL), nil
	default:
		return dao.NewAdvisoryLocker(db), nil
	}
}

func (s *Server) initServices(db *gorm.DB, rdb *redis.Client) (*services, error) {
	locker, err := s.initLocker(db, rdb)
	if err != nil {
		return nil, err
	}

	loc, err := s.Config.Lottery.Location()
	if err != nil {
		return nil, err
	}

	opts := service.Options{
		Location:       loc,
		DeadlineHour:   s.Config.Lottery.DeadlineHour,
		TxTimeout:      s.Config.Lottery.TxTimeout,
		RenewalWorkers: s.Config.Lottery.RenewalWorkers,
		RenewalMaxWait: s.Config.Lock.RenewalMaxWait,
		LockDriver:     s.Config.Lock.Driver,
	}
	clock := service.SystemClock{}
	tx := dao.NewTxManager(db)

	gameRepo := repository.NewGameRepository(dao.NewGameDAO(db))
	boardRepo := repository.NewBoardRepository(dao.NewBoardDAO(db))
	playerRepo := repository.NewPlayerRepository(dao.NewPlayerDAO(db))
	transactionRepo := repository.NewTransactionRepository(dao.NewTransactionDAO(db))
	subscriptionRepo := repository.NewSubscriptionRepository(dao.NewSubscriptionDAO(db))

	ledger := service.NewLedger(transactionRepo)

	subscriptions := service.NewSubscriptionService(tx, locker, subscriptionRepo, boardRepo, gameRepo, playerRepo,
		transactionRepo, ledger, clock, opts)

	return &services{
		games: service.NewGameService(tx, locker, gameRepo, boardRepo, subscriptions, s.Feed, clock, opts),
		boards: service.NewBoardService(tx, locker, boardRepo, gameRepo, playerRepo, transactionRepo, ledger,
			clock, opts),
		subscriptions: subscriptions,
		transactions:  service.NewTransactionService(transactionRepo, playerRepo, ledger, clock),
		players:       service.NewPlayerService(playerRepo, clock),
	}, nil
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
	s.Router.Use(metrics.HTTPMetrics())
}

func (s *Server) MountHandlers(gameHandler *v1.GameHandler, boardHandler *v1.BoardHandler, transactionHandler *v1.TransactionHandler,
	subscriptionHandler *v1.SubscriptionHandler, playerHandler *v1.PlayerHandler) {
	const basePath = "/api/v1"

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)

	api := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		api.GET("/games", gameHandler.HandleGetGameHistory)
		api.GET("/games/active", gameHandler.HandleGetActiveGame)
		api.GET("/games/stats", gameHandler.HandleGetAllGameStats)
		api.GET("/games/:gameID", gameHandler.HandleGetGame)
		api.GET("/games/:gameID/stats", gameHandler.HandleGetGameStats)
		api.GET("/games/:gameID/winning-boards", boardHandler.HandleGetWinningBoardsForGame)
		api.GET("/games/:gameID/can-accept", boardHandler.HandleCanAcceptNewBoards)

		api.POST("/boards", boardHandler.HandlePurchaseBoard)
		api.GET("/boards/can-afford", boardHandler.HandleCanAffordBoard)
		api.GET("/boards/mine", boardHandler.HandleGetMyBoards)
		api.GET("/boards/mine/winning", boardHandler.HandleGetMyWinningBoards)
		api.GET("/boards/:boardID", boardHandler.HandleGetBoard)

		api.GET("/balance", transactionHandler.HandleGetBalance)
		api.POST("/transactions/deposits", transactionHandler.HandleCreateDeposit)
		api.GET("/transactions/mine", transactionHandler.HandleGetMyTransactions)
		api.GET("/transactions/:transactionID", transactionHandler.HandleGetTransaction)

		api.POST("/subscriptions", subscriptionHandler.HandleCreateSubscription)
		api.GET("/subscriptions/mine", subscriptionHandler.HandleGetMySubscriptions)
		api.DELETE("/subscriptions/:subscriptionID", subscriptionHandler.HandleCancelSubscription)

		api.GET("/players/:playerID", playerHandler.HandleGetPlayer)
	}

	admin := s.Router.Group(basePath+"/admin", authenticator.VerifyJWT(), middleware.RequireAdmin())
	{
		admin.POST("/games/:gameID/end", gameHandler.HandleEndGame)
		admin.GET("/games/:gameID/overview", gameHandler.HandleGetGameOverview)
		admin.GET("/games/:gameID/boards", boardHandler.HandleGetBoardsForGame)
		admin.POST("/games/:gameID/renewals", gameHandler.HandleProcessRenewals)

		admin.DELETE("/boards/:boardID", boardHandler.HandleDeleteBoard)

		admin.GET("/transactions", transactionHandler.HandleGetAllTransactions)
		admin.GET("/transactions/pending", transactionHandler.HandleGetPendingDeposits)
		admin.GET("/transactions/by-reference/:ref", transactionHandler.HandleGetTransactionByReference)
		admin.POST("/transactions/:transactionID/approve", transactionHandler.HandleApproveDeposit)
		admin.POST("/transactions/:transactionID/reject", transactionHandler.HandleRejectDeposit)

		admin.POST("/players", playerHandler.HandleRegisterPlayer)
		admin.PUT("/players/:playerID/active", playerHandler.HandleSetPlayerActive)
	}

	s.Router.GET("/feed", authenticator.VerifyJWT(), s.Feed.HandleWebSocket)
	s.Router.GET("/metrics", metrics.Handler())
	s.Router.GET("/", v1.HandleHealthcheck)
}
