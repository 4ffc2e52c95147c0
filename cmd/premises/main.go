package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"premises/internal/app/commands"
	premiseapp "premises/internal/app/handlers/premises"
	statsapp "premises/internal/app/handlers/stats"
	"premises/internal/app/middleware"
	appoutbox "premises/internal/app/outbox"
	"premises/internal/app/queries"
	authsvc "premises/internal/app/services/auth"
	chatsvc "premises/internal/app/services/chat"
	"premises/internal/app/uow"
	domainpremises "premises/internal/domain/premises"
	domainuser "premises/internal/domain/user"
	"premises/internal/infra/ai/gemini"
	kafkabroker "premises/internal/infra/broker/kafka"
	"premises/internal/infra/config"
	mongodb "premises/internal/infra/db/mongo"
	"premises/internal/infra/geocode"
	ginserver "premises/internal/infra/http/gin"
	"premises/internal/infra/obs"
	infraoutbox "premises/internal/infra/outbox"
	"premises/internal/infra/pricing"
	"premises/internal/infra/security"
	"premises/internal/infra/storage/memory"
	"premises/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.StorageMode = "memory"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" {
		fixturesPath = defaultFixturesPath()
	}
	if err := app.loadPremiseFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("premise fixtures load failed", "error", err, "path", fixturesPath)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	uowFactory uow.UoWFactory
	ready      func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	sessionStore := memory.NewSessionStore()
	favoritesStore := memory.NewFavoritesStore()
	idStore := memory.NewIdempotencyStore()

	var (
		uowFactory uow.UoWFactory
		usersRepo  domainuser.Repository
		ready      = func() error { return nil }
	)
	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		mongoUsers := mongodb.NewUserRepository(client.DB)
		if err := mongoUsers.EnsureIndexes(ctx); err != nil {
			logger.Warn("mongo index setup failed", "error", err)
		}
		usersRepo = mongoUsers
		uowFactory = mongodb.Factory{
			DB:            client.DB,
			PremisesRepo:  mongodb.NewPremiseRepository(client.DB),
			UsersRepo:     mongoUsers,
			FavoritesRepo: favoritesStore,
		}
		ready = func() error { return client.Ping(context.Background()) }
	default:
		usersRepo = memory.NewUserRepository()
		uowFactory = memory.Factory{
			PremisesRepo:  memory.NewPremiseRepository(),
			UsersRepo:     usersRepo,
			FavoritesRepo: favoritesStore,
		}
	}

	var outboxStore appoutbox.Outbox = memory.NewOutbox()
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Warn("kafka unavailable, events stay in memory", "error", err)
		} else {
			outboxStore = &infraoutbox.PublishingOutbox{
				Producer:    producer,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Logger:      logger,
			}
			startLifecycleConsumer(ctx, cfg, favoritesStore, logger)
		}
	}

	authService := &authsvc.Service{
		Users:     usersRepo,
		Sessions:  sessionStore,
		Passwords: security.BcryptHasher{},
		Tokens:    security.RandomTokenGenerator{},
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, premiseapp.CreatePremiseCommand{}.Key(), &premiseapp.CreatePremiseHandler{Outbox: outboxStore, Logger: logger})
	commands.RegisterHandler(commandBus, premiseapp.UpdatePremiseCommand{}.Key(), &premiseapp.UpdatePremiseHandler{Outbox: outboxStore, Logger: logger})
	commands.RegisterHandler(commandBus, premiseapp.DeletePremiseCommand{}.Key(), &premiseapp.DeletePremiseHandler{Outbox: outboxStore, Logger: logger})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, premiseapp.SearchPremisesQuery{}.Key(), &premiseapp.SearchPremisesHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, premiseapp.GetPremiseQuery{}.Key(), &premiseapp.GetPremiseHandler{UoWFactory: uowFactory, Logger: logger})
	queries.RegisterHandler(queryBus, statsapp.OverviewQuery{}.Key(), &statsapp.OverviewHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, statsapp.AvgPriceByTypeQuery{}.Key(), &statsapp.AvgPriceByTypeHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, statsapp.CountByTypeQuery{}.Key(), &statsapp.CountByTypeHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, statsapp.AvgPriceByDayQuery{}.Key(), &statsapp.AvgPriceByDayHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, statsapp.CountByDayQuery{}.Key(), &statsapp.CountByDayHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, statsapp.TopUsersByTypeQuery{}.Key(), &statsapp.TopUsersByTypeHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, statsapp.AreaRangeByTypeQuery{}.Key(), &statsapp.AreaRangeByTypeHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(idStore, nil),
		middleware.OutboxFlush(outboxStore),
		middleware.Transaction(uowFactory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(middleware.SelfValidator{}),
	)

	geocoder := geocode.NewClient(cfg.GeocodeBaseURL, nil, logger)

	var chatService *chatsvc.Service
	if cfg.GeminiAPIKey != "" {
		generator, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			chatService = &chatsvc.Service{Generator: generator, Logger: logger}
		}
	} else {
		logger.Info("GEMINI_API_KEY not set, chat endpoints disabled")
	}

	var predictor *pricing.Predictor
	if cfg.PricePredictorURL != "" {
		predictor = &pricing.Predictor{
			Endpoint: cfg.PricePredictorURL,
			Client:   &http.Client{},
			Logger:   logger,
			Clamps:   pricing.LoadClampConfig(cfg.PriceClampsJSON, logger),
		}
	}

	var uploader s3.Uploader = s3.NoopUploader{}
	if s3Client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger); err != nil {
		logger.Warn("s3 uploader unavailable", "error", err)
	} else {
		uploader = s3Client
	}

	handlers := ginserver.Handlers{
		Premise: ginserver.PremiseHandler{
			Commands:   commandBusWithMiddleware,
			Queries:    queryBusWithMiddleware,
			UoWFactory: uowFactory,
			Predictor:  predictor,
			Logger:     logger,
		},
		Auth:      ginserver.AuthHandler{Service: authService, Logger: logger},
		Stats:     ginserver.StatsHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Geocode:   ginserver.GeocodeHandler{Geocoder: geocoder, Logger: logger},
		Favorites: ginserver.FavoritesHandler{Store: favoritesStore, Logger: logger},
		Upload:    ginserver.UploadHandler{Uploader: uploader, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{
			Service: authService,
			Logger:  logger,
		}.Handle,
	}
	if chatService != nil {
		handlers.Chat = ginserver.ChatHandler{Service: chatService, Logger: logger}
	}

	return application{handlers: handlers, uowFactory: uowFactory, ready: ready}, nil
}

// startLifecycleConsumer prunes favorites counters for deleted listings by
// following the events topic. Best effort: failure to join the group only
// costs the pruning, not the server.
func startLifecycleConsumer(ctx context.Context, cfg config.Config, favorites *memory.FavoritesStore, logger *slog.Logger) {
	handler := kafkabroker.LifecycleHandler{Favorites: favorites, Logger: logger}
	consumer, err := kafkabroker.NewConsumer(cfg.KafkaBrokers, "premises-favorites-pruner", nil, handler)
	if err != nil {
		logger.Warn("lifecycle consumer unavailable", "error", err)
		return
	}
	topic := cfg.KafkaTopicPrefix + "premises.events.v1"
	go func() {
		defer consumer.Close()
		if err := consumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("lifecycle consumer stopped", "error", err)
		}
	}()
}

// loadPremiseFixtures seeds the listing store from a JSON array of raw
// records. Records reuse the same field aliases the create endpoint accepts.
func (a application) loadPremiseFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("premise fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var records []domainpremises.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	unit, err := a.uowFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	now := time.Now()
	imported := 0
	for i, record := range records {
		params := domainpremises.NormalizeRecord(record)
		if params.ID == "" {
			params.ID = domainpremises.PremiseID(fmt.Sprintf("fixture-%03d", i+1))
		}
		if params.OwnerID == "" {
			params.OwnerID = "fixtures"
		}
		params.Now = now.Add(time.Duration(-i) * time.Minute)
		premise, err := domainpremises.New(params)
		if err != nil {
			logger.Error("fixture invalid", "premise_id", params.ID, "error", err)
			continue
		}
		premise.ClearEvents()
		if err := unit.Premises().Save(ctx, premise); err != nil {
			logger.Error("cannot store fixture premise", "premise_id", premise.ID, "error", err)
			continue
		}
		imported++
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	logger.Info("premise fixtures imported", "count", imported)
	return nil
}

func defaultFixturesPath() string {
	return filepath.Join("data", "premises.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
