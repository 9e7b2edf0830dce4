package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"dms/internal/adapter/api"
	"dms/internal/adapter/api/handler"
	apimiddleware "dms/internal/adapter/api/middleware"
	"dms/internal/adapter/api/router"
	"dms/internal/adapter/repository"
	domainrepo "dms/internal/domain/repository"
	"dms/internal/infrastructure/directory"
	"dms/internal/infrastructure/export"
	"dms/internal/infrastructure/firebase"
	"dms/internal/infrastructure/lock"
	"dms/internal/infrastructure/ratelimit"
	"dms/internal/infrastructure/token"
	"dms/internal/usecase"
	"dms/pkg/config"
	"dms/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Configure(cfg.LogLevel, cfg.Environment == "development")
	defer logger.Sync()

	ctx := context.Background()

	dir, err := directory.LoadYAML(cfg.DirectoryFile)
	if err != nil {
		log.Fatalf("Failed to load directory: %v", err)
	}
	logger.Info("Loaded %d holders and %d users from %s", len(dir.Holders()), len(dir.Users()), cfg.DirectoryFile)

	var firebaseApp *fbapp.App
	var opt option.ClientOption
	if cfg.StoreDriver == "firestore" || cfg.AuthProvider == "firebase" {
		opt = firebaseCredentials(cfg)
		firebaseApp, err = fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	var store domainrepo.Store
	switch cfg.StoreDriver {
	case "firestore":
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()
		store = repository.NewFirestoreStore(firestoreClient)
	case "mongo":
		mongoClient := connectMongo(ctx, cfg)
		defer mongoClient.Disconnect(context.Background())
		store = repository.NewMongoStore(mongoClient, cfg.DBName)
	default:
		store = repository.NewMemoryStore()
	}
	logger.Info("Using %s store", cfg.StoreDriver)

	var locker domainrepo.Locker
	switch cfg.LockDriver {
	case "redis":
		locker = lock.NewRedisLocker(connectRedis(ctx, cfg), time.Duration(cfg.LockTTLSeconds)*time.Second)
	default:
		locker = lock.NewLocalLocker()
	}

	var verifier usecase.TokenVerifier
	var issuer usecase.TokenIssuer
	switch cfg.AuthProvider {
	case "firebase":
		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}
		firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient, dir)
		for _, user := range dir.Users() {
			if err := firebaseAuthClient.SyncClaims(ctx, user); err != nil {
				logger.Warn("Failed to sync claims for %s: %v", user.ID, err)
			}
		}
		verifier = firebaseAuthClient
	default:
		jwtManager := token.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
		verifier = jwtManager
		issuer = jwtManager
	}

	workflowUseCase := usecase.NewWorkflowUseCase(store, dir, locker,
		usecase.WithReviewPolicy(usecase.ReviewPolicy(cfg.DefectReviewPolicy)))
	authUseCase := usecase.NewAuthUseCase(dir, issuer)
	notificationUseCase := usecase.NewNotificationUseCase(store, locker)
	reportUseCase := usecase.NewReportUseCase(store, export.NewXLSXExporter())
	dashboardUseCase := usecase.NewDashboardUseCase(store, workflowUseCase)

	handler.Setup(authUseCase, workflowUseCase, notificationUseCase, reportUseCase, dashboardUseCase)
	handler.SetupHealthHandler(store, cfg.StoreDriver)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stop := make(chan struct{})
	defer close(stop)
	go limiter.Run(time.Minute, stop)

	router.Setup(e, authMiddleware, limiter)

	log.Printf("Starting server on port %s (review policy %s)...", cfg.ServerPort, workflowUseCase.ReviewPolicy())
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}

func firebaseCredentials(cfg *config.Config) option.ClientOption {
	// Try to get service account from environment variable (for production)
	if cfg.FirebaseServiceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))
	}

	// Fallback to file path (for local development)
	serviceAccountPath := cfg.FirebaseServiceAccountPath
	if serviceAccountPath == "" {
		serviceAccountPath = "./firebase-service-account.json"
	}
	if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
		log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
	}

	log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
	return option.WithCredentialsFile(serviceAccountPath)
}

func connectMongo(ctx context.Context, cfg *config.Config) *mongo.Client {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("MongoDB connection error: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("MongoDB ping error: %v", err)
	}
	if err := repository.EnsureIndexes(ctx, client, cfg.DBName); err != nil {
		log.Fatalf("Failed to create MongoDB indexes: %v", err)
	}

	log.Println("Connected to MongoDB")
	return client
}

func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Redis connection error: %v", err)
	}

	log.Println("Connected to Redis")
	return client
}
