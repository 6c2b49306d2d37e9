package main

import (
	"context"
	"log"

	"order-service/common/logger"
	"order-service/controllers"
	"order-service/database"
	"order-service/kafka"
	aws_pkg "order-service/pkg/aws"
	"order-service/repository"
	"order-service/routes"
	"order-service/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Initialize(cfg.Environment)
	defer logger.Log.Sync()

	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		logger.Log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})
	defer redisClient.Close()

	var eventProducer services.OrderEventPublisher
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		producer := kafka.NewProducer(brokers, cfg.KafkaTopic)
		defer producer.Close()
		eventProducer = producer
	}

	var snsClient aws_pkg.SNSPublisher
	if cfg.SNSTopicArn != "" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			snsClient = aws_pkg.NewSNSClient(awsCfg)
		} else {
			logger.Log.Warn("SNS disabled: aws config load failed", zap.Error(err))
		}
	}

	uow := repository.NewMongoUnitOfWork(database.MongoClient)
	productRepo := repository.NewMongoProductRepository(database.DB.Collection("products"))
	orderRepo := repository.NewMongoOrderRepository(database.DB.Collection("orders"))
	cartClient := services.NewRedisCartClient(redisClient)

	checkoutService := services.NewCheckoutService(
		uow,
		productRepo,
		orderRepo,
		cartClient,
		eventProducer,
		snsClient,
		cfg.SNSTopicArn,
		services.TotalsConfig{
			TaxRate:               cfg.TaxRate,
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			ShippingCost:          cfg.ShippingCost,
			Currency:              cfg.Currency,
		},
		logger.Log,
	)

	checkoutController := controllers.NewCheckoutController(checkoutService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())

	routes.RegisterCheckoutRoutes(r, checkoutController)

	logger.Log.Info("order-service listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}
