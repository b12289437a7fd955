package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/Jame-iro/agrolink-backend/internal/events"
	"github.com/Jame-iro/agrolink-backend/internal/handlers"
	"github.com/Jame-iro/agrolink-backend/internal/service"
	"github.com/Jame-iro/agrolink-backend/internal/store"
)

func NewServer(cfg Config, log *zap.Logger) (*gin.Engine, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --- mongo ---
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, nil, err
	}
	db := client.Database(cfg.MongoDB)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		return nil, nil, err
	}
	st := store.NewMongo(db)
	log.Info("mongo connected", zap.String("db", cfg.MongoDB))

	cleanups := []func(){func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = client.Disconnect(shutdownCtx)
	}}

	// --- optional product read cache ---
	products := st.Products
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		products = store.NewCachedProducts(st.Products, rdb, log)
		cleanups = append(cleanups, func() { _ = rdb.Close() })
		log.Info("product cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	// --- optional order event broker ---
	var pub events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			return nil, nil, err
		}
		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		pub, err = events.NewRabbit(ch)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() {
			_ = ch.Close()
			_ = conn.Close()
		})
		log.Info("order events enabled", zap.String("exchange", events.ExchangeName))
	}

	// --- services ---
	dir := service.NewDirectory(st.Users, log)
	authSvc := service.NewAuth(dir, cfg.TelegramBotToken, cfg.JWTSecret)
	catalog := service.NewCatalog(products, log)
	orders := service.NewOrders(dir, st.Users, products, st.Orders, pub, log)
	uploader := service.NewImgBBUploader(cfg.ImgBBKey, log)

	// --- gin ---
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		pingCtx, stop := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer stop()
		dbState := "connected"
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			dbState = "disconnected"
		}
		c.JSON(http.StatusOK, gin.H{"message": "AgroLink API is running!", "database": dbState})
	})

	authH := handlers.NewAuth(authSvc, dir)
	productsH := handlers.NewProducts(catalog, dir)
	ordersH := handlers.NewOrders(orders)
	uploadH := handlers.NewUpload(uploader)

	api := r.Group("/api")
	{
		api.POST("/auth/telegram", authH.Telegram)
		api.PUT("/auth/role", authH.SetRole)

		api.POST("/products", productsH.Create)
		api.GET("/products", productsH.List)
		api.GET("/products/:id", productsH.Get)
		api.PUT("/products/:id", productsH.Update)
		api.DELETE("/products/:id", productsH.Delete)

		api.POST("/orders", ordersH.Create)
		api.GET("/orders/consumer/:id", ordersH.ListByConsumer)
		api.GET("/orders/farmer/:id", ordersH.ListByFarmer)
		api.GET("/orders/:id", ordersH.Get)
		api.PATCH("/orders/:id/status", ordersH.UpdateStatus)

		api.POST("/upload", uploadH.Image)
	}

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return r, cleanup, nil
}
