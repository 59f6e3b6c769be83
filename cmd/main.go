package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gomarket/config"
	"gomarket/internal/pkg/cache"
	"gomarket/internal/pkg/database"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/notifier"
	"gomarket/internal/pkg/token"
	"gomarket/internal/pkg/validation"

	"gomarket/internal/api/admin"
	"gomarket/internal/api/category"
	"gomarket/internal/api/course"
	"gomarket/internal/api/enrollment"
	"gomarket/internal/api/product"
	"gomarket/internal/api/router"
	"gomarket/internal/api/user"
	"gomarket/internal/repository/categoryrepo"
	"gomarket/internal/repository/courserepo"
	"gomarket/internal/repository/enrollmentrepo"
	"gomarket/internal/repository/productrepo"
	"gomarket/internal/repository/userrepo"
	"gomarket/internal/service/categoryservice"
	"gomarket/internal/service/courseservice"
	"gomarket/internal/service/enrollmentservice"
	"gomarket/internal/service/productservice"
	"gomarket/internal/service/userservice"
)

// @title GoMarket API
// @version 1.0
// @description Marketplace multi-vendedor de produtos e cursos.
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Configuração e Logger
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Erro de configuração: %v", err)
	}

	appLog, closeLog := newLogger(cfg)
	defer closeLog()
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment})

	// 2. Infraestrutura
	db, err := database.NewPostgresDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", map[string]interface{}{"driver": cfg.DBDriver})

	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao Redis.", err)
	}
	defer cacheClient.Close()
	appLog.Info("Conexão Redis estabelecida.", nil)

	var publisher notifier.Publisher = notifier.LogPublisher{Log: appLog}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := notifier.NewAMQPPublisher(cfg.AMQPURL, cfg.NotificationsExchange, appLog)
		if err != nil {
			appLog.Fatal("Falha ao conectar ao RabbitMQ.", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		appLog.Info("Publicador RabbitMQ inicializado.", map[string]interface{}{"exchange": cfg.NotificationsExchange})
	}

	validator, err := validation.New()
	if err != nil {
		appLog.Fatal("Falha ao compilar os JSON Schemas.", err)
	}
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// 3. Injeção de dependências: Repository -> Service -> Handler
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, appLog)
	courseRepo := courserepo.NewCourseRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, appLog)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	categoryRepo := categoryrepo.NewCategoryRepository(db, cfg.DBTimeout, appLog)
	enrollmentRepo := enrollmentrepo.NewEnrollmentRepository(db, cfg.DBTimeout, appLog)

	productSvc := productservice.NewService(productRepo, appLog, cfg.ListingMaxLimit)
	courseSvc := courseservice.NewService(courseRepo, appLog, cfg.ListingMaxLimit)
	userSvc := userservice.NewService(userRepo, tokenSvc, publisher, userservice.Config{
		ResetTTL:    cfg.PasswordResetTTL,
		AppBaseURL:  cfg.AppBaseURL,
		MaxListSize: cfg.ListingMaxLimit,
	}, appLog)
	categorySvc := categoryservice.NewService(categoryRepo)
	enrollmentSvc := enrollmentservice.NewService(enrollmentRepo, courseRepo, appLog)
	appLog.Debug("Serviços inicializados.", nil)

	handler := router.NewRouter(router.Handlers{
		User:       user.NewHandler(userSvc, appLog),
		Admin:      admin.NewHandler(userSvc, appLog),
		Category:   category.NewHandler(categorySvc, appLog),
		Product:    product.NewHandler(productSvc, validator, appLog),
		Course:     course.NewHandler(courseSvc, validator, appLog),
		Enrollment: enrollment.NewHandler(enrollmentSvc, appLog),
	}, router.Options{
		Tokens:             tokenSvc,
		Cache:              cacheClient,
		RateLimitRequests:  cfg.RateLimitMaxRequests,
		RateLimitPeriod:    cfg.RateLimitPeriod,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             appLog,
	})

	// 4. Servidor
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLog.Info("Servidor GoMarket ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	// 5. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}

// newLogger monta o logger de console e, com FLUENT_HOST definido, replica para o Fluentd.
func newLogger(cfg *config.Config) (logger.Logger, func()) {
	console := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction()})
	if cfg.FluentHost == "" {
		return console, func() {}
	}

	client, err := logger.NewFluentClient(cfg.FluentHost, cfg.FluentPort)
	if err != nil {
		console.Warn("Fluentd indisponível; seguindo apenas com o console", map[string]interface{}{"error": err.Error()})
		return console, func() {}
	}
	fluentLog, err := logger.NewFluentLogger(client, "gomarket", cfg.LogLevel)
	if err != nil {
		client.Close()
		console.Warn("Falha ao criar o logger do Fluentd", map[string]interface{}{"error": err.Error()})
		return console, func() {}
	}

	multi, err := logger.NewMultiLogger(console, fluentLog)
	if err != nil {
		client.Close()
		return console, func() {}
	}
	return multi, func() { client.Close() }
}
