// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paw-advisor-go/internal/config"
	"paw-advisor-go/internal/handler"
	"paw-advisor-go/internal/middleware"
	"paw-advisor-go/internal/model"
	"paw-advisor-go/internal/pipeline"
	"paw-advisor-go/internal/repository"
	"paw-advisor-go/internal/service"
	"paw-advisor-go/pkg/database"
	"paw-advisor-go/pkg/kafka"
	"paw-advisor-go/pkg/kvstore"
	"paw-advisor-go/pkg/llm"
	"paw-advisor-go/pkg/log"
	"paw-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err := database.DB.AutoMigrate(&model.User{}, &model.PetProfile{}, &model.AdviceRecord{}); err != nil {
		log.Fatal("数据库迁移失败", err)
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化存储抽象与 Repository
	store := kvstore.NewRedisStore(database.RDB)
	tracker := service.NewSessionTracker(time.Duration(cfg.Session.TimeoutHours) * time.Hour)

	userRepo := repository.NewUserRepository(database.DB)
	petRepo := repository.NewPetRepository(database.DB)
	recordRepo := repository.NewAdviceRecordRepository(database.DB)
	convRepo := repository.NewConversationRepository(
		store,
		cfg.Session.MaxTurns,
		time.Duration(cfg.Session.ConversationTTLDays)*24*time.Hour,
		tracker,
	)
	respCache := repository.NewResponseCache(
		store,
		time.Duration(cfg.Cache.ResponseTTLMinutes)*time.Minute,
		time.Duration(cfg.Cache.SlidingMinutes)*time.Minute,
	)
	credCache := repository.NewCredentialCache(store, time.Duration(cfg.Auth.CredentialGraceMinutes)*time.Minute)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	llmClient := llm.NewClient(cfg.LLM)
	userService := service.NewUserService(userRepo, credCache, jwtManager)
	petService := service.NewPetService(petRepo)
	adminService := service.NewAdminService(userRepo, petRepo, credCache)
	adviceService := service.NewAdviceService(
		llmClient,
		convRepo,
		respCache,
		tracker,
		kafka.ProduceAdviceEvent,
		cfg.LLM.Reasoning,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second,
	)

	// 6. 启动后台任务：会话清扫与问答记录消费者
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()
	go tracker.StartSweeper(bgCtx, time.Duration(cfg.Session.SweepIntervalMinutes)*time.Minute)
	go kafka.StartConsumer(bgCtx, cfg.Kafka, pipeline.NewRecorder(recordRepo))

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	registerRoutes(r, store, jwtManager, credCache,
		userService, petService, adviceService, adminService,
		respCache, tracker, recordRepo)

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 先停后台任务，再给 HTTP 服务器 5 秒完成在途请求
	cancelBg()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

func registerRoutes(
	r *gin.Engine,
	store kvstore.Store,
	jwtManager *token.JWTManager,
	credCache repository.CredentialCache,
	userService service.UserService,
	petService service.PetService,
	adviceService service.AdviceService,
	adminService service.AdminService,
	respCache repository.ResponseCache,
	tracker *service.SessionTracker,
	recordRepo repository.AdviceRecordRepository,
) {
	cfg := config.Conf
	authRequired := middleware.AuthMiddleware(jwtManager, credCache, userService)

	r.GET("/healthz", handler.NewHealthHandler().Check)

	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(authRequired)
			{
				authed.GET("/me", handler.NewUserHandler(userService).GetProfile)
				authed.POST("/logout", handler.NewUserHandler(userService).Logout)
				authed.POST("/logout-all", handler.NewUserHandler(userService).LogoutAll)
			}
		}

		// Pet 路由组，需要认证
		pets := apiV1.Group("/pets")
		pets.Use(authRequired)
		{
			petHandler := handler.NewPetHandler(petService)
			pets.POST("", petHandler.Create)
			pets.GET("", petHandler.List)
			pets.GET("/:petId", petHandler.Get)
			pets.PUT("/:petId", petHandler.Update)
			pets.DELETE("/:petId", petHandler.Delete)
		}

		// Advice 路由组：问答入口，带限流
		adviceHandler := handler.NewAdviceHandler(adviceService, petService, userService, credCache, jwtManager)
		advice := apiV1.Group("/advice")
		advice.Use(authRequired, middleware.RateLimitMiddleware(store, cfg.RateLimit.RequestsPerMinute))
		{
			advice.POST("", adviceHandler.GetAdvice)
			advice.DELETE("/session/:sessionId", adviceHandler.EndSession)
		}
		// WebSocket 入口：token 经路径传入
		r.GET("/advice/ws/:token", adviceHandler.HandleWS)

		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin := apiV1.Group("/admin")
		admin.Use(authRequired, middleware.AdminAuthMiddleware())
		{
			adminHandler := handler.NewAdminHandler(respCache, tracker, recordRepo, adminService)
			admin.GET("/cache/stats", adminHandler.GetCacheStats)
			admin.DELETE("/cache", adminHandler.ClearCache)
			admin.GET("/sessions/stats", adminHandler.GetSessionStats)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:userId/role", adminHandler.UpdateUserRole)
			admin.DELETE("/users/:userId", adminHandler.DeleteUser)
			admin.GET("/users/:userId/records", adminHandler.ListAdviceRecords)
		}
	}
}
