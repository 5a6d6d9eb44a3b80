/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sandeepshegane1/localtask-sub000/internal/api"
	"github.com/sandeepshegane1/localtask-sub000/internal/auth"
	"github.com/sandeepshegane1/localtask-sub000/internal/config"
	"github.com/sandeepshegane1/localtask-sub000/internal/database"
	"github.com/sandeepshegane1/localtask-sub000/internal/notifier"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/sandeepshegane1/localtask-sub000/internal/service"
	"github.com/sandeepshegane1/localtask-sub000/internal/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the LocalTask API server.
The server will listen on the configured host and port and provide
REST API interfaces for task dispatch, acceptance and completion.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化日志
		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		api.SetLogger(logger)

		// 3. 链路追踪(可选)
		if cfg.Tracing.Enabled {
			if err := api.InitTracing("localtask", cfg.Tracing.JaegerEndpoint); err != nil {
				return fmt.Errorf("failed to initialize tracing: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := api.ShutdownTracing(ctx); err != nil {
					logger.WithError(err).Warn("failed to shut down tracing")
				}
			}()
		}

		// 4. 连接数据库并迁移
		db, err := database.ConnectWithRetry(cfg.Database, 5, 2*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		// 5. 初始化仓储
		taskRepo := repository.NewTaskRepository(db)
		userRepo := repository.NewUserRepository(db)
		notificationRepo := repository.NewNotificationRepository(db)
		codeRepo := repository.NewCompletionCodeRepository(db)

		// 6. 外部通知方与 WebSocket 推送
		var push notifier.Notifier
		if cfg.Notifier.WebhookURL != "" {
			push = notifier.NewWebhookNotifier(cfg.Notifier.WebhookURL, cfg.Notifier.Workers, cfg.Notifier.QueueSize, logger)
		} else {
			push = notifier.NewLogNotifier(logger)
		}
		defer push.Stop()

		hub := websocket.NewHub(logger)
		go hub.Run()

		// 7. 初始化服务
		notificationSvc := service.NewNotificationService(notificationRepo, push, logger)
		taskSvc := service.NewTaskService(taskRepo, userRepo, notificationSvc, cfg.Dispatch.BroadcastRadiusMeters(), logger)
		dispatchSvc := service.NewDispatchService(taskRepo, userRepo, notificationSvc, hub, service.DispatchConfig{
			BroadcastRadiusMeters: cfg.Dispatch.BroadcastRadiusMeters(),
			DirectedRadiusMeters:  cfg.Dispatch.DirectedRadiusMeters(),
		}, logger)
		completionSvc := service.NewCompletionService(taskRepo, codeRepo, push, logger)
		providerSvc := service.NewProviderService(userRepo, logger)

		// 8. 过期完成码清理
		sweeper := service.NewCodeSweeper(codeRepo, cfg.Dispatch.SweepSchedule, logger)
		if err := sweeper.Start(); err != nil {
			return fmt.Errorf("failed to start code sweeper: %w", err)
		}
		defer sweeper.Stop()

		// 9. 路由与控制器
		validator := auth.NewTokenValidator(cfg.Auth.Secret, cfg.Auth.Issuer)
		router := api.SetupRoutes(cfg, db, hub, validator, api.Controllers{
			Task:         api.NewTaskController(taskSvc, dispatchSvc, completionSvc),
			Provider:     api.NewProviderController(providerSvc),
			Notification: api.NewNotificationController(notificationSvc),
		})

		// 10. 配置热更新(仅日志级别等运行期可调项)
		if configPath != "" {
			watcher := config.NewWatcher(cfg, configPath)
			watcher.OnConfigChange(func(newCfg *config.Config) {
				logger.WithField("level", newCfg.Log.Level).Info("config reloaded")
				if lvl, err := logrus.ParseLevel(newCfg.Log.Level); err == nil {
					logger.SetLevel(lvl)
				}
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("config watcher not started")
			}
			defer watcher.Stop()
		}

		// 11. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		go func() {
			logger.WithField("addr", addr).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Fatal("failed to start server")
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server")

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Fatal("server forced to shutdown")
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.localtask)")
}
