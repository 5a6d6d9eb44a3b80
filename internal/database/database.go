package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sandeepshegane1/localtask-sub000/internal/config"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// Connect 连接数据库,driver 支持 sqlite 和 postgres
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite", "sqlite3":
		path := cfg.Path
		if path == "" {
			path = "localtask.db"
		}
		dialector = sqlite.Open(path)
	case "postgres":
		dialector = postgres.Open(BuildDSN(cfg))
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 10
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 100
	}
	maxLifetime := cfg.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = 3600
	}
	maxIdleTime := cfg.ConnMaxIdleTime
	if maxIdleTime == 0 {
		maxIdleTime = 600
	}

	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(maxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(maxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接,指数退避
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.UserModel{},
		&model.TaskModel{},
		&model.NotificationModel{},
		&model.CompletionCodeModel{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// users 表索引,地理查询走经纬度边界框
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_role: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_users_lat_lng ON users(latitude, longitude)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_lat_lng: %w", err)
	}

	// tasks 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_client_id ON tasks(client_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_tasks_client_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_assignee_id ON tasks(assignee_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_tasks_assignee_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_status_category ON tasks(status, category)").Error; err != nil {
		return fmt.Errorf("failed to create idx_tasks_status_category: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_lat_lng ON tasks(latitude, longitude)").Error; err != nil {
		return fmt.Errorf("failed to create idx_tasks_lat_lng: %w", err)
	}

	// notifications 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_notifications_recipient: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_task_id ON notifications(task_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_notifications_task_id: %w", err)
	}

	// completion_codes 表索引,每个任务至多一个活跃码
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_codes_task_id ON completion_codes(task_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_codes_task_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_codes_expires_at ON completion_codes(expires_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_codes_expires_at: %w", err)
	}

	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx) == nil
}

// Close 关闭数据库连接
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
