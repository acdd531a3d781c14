package database

import (
	"errors"
	"fmt"
	"os"

	"taskboard-backend/pkg/models"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrConflict 快照已过期（updated_at 不匹配），调用方应重新加载后重试
	ErrConflict = errors.New("record was modified concurrently")
	// ErrDuplicate 唯一约束冲突
	ErrDuplicate = errors.New("record already exists")
)

// DatabaseInterface 定义数据库访问接口
//
// UpdateWorkspace/UpdateBoard compare the UpdatedAt of the passed snapshot
// with the stored row and return ErrConflict when they differ; on success
// UpdatedAt is advanced on the passed value.
type DatabaseInterface interface {
	// 用户管理
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)

	// Workspaces
	CreateWorkspace(ws *models.Workspace) error
	GetWorkspace(id string) (*models.Workspace, error)
	ListUserWorkspaces(userID string) ([]models.Workspace, error)
	UpdateWorkspace(ws *models.Workspace) error
	DeleteWorkspace(id string) error

	// Boards
	CreateBoard(b *models.Board) error
	GetBoard(id string) (*models.Board, error)
	ListBoardsByWorkspace(workspaceID string) ([]models.Board, error)
	UpdateBoard(b *models.Board) error
	DeleteBoard(id string) error

	// Lists
	CreateList(l *models.List) error
	GetList(id string) (*models.List, error)
	ListListsByBoard(boardID string) ([]models.List, error)
	UpdateList(l *models.List) error

	// Cards
	CreateCard(c *models.Card) error
	GetCard(id string) (*models.Card, error)
	ListCardsByBoard(boardID string) ([]models.Card, error)
	UpdateCard(c *models.Card) error
	DeleteCard(id string) error

	// Invitations
	CreateInvitation(inv *models.Invitation) error
	GetInvitationByToken(token string) (*models.Invitation, error)
	ListInvitationsByEmail(email string) ([]models.Invitation, error)
	UpdateInvitation(inv *models.Invitation) error

	// Activity log
	RecordActivity(a *models.Activity) error
	ListActivities(kind models.EntityKind, entityID string, limit int) ([]models.Activity, error)

	// 健康检查
	HealthCheck() error

	// 关闭连接
	Close() error
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	UseLocalDB   bool
	LocalDataDir string
	PostgresDSN  string
	Debug        bool
}

// NewDatabase 根据配置选择数据库实现：PostgreSQL > 本地文件
func NewDatabase(config DatabaseConfig) (DatabaseInterface, error) {
	if config.PostgresDSN != "" && !config.UseLocalDB {
		fmt.Printf("🗄️  Using PostgreSQL database\n")
		db, err := NewPostgresDatabase(config.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	if config.UseLocalDB {
		fmt.Printf("📁  Using local file database at %s\n", config.LocalDataDir)
		db, err := NewLocalDatabase(config.LocalDataDir)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("no valid database configuration found: configure POSTGRES_DSN or USE_LOCAL_DB")
}

// isServerlessEnvironment 检查是否运行在只读文件系统的无服务器环境
func isServerlessEnvironment() bool {
	return os.Getenv("VERCEL_ENV") != "" || os.Getenv("VERCEL_URL") != "" || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

var (
	_ DatabaseInterface = (*LocalDatabase)(nil)
	_ DatabaseInterface = (*PostgresDatabase)(nil)
)
