package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"taskboard-backend/pkg/models"

	"github.com/google/uuid"
)

// LocalDatabase 本地文件数据库实现：每个集合一个JSON文件
type LocalDatabase struct {
	dataDir string
	mu      sync.Mutex
}

const (
	colUsers       = "users"
	colWorkspaces  = "workspaces"
	colBoards      = "boards"
	colLists       = "lists"
	colCards       = "cards"
	colInvitations = "invitations"
	colActivities  = "activities"
)

// NewLocalDatabase 创建本地数据库实例
func NewLocalDatabase(dataDir string) (*LocalDatabase, error) {
	if dataDir == "" {
		dataDir = "./data"
	}
	if isServerlessEnvironment() {
		// 只读文件系统中使用临时目录
		dataDir = filepath.Join(os.TempDir(), "taskboard-data")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &LocalDatabase{dataDir: dataDir}, nil
}

func (db *LocalDatabase) path(collection string) string {
	return filepath.Join(db.dataDir, collection+".json")
}

func load[T any](db *LocalDatabase, collection string) ([]T, error) {
	data, err := os.ReadFile(db.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return items, nil
}

func save[T any](db *LocalDatabase, collection string, items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", collection, err)
	}
	tmp := db.path(collection) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", collection, err)
	}
	return os.Rename(tmp, db.path(collection))
}

func now() time.Time {
	return time.Now().UTC()
}

// ==== users ====

func (db *LocalDatabase) CreateUser(user *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	users, err := db.loadUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Provider == "" {
		user.Provider = "email"
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	// password hash is json:"-" on the model; store it alongside
	return db.saveUsers(append(toStored(users), storedUser{User: *user, PasswordHash: user.Password}))
}

// storedUser keeps the password hash that models.User hides from JSON
type storedUser struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func toStored(users []models.User) []storedUser {
	out := make([]storedUser, len(users))
	for i, u := range users {
		out[i] = storedUser{User: u, PasswordHash: u.Password}
	}
	return out
}

func (db *LocalDatabase) saveUsers(users []storedUser) error {
	return save(db, colUsers, users)
}

func (db *LocalDatabase) loadUsers() ([]models.User, error) {
	stored, err := load[storedUser](db, colUsers)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, len(stored))
	for i, s := range stored {
		users[i] = s.User
		users[i].Password = s.PasswordHash
	}
	return users, nil
}

func (db *LocalDatabase) GetUserByEmail(email string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	users, err := db.loadUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (db *LocalDatabase) GetUserByID(id string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	users, err := db.loadUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// ==== workspaces ====

func (db *LocalDatabase) CreateWorkspace(ws *models.Workspace) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Workspace](db, colWorkspaces)
	if err != nil {
		return err
	}
	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	ws.CreatedAt = now()
	ws.UpdatedAt = ws.CreatedAt
	return save(db, colWorkspaces, append(items, *ws))
}

func (db *LocalDatabase) GetWorkspace(id string) (*models.Workspace, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Workspace](db, colWorkspaces)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, ErrNotFound
}

func (db *LocalDatabase) ListUserWorkspaces(userID string) ([]models.Workspace, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Workspace](db, colWorkspaces)
	if err != nil {
		return nil, err
	}
	out := []models.Workspace{}
	for _, ws := range items {
		for _, m := range ws.Members {
			if m.User.Key() == userID {
				out = append(out, ws)
				break
			}
		}
	}
	return out, nil
}

func (db *LocalDatabase) UpdateWorkspace(ws *models.Workspace) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Workspace](db, colWorkspaces)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID != ws.ID {
			continue
		}
		if !items[i].UpdatedAt.Equal(ws.UpdatedAt) {
			return ErrConflict
		}
		ws.CreatedAt = items[i].CreatedAt
		ws.UpdatedAt = now()
		items[i] = *ws
		return save(db, colWorkspaces, items)
	}
	return ErrNotFound
}

func (db *LocalDatabase) DeleteWorkspace(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return deleteByID(db, colWorkspaces, id, func(w models.Workspace) string { return w.ID })
}

// ==== boards ====

func (db *LocalDatabase) CreateBoard(b *models.Board) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Board](db, colBoards)
	if err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
	return save(db, colBoards, append(items, *b))
}

func (db *LocalDatabase) GetBoard(id string) (*models.Board, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Board](db, colBoards)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, ErrNotFound
}

func (db *LocalDatabase) ListBoardsByWorkspace(workspaceID string) ([]models.Board, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Board](db, colBoards)
	if err != nil {
		return nil, err
	}
	out := []models.Board{}
	for _, b := range items {
		if b.WorkspaceID == workspaceID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (db *LocalDatabase) UpdateBoard(b *models.Board) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Board](db, colBoards)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID != b.ID {
			continue
		}
		if !items[i].UpdatedAt.Equal(b.UpdatedAt) {
			return ErrConflict
		}
		b.CreatedAt = items[i].CreatedAt
		b.UpdatedAt = now()
		items[i] = *b
		return save(db, colBoards, items)
	}
	return ErrNotFound
}

func (db *LocalDatabase) DeleteBoard(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := deleteByID(db, colBoards, id, func(b models.Board) string { return b.ID }); err != nil {
		return err
	}
	// cascade lists and cards
	if err := deleteWhere(db, colLists, func(l models.List) bool { return l.BoardID == id }); err != nil {
		return err
	}
	return deleteWhere(db, colCards, func(c models.Card) bool { return c.BoardID == id })
}

// ==== lists ====

func (db *LocalDatabase) CreateList(l *models.List) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.List](db, colLists)
	if err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.CreatedAt = now()
	l.UpdatedAt = l.CreatedAt
	return save(db, colLists, append(items, *l))
}

func (db *LocalDatabase) GetList(id string) (*models.List, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return findByID(db, colLists, id, func(l models.List) string { return l.ID })
}

func (db *LocalDatabase) ListListsByBoard(boardID string) ([]models.List, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.List](db, colLists)
	if err != nil {
		return nil, err
	}
	out := []models.List{}
	for _, l := range items {
		if l.BoardID == boardID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (db *LocalDatabase) UpdateList(l *models.List) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	l.UpdatedAt = now()
	return replaceByID(db, colLists, *l, func(x models.List) string { return x.ID })
}

// ==== cards ====

func (db *LocalDatabase) CreateCard(c *models.Card) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Card](db, colCards)
	if err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	return save(db, colCards, append(items, *c))
}

func (db *LocalDatabase) GetCard(id string) (*models.Card, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return findByID(db, colCards, id, func(c models.Card) string { return c.ID })
}

func (db *LocalDatabase) ListCardsByBoard(boardID string) ([]models.Card, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Card](db, colCards)
	if err != nil {
		return nil, err
	}
	out := []models.Card{}
	for _, c := range items {
		if c.BoardID == boardID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ListID != out[j].ListID {
			return out[i].ListID < out[j].ListID
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (db *LocalDatabase) UpdateCard(c *models.Card) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	c.UpdatedAt = now()
	return replaceByID(db, colCards, *c, func(x models.Card) string { return x.ID })
}

func (db *LocalDatabase) DeleteCard(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return deleteByID(db, colCards, id, func(c models.Card) string { return c.ID })
}

// ==== invitations ====

func (db *LocalDatabase) CreateInvitation(inv *models.Invitation) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Invitation](db, colInvitations)
	if err != nil {
		return err
	}
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.CreatedAt = now()
	inv.UpdatedAt = inv.CreatedAt
	return save(db, colInvitations, append(items, *inv))
}

func (db *LocalDatabase) GetInvitationByToken(token string) (*models.Invitation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Invitation](db, colInvitations)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Token == token {
			return &items[i], nil
		}
	}
	return nil, ErrNotFound
}

func (db *LocalDatabase) ListInvitationsByEmail(email string) ([]models.Invitation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Invitation](db, colInvitations)
	if err != nil {
		return nil, err
	}
	out := []models.Invitation{}
	for _, inv := range items {
		if strings.EqualFold(inv.Email, email) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (db *LocalDatabase) UpdateInvitation(inv *models.Invitation) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	inv.UpdatedAt = now()
	return replaceByID(db, colInvitations, *inv, func(x models.Invitation) string { return x.ID })
}

// ==== activity ====

func (db *LocalDatabase) RecordActivity(a *models.Activity) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Activity](db, colActivities)
	if err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
	}
	return save(db, colActivities, append(items, *a))
}

// ListActivities returns newest first
func (db *LocalDatabase) ListActivities(kind models.EntityKind, entityID string, limit int) ([]models.Activity, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items, err := load[models.Activity](db, colActivities)
	if err != nil {
		return nil, err
	}
	out := []models.Activity{}
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].EntityKind == kind && items[i].EntityID == entityID {
			out = append(out, items[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// HealthCheck 检查数据目录可写
func (db *LocalDatabase) HealthCheck() error {
	if _, err := os.Stat(db.dataDir); err != nil {
		return fmt.Errorf("data directory not accessible: %w", err)
	}
	return nil
}

func (db *LocalDatabase) Close() error {
	return nil
}

// ==== generic helpers (caller holds db.mu) ====

func findByID[T any](db *LocalDatabase, collection, id string, key func(T) string) (*T, error) {
	items, err := load[T](db, collection)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if key(items[i]) == id {
			return &items[i], nil
		}
	}
	return nil, ErrNotFound
}

func replaceByID[T any](db *LocalDatabase, collection string, item T, key func(T) string) error {
	items, err := load[T](db, collection)
	if err != nil {
		return err
	}
	for i := range items {
		if key(items[i]) == key(item) {
			items[i] = item
			return save(db, collection, items)
		}
	}
	return ErrNotFound
}

func deleteByID[T any](db *LocalDatabase, collection, id string, key func(T) string) error {
	items, err := load[T](db, collection)
	if err != nil {
		return err
	}
	for i := range items {
		if key(items[i]) == id {
			return save(db, collection, append(items[:i], items[i+1:]...))
		}
	}
	return ErrNotFound
}

func deleteWhere[T any](db *LocalDatabase, collection string, match func(T) bool) error {
	items, err := load[T](db, collection)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if !match(it) {
			kept = append(kept, it)
		}
	}
	return save(db, collection, kept)
}
