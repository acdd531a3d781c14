package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard-backend/pkg/models"

	"github.com/lib/pq"
)

// PostgresDatabase PostgreSQL数据库实现
//
// members / settings are stored as JSONB so the permission core reads the
// same document shape regardless of backend.
type PostgresDatabase struct {
	db *sql.DB
}

// NewPostgresDatabase 创建PostgreSQL数据库实例
func NewPostgresDatabase(dsn string) (*PostgresDatabase, error) {
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)
	strategies := []string{
		addConnectionParams(dsn, "connect_timeout=10"),
		dsn, // 最后尝试原始DSN
	}

	var lastErr error
	for i, strategy := range strategies {
		fmt.Printf("🔄 Trying connection strategy %d...\n", i+1)

		db, err := sql.Open("postgres", strategy)
		if err != nil {
			fmt.Printf("❌ Strategy %d failed to open: %v\n", i+1, err)
			lastErr = err
			continue
		}

		// 设置连接池参数，适合无服务器环境
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err = db.Ping(); err != nil {
			fmt.Printf("❌ Strategy %d failed to ping: %v\n", i+1, err)
			db.Close()
			lastErr = err
			continue
		}

		fmt.Printf("✅ PostgreSQL connection established successfully with strategy %d\n", i+1)
		return &PostgresDatabase{db: db}, nil
	}
	return nil, fmt.Errorf("failed to connect to PostgreSQL with all strategies: %w", lastErr)
}

// addConnectionParams 添加连接参数到DSN
func addConnectionParams(dsn, params string) string {
	if params == "" {
		return dsn
	}
	// key=value DSNs take space separated params
	if !strings.Contains(dsn, "://") {
		return dsn + " " + strings.ReplaceAll(params, "&", " ")
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + params
}

func mapNoRows(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func marshalJSONB(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jsonb: %w", err)
	}
	return b, nil
}

// ==== users ====

func (db *PostgresDatabase) CreateUser(user *models.User) error {
	if user.Provider == "" {
		user.Provider = "email"
	}
	query := `
		INSERT INTO users (email, password_hash, name, avatar, provider, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := db.db.QueryRow(query, user.Email, user.Password, user.Name, user.Avatar, user.Provider).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

const userColumns = `id, email, COALESCE(password_hash,''), COALESCE(name,''), COALESCE(avatar,''), COALESCE(provider,'email'), created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.Avatar, &u.Provider, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapNoRows(err, "get user")
	}
	return &u, nil
}

func (db *PostgresDatabase) GetUserByEmail(email string) (*models.User, error) {
	return scanUser(db.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (db *PostgresDatabase) GetUserByID(id string) (*models.User, error) {
	return scanUser(db.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// ==== workspaces ====

const workspaceColumns = `id, name, COALESCE(description,''), created_by, members, settings, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkspace(row rowScanner) (*models.Workspace, error) {
	var ws models.Workspace
	var members, settings []byte
	if err := row.Scan(&ws.ID, &ws.Name, &ws.Description, &ws.CreatedBy, &members, &settings, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &ws.Members); err != nil {
		return nil, fmt.Errorf("failed to decode workspace members: %w", err)
	}
	if err := json.Unmarshal(settings, &ws.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode workspace settings: %w", err)
	}
	return &ws, nil
}

func (db *PostgresDatabase) CreateWorkspace(ws *models.Workspace) error {
	members, err := marshalJSONB(ws.Members)
	if err != nil {
		return err
	}
	settings, err := marshalJSONB(ws.Settings)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO workspaces (name, description, created_by, members, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	if err := db.db.QueryRow(query, ws.Name, ws.Description, ws.CreatedBy, members, settings).
		Scan(&ws.ID, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) GetWorkspace(id string) (*models.Workspace, error) {
	ws, err := scanWorkspace(db.db.QueryRow(`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, "get workspace")
	}
	return ws, nil
}

func (db *PostgresDatabase) ListUserWorkspaces(userID string) ([]models.Workspace, error) {
	// members is an array of {"user": "<id>", ...}
	filter, err := marshalJSONB([]map[string]string{{"user": userID}})
	if err != nil {
		return nil, err
	}
	rows, err := db.db.Query(`SELECT `+workspaceColumns+` FROM workspaces WHERE members @> $1::jsonb ORDER BY updated_at DESC`, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()
	out := []models.Workspace{}
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ws)
	}
	return out, rows.Err()
}

func (db *PostgresDatabase) UpdateWorkspace(ws *models.Workspace) error {
	members, err := marshalJSONB(ws.Members)
	if err != nil {
		return err
	}
	settings, err := marshalJSONB(ws.Settings)
	if err != nil {
		return err
	}
	query := `
		UPDATE workspaces
		SET name = $2, description = $3, members = $4, settings = $5, updated_at = NOW()
		WHERE id = $1 AND updated_at = $6
		RETURNING updated_at
	`
	err = db.db.QueryRow(query, ws.ID, ws.Name, ws.Description, members, settings, ws.UpdatedAt).Scan(&ws.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return db.conflictOrMissing("workspaces", ws.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) conflictOrMissing(table, id string) error {
	var exists bool
	if err := db.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check %s: %w", table, err)
	}
	if exists {
		return ErrConflict
	}
	return ErrNotFound
}

func (db *PostgresDatabase) execOne(what, query string, args ...interface{}) error {
	res, err := db.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDatabase) DeleteWorkspace(id string) error {
	return db.execOne("delete workspace", `DELETE FROM workspaces WHERE id = $1`, id)
}

// ==== boards ====

const boardColumns = `id, COALESCE(workspace_id::text,''), name, COALESCE(description,''), COALESCE(background,''), created_by, members, settings, archived, created_at, updated_at`

func scanBoard(row rowScanner) (*models.Board, error) {
	var b models.Board
	var members, settings []byte
	if err := row.Scan(&b.ID, &b.WorkspaceID, &b.Name, &b.Description, &b.Background, &b.CreatedBy, &members, &settings, &b.Archived, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &b.Members); err != nil {
		return nil, fmt.Errorf("failed to decode board members: %w", err)
	}
	if err := json.Unmarshal(settings, &b.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode board settings: %w", err)
	}
	return &b, nil
}

func nullableID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

func (db *PostgresDatabase) CreateBoard(b *models.Board) error {
	members, err := marshalJSONB(b.Members)
	if err != nil {
		return err
	}
	settings, err := marshalJSONB(b.Settings)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO boards (workspace_id, name, description, background, created_by, members, settings, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	if err := db.db.QueryRow(query, nullableID(b.WorkspaceID), b.Name, b.Description, b.Background, b.CreatedBy, members, settings, b.Archived).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) GetBoard(id string) (*models.Board, error) {
	b, err := scanBoard(db.db.QueryRow(`SELECT `+boardColumns+` FROM boards WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, "get board")
	}
	return b, nil
}

func (db *PostgresDatabase) ListBoardsByWorkspace(workspaceID string) ([]models.Board, error) {
	rows, err := db.db.Query(`SELECT `+boardColumns+` FROM boards WHERE workspace_id = $1 ORDER BY created_at`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()
	out := []models.Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (db *PostgresDatabase) UpdateBoard(b *models.Board) error {
	members, err := marshalJSONB(b.Members)
	if err != nil {
		return err
	}
	settings, err := marshalJSONB(b.Settings)
	if err != nil {
		return err
	}
	query := `
		UPDATE boards
		SET name = $2, description = $3, background = $4, members = $5, settings = $6, archived = $7, updated_at = NOW()
		WHERE id = $1 AND updated_at = $8
		RETURNING updated_at
	`
	err = db.db.QueryRow(query, b.ID, b.Name, b.Description, b.Background, members, settings, b.Archived, b.UpdatedAt).Scan(&b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return db.conflictOrMissing("boards", b.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}
	return nil
}

// DeleteBoard lists and cards go with it (ON DELETE CASCADE)
func (db *PostgresDatabase) DeleteBoard(id string) error {
	return db.execOne("delete board", `DELETE FROM boards WHERE id = $1`, id)
}

// ==== lists ====

func (db *PostgresDatabase) CreateList(l *models.List) error {
	query := `
		INSERT INTO lists (board_id, title, position, archived, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	if err := db.db.QueryRow(query, l.BoardID, l.Title, l.Position, l.Archived, l.CreatedBy).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

const listColumns = `id, board_id, title, position, archived, created_by, created_at, updated_at`

func scanList(row rowScanner) (*models.List, error) {
	var l models.List
	if err := row.Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &l.Archived, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (db *PostgresDatabase) GetList(id string) (*models.List, error) {
	l, err := scanList(db.db.QueryRow(`SELECT `+listColumns+` FROM lists WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, "get list")
	}
	return l, nil
}

func (db *PostgresDatabase) ListListsByBoard(boardID string) ([]models.List, error) {
	rows, err := db.db.Query(`SELECT `+listColumns+` FROM lists WHERE board_id = $1 ORDER BY position, created_at`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()
	out := []models.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (db *PostgresDatabase) UpdateList(l *models.List) error {
	query := `UPDATE lists SET title = $2, position = $3, archived = $4, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := db.db.QueryRow(query, l.ID, l.Title, l.Position, l.Archived).Scan(&l.UpdatedAt); err != nil {
		return mapNoRows(err, "update list")
	}
	return nil
}

// ==== cards ====

const cardColumns = `id, board_id, list_id, title, COALESCE(description,''), created_by, members, position, completed, completed_at, due_at, archived, created_at, updated_at`

func scanCard(row rowScanner) (*models.Card, error) {
	var c models.Card
	var members []byte
	var completedAt, dueAt sql.NullTime
	if err := row.Scan(&c.ID, &c.BoardID, &c.ListID, &c.Title, &c.Description, &c.CreatedBy, &members, &c.Position, &c.Completed, &completedAt, &dueAt, &c.Archived, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &c.Members); err != nil {
		return nil, fmt.Errorf("failed to decode card members: %w", err)
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	if dueAt.Valid {
		c.DueAt = &dueAt.Time
	}
	return &c, nil
}

func (db *PostgresDatabase) CreateCard(c *models.Card) error {
	members, err := marshalJSONB(c.Members)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO cards (board_id, list_id, title, description, created_by, members, position, completed, due_at, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	if err := db.db.QueryRow(query, c.BoardID, c.ListID, c.Title, c.Description, c.CreatedBy, members, c.Position, c.Completed, c.DueAt, c.Archived).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) GetCard(id string) (*models.Card, error) {
	c, err := scanCard(db.db.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, "get card")
	}
	return c, nil
}

func (db *PostgresDatabase) ListCardsByBoard(boardID string) ([]models.Card, error) {
	rows, err := db.db.Query(`SELECT `+cardColumns+` FROM cards WHERE board_id = $1 ORDER BY list_id, position`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()
	out := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (db *PostgresDatabase) UpdateCard(c *models.Card) error {
	members, err := marshalJSONB(c.Members)
	if err != nil {
		return err
	}
	query := `
		UPDATE cards
		SET list_id = $2, title = $3, description = $4, members = $5, position = $6,
		    completed = $7, completed_at = $8, due_at = $9, archived = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := db.db.QueryRow(query, c.ID, c.ListID, c.Title, c.Description, members, c.Position, c.Completed, c.CompletedAt, c.DueAt, c.Archived).
		Scan(&c.UpdatedAt); err != nil {
		return mapNoRows(err, "update card")
	}
	return nil
}

func (db *PostgresDatabase) DeleteCard(id string) error {
	return db.execOne("delete card", `DELETE FROM cards WHERE id = $1`, id)
}

// ==== invitations ====

const invitationColumns = `id, entity_kind, entity_id, email, inviter_id, role, token, status, expires_at, accepted_by, created_at, updated_at`

func scanInvitation(row rowScanner) (*models.Invitation, error) {
	var inv models.Invitation
	var acceptedBy sql.NullString
	if err := row.Scan(&inv.ID, &inv.EntityKind, &inv.EntityID, &inv.Email, &inv.InviterID, &inv.Role, &inv.Token, &inv.Status, &inv.ExpiresAt, &acceptedBy, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	if acceptedBy.Valid {
		inv.AcceptedBy = &acceptedBy.String
	}
	return &inv, nil
}

func (db *PostgresDatabase) CreateInvitation(inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (entity_kind, entity_id, email, inviter_id, role, token, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	if err := db.db.QueryRow(query, inv.EntityKind, inv.EntityID, inv.Email, inv.InviterID, inv.Role, inv.Token, inv.Status, inv.ExpiresAt).
		Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) GetInvitationByToken(token string) (*models.Invitation, error) {
	inv, err := scanInvitation(db.db.QueryRow(`SELECT `+invitationColumns+` FROM invitations WHERE token = $1`, token))
	if err != nil {
		return nil, mapNoRows(err, "get invitation")
	}
	return inv, nil
}

func (db *PostgresDatabase) ListInvitationsByEmail(email string) ([]models.Invitation, error) {
	rows, err := db.db.Query(`SELECT `+invitationColumns+` FROM invitations WHERE lower(email) = lower($1) ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()
	out := []models.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (db *PostgresDatabase) UpdateInvitation(inv *models.Invitation) error {
	query := `UPDATE invitations SET status = $2, accepted_by = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := db.db.QueryRow(query, inv.ID, inv.Status, inv.AcceptedBy).Scan(&inv.UpdatedAt); err != nil {
		return mapNoRows(err, "update invitation")
	}
	return nil
}

// ==== activity ====

func (db *PostgresDatabase) RecordActivity(a *models.Activity) error {
	query := `
		INSERT INTO activities (entity_kind, entity_id, actor_id, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`
	if err := db.db.QueryRow(query, a.EntityKind, a.EntityID, a.ActorID, a.Action, a.Detail).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) ListActivities(kind models.EntityKind, entityID string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.db.Query(`
		SELECT id, entity_kind, entity_id, actor_id, action, COALESCE(detail,''), created_at
		FROM activities WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY created_at DESC LIMIT $3`, kind, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()
	out := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.EntityKind, &a.EntityID, &a.ActorID, &a.Action, &a.Detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// HealthCheck 健康检查
func (db *PostgresDatabase) HealthCheck() error {
	return db.db.Ping()
}

// Close 关闭连接
func (db *PostgresDatabase) Close() error {
	return db.db.Close()
}
