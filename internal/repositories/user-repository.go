package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mes-system/internal/dto"
	"mes-system/internal/entities"
	apperrors "mes-system/pkg/errors"
	"mes-system/pkg/types"
	"mes-system/pkg/utils"
)

type dbUser struct {
	ID           uint64
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    sql.NullTime
}

func (db *dbUser) ToDTO() dto.UserDTO {
	return dto.UserDTO{
		ID:        db.ID,
		Username:  db.Username,
		FullName:  db.FullName,
		Role:      db.Role,
		IsActive:  db.IsActive,
		CreatedAt: db.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		UpdatedAt: utils.NullTimeToEmptyString(db.UpdatedAt),
	}
}

func (db *dbUser) ToEntity() entities.User {
	user := entities.User{
		ID:           db.ID,
		Username:     db.Username,
		PasswordHash: db.PasswordHash,
		FullName:     db.FullName,
		Role:         db.Role,
		IsActive:     db.IsActive,
		CreatedAt:    db.CreatedAt,
	}
	if db.UpdatedAt.Valid {
		t := db.UpdatedAt.Time
		user.UpdatedAt = &t
	}
	return user
}

const (
	userTable  = "users"
	userFields = "id, username, password_hash, full_name, role, is_active, created_at, updated_at"
)

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error)
	FindUserByID(ctx context.Context, id uint64) (*dto.UserDTO, error)
	FindUserByUsername(ctx context.Context, username string) (*entities.User, error)
	FindUserEntityByID(ctx context.Context, id uint64) (*entities.User, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO, passwordHash string) (*dto.UserDTO, error)
	UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO, passwordHash string) (*dto.UserDTO, error)
	DeactivateUser(ctx context.Context, id uint64) error
}

type userRepository struct{ storage *pgxpool.Pool }

func NewUserRepository(storage *pgxpool.Pool) UserRepositoryInterface {
	return &userRepository{storage: storage}
}

func (r *userRepository) scanRow(row pgx.Row) (*dbUser, error) {
	var dbRow dbUser
	err := row.Scan(&dbRow.ID, &dbRow.Username, &dbRow.PasswordHash, &dbRow.FullName,
		&dbRow.Role, &dbRow.IsActive, &dbRow.CreatedAt, &dbRow.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &dbRow, nil
}

func (r *userRepository) GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error) {
	var args []interface{}
	whereClauses := []string{}

	if raw, ok := filter.Filter["is_active"]; ok {
		whereClauses = append(whereClauses, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, fmt.Sprintf("%v", raw) == "true")
	} else {
		whereClauses = append(whereClauses, "is_active = TRUE")
	}
	if raw, ok := filter.Filter["role"]; ok {
		whereClauses = append(whereClauses, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, fmt.Sprintf("%v", raw))
	}
	if filter.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(username ILIKE $%d OR full_name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	whereClause := "WHERE " + strings.Join(whereClauses, " AND ")

	var total uint64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", userTable, whereClause)
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []dto.UserDTO{}, 0, nil
	}

	queryArgs := append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY username LIMIT $%d OFFSET $%d",
		userFields, userTable, whereClause, len(args)+1, len(args)+2)

	rows, err := r.storage.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]dto.UserDTO, 0)
	for rows.Next() {
		var dbRow dbUser
		if err := rows.Scan(&dbRow.ID, &dbRow.Username, &dbRow.PasswordHash, &dbRow.FullName,
			&dbRow.Role, &dbRow.IsActive, &dbRow.CreatedAt, &dbRow.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, dbRow.ToDTO())
	}
	return users, total, rows.Err()
}

func (r *userRepository) FindUserByID(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", userFields, userTable)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	userDTO := dbRow.ToDTO()
	return &userDTO, nil
}

func (r *userRepository) FindUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE username = $1", userFields, userTable)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, username))
	if err != nil {
		return nil, err
	}
	user := dbRow.ToEntity()
	return &user, nil
}

func (r *userRepository) FindUserEntityByID(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", userFields, userTable)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	user := dbRow.ToEntity()
	return &user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, payload dto.CreateUserDTO, passwordHash string) (*dto.UserDTO, error) {
	query := fmt.Sprintf("INSERT INTO %s (username, password_hash, full_name, role) VALUES ($1, $2, $3, $4) RETURNING %s",
		userTable, userFields)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, payload.Username, passwordHash, payload.FullName, payload.Role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	userDTO := dbRow.ToDTO()
	return &userDTO, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO, passwordHash string) (*dto.UserDTO, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	if payload.Username.Valid {
		setClauses = append(setClauses, fmt.Sprintf("username = $%d", argID))
		args = append(args, payload.Username.String)
		argID++
	}
	if passwordHash != "" {
		setClauses = append(setClauses, fmt.Sprintf("password_hash = $%d", argID))
		args = append(args, passwordHash)
		argID++
	}
	if payload.FullName.Valid {
		setClauses = append(setClauses, fmt.Sprintf("full_name = $%d", argID))
		args = append(args, payload.FullName.String)
		argID++
	}
	if payload.Role.Valid {
		setClauses = append(setClauses, fmt.Sprintf("role = $%d", argID))
		args = append(args, payload.Role.String)
		argID++
	}
	if payload.IsActive.Valid {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argID))
		args = append(args, payload.IsActive.Bool)
		argID++
	}
	if len(setClauses) == 0 {
		return r.FindUserByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		userTable, strings.Join(setClauses, ", "), argID, userFields)
	args = append(args, id)

	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	userDTO := dbRow.ToDTO()
	return &userDTO, nil
}

func (r *userRepository) DeactivateUser(ctx context.Context, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET is_active = FALSE, updated_at = NOW() WHERE id = $1", userTable)
	result, err := r.storage.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
