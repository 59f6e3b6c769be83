package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/database"
	"gomarket/internal/pkg/listing"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/pagination"
	"gomarket/internal/pkg/sqlbuilder"
)

var columns = sqlbuilder.Columns{
	listing.FieldRole:      {Expr: "u.role"},
	listing.FieldStatus:    {Expr: "u.status"},
	listing.FieldName:      {Expr: "u.name"},
	listing.FieldEmail:     {Expr: "u.email"},
	listing.FieldCreatedAt: {Expr: "u.created_at"},
}

const selectUser = `SELECT u.id, u.email, u.name, u.password_hash, u.role, u.status, u.last_login_at, u.created_at, u.updated_at FROM users u`

// UserRepository implementa o acesso a usuários e tokens de redefinição de senha.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (domain.User, error) {
	var (
		user         domain.User
		role, status string
		lastLogin    sql.NullTime
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role, &status, &lastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return domain.User{}, err
	}
	user.Role = domain.UserRole(role)
	user.Status = domain.UserStatus(status)
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLoginAt = &t
	}
	return user, nil
}

// Save insere um novo usuário no banco de dados. E-mail repetido vira ConflictError.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt

	const insertSQL = `INSERT INTO users (id, email, name, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		user.ID, user.Email, user.Name, user.PasswordHash, string(user.Role), string(user.Status), user.CreatedAt, user.UpdatedAt,
	)
	if database.IsUniqueViolation(err) {
		return domain.User{}, apperror.NewConflictError(fmt.Sprintf("O e-mail '%s' já está cadastrado.", user.Email))
	}
	if err != nil {
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to insert user (DB)", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return user, nil
}

// FindByEmail busca um usuário pelo endereço de e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, selectUser+" WHERE lower(u.email) = lower($1)", email,
		fmt.Sprintf("Usuário com email '%s' não encontrado", email))
}

// FindByID busca um usuário pelo ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, selectUser+" WHERE u.id = $1", id,
		fmt.Sprintf("Usuário com ID %s não encontrado", id))
}

func (r *UserRepository) findOne(ctx context.Context, query, arg, notFound string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(notFound)
		}
		r.logger.Error("Falha ao buscar usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user (DB)", err)
	}
	return user, nil
}

// List é a listagem administrativa de usuários (contagem e janela em paralelo).
func (r *UserRepository) List(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.User], error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	b := sqlbuilder.New()
	where, err := b.Where(q.Predicate, columns)
	if err != nil {
		return domain.Page[domain.User]{}, apperror.NewInternalError("Predicado de usuário inválido", err)
	}
	orderBy, err := sqlbuilder.OrderBy(q.Sort, columns, "u.id")
	if err != nil {
		return domain.Page[domain.User]{}, apperror.NewInternalError("Ordenação de usuário inválida", err)
	}

	countSQL := "SELECT COUNT(*) FROM users u " + where
	countArgs := append([]interface{}{}, b.Args()...)

	windowSQL := fmt.Sprintf("%s %s %s LIMIT %s OFFSET %s",
		selectUser, where, orderBy, b.Arg(q.Limit), b.Arg(pagination.Offset(q.Page, q.Limit)))
	windowArgs := b.Args()

	users, total, err := pagination.Fetch(ctxTimeout,
		func(ctx context.Context) (int, error) {
			var total int
			err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total)
			return total, err
		},
		func(ctx context.Context) ([]domain.User, error) {
			rows, err := r.DB.QueryContext(ctx, windowSQL, windowArgs...)
			if err != nil {
				return nil, err
			}
			defer rows.Close()

			users := []domain.User{}
			for rows.Next() {
				u, err := scanUser(rows)
				if err != nil {
					return nil, err
				}
				users = append(users, u)
			}
			return users, rows.Err()
		},
	)
	if err != nil {
		r.logger.Error("Falha ao listar usuários no DB.", err)
		return domain.Page[domain.User]{}, apperror.NewDBError("Falha ao listar usuários", err)
	}

	return domain.Page[domain.User]{Items: users, Pagination: pagination.New(q.Page, q.Limit, total)}, nil
}

// DeactivateAdmin tira um administrador do status ACTIVE sem nunca zerar os admins ativos.
// As linhas dos admins ativos ficam bloqueadas (FOR UPDATE) até o commit, então duas
// desativações concorrentes são serializadas e a segunda enxerga a contagem já reduzida.
func (r *UserRepository) DeactivateAdmin(ctx context.Context, id string, status domain.UserStatus, at time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctxTimeout,
		`SELECT id FROM users WHERE role = $1 AND status = $2 FOR UPDATE`,
		string(domain.RoleAdmin), string(domain.UserActive),
	)
	if err != nil {
		return apperror.NewDBError("Falha ao bloquear administradores", err)
	}
	active, found := 0, false
	for rows.Next() {
		var adminID string
		if err := rows.Scan(&adminID); err != nil {
			rows.Close()
			return apperror.NewDBError("Falha ao ler administradores", err)
		}
		active++
		found = found || adminID == id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperror.NewDBError("Falha ao ler administradores", err)
	}

	if !found {
		return apperror.NewConflictError("O usuário não é mais um administrador ativo.")
	}
	if active <= 1 {
		r.logger.Warn("Tentativa de desativar o último administrador ativo.", map[string]interface{}{"user_id": id})
		return apperror.NewBusinessRuleError("Não é possível desativar o último administrador ativo.")
	}

	if _, err := tx.ExecContext(ctxTimeout,
		`UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at,
	); err != nil {
		return apperror.NewDBError("Falha ao atualizar status do administrador", err)
	}
	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("Falha ao commitar transação", err)
	}
	return nil
}

// UpdateStatus altera o status da conta.
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status domain.UserStatus, at time.Time) error {
	return r.exec(ctx, id, `UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
}

// UpdatePassword grava o novo hash de senha.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	return r.exec(ctx, id, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, passwordHash, at)
}

// UpdateLastLogin registra o instante do último login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, id, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
}

func (r *UserRepository) exec(ctx context.Context, id, query string, args ...interface{}) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao atualizar usuário no DB.", err)
		return apperror.NewDBError("failed to update user (DB)", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to read affected rows (DB)", err)
	}
	if n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado", id))
	}
	return nil
}

// --- Tokens de redefinição de senha ---

// SaveResetToken grava o hash do token.
func (r *UserRepository) SaveResetToken(ctx context.Context, t domain.PasswordResetToken) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctxTimeout,
		`INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt,
	)
	if err != nil {
		return apperror.NewDBError("Falha ao gravar token de redefinição", err)
	}
	return nil
}

// FindResetToken busca um token pelo hash.
func (r *UserRepository) FindResetToken(ctx context.Context, tokenHash string) (domain.PasswordResetToken, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		t      domain.PasswordResetToken
		usedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, user_id, token_hash, expires_at, used_at, created_at FROM password_reset_tokens WHERE token_hash = $1`,
		tokenHash,
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PasswordResetToken{}, apperror.NewNotFoundError("Token de redefinição não encontrado")
	}
	if err != nil {
		return domain.PasswordResetToken{}, apperror.NewDBError("Falha ao buscar token de redefinição", err)
	}
	if usedAt.Valid {
		u := usedAt.Time
		t.UsedAt = &u
	}
	return t, nil
}

// MarkResetTokenUsed consome o token. Só marca se ainda não foi usado;
// devolve false quando outra requisição consumiu antes.
func (r *UserRepository) MarkResetTokenUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE password_reset_tokens SET used_at = $2 WHERE id = $1 AND used_at IS NULL`, id, at)
	if err != nil {
		return false, apperror.NewDBError("Falha ao consumir token de redefinição", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperror.NewDBError("Falha ao consumir token de redefinição", err)
	}
	return n == 1, nil
}
