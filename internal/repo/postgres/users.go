package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// prom may be nil.
func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Country,
		&role,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}

	u.Role = user.Role(role)
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	var created user.User

	err := r.prom.ObserveDB("users.create", func() error {
		row := r.pool.QueryRow(ctx,
			`INSERT INTO users (id, name, email, password_hash, country, role, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING `+userColumns,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Country, string(u.Role), u.Status, u.CreatedAt, u.UpdatedAt,
		)

		var err error
		created, err = scanUser(row)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return created, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, query, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

// List returns one page of users and the size of the whole filtered set.
func (r *UsersRepo) List(ctx context.Context, filter user.ListUsersFilter) ([]user.User, int, error) {
	filter = filter.Normalized()
	output := make([]user.User, 0, filter.Limit)

	err := r.prom.ObserveDB("users.list", func() error {
		query, args := BuildListUsersQuery(filter)

		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			output = append(output, u)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	total := 0

	err = r.prom.ObserveDB("users.count", func() error {
		query, args := BuildCountUsersQuery(filter)
		return r.pool.QueryRow(ctx, query, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *UsersRepo) UpdateStatus(ctx context.Context, id string, active bool) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.update_status", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
				SET status = $2,
						updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			id,
			active,
		))
		return err
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) CountByRole(ctx context.Context) ([]user.RoleCount, error) {
	out := make([]user.RoleCount, 0, len(user.Roles()))

	err := r.prom.ObserveDB("users.count_by_role", func() error {
		rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) AS count FROM users GROUP BY role ORDER BY role`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var role string
			var count int

			if err := rows.Scan(&role, &count); err != nil {
				return err
			}
			out = append(out, user.RoleCount{Role: user.Role(role), Count: count})
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
