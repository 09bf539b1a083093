package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `id, email, password_hash, role, full_name, phone, username, is_active, created_at, updated_at`

type NewProfile struct {
	Email        string
	PasswordHash string
	Role         string
	FullName     string
	Phone        *string
	Username     *string
	EmployeeNo   *string
	IsGatekeeper bool
	Address      *string
}

// CreateProfile inserts the profile and its role companion row. Call it
// inside InTx so both rows land together.
func (q *Queries) CreateProfile(ctx context.Context, p NewProfile) (Profile, error) {
	id := newID()
	rows, err := q.db.Query(ctx, `
		INSERT INTO profiles (id, email, password_hash, role, full_name, phone, username)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7)
		RETURNING `+profileColumns,
		id, p.Email, p.PasswordHash, p.Role, p.FullName, p.Phone, p.Username)
	prof, err := collectOne[Profile]("insert profile", rows, err)
	if err != nil {
		return Profile{}, err
	}

	var companion string
	var args []any
	switch p.Role {
	case RoleTeacher:
		companion, args = `INSERT INTO teachers (id, employee_no, is_gatekeeper) VALUES ($1, $2, $3)`, []any{id, p.EmployeeNo, p.IsGatekeeper}
	case RoleParent:
		companion, args = `INSERT INTO parents (id, address) VALUES ($1, $2)`, []any{id, p.Address}
	case RoleClinic:
		companion, args = `INSERT INTO clinic_staff (id) VALUES ($1)`, []any{id}
	case RoleGuard:
		companion, args = `INSERT INTO guards (id) VALUES ($1)`, []any{id}
	case RoleAdmin:
		companion, args = `INSERT INTO admin_staff (id) VALUES ($1)`, []any{id}
	default:
		return Profile{}, fmt.Errorf("insert profile: unknown role %q", p.Role)
	}
	if _, err := q.db.Exec(ctx, companion, args...); err != nil {
		return Profile{}, wrap("insert role row", err)
	}
	return prof, nil
}

// ProfilePatch lists the columns an admin update may change. Nil fields are
// left untouched.
type ProfilePatch struct {
	Email        *string
	PasswordHash *string
	FullName     *string
	Phone        *string
	Username     *string
	IsActive     *bool
}

func (q *Queries) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfilePatch) (Profile, error) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Email != nil {
		add("email", strings.ToLower(*p.Email))
	}
	if p.PasswordHash != nil {
		add("password_hash", *p.PasswordHash)
	}
	if p.FullName != nil {
		add("full_name", *p.FullName)
	}
	if p.Phone != nil {
		add("phone", *p.Phone)
	}
	if p.Username != nil {
		add("username", *p.Username)
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	if len(sets) == 0 {
		return q.ProfileByID(ctx, id)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	rows, err := q.db.Query(ctx, fmt.Sprintf(
		`UPDATE profiles SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), profileColumns), args...)
	return collectOne[Profile]("update profile", rows, err)
}

func (q *Queries) ProfileByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	rows, err := q.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return collectOne[Profile]("profile by id", rows, err)
}

func (q *Queries) ProfileByEmail(ctx context.Context, email string) (Profile, error) {
	rows, err := q.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = lower($1)`, email)
	return collectOne[Profile]("profile by email", rows, err)
}

func (q *Queries) ListProfiles(ctx context.Context, role string, page Page) ([]Profile, error) {
	page = page.normalize()
	rows, err := q.db.Query(ctx, `
		SELECT `+profileColumns+` FROM profiles
		WHERE ($1::text = '' OR role = $1::text)
		ORDER BY full_name
		LIMIT $2 OFFSET $3`, role, page.Limit, page.Offset)
	return collect[Profile]("list profiles", rows, err)
}

// ActiveProfileIDsByRole returns the ids of active profiles whose role is in roles.
func (q *Queries) ActiveProfileIDsByRole(ctx context.Context, roles ...string) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id FROM profiles WHERE is_active AND role = ANY($1) ORDER BY id`, roles)
	if err != nil {
		return nil, wrap("profiles by role", err)
	}
	ids, err := pgxCollectIDs(rows)
	if err != nil {
		return nil, wrap("profiles by role", err)
	}
	return ids, nil
}

// IsGatekeeper reports whether a teacher may record gate taps.
func (q *Queries) IsGatekeeper(ctx context.Context, teacherID uuid.UUID) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, `SELECT is_gatekeeper FROM teachers WHERE id = $1`, teacherID).Scan(&ok)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, wrap("gatekeeper flag", err)
	}
	return ok, nil
}

func (q *Queries) SetGatekeeper(ctx context.Context, teacherID uuid.UUID, on bool) error {
	tag, err := q.db.Exec(ctx, `UPDATE teachers SET is_gatekeeper = $2 WHERE id = $1`, teacherID, on)
	if err != nil {
		return wrap("set gatekeeper", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
