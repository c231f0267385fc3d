package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the registrar store
// (PostgreSQL).
var Migrations = migrate.NewGroup("registrar")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_users",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS registrar_users (
    code            TEXT PRIMARY KEY,
    password_hash   TEXT NOT NULL DEFAULT '',
    first_name      TEXT NOT NULL,
    last_name       TEXT NOT NULL,
    email           TEXT NOT NULL DEFAULT '',
    phone           TEXT NOT NULL DEFAULT '',
    role            TEXT NOT NULL,
    profile         JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_registrar_users_role ON registrar_users (role);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS registrar_users`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_modules",
			Version: "20260301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS registrar_modules (
    code            TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    credits         INTEGER NOT NULL DEFAULT 0,
    coefficient     DOUBLE PRECISION NOT NULL DEFAULT 1,
    semester        INTEGER NOT NULL DEFAULT 1,
    professor_code  TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_registrar_modules_professor ON registrar_modules (professor_code);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS registrar_modules`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_grades",
			Version: "20260301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS registrar_grades (
    seq             INTEGER PRIMARY KEY,
    student_code    TEXT NOT NULL,
    module_code     TEXT NOT NULL,
    type            TEXT NOT NULL,
    value           DOUBLE PRECISION NOT NULL,
    recorded_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_registrar_grades_student ON registrar_grades (student_code);
CREATE INDEX IF NOT EXISTS idx_registrar_grades_module ON registrar_grades (module_code);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS registrar_grades`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_absences",
			Version: "20260301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS registrar_absences (
    seq             INTEGER PRIMARY KEY,
    student_code    TEXT NOT NULL,
    module_code     TEXT NOT NULL,
    date            TIMESTAMPTZ NOT NULL,
    session         TEXT NOT NULL,
    justified       BOOLEAN NOT NULL DEFAULT FALSE,
    reason          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_registrar_absences_student ON registrar_absences (student_code);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS registrar_absences`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_enrollments",
			Version: "20260301000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS registrar_enrollments (
    student_code    TEXT NOT NULL,
    module_code     TEXT NOT NULL,
    validated       BOOLEAN NOT NULL DEFAULT FALSE,
    validated_by    TEXT NOT NULL DEFAULT '',
    enrolled_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    validated_at    TIMESTAMPTZ,

    PRIMARY KEY (student_code, module_code)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS registrar_enrollments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_notifications",
			Version: "20260301000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS registrar_notifications (
    id              TEXT PRIMARY KEY,
    recipient       TEXT NOT NULL,
    sender          TEXT NOT NULL,
    type            TEXT NOT NULL,
    title           TEXT NOT NULL,
    message         TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    read            BOOLEAN NOT NULL DEFAULT FALSE,
    priority        TEXT NOT NULL DEFAULT 'NORMAL',
    related_id      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_registrar_notifications_recipient ON registrar_notifications (recipient, created_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS registrar_notifications`)
				return err
			},
		},
	)
}
