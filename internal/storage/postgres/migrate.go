package postgres

import (
    "database/sql"
    "embed"
    "errors"
    "fmt"

    "github.com/golang-migrate/migrate/v4"
    migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
    "github.com/golang-migrate/migrate/v4/source/iofs"
    _ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Direction selects which way Migrate moves the schema.
type Direction int

const (
    Up Direction = iota
    Down
)

// Migrate applies the embedded schema migrations. A schema that is already
// current is not an error.
func Migrate(dsn string, dir Direction) (err error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil { return fmt.Errorf("open migration db: %w", err) }
    defer db.Close()
    if err := db.Ping(); err != nil { return fmt.Errorf("ping migration db: %w", err) }

    driver, err := migratepg.WithInstance(db, &migratepg.Config{})
    if err != nil { return fmt.Errorf("migrate driver: %w", err) }
    src, err := iofs.New(migrationsFS, "migrations")
    if err != nil { return fmt.Errorf("migrate source: %w", err) }
    m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
    if err != nil { return fmt.Errorf("migrate instance: %w", err) }
    defer func() {
        srcErr, dbErr := m.Close()
        if err == nil {
            err = errors.Join(srcErr, dbErr)
        }
    }()

    switch dir {
    case Down:
        err = m.Down()
    default:
        err = m.Up()
    }
    if errors.Is(err, migrate.ErrNoChange) {
        return nil
    }
    return err
}
