// Command seed bootstraps a fresh database with an admin account and, when
// asked, a handful of demo classrooms, subjects, and faculty so the API is
// usable immediately after the schema is applied.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/timetable-api/pkg/config"
)

func main() {
	var (
		adminUser string
		adminPass string
		adminName string
		demo      bool
	)

	flag.StringVar(&adminUser, "admin-user", "admin", "Admin username")
	flag.StringVar(&adminPass, "admin-pass", "", "Admin password (required)")
	flag.StringVar(&adminName, "admin-name", "Administrator", "Admin display name")
	flag.BoolVar(&demo, "demo", false, "Also insert demo classrooms, subjects, and faculty")
	flag.Parse()

	if adminPass == "" {
		log.Fatal("-admin-pass is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.Name, cfg.Database.SSLMode)
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seedAdmin(ctx, db, adminUser, adminPass, adminName); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	log.Printf("admin account %q ready", adminUser)

	if demo {
		if err := seedDemo(ctx, db); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
		log.Print("demo data inserted")
	}
}

func seedAdmin(ctx context.Context, db *sqlx.DB, username, password, fullName string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO faculty (id, full_name, username, password_hash, subject, role, active)
		VALUES ($1, $2, $3, $4, '', 'ADMIN', TRUE)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash`,
		uuid.NewString(), fullName, strings.ToLower(username), string(hash))
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func seedDemo(ctx context.Context, db *sqlx.DB) error {
	for _, room := range []struct {
		number   string
		capacity int
	}{{"101", 30}, {"102", 30}, {"201", 40}} {
		_, err := db.ExecContext(ctx, `
			INSERT INTO classrooms (id, room_number, capacity)
			VALUES ($1, $2, $3) ON CONFLICT (room_number) DO NOTHING`,
			uuid.NewString(), room.number, room.capacity)
		if err != nil {
			return fmt.Errorf("insert classroom %s: %w", room.number, err)
		}
	}

	for _, subj := range []struct{ name, code string }{
		{"Mathematics", "MATH"}, {"Physics", "PHY"}, {"English", "ENG"},
	} {
		_, err := db.ExecContext(ctx, `
			INSERT INTO subjects (id, name, code)
			VALUES ($1, $2, $3) ON CONFLICT (code) DO NOTHING`,
			uuid.NewString(), subj.name, subj.code)
		if err != nil {
			return fmt.Errorf("insert subject %s: %w", subj.code, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	for _, f := range []struct{ name, username, subject string }{
		{"Alice Johnson", "alice", "Mathematics"},
		{"Bob Smith", "bob", "Physics"},
		{"Carol Davis", "carol", "English"},
	} {
		_, err := db.ExecContext(ctx, `
			INSERT INTO faculty (id, full_name, username, password_hash, subject, role, active)
			VALUES ($1, $2, $3, $4, $5, 'FACULTY', TRUE)
			ON CONFLICT (username) DO NOTHING`,
			uuid.NewString(), f.name, f.username, string(hash), f.subject)
		if err != nil {
			return fmt.Errorf("insert faculty %s: %w", f.username, err)
		}
	}
	return nil
}
