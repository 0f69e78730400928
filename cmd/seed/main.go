// seed installs the roles, profile fields and plugin settings the service needs. Run with go run ./cmd/seed.
// Idempotent: existing settings are kept. -manager grants the manager role to an existing user so
// POST /admin/rollover can be exercised locally.
package main

import (
	"context"
	"flag"
	"log"
	"strconv"
	"time"

	"psup-auth/internal/config"
	"psup-auth/internal/db"
	"psup-auth/internal/platform/rbac"
	profilerepo "psup-auth/internal/profilefield/repository"
	roledomain "psup-auth/internal/role/domain"
	rolerepo "psup-auth/internal/role/repository"
	"psup-auth/internal/settings"
	settingsrepo "psup-auth/internal/settings/repository"
	userrepo "psup-auth/internal/user/repository"
)

var seedRoles = []roledomain.Role{
	{Shortname: rbac.RoleManager, Name: "Manager"},
	{Shortname: "student", Name: "Student"},
	{Shortname: "user", Name: "Authenticated user"},
}

func main() {
	managerUsername := flag.String("manager", "", "Username to grant the manager role at system scope")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	roles := rolerepo.NewPostgresRepository(pool)
	byShortname := make(map[string]*roledomain.Role, len(seedRoles))
	for i := range seedRoles {
		r, err := roles.Create(ctx, &seedRoles[i])
		if err != nil {
			log.Fatalf("create role %s: %v", seedRoles[i].Shortname, err)
		}
		byShortname[r.Shortname] = r
	}

	if err := profilerepo.NewPostgresRepository(pool).EnsureFields(ctx); err != nil {
		log.Fatalf("profile fields: %v", err)
	}

	values := settings.Defaults(time.Now()).Values()
	if cfg.PsupIDPattern != "" {
		values[settings.NameIdentifierPattern] = cfg.PsupIDPattern
	}
	if cfg.PsupCurrentSession != "" {
		values[settings.NameCurrentSession] = cfg.PsupCurrentSession
	}
	defaultRole := cfg.PsupDefaultRoleID
	if defaultRole == 0 {
		defaultRole = byShortname["student"].ID
	}
	values[settings.NameDefaultRoleID] = strconv.FormatInt(defaultRole, 10)
	if err := settingsrepo.NewPostgresRepository(pool).Seed(ctx, values); err != nil {
		log.Fatalf("settings: %v", err)
	}

	if *managerUsername == "" {
		log.Println("Seed applied.")
		return
	}
	u, err := userrepo.NewPostgresRepository(pool).GetByUsername(ctx, *managerUsername)
	if err != nil {
		log.Fatalf("get user %s: %v", *managerUsername, err)
	}
	if u == nil {
		log.Fatalf("user %s not found; sign up first", *managerUsername)
	}
	if err := roles.Assign(ctx, &roledomain.Assignment{
		RoleID:    byShortname[rbac.RoleManager].ID,
		UserID:    u.ID,
		ContextID: roledomain.SystemContext,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		log.Fatalf("assign manager role: %v", err)
	}
	log.Printf("Seed applied. %s holds the manager role.", *managerUsername)
}
