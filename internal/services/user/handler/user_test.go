package handler_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"brewstock-system/internal/database"
	"brewstock-system/internal/services/core"
	"brewstock-system/internal/services/user/handler"
	"brewstock-system/internal/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:user_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func newUserHandler(t *testing.T) *handler.UserHandler {
	t.Helper()
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})
	return handler.NewUserHandler(newTestDB(t), redisClient, utils.NewTokenIssuer("test-secret"), time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	users := newUserHandler(t)

	created, err := users.Register(ctx, handler.RegisterRequest{
		Username: "barista",
		Email:    "barista@example.com",
		Password: "espresso-machine",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.Password != "" {
		t.Fatalf("register response must not expose the password hash")
	}

	resp, err := users.Login(ctx, handler.LoginRequest{Username: "barista", Password: "espresso-machine"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a session token")
	}
	if resp.UserID != created.ID {
		t.Fatalf("expected user id %d, got %d", created.ID, resp.UserID)
	}

	if _, err := users.Login(ctx, handler.LoginRequest{Username: "barista", Password: "wrong"}); !core.IsValidation(err) {
		t.Fatalf("expected validation error for bad password, got %v", err)
	}
	if _, err := users.Login(ctx, handler.LoginRequest{Username: "ghost", Password: "whatever"}); !core.IsValidation(err) {
		t.Fatalf("expected validation error for unknown user, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	users := newUserHandler(t)

	req := handler.RegisterRequest{
		Username: "barista",
		Email:    "barista@example.com",
		Password: "espresso-machine",
	}
	if _, err := users.Register(ctx, req); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := users.Register(ctx, req); !core.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate username, got %v", err)
	}

	if _, err := users.Register(ctx, handler.RegisterRequest{
		Username: "short",
		Email:    "short@example.com",
		Password: "tiny",
	}); !core.IsValidation(err) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}

func TestListUsersBlanksPasswords(t *testing.T) {
	ctx := context.Background()
	users := newUserHandler(t)

	if _, err := users.Register(ctx, handler.RegisterRequest{
		Username: "barista",
		Email:    "barista@example.com",
		Password: "espresso-machine",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	listed, err := users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 user, got %d", len(listed))
	}
	if listed[0].Password != "" {
		t.Fatalf("listing must not expose password hashes")
	}
}
