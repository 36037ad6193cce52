package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/mich2000/identity"
)

func main() {
	ctx := context.Background()

	cfg, err := identity.LoadConfig()
	if err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Public()))
	fmt.Println("============")

	db, err := identity.OpenSQLite(cfg.DatabaseDSN)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	tree := identity.NewBunTree(db)
	if err := tree.Init(ctx); err != nil {
		panic(err)
	}

	store := identity.NewUserStore(tree, nil)
	if err := store.Setup(ctx); err != nil {
		panic(err)
	}

	tokens := identity.NewTokenService(
		[]byte(cfg.SigningSecret),
		cfg.Issuer,
		cfg.SessionTTL,
		cfg.PasswordChangeTTL,
		nil,
	)

	recoveryCache := identity.NewRecoveryTokenCache(cfg.RecoveryTokenTTL)
	go recoveryCache.Run(ctx, cfg.RecoveryTokenTTL)

	mailer := identity.NewConsoleMailer(nil)

	persons := identity.NewPersonService(store, tokens, recoveryCache, nil)
	admins := identity.NewAdminService(store, tokens, nil)
	recovery := identity.NewRecoveryService(store, recoveryCache, mailer, nil)

	app := fiber.New()
	identity.RegisterRoutes(app,
		identity.WithPersonService(persons),
		identity.WithAdminService(admins),
		identity.WithRecoveryService(recovery),
	)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			panic(err)
		}
	}()

	WaitExitSignal()

	if err := app.Shutdown(); err != nil {
		fmt.Fprintln(os.Stderr, "shutdown error:", err)
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
