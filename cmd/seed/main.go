package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-eservice-ledger/internal/app"
	"github.com/ariefcatur/go-eservice-ledger/internal/config"
	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

func main() {
	seedServices := flag.Bool("services", false, "store the built-in catalog when no services exist")
	promote := flag.String("promote", "", "user id to grant the admin role")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := app.NewLogger(cfg.LogLevel, cfg.ServiceName+"-seed")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg, app.NewFirebase(cfg))
	if err != nil {
		logger.Error("store open", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *seedServices {
		n, err := SeedServices(ctx, store)
		if err != nil {
			logger.Error("seed services", "error", err)
			os.Exit(1)
		}
		logger.Info("services seeded", "created", n)
	}
	if *promote != "" {
		if err := store.SetUserRole(ctx, *promote, ledger.RoleAdmin); err != nil {
			logger.Error("promote", "user_id", *promote, "error", err)
			os.Exit(1)
		}
		logger.Info("user promoted", "user_id", *promote)
	}
}

// SeedServices stores the built-in catalog unless the store already lists
// services. It returns how many were created.
func SeedServices(ctx context.Context, store ledger.Store) (int, error) {
	existing, err := store.ListServices(ctx, ledger.ServiceListOpts{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	n := 0
	for _, svc := range ledger.DefaultServices() {
		svc.ID = ledger.NewID(ledger.PrefixService)
		svc.CreatedAt = time.Now().Add(time.Duration(n) * time.Millisecond)
		if err := store.CreateService(ctx, &svc); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
