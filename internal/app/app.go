// Package app holds the wiring shared by the commands: logger, store and
// verifier selection from config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	firebase "firebase.google.com/go/v4"

	"github.com/ariefcatur/go-eservice-ledger/internal/auth"
	"github.com/ariefcatur/go-eservice-ledger/internal/config"
	"github.com/ariefcatur/go-eservice-ledger/internal/firebasex"
	"github.com/ariefcatur/go-eservice-ledger/internal/firestorex"
	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	"github.com/ariefcatur/go-eservice-ledger/internal/memstore"
	"github.com/ariefcatur/go-eservice-ledger/internal/mongox"
	"github.com/ariefcatur/go-eservice-ledger/internal/postgres"
)

// NewLogger returns a JSON logger tagged with service.
func NewLogger(level, service string) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With("service", service)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Firebase initializes the firebase app on first use; commands that never
// touch Firebase never need credentials.
type Firebase struct {
	cfg  config.Config
	once sync.Once
	app  *firebase.App
	err  error
}

func NewFirebase(cfg config.Config) *Firebase { return &Firebase{cfg: cfg} }

func (f *Firebase) App(ctx context.Context) (*firebase.App, error) {
	f.once.Do(func() {
		f.app, f.err = firebasex.NewApp(ctx, f.cfg.FirebaseProjectID, f.cfg.FirebaseCredentials)
	})
	return f.app, f.err
}

// OpenStore connects the configured driver and prepares its schema.
func OpenStore(ctx context.Context, cfg config.Config, fb *Firebase) (ledger.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.PostgresDSN, 10)
	case config.DriverMongo:
		s, err := mongox.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case config.DriverFirestore:
		fa, err := fb.App(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase app: %w", err)
		}
		client, err := fa.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		return firestorex.New(client), nil
	case config.DriverMemory:
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// NewVerifier selects the identity provider for bearer tokens.
func NewVerifier(ctx context.Context, cfg config.Config, fb *Firebase) (auth.Verifier, error) {
	switch cfg.AuthMode {
	case config.AuthJWT:
		return &auth.JWTVerifier{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}, nil
	case config.AuthFirebase:
		fa, err := fb.App(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase app: %w", err)
		}
		client, err := fa.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase auth: %w", err)
		}
		return &auth.FirebaseVerifier{Client: client}, nil
	}
	return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
}
