package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"inkwell/auth"
	"inkwell/config"
	"inkwell/database"
	"inkwell/session"
	"inkwell/site"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "inkwell",
		Short:         "A small server-rendered blog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})
	root.AddCommand(&cobra.Command{
		Use:   "grant-admin <email>",
		Short: "Give the admin role to a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAdmin(cmd.Context(), args[0], true)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "revoke-admin <email>",
		Short: "Take the admin role away from a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAdmin(cmd.Context(), args[0], false)
		},
	})

	return root
}

func openStore(cfg config.Config) (*database.Store, error) {
	store, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, database.Options{
		Debug:          cfg.Debug,
		FirstUserAdmin: cfg.Auth.FirstUserAdmin,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsureSessionSecret(); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var sessionStore session.Store = session.NewDatabaseStore(store)
	if cfg.Session.Backend == config.SessionBackendRedis {
		rdb, err := session.NewRedisClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessionStore = session.NewRedisStore(rdb, cfg.Session.TTL)
		log.Printf("sessions stored in redis at %s", cfg.Redis.Addr)
	}

	var previous [][]byte
	for _, secret := range cfg.Session.PreviousSecrets {
		previous = append(previous, []byte(secret))
	}
	sessions, err := session.NewManager(sessionStore, store, session.Options{
		Secret:          []byte(cfg.Session.Secret),
		PreviousSecrets: previous,
		CookieName:      cfg.Session.CookieName,
		Secure:          cfg.Session.SecureCookie,
	})
	if err != nil {
		return err
	}

	srv := site.NewServer(cfg, store, sessions, auth.NewPasswordCodec(cfg.Auth.PBKDF2Iterations), auth.DefaultPolicy())
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Running on %s", cfg.Site.PublicURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Block until a signal is received or the listener fails
	select {
	case <-signals:
	case err := <-serverErr:
		return errors.Wrap(err, "http server stopped")
	}
	log.Println("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

func setAdmin(ctx context.Context, email string, granted bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := store.SetRole(ctx, email, auth.RoleAdmin, granted)
	if errors.Is(err, database.ErrNotFound) {
		return errors.Errorf("no user registered with %s", email)
	}
	if err != nil {
		return err
	}

	if granted {
		color.Green("%s (%s) is now an admin", user.Name, user.Email)
	} else {
		color.Yellow("%s (%s) is no longer an admin", user.Name, user.Email)
	}
	return nil
}
