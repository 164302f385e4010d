package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"stock-lookup/configs"
	"stock-lookup/internal/broker"
	"stock-lookup/internal/gateway"
	"stock-lookup/internal/product"
	"stock-lookup/pkg/db"
	"stock-lookup/pkg/limiter"
	"stock-lookup/pkg/logger"
	"stock-lookup/pkg/middleware"
	"stock-lookup/pkg/redis"
	"stock-lookup/pkg/req"
	"stock-lookup/pkg/res"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewService wires the broker and queries from config. The returned cleanup
// releases the Redis client when one is configured.
func NewService(conf *configs.Config) (*gateway.Service, func(), error) {
	dialect, err := db.ParseDialect(conf.DbConfig.Dialect)
	if err != nil {
		return nil, nil, err
	}

	queries, err := product.NewQueries(dialect, conf.DbConfig.ProductsTable)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var slots limiter.Limiter = limiter.Unlimited{}
	switch {
	case conf.Limits.MaxConnections <= 0:
	case conf.Limits.RedisAddr != "":
		rdb, err := redis.NewRedis(conf)
		if err != nil {
			return nil, nil, err
		}
		slots = rdb.SlotCounter(conf.Limits.MaxConnections, conf.DbConfig.ConnectTimeout+conf.DbConfig.QueryTimeout)
		cleanup = func() { _ = rdb.Close() }
	default:
		slots = limiter.NewLocal(conf.Limits.MaxConnections)
	}

	b := broker.New(
		db.NewSQLOpener(dialect, conf.DbConfig.ConnectTimeout),
		broker.WithLimiter(slots),
		broker.WithConnectTimeout(conf.DbConfig.ConnectTimeout),
		broker.WithQueryTimeout(conf.DbConfig.QueryTimeout),
	)
	return gateway.NewService(b, queries), cleanup, nil
}

func App(conf *configs.Config, service *gateway.Service) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	middleware.CORS(router, conf.CORSOrigin)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		res.Json(w, map[string]string{"status": "ok"}, http.StatusOK)
	}).Methods(http.MethodGet)

	gateway.NewController(router, gateway.ControllerDeps{
		Service: service,
	})

	return router
}

func serve(conf *configs.Config) error {
	service, cleanup, err := NewService(conf)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(conf.Port),
		Handler:           App(conf, service),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("dialect", conf.DbConfig.Dialect).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Info().Msg("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("server shutdown complete")
	return nil
}

// ping runs the connection check from a terminal and prints the same
// envelope the HTTP endpoint would return.
func ping(ctx context.Context, conf *configs.Config, creds *gateway.CredentialsDto) error {
	if err := req.IsValid(creds); err != nil {
		return err
	}

	service, cleanup, err := NewService(conf)
	if err != nil {
		return err
	}
	defer cleanup()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	out, err := service.TestConnection(ctx, creds.Credentials())
	if err != nil {
		_ = enc.Encode(res.ErrorBody{Status: res.StatusError, Message: gateway.Message(err)})
		return errors.New("connection check failed")
	}
	return enc.Encode(gateway.ConnectionResponse{Status: res.StatusSuccess, Message: out.Message, Time: out.ServerTime})
}

func newRootCmd() *cobra.Command {
	conf := configs.LoadConfig()

	root := &cobra.Command{
		Use:           "stock-lookup",
		Short:         "Credential-scoped product lookup gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(conf.LogLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(conf)
		},
	}
	root.PersistentFlags().StringVar(&conf.DbConfig.Dialect, "dialect", conf.DbConfig.Dialect, "database dialect: postgres, mssql or hana")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(conf)
		},
	}
	serveCmd.Flags().IntVar(&conf.Port, "port", conf.Port, "HTTP listen port")

	creds := &gateway.CredentialsDto{}
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that a database is reachable with the given credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.Password == "" {
				creds.Password = os.Getenv("STOCK_LOOKUP_DB_PASSWORD")
			}
			return ping(cmd.Context(), conf, creds)
		},
	}
	pingCmd.Flags().StringVar(&creds.Host, "host", "localhost", "database host")
	pingCmd.Flags().IntVar(&creds.Port, "db-port", 0, "database port (default: dialect standard port)")
	pingCmd.Flags().StringVar(&creds.User, "user", "", "database user")
	pingCmd.Flags().StringVar(&creds.Password, "password", "", "database password (or STOCK_LOOKUP_DB_PASSWORD)")
	pingCmd.Flags().StringVar(&creds.Database, "database", "", "database name")

	root.AddCommand(serveCmd, pingCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("stock-lookup failed")
		os.Exit(1)
	}
}
