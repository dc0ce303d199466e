package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/go-kit/kit/log"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	consulsd "github.com/go-kit/kit/sd/consul"
	"github.com/hashicorp/consul/api"
	"github.com/ichigozero/projectkit/projectsvc/client"
	"github.com/ichigozero/projectkit/projectsvc/db/gorm"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectauth"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectendpoint"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectservice"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projecttransport"
	"github.com/joho/godotenv"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/twinj/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// A missing .env file is fine; the environment is used as is.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("projectsvc", flag.ExitOnError)
	var (
		httpAddr = fs.String(
			"http.addr",
			getEnv("HTTP_ADDR", ":8083"),
			"HTTP listen address",
		)
		consulAddr = fs.String(
			"consul.addr",
			getEnv("CONSUL_ADDR", ""),
			"Consul agent address; empty disables registration",
		)
		databaseURL = fs.String(
			"database.url",
			getEnv("DATABASE_URL", ""),
			"PostgreSQL URL; empty uses SQLite",
		)
		sqlitePath = fs.String(
			"sqlite.path",
			getEnv("SQLITE_PATH", "projectsvc.db"),
			"SQLite database file",
		)
		sessionCheck = fs.Bool(
			"session.check",
			getEnvAsBool("SESSION_CHECK", false),
			"require the access token uuid to be a live session in consul KV",
		)
	)

	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	fs.Parse(os.Args[1:])

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	secret := []byte(os.Getenv("ACCESS_SECRET"))
	if len(secret) == 0 {
		logger.Log("err", "ACCESS_SECRET is not set")
		os.Exit(1)
	}

	var db *libgorm.DB
	{
		var (
			dialector libgorm.Dialector
			err       error
		)
		if *databaseURL != "" {
			dialector = postgres.Open(*databaseURL)
		} else {
			dialector = sqlite.Open(*sqlitePath + "?_foreign_keys=on")
		}
		db, err = libgorm.Open(dialector, &libgorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			logger.Log("during", "Open", "err", err)
			os.Exit(1)
		}
		if err := gorm.Migrate(db); err != nil {
			logger.Log("during", "Migrate", "err", err)
			os.Exit(1)
		}
	}

	var (
		consulClient *api.Client
		registrar    *consulsd.Registrar
	)
	if *consulAddr != "" || *sessionCheck {
		consulConfig := api.DefaultConfig()
		if len(*consulAddr) > 0 {
			consulConfig.Address = *consulAddr
		}
		var err error
		consulClient, err = api.NewClient(consulConfig)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
	}
	if *consulAddr != "" {
		host, port, err := net.SplitHostPort(*httpAddr)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
		if host == "" {
			host = "localhost"
		}

		p, _ := strconv.Atoi(port)
		asr := &api.AgentServiceRegistration{
			ID:      uuid.NewV4().String(),
			Name:    client.ServiceName,
			Address: host,
			Port:    p,
		}

		registrar = consulsd.NewRegistrar(consulsd.NewClient(consulClient), asr, logger)
		registrar.Register()
		defer registrar.Deregister()
	}

	var sessions projectauth.SessionStore
	if *sessionCheck {
		sessions = projectauth.NewConsulSessionStore(consulClient)
	}

	fieldKeys := []string{"method"}

	var service projectservice.Service
	{
		service = projectservice.New(gorm.NewProjectRepository(db), gorm.NewTaskRepository(db), logger)
		service = projectservice.InstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "api",
				Subsystem: "project_service",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, fieldKeys),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "api",
				Subsystem: "project_service",
				Name:      "request_latency_seconds",
				Help:      "Total duration of requests in seconds.",
			}, fieldKeys),
		)(service)
	}

	var (
		endpoints   = projectendpoint.New(service, logger)
		httpHandler = projecttransport.NewHTTPHandler(endpoints, secret, sessions, logger)
	)

	var g group.Group
	{
		httpListener, err := net.Listen("tcp", *httpAddr)
		if err != nil {
			logger.Log("transport", "HTTP", "during", "Listen", "err", err)
			if registrar != nil {
				registrar.Deregister()
			}
			os.Exit(1)
		}
		g.Add(func() error {
			logger.Log("transport", "HTTP", "addr", *httpAddr)
			return http.Serve(httpListener, httpHandler)
		}, func(error) {
			httpListener.Close()
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	logger.Log("exit", g.Run())
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := strconv.ParseBool(value); err == nil {
		return v
	}
	return fallback
}
