package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	consulsd "github.com/go-kit/kit/sd/consul"
	"github.com/gorilla/mux"
	"github.com/hashicorp/consul/api"
	"github.com/ichigozero/projectkit/projectsvc/client"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectauth"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projecttransport"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		httpAddr     = flag.String("http.addr", ":8000", "Address for HTTP (JSON) server")
		consulAddr   = flag.String("consul.addr", "", "Consul agent address")
		retryMax     = flag.Int("retry.max", 3, "per-request retries to different instances")
		retryTimeout = flag.Duration("retry.timeout", 500*time.Millisecond, "per-request timeout, including retries")
		sessionCheck = flag.Bool("session.check", false, "require the access token uuid to be a live session in consul KV")
	)
	flag.Parse()

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

	var (
		sdClient consulsd.Client
		sessions projectauth.SessionStore
	)
	{
		consulConfig := api.DefaultConfig()
		if len(*consulAddr) > 0 {
			consulConfig.Address = *consulAddr
		}

		consulClient, err := api.NewClient(consulConfig)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}

		sdClient = consulsd.NewClient(consulClient)
		if *sessionCheck {
			sessions = projectauth.NewConsulSessionStore(consulClient)
		}
	}

	r := mux.NewRouter()
	{
		endpoints, err := client.New(sdClient, logger, *retryMax, *retryTimeout)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
		projectHTTPHandler := projecttransport.NewHTTPHandler(endpoints, secret, sessions, logger)
		r.PathPrefix("/project/v1").Handler(http.StripPrefix("/project/v1", projectHTTPHandler))
	}

	// Interrupt handler.
	errc := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	// HTTP transport.
	go func() {
		logger.Log("transport", "HTTP", "addr", *httpAddr)
		errc <- http.ListenAndServe(*httpAddr, r)
	}()

	// Run!
	logger.Log("exit", <-errc)
}
