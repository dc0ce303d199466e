// Command devtoken mints an access token in the format the login service
// issues, for talking to projectsvc without it.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/go-kit/kit/log"
	"github.com/hashicorp/consul/api"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectauth"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("devtoken", flag.ExitOnError)
	var (
		userID     = fs.Uint64("user.id", 1, "user id to put in the token")
		expiry     = fs.Duration("expiry", projectauth.AccessTokenExpiry(), "token lifetime")
		consulAddr = fs.String("consul.addr", os.Getenv("CONSUL_ADDR"), "Consul agent address; when set the session is recorded in KV")
	)
	fs.Parse(os.Args[1:])

	logger := log.NewLogfmtLogger(os.Stderr)

	secret := os.Getenv("ACCESS_SECRET")
	if secret == "" {
		logger.Log("err", "ACCESS_SECRET is not set")
		os.Exit(1)
	}

	token, err := projectauth.NewTokenizer([]byte(secret), *expiry).Generate(*userID)
	if err != nil {
		logger.Log("during", "Generate", "err", err)
		os.Exit(1)
	}

	if *consulAddr != "" {
		consulConfig := api.DefaultConfig()
		consulConfig.Address = *consulAddr
		consulClient, err := api.NewClient(consulConfig)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}

		sessions := projectauth.NewConsulSessionStore(consulClient)
		if err := sessions.Put(token.UUID, []byte(strconv.FormatUint(*userID, 10))); err != nil {
			logger.Log("during", "Put", "err", err)
			os.Exit(1)
		}
		logger.Log("session", token.UUID, "user_id", *userID)
	}

	fmt.Println(token.Hash)
}
