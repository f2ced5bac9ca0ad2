package main

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban-api/api"
	"kanban-api/bridge"
	"kanban-api/relay"
	"kanban-api/storage"
	"kanban-api/store"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.New()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	persist, err := storage.New(dataDir)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	tasks, err := persist.LoadTasks()
	if err != nil {
		logger.WithError(err).Warn("load persisted tasks, starting empty")
		tasks = nil
	}
	entries, err := persist.LoadActivity()
	if err != nil {
		logger.WithError(err).Warn("load persisted activity, starting empty")
		entries = nil
	}

	activityCap := relay.DefaultActivityCap
	if v := os.Getenv("ACTIVITY_CAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("invalid ACTIVITY_CAP: %v", v)
		}
		activityCap = n
	}

	taskStore := store.NewSeeded(tasks)
	activityLog := relay.NewActivityLog(activityCap)
	activityLog.Seed(entries)
	hub := relay.NewHub()
	rly := relay.New(taskStore, activityLog, hub, persist, logger)

	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		channel := os.Getenv("BRIDGE_CHANNEL")
		if channel == "" {
			channel = "board-frames"
		}
		rc := redis.NewClient(redisOptions(redisConn))
		br := bridge.New(rc, channel, logger)
		rly.SetPublisher(br.Publish)
		go br.Run(context.Background(), func(f relay.Frame) { hub.Broadcast(f) })
		logger.Infof("bridge enabled on channel %s", channel)
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, api.HeaderClientID},
	}))
	e.Use(api.GzipRequestMiddleware())

	api.Register(e, rly, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// redisOptions parses a redis URL, falling back to the comma-separated
// host,password=...,ssl=true form some providers hand out.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
