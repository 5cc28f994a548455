package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/voiceast/voiceast/config"
	"github.com/voiceast/voiceast/device"
	"github.com/voiceast/voiceast/executor"
	"github.com/voiceast/voiceast/handlers"
	"github.com/voiceast/voiceast/store"
	"github.com/voiceast/voiceast/utils"
)

func main() {
	addr := pflag.String("addr", "", "listen address, overrides HTTP_ADDRESS")
	debug := pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	var logger *zap.Logger
	var err error
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg := config.Load()
	if *addr != "" {
		cfg.HTTPAddress = *addr
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          0,
		DialTimeout: 20 * time.Second,
	})
	redisCtx, cancelRedis := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelRedis()
	if _, err := redisClient.Ping(redisCtx).Result(); err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	ai := utils.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.VisionModel, cfg.TTSModel, cfg.TTSVoice, cfg.EmbedModel)

	semantic, err := utils.NewSemanticMemory(context.Background(), cfg.PineconeAPIKey, cfg.PineconeIndex, ai.Embed)
	if err != nil {
		logger.Warn("semantic memory unavailable, recall is exact-match only", zap.Error(err))
	}
	var semanticIndex store.SemanticIndex
	if semantic != nil {
		semanticIndex = semantic
	}

	facts := store.NewFacts(redisClient, semanticIndex)
	history := store.NewHistory(redisClient)

	controller := device.NewController(cfg.AppAliases, cfg.PlatformAliases, cfg.FilesRoot, cfg.DangerousCommands)
	exec := executor.New(controller, ai, facts, cfg.AITimeout)

	var stt handlers.Transcriber
	if cfg.DeepgramAPIKey != "" {
		stt = utils.InitDeepgramClient(cfg.DeepgramAPIKey, cfg.DeepgramModel)
	} else {
		logger.Warn("DEEPGRAM_API_KEY not set; audio uploads will be rejected")
	}

	var tts handlers.Synthesizer
	if cfg.OpenAIAPIKey != "" {
		tts = ai
	}

	hub := handlers.NewHub()
	ws := handlers.NewWebSocketHandler(hub, exec, history, tts, stt, cfg.TTSTimeout)
	api := handlers.NewRESTHandler(hub, exec, history)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	go handlers.NewMonitor(hub, cfg.MonitorInterval).Run(monitorCtx)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Route("/api", api.Routes)
	r.Handle("/ws", ws)

	server := &http.Server{
		Addr:    cfg.HTTPAddress,
		Handler: r,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("shutting down")

	stopMonitor()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		logger.Warn("closing Redis failed", zap.Error(err))
	}
}
