package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arcadehub/internal/audit"
	"arcadehub/internal/config"
	"arcadehub/internal/http/http_server"
	"arcadehub/internal/http/roomhandler"
	"arcadehub/internal/services/fight"
	"arcadehub/internal/services/piano"
	"arcadehub/internal/services/tictactoe"
	"arcadehub/internal/ws"

	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Kafka audit trail (disabled when no broker is configured)
	gameLog := audit.New(cfg.KafkaBroker)
	defer gameLog.Close()

	// 4. Connection registry + per-room game services
	hub := ws.NewHub()
	tick := time.Duration(cfg.CountdownTickMs) * time.Millisecond
	fightSvc := fight.NewService(hub.RoomEmitter(ws.RoomFight), cfg.FightStartLives, tick)
	pianoSvc := piano.NewService(hub.RoomEmitter(ws.RoomPiano))
	tttSvc := tictactoe.NewService(hub.RoomEmitter(ws.RoomTicTacToe))

	// 5. WS server: event routing over the socket
	wsSrv := ws.NewWsServer(hub, fightSvc, pianoSvc, tttSvc, gameLog)

	// 6. HTTP + WS server
	rh := roomhandler.New(hub, fightSvc, pianoSvc, tttSvc)
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, rh)

	go func() {
		<-ctx.Done()
		_ = httpServer.Dispose()
	}()

	if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
