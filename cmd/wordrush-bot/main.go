// wordrush-bot is a headless reference client: it connects to a WordRush
// server, creates or joins a room, and logs every reconciled state change.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wordrush/wordrush-go/internal/config"
	"github.com/wordrush/wordrush-go/internal/protocol"
	"github.com/wordrush/wordrush-go/internal/session"
	"github.com/wordrush/wordrush-go/internal/transport"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp := transport.New(transport.DefaultConfig(cfg.ServerURL), nil)
	sess := session.New(tp, session.DefaultOptions())
	defer sess.Close()

	if err := sess.Start(ctx); err != nil {
		log.Fatal().Err(err).Str("url", cfg.ServerURL).Msg("failed to connect")
	}

	if cfg.JoinCode != "" {
		err = sess.JoinRoom(cfg.JoinCode, cfg.Username, cfg.Avatar)
	} else {
		err = sess.CreateRoom(cfg.Username, cfg.Avatar, protocol.GameConfig{
			RoundsCount:     cfg.Game.Rounds,
			Categories:      cfg.Game.Categories,
			ExcludedLetters: cfg.Game.ExcludedLetters,
		})
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to enter a room")
	}

	run(ctx, sess)
}

func run(ctx context.Context, sess *session.Session) {
	greeted := false
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			if sess.Store().InRoom() {
				sess.LeaveRoom()
			}
			return

		case remaining := <-sess.Countdown().Ticks():
			log.Info().Int("seconds_left", remaining).Msg("tick")

		case update := <-sess.Updates():
			handleUpdate(sess, update, &greeted)
		}
	}
}

func handleUpdate(sess *session.Session, update session.Update, greeted *bool) {
	store := sess.Store()

	switch update.Event {
	case protocol.EventRoomCreated, protocol.EventRoomJoined:
		room := store.Snapshot()
		log.Info().
			Str("room_id", room.RoomID).
			Str("join_code", room.JoinCode).
			Int("players", len(room.Players)).
			Msg("in room")
		if !*greeted {
			*greeted = true
			if err := sess.SendChatMessage("hello from wordrush-bot"); err != nil {
				log.Warn().Err(err).Msg("greeting failed")
			}
		}

	case protocol.EventRoundStarted, protocol.EventGameStarted:
		room := store.Snapshot()
		if room.Round != nil {
			log.Info().
				Int("round", room.CurrentRound).
				Str("letter", room.Round.Letter).
				Msg("round started")
		}

	case protocol.EventRoundEnded:
		log.Info().Str("phase", update.Phase.String()).Msg("round over")
		if update.Phase == protocol.PhaseRoundEnd {
			if err := sess.RequestRoundResults(); err != nil {
				log.Warn().Err(err).Msg("results request failed")
			}
		}
		if update.Phase == protocol.PhaseFinished {
			if err := sess.RequestSummary(); err != nil {
				log.Warn().Err(err).Msg("summary request failed")
			}
		}

	case protocol.EventGameSummaryOK:
		if summary, ok := store.Summary(); ok {
			log.Info().Str("winner", summary.Winner).Msg("game finished")
		}

	case protocol.EventError:
		if serr, ok := store.Err(); ok {
			log.Warn().Str("code", serr.Code).Str("message", serr.Message).Msg("server error")
			store.ClearErr()
		}
	}
}
