package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/friendschat/chatroom/internal/ai"
	"github.com/friendschat/chatroom/internal/auth"
	"github.com/friendschat/chatroom/internal/chat"
	"github.com/friendschat/chatroom/internal/config"
	"github.com/friendschat/chatroom/internal/dao"
	"github.com/friendschat/chatroom/internal/db"
	"github.com/friendschat/chatroom/internal/httpapi"
	"github.com/friendschat/chatroom/internal/httpapi/handlers"
	"github.com/friendschat/chatroom/internal/meeting"
	"github.com/friendschat/chatroom/internal/presence"
	"github.com/friendschat/chatroom/internal/session"
	"github.com/friendschat/chatroom/internal/store/rabbitmq"
	"github.com/friendschat/chatroom/internal/store/redisstore"
	"github.com/friendschat/chatroom/internal/users"
)

const defaultChannelName = "Experience Sharing"

func newRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("gemini", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.GeminiModel
		}
		return ai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, m), nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	return reg
}

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// user table
	var (
		dir *users.Directory
		err error
	)
	if cfg.UsersFile != "" {
		dir, err = users.LoadFile(cfg.UsersFile)
	} else {
		dir, err = users.SeedDemo()
	}
	if err != nil {
		log.Fatalf("load users: %v", err)
	}

	// sessions
	sessions := session.NewStore(cfg.SessionTTL)
	sessions.StartSweeper(ctx, time.Minute)

	// chat core, seeded with the default public channel for everyone
	channels := chat.NewStore()
	logins := dir.LoginKeys()
	if len(logins) > 0 {
		if _, err := channels.Create(logins[0], defaultChannelName, logins, false); err != nil {
			log.Fatalf("seed default channel: %v", err)
		}
	}

	tracker := presence.New(cfg.PresenceWindow)
	meetings := meeting.NewRegistry()

	// ledger
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	if err := dao.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	daoSvc := dao.NewService(dao.NewRepo(gdb), newRegistry(cfg), cfg.AIProvider, "")
	if err := daoSvc.SeedFounders(ctx); err != nil {
		log.Fatalf("seed ledger: %v", err)
	}

	// MFA verifier
	var verifier auth.Verifier
	var codes *redisstore.Store
	switch strings.ToLower(cfg.MFAMode) {
	case "", "static":
		verifier = auth.StaticVerifier{}
	case "totp":
		verifier = auth.TOTPVerifier{}
	case "otp":
		codes = redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		verifier = auth.CodeStoreVerifier{Codes: codes}
	default:
		log.Fatalf("unsupported MFA_MODE=%q", cfg.MFAMode)
	}

	// async summary queue (optional: the server runs without a broker)
	var publisher handlers.JobPublisher
	if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Printf("rabbit unavailable, async summaries disabled: %v", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	h := &handlers.Handler{
		Cfg:      cfg,
		Users:    dir,
		Sessions: sessions,
		Channels: channels,
		Presence: tracker,
		Meetings: meetings,
		Verifier: verifier,
		Codes:    codes,
		Dao:      daoSvc,
		Rabbit:   publisher,
	}

	r := httpapi.NewRouter(h)
	log.Printf("friends chat room listening on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
