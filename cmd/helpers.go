package cmd

import (
	"log"
	"time"

	"github.com/relaykit/warelay/internal/config"
	"github.com/relaykit/warelay/internal/store"
	"github.com/relaykit/warelay/internal/tools"
	"github.com/relaykit/warelay/internal/wacloud"
)

// makeStore picks the conversation store: Redis when configured and
// reachable, in-memory otherwise. Continuity in the fallback only
// survives the process lifetime, which is still enough for echo mode
// and local runs.
func makeStore(cfg config.Config) store.Store {
	if cfg.Redis.URL == "" {
		log.Println("[Store] Redis not configured, using in-memory store")
		return store.NewMemory()
	}
	rs, err := store.NewRedis(store.Config{
		URL:      cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Printf("[Store] ❌ %v — falling back to in-memory store", err)
		return store.NewMemory()
	}
	log.Println("[Store] ✅ Redis connected")
	return rs
}

func makeSender(cfg config.Config) *wacloud.Sender {
	return wacloud.NewSender(cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID)
}

// makeTools builds the registry of tools exposed to external callers.
func makeTools(cfg config.Config) *tools.Registry {
	reg := tools.NewRegistry()
	reg.Register(&tools.SendMessageTool{Sender: makeSender(cfg)})
	return reg
}

func backendTimeout(cfg config.Config) time.Duration {
	return time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
}
