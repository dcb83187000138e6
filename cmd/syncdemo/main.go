package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopstream/realtime/internal/config"
	"github.com/shopstream/realtime/internal/consumer"
	"github.com/shopstream/realtime/internal/observ"
	"github.com/shopstream/realtime/internal/state"
	"github.com/shopstream/realtime/internal/subscription"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "path to yaml config (defaults target the local stub)")
	roomID := flag.String("room", "r1", "chat room id to follow")
	orderID := flag.String("order", "ord-001", "order id to track")
	userID := flag.String("user", "u1", "user id for inventory notifications")
	sendEvery := flag.Duration("send-every", 5*time.Second, "demo chat send interval, 0 disables")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			observ.Log("config_load_failed", map[string]any{"path": *configPath, "error": err.Error()})
			os.Exit(1)
		}
	}

	token := os.Getenv("SYNC_TOKEN")
	if token == "" {
		observ.Log("missing_token", map[string]any{"hint": "set SYNC_TOKEN in the environment or .env"})
		os.Exit(1)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observ.Handler())
			http.ListenAndServe(cfg.MetricsAddr, mux)
		}()
	}

	reg := subscription.NewRegistry(
		subscription.NewResolver(cfg.ResolverTemplates()),
		cfg.TransportConfig(),
	)

	chat, err := consumer.WatchChat(reg, *roomID, token)
	if err != nil {
		fatal("watch_chat_failed", err)
	}
	defer chat.Close()
	chat.SetActiveRoom(*roomID)

	order, err := consumer.WatchOrder(reg, *orderID, token)
	if err != nil {
		fatal("watch_order_failed", err)
	}
	defer order.Close()

	inventory, err := consumer.WatchInventory(reg, *userID, token)
	if err != nil {
		fatal("watch_inventory_failed", err)
	}
	defer inventory.Close()

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	var deadline <-chan time.Time
	if cfg.MaxDurationSecs > 0 {
		deadline = time.After(time.Duration(cfg.MaxDurationSecs) * time.Second)
	}

	var sendTick <-chan time.Time
	if *sendEvery > 0 {
		t := time.NewTicker(*sendEvery)
		defer t.Stop()
		sendTick = t.C
	}

	for {
		select {
		case snap, ok := <-chat.Updates():
			if !ok {
				return
			}
			observ.Log("chat_state", map[string]any{
				"connected": snap.Connected,
				"rooms":     len(snap.Data.Rooms),
				"unread":    state.TotalUnread(snap.Data),
				"error":     snap.Err,
			})
		case snap, ok := <-order.Updates():
			if !ok {
				return
			}
			observ.Log("order_state", map[string]any{
				"connected": snap.Connected,
				"status":    snap.Data.CurrentStatus,
				"events":    len(snap.Data.Events),
				"error":     snap.Err,
			})
		case snap, ok := <-inventory.Updates():
			if !ok {
				return
			}
			observ.Log("inventory_state", map[string]any{
				"connected": snap.Connected,
				"alerts":    len(snap.Data.Alerts),
				"error":     snap.Err,
			})
		case <-sendTick:
			if err := chat.SendMessage("ping from syncdemo"); err != nil {
				observ.Log("chat_send_failed", map[string]any{"error": err.Error()})
			}
		case <-deadline:
			observ.Log("demo_finished", map[string]any{"reason": "max_duration"})
			return
		case sig := <-done:
			observ.Log("demo_finished", map[string]any{"reason": sig.String()})
			return
		}
	}
}

func fatal(event string, err error) {
	observ.Log(event, map[string]any{"error": err.Error()})
	os.Exit(1)
}
