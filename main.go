package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"selfservice-kiosk/config"
	httpapi "selfservice-kiosk/internal/api/http"
	"selfservice-kiosk/internal/cart"
	"selfservice-kiosk/internal/checkout"
	"selfservice-kiosk/internal/client"
	"selfservice-kiosk/internal/storage"
	"selfservice-kiosk/internal/syncer"
)

func main() {
	settings := config.MustLoadSettings()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The durable queue degrades to in-memory when the database is
	// unreachable: orders are still attempted, just without crash
	// recovery.
	var store storage.QueueStore
	db, err := config.InitPostgres()
	if err != nil {
		log.Printf("Warning: database unavailable, running with in-memory queue: %v", err)
		store = storage.NewMemoryStore()
	} else {
		defer db.Close()
		pg := storage.NewPostgresStore(db)
		if err := pg.EnsureSchema(); err != nil {
			log.Fatal("Failed to ensure queue schema:", err)
		}
		store = pg
	}

	if reclaimed, err := store.ReclaimSyncing(ctx); err != nil {
		log.Printf("Warning: failed to reclaim stuck syncing records: %v", err)
	} else if reclaimed > 0 {
		log.Printf("Reclaimed %d orders stuck in syncing", reclaimed)
	}

	var session cart.SessionStore
	rdb, err := config.InitRedis()
	if err != nil {
		log.Printf("Warning: Redis unavailable, cart will not survive a restart: %v", err)
	} else {
		defer rdb.Close()
		session = cart.NewRedisSession(rdb, settings.SessionTTL)
	}

	doer := client.NewResilient(settings.RequestTimeout, settings.RequestRetries, settings.RetryBaseDelay)
	remote := client.NewRemote(settings.RemoteBaseURL, doer, settings.PaymentTimeout)

	agg := cart.NewAggregate(settings.TaxRate, session)
	if err := agg.Restore(ctx); err != nil {
		log.Printf("Warning: failed to restore cart session: %v", err)
	}

	var publisher syncer.EventPublisher
	if writer := config.NewKafkaWriter(settings.KafkaTopic); writer != nil {
		defer writer.Close()
		publisher = storage.NewKafkaPublisher(writer)
	}

	engine := syncer.NewEngine(store, remote, publisher, settings.MaxSyncRetries)
	monitor := syncer.NewMonitor(remote, settings.SyncInterval)
	unsubscribe := monitor.Subscribe(func(syncer.Trigger) {
		engine.SyncAll(ctx)
	})
	defer unsubscribe()
	go monitor.Start(ctx)

	machine := checkout.NewMachine(agg, remote, store, checkout.PixQRRenderer{})

	handler := httpapi.NewHandler(agg, machine, store, engine, monitor)
	httpapi.StartServer(settings.ListenAddr, httpapi.NewRouter(handler))
}
