package ingest

import (
	"context"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

// KVWatcher mirrors terminal presence from the TERMINALS KV bucket into
// Postgres. Terminals put a heartbeat entry under their own key; the
// bucket TTL deletes it when they go silent.
type KVWatcher struct {
	kv      nats.KeyValue
	storage *storage.Storage
	watcher nats.KeyWatcher
}

func NewKVWatcher(kv nats.KeyValue, store *storage.Storage) *KVWatcher {
	return &KVWatcher{kv: kv, storage: store}
}

// Start begins watching the TERMINALS KV bucket.
func (w *KVWatcher) Start(ctx context.Context) error {
	watcher, err := w.kv.WatchAll()
	if err != nil {
		return err
	}
	w.watcher = watcher

	go w.watchLoop(ctx)
	go w.reconcileLoop(ctx)

	log.Println("INFO Terminal KV watcher started")
	return nil
}

func (w *KVWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-w.watcher.Updates():
			if entry == nil {
				continue
			}
			w.handleEntry(ctx, entry)
		}
	}
}

func (w *KVWatcher) handleEntry(ctx context.Context, entry nats.KeyValueEntry) {
	terminalID := entry.Key()

	switch entry.Operation() {
	case nats.KeyValuePut:
		var hb models.Heartbeat
		if err := msgpack.Unmarshal(entry.Value(), &hb); err != nil {
			log.Printf("ERROR KV unmarshal error for %s: %v", terminalID, err)
			return
		}

		if err := w.storage.MarkTerminalSeen(ctx, terminalID, time.Now()); err != nil {
			log.Printf("ERROR KV mark terminal seen error: %v", err)
			return
		}

		log.Printf("INFO Terminal heartbeat: %s company=%s version=%s",
			terminalID, hb.CompanyID, hb.AppVersion)

	case nats.KeyValueDelete:
		if err := w.storage.MarkTerminalOffline(ctx, terminalID, time.Now()); err != nil {
			log.Printf("ERROR KV mark terminal offline error: %v", err)
			return
		}
		log.Printf("INFO Terminal offline: %s", terminalID)

	case nats.KeyValuePurge:
		log.Printf("INFO Terminal purged: %s", terminalID)
	}
}

// reconcileLoop periodically marks stale terminals offline in case a KV
// delete was missed.
func (w *KVWatcher) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.storage.MarkStaleTerminalsOffline(ctx, 90*time.Second); err != nil {
				log.Printf("ERROR Terminal reconcile error: %v", err)
			}
		}
	}
}

// Stop gracefully stops the watcher.
func (w *KVWatcher) Stop() error {
	if w.watcher != nil {
		return w.watcher.Stop()
	}
	return nil
}
