package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/artfuse/stylebot/core/logger"

	"log/slog"
)

// healthServer is a tiny liveness endpoint served alongside the webhook
// listener. Platform schedulers probe it to confirm the process is up.
type healthServer struct {
	srv  *http.Server
	done chan struct{}
}

func startHealthServer(listen string, port int) *healthServer {
	if listen == "" {
		listen = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%d", listen, port)

	mux := http.NewServeMux()
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
	mux.HandleFunc("/", handler)
	mux.HandleFunc("/healthz", handler)

	h := &healthServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		done: make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		logger.TG.Info("health server started",
			slog.String("event", "health"),
			slog.String("listen", addr),
		)
		if err := h.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.TG.Warn("health server failed",
				slog.String("event", "health"),
				slog.String("listen", addr),
				slog.String("err", err.Error()),
			)
		}
	}()

	return h
}

func (h *healthServer) Stop() {
	if h == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = h.srv.Shutdown(ctx)
	<-h.done
}
