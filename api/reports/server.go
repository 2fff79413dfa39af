package reports

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/cspbc/core/logger"
)

// NewMux mounts the report handlers and an unauthenticated /healthz.
func NewMux(query QueryFunc, token string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/reports", NewReportHandler(query, token))
	mux.Handle("/api/reports/summary", NewSummaryHandler(query, token))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve runs h on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, h http.Handler, log logger.Logger) error {
	log = logger.OrNop(log)
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("reports api shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("serving reports api on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
