package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "verroutool"

// cliMetrics counts CLI operations. This is the one place SPEC_FULL's
// transport/telemetry stand-in lives: the core packages never import
// prometheus, only this external shell does, and only when --metrics-addr
// is set.
type cliMetrics struct {
	EnvelopesCreated prometheus.Counter
	EnvelopesOpened  prometheus.Counter
	SlotsAdded       *prometheus.CounterVec
	OtpValidations   *prometheus.CounterVec
	TransferChunks   prometheus.Counter
	TransferAssembles prometheus.Counter
	RecoveryRedeems  prometheus.Counter
}

func newCLIMetrics() *cliMetrics {
	return &cliMetrics{
		EnvelopesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "envelopes_created_total",
			Help:      "Number of .verrou envelopes created.",
		}),
		EnvelopesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "envelopes_opened_total",
			Help:      "Number of .verrou envelopes successfully opened.",
		}),
		SlotsAdded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "slots_added_total",
			Help:      "Number of key slots added, labeled by slot type.",
		}, []string{"slot_type"}),
		OtpValidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "otp_validations_total",
			Help:      "Number of OTP validation attempts, labeled by result.",
		}, []string{"result"}),
		TransferChunks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transfer_chunks_sealed_total",
			Help:      "Number of offline-transfer chunks sealed.",
		}),
		TransferAssembles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transfer_assembles_total",
			Help:      "Number of offline-transfer chunk sets reassembled.",
		}),
		RecoveryRedeems: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "recovery_redeems_total",
			Help:      "Number of recovery-code redemptions attempted.",
		}),
	}
}

// serveMetrics starts a minimal /metrics endpoint and blocks until ctx is
// cancelled, mirroring the teacher's pattern of a short-lived HTTP server
// bound to a single mux handler.
func serveMetrics(ctx context.Context, logger *slog.Logger, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
