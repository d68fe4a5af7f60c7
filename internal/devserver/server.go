// Package devserver is a local stand-in for the translator. It answers
// animation requests with fingerspelling and a small vocabulary of whole-word
// signs, so the client can be run and tested without the real service.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/signspell/core/protocol"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	options    Options
	translator *translator
	upgrader   websocket.Upgrader
	metrics    *metrics
}

func New(opts ...Option) *Server {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Server{
		options:    options,
		translator: newTranslator(options),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		metrics: newMetrics(),
	}
}

// Handler routes the translator endpoints and wraps them with HTTP
// instrumentation:
//
//   - GET / upgrades to the translator websocket
//   - GET /healthz reports liveness
//   - GET /schema serves the wire JSON schema
//   - GET /metrics exposes prometheus metrics
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.serveSocket)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/schema", s.serveSchema)
	r.Handle("/metrics", s.metrics.handler())

	return otelhttp.NewHandler(r, "translator stub")
}

func (s *Server) serveSchema(w http.ResponseWriter, r *http.Request) {
	data, err := protocol.MarshalSchemas()
	if err != nil {
		http.Error(w, "failed to build schema", http.StatusInternalServerError)
		logger.Error("failed to build protocol schema", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	s.metrics.connections.Inc()
	defer s.metrics.connections.Dec()

	logger.Info("client connected", "remote", r.RemoteAddr)
	if err := s.serve(r.Context(), conn); err != nil {
		logger.Warn("client connection failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	logger.Info("client disconnected", "remote", r.RemoteAddr)
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn) error {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to read request: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var envelope protocol.Envelope
		if err := json.Unmarshal(msg, &envelope); err != nil {
			logger.Warn("ignoring undecodable frame", "error", err)
			continue
		}
		if envelope.Event != protocol.EventRequestAnimation {
			logger.Debug("ignoring unexpected event", "event", envelope.Event)
			continue
		}
		text, err := envelope.RequestText()
		if err != nil {
			s.metrics.requests.WithLabelValues("malformed").Inc()
			logger.Warn("ignoring malformed request", "error", err)
			continue
		}

		if err := s.answer(ctx, conn, text); err != nil {
			s.metrics.requests.WithLabelValues("failed").Inc()
			return err
		}
		s.metrics.requests.WithLabelValues("answered").Inc()
	}
}

func (s *Server) answer(ctx context.Context, conn *websocket.Conn, text string) error {
	_, span := tracer.Start(ctx, "answer animation request")
	defer span.End()

	units, err := s.translator.Translate(text)
	if err != nil {
		err = fmt.Errorf("failed to translate request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	batches := chunk(units, s.options.ChunkSize)
	if len(batches) == 0 {
		batches = append(batches, nil)
	}
	span.SetAttributes(
		attribute.Int("answer.units", len(units)),
		attribute.Int("answer.batches", len(batches)),
	)

	for i, batch := range batches {
		if i > 0 && s.options.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.options.BatchDelay):
			}
		}

		frame, err := protocol.NewAnimation(batch)
		if err != nil {
			return err
		}
		if err := conn.WriteJSON(frame); err != nil {
			err = fmt.Errorf("failed to write animation batch: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		s.metrics.batches.Inc()
		s.metrics.units.Add(float64(len(batch)))
	}
	return nil
}

// ListenAndServe serves the translator on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()

	logger.Info("translator stub listening", "addr", addr)
	select {
	case err := <-errs:
		return fmt.Errorf("failed to serve translator stub: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down translator stub: %w", err)
	}
	return nil
}
