package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
	"golang.org/x/sync/singleflight"
)

// RunFunc executes one daily run. The server does not add a deadline; the
// caller wires one in.
type RunFunc func(ctx context.Context) (engine.Report, error)

// FeedFunc renders the summary feed and returns the number of events.
type FeedFunc func(ctx context.Context) ([]byte, int, error)

// Messages translates user-facing texts. locale.Catalog implements it.
type Messages interface {
	Msg(key string) string
}

// cacheItem stores the rendered feed and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// RunResponse is the JSON body of POST /run.
type RunResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	RunID      string `json:"runId,omitempty"`
	TargetDate string `json:"targetDate,omitempty"`
}

// TriggerServer exposes the liveness probe, the run trigger and the summary feed.
type TriggerServer struct {
	// cache uses atomic.Pointer for lock-free reads of the feed.
	cache atomic.Pointer[cacheItem]
	// flight collapses overlapping POST /run calls into one run.
	flight singleflight.Group

	Port     string
	Run      RunFunc
	Feed     FeedFunc
	Messages Messages
}

// NewTriggerServer creates a server. feed may be nil, in which case the
// feed route keeps answering 503.
func NewTriggerServer(port string, run RunFunc, feed FeedFunc, msgs Messages) *TriggerServer {
	return &TriggerServer{
		Port:     port,
		Run:      run,
		Feed:     feed,
		Messages: msgs,
	}
}

// Handler returns the routed mux.
func (s *TriggerServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteLiveness, s.handleLiveness)
	mux.HandleFunc(config.RouteRun, s.handleRun)
	mux.HandleFunc(config.RouteFeed, s.handleFeed)
	return mux
}

// Start serves HTTP and blocks until the context is cancelled.
func (s *TriggerServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.BindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	if s.Feed != nil {
		go func() {
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				slog.Warn(config.ErrFeedRefresh,
					config.LogKeyComponent, config.CompServer,
					config.LogKeyError, err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Refresh re-renders the feed and replaces the cached copy.
func (s *TriggerServer) Refresh(ctx context.Context) error {
	if s.Feed == nil {
		return nil
	}
	data, n, err := s.Feed(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrFeedRefresh, err)
	}
	s.Update(data)
	slog.Info(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyCount, n)
	return nil
}

// Update atomically replaces the served feed.
func (s *TriggerServer) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	s.cache.Store(&cacheItem{
		data:         data,
		etag:         etag,
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	})

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

func (s *TriggerServer) msg(key string) string {
	if s.Messages == nil {
		return key
	}
	return s.Messages.Msg(key)
}

func (s *TriggerServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(config.HeaderContentType, config.MimeTextPlain)
	if _, err := io.WriteString(w, s.msg(config.TKeyLiveness)); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

// handleRun triggers a run, or joins the one already in progress.
// The run is detached from the request so a dropped connection does not
// abort it halfway through its side effects.
func (s *TriggerServer) handleRun(w http.ResponseWriter, r *http.Request) {
	slog.Info(config.MsgRunRequested, config.LogKeyComponent, config.CompServer)

	runCtx := context.WithoutCancel(r.Context())
	v, err, shared := s.flight.Do(config.RunFlightKey, func() (any, error) {
		if s.Run == nil {
			return engine.Report{}, errors.New(config.ErrRunnerNotWired)
		}
		report, err := s.Run(runCtx)
		if err == nil && report.Status == engine.StatusDone {
			if ferr := s.Refresh(runCtx); ferr != nil {
				slog.Warn(config.ErrFeedRefresh,
					config.LogKeyComponent, config.CompServer,
					config.LogKeyError, ferr)
			}
		}
		return report, err
	})
	if shared {
		slog.Info(config.MsgRunShared, config.LogKeyComponent, config.CompServer)
	}

	if err != nil {
		slog.Error(config.MsgRunFailed,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err)
		writeJSON(w, http.StatusInternalServerError, RunResponse{
			Status:  config.RunStatusError,
			Message: err.Error(),
		})
		return
	}

	report, _ := v.(engine.Report)
	writeJSON(w, http.StatusOK, RunResponse{
		Status:     config.RunStatusSuccess,
		Message:    s.msg(StatusKey(report.Status)),
		RunID:      report.RunID,
		TargetDate: report.TargetDate.String(),
	})
}

// StatusKey maps a run outcome to its translation key.
func StatusKey(st engine.Status) string {
	switch st {
	case engine.StatusNoTasks:
		return config.TKeyStatusNoTasks
	case engine.StatusEmptySheet:
		return config.TKeyStatusEmptySheet
	default:
		return config.TKeyStatusDone
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

// handleFeed serves the ICS content with HTTP caching support.
func (s *TriggerServer) handleFeed(w http.ResponseWriter, r *http.Request) {
	item := s.cache.Load()

	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}
