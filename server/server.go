// Package server exposes indexing and question answering over WebSocket
// and a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/pkg/pipeline"
	"github.com/xhad/siteqa/pkg/scraper"
)

// Message types.
const (
	TypeAsk      = "ask"
	TypeIndex    = "index"
	TypeTeach    = "teach"
	TypeProfile  = "profile"
	TypeStatus   = "status"
	TypeStream   = "stream"
	TypeResponse = "response"
	TypeIndexed  = "indexed"
	TypeTaught   = "taught"
	TypeError    = "error"
)

type Message struct {
	Type    string `json:"type"`
	Website string `json:"website,omitempty"`
	Content string `json:"content,omitempty"`
	// Answer carries the taught answer of a teach message.
	Answer string `json:"answer,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Answerer interface {
	AnswerStream(ctx context.Context, question, website string, onChunk func(string)) (string, error)
}

type Indexer interface {
	IndexWebsite(ctx context.Context, website string) (*pipeline.Report, error)
}

type Trainer interface {
	Teach(ctx context.Context, website, question, answer string) (*models.CustomQA, error)
}

type ProfileReader interface {
	GetFact(ctx context.Context, website string) (*models.BusinessProfile, error)
}

type Config struct {
	Addr string
	// AllowedOrigins limits WebSocket origins. Empty allows all.
	AllowedOrigins []string
}

type WSServer struct {
	config   Config
	answerer Answerer
	indexer  Indexer
	trainer  Trainer
	profiles ProfileReader
	upgrader websocket.Upgrader
}

func NewWSServer(config Config, answerer Answerer, indexer Indexer, trainer Trainer, profiles ProfileReader) *WSServer {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	s := &WSServer{
		config:   config,
		answerer: answerer,
		indexer:  indexer,
		trainer:  trainer,
		profiles: profiles,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *WSServer) checkOrigin(r *http.Request) bool {
	if len(s.config.AllowedOrigins) == 0 || slices.Contains(s.config.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(s.config.AllowedOrigins, r.Header.Get("Origin"))
}

// Handler returns the HTTP routes of the server. AllowedOrigins applies to
// CORS on every route as well as to the WebSocket upgrade.
func (s *WSServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Get("/ws", s.handleWebSocket)
	r.Post("/index", s.handleIndex)
	r.Post("/ask", s.handleAsk)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return r
}

// Run serves until ctx is cancelled.
func (s *WSServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server: listening", zap.String("addr", s.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server: shutdown")
		}
		return nil
	}
}

// conn serializes writes; gorilla connections allow one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		zap.L().Warn("server: send failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("server: websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &conn{ws: ws}
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.L().Debug("server: read failed", zap.Error(err))
			}
			cancel()
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(Message{Type: TypeError, Content: "invalid message"})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleMessage(ctx, c, msg)
		}()
	}
}

func (s *WSServer) handleMessage(ctx context.Context, c *conn, msg Message) {
	website := scraper.NormalizeWebsite(msg.Website)
	if website == "" && msg.Type != "" {
		c.send(Message{Type: TypeError, Content: "website is required"})
		return
	}

	switch msg.Type {
	case TypeAsk:
		if strings.TrimSpace(msg.Content) == "" {
			c.send(Message{Type: TypeError, Content: "question is required"})
			return
		}
		answer, err := s.answerer.AnswerStream(ctx, msg.Content, website, func(chunk string) {
			c.send(Message{Type: TypeStream, Website: website, Content: chunk})
		})
		if err != nil {
			c.send(Message{Type: TypeError, Website: website, Content: clientError(err)})
			return
		}
		c.send(Message{Type: TypeResponse, Website: website, Content: answer})

	case TypeIndex:
		c.send(Message{Type: TypeStatus, Website: website, Content: fmt.Sprintf("Indexing %s", website)})
		report, err := s.indexer.IndexWebsite(ctx, website)
		if err != nil {
			c.send(Message{Type: TypeError, Website: website, Content: clientError(err)})
			return
		}
		c.send(Message{
			Type:    TypeIndexed,
			Website: website,
			Content: fmt.Sprintf("Indexed %d pages from %s", report.Pages, website),
			Data:    reportData(report),
		})

	case TypeTeach:
		qa, err := s.trainer.Teach(ctx, website, msg.Content, msg.Answer)
		if err != nil {
			c.send(Message{Type: TypeError, Website: website, Content: clientError(err)})
			return
		}
		c.send(Message{Type: TypeTaught, Website: website, Content: qa.ID})

	case TypeProfile:
		profile, err := s.profiles.GetFact(ctx, website)
		if err != nil {
			c.send(Message{Type: TypeError, Website: website, Content: clientError(err)})
			return
		}
		c.send(Message{Type: TypeProfile, Website: website, Data: profile})

	default:
		c.send(Message{Type: TypeError, Content: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (s *WSServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	website := scraper.NormalizeWebsite(r.URL.Query().Get("website"))
	if website == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "website is required"})
		return
	}
	report, err := s.indexer.IndexWebsite(r.Context(), website)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": clientError(err)})
		return
	}
	resp := reportData(report)
	resp["message"] = fmt.Sprintf("Indexed %d pages from %s", report.Pages, website)
	writeJSON(w, http.StatusOK, resp)
}

type askRequest struct {
	Q       string `json:"q"`
	Website string `json:"website"`
}

func (s *WSServer) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	website := scraper.NormalizeWebsite(req.Website)
	if website == "" || strings.TrimSpace(req.Q) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q and website are required"})
		return
	}
	answer, err := s.answerer.AnswerStream(r.Context(), req.Q, website, nil)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": clientError(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func reportData(r *pipeline.Report) map[string]any {
	data := map[string]any{
		"website": r.Website,
		"pages":   r.Pages,
		"chunks":  r.Chunks,
	}
	if r.Profile != nil {
		data["profile"] = r.Profile
	}
	if r.ProfileErr != nil {
		data["profile_error"] = r.ProfileErr.Error()
	}
	return data
}

// clientError hides internal detail except for the failure kind.
func clientError(err error) string {
	var f *models.Failure
	if errors.As(err, &f) {
		return fmt.Sprintf("%s failure: %s", f.Kind, f.Op)
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}
