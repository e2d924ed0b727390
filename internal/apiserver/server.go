// Package apiserver exposes the read-side query layer over HTTP: a
// thin projection over the store's SQL, nothing more.
//
// Grounded on original_source/web-api/src/methods/*.rs for the route
// shapes and response fields, and on go-chi/chi/v5 (a dependency of
// orbas1-Synnergy) for routing, replacing the original's axum.
package apiserver

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yourusername/btcindexer/internal/store"
)

// Store is the subset of store.Store the API depends on.
type Store interface {
	GetChainHeight(ctx context.Context) (int64, error)
	GetBlockByHeight(ctx context.Context, height int64) (*store.BlockRow, error)
	GetBlockByHash(ctx context.Context, hash []byte) (*store.BlockRow, error)
	GetTransactionByHash(ctx context.Context, hash []byte) (*store.TransactionRow, error)
	GetTransactionsByAddress(ctx context.Context, address string) ([]store.TransactionRow, error)
}

// Server serves the read-only HTTP API.
type Server struct {
	store  Store
	logger *zap.Logger
}

// New builds a Server.
func New(s Store, logger *zap.Logger) *Server {
	return &Server{store: s, logger: logger}
}

// Router builds the chi router for this server, mirroring the route
// shapes of original_source/web-api/src/main.rs.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/height", s.handleHeight)
	r.Get("/blocks/height/{height}", s.handleBlockByHeight)
	r.Get("/blocks/hash/{hash}", s.handleBlockByHash)
	r.Get("/transactions/{hash}", s.handleTransactionByHash)
	r.Get("/addresses/{address}", s.handleTransactionsByAddress)
	return r
}

func (s *Server) handleHeight(w http.ResponseWriter, r *http.Request) {
	height, err := s.store.GetChainHeight(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"height": height})
}

func (s *Server) handleBlockByHeight(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseInt(chi.URLParam(r, "height"), 10, 64)
	if err != nil {
		http.Error(w, "invalid height", http.StatusBadRequest)
		return
	}

	block, err := s.store.GetBlockByHeight(r.Context(), height)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBlockResponse(block))
}

func (s *Server) handleBlockByHash(w http.ResponseWriter, r *http.Request) {
	hash, err := hex.DecodeString(chi.URLParam(r, "hash"))
	if err != nil {
		http.Error(w, "invalid hash", http.StatusBadRequest)
		return
	}

	block, err := s.store.GetBlockByHash(r.Context(), hash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBlockResponse(block))
}

func (s *Server) handleTransactionByHash(w http.ResponseWriter, r *http.Request) {
	hash, err := hex.DecodeString(chi.URLParam(r, "hash"))
	if err != nil {
		http.Error(w, "invalid hash", http.StatusBadRequest)
		return
	}

	tx, err := s.store.GetTransactionByHash(r.Context(), hash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(tx))
}

func (s *Server) handleTransactionsByAddress(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	transactions, err := s.store.GetTransactionsByAddress(r.Context(), address)
	if err != nil {
		s.writeError(w, err)
		return
	}

	responses := make([]*TransactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, newTransactionResponse(&transactions[i]))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if s.logger != nil {
		s.logger.Error("apiserver: query failed", zap.Error(err))
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}
