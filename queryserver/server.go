// Package queryserver is the read-only HTTP/JSON collaborator spec §1/§6
// describes: it consumes the core's read-only interfaces (chain status,
// block/account lookup, submitTransaction) but is explicitly outside the
// validated consensus path. Grounded on this module's
// walletserver/controllers + services split — a thin HTTP handler layer
// delegating to a plain service struct — adapted from gorilla/mux to
// go-chi/chi per the domain stack's HTTP routing choice, since chi is this
// module's own direct dependency for exactly this concern.
package queryserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"synnergy-network/core"
)

// Service is the read-only surface queryserver exposes, implemented by the
// running node (cmd/node wires the concrete core types into this).
type Service interface {
	Status() core.ChainStatus
	GetBlock(number uint64) (*core.Block, error)
	GetAccount(addr core.Address) (*core.Account, error)
	SubmitTransaction(tx *core.Transaction) error
}

// Server is the chi-routed HTTP handler for the query API.
type Server struct {
	svc Service
	log *logrus.Logger
	mux *chi.Mux
}

// NewServer builds a Server wired to svc, ready to be passed to
// http.ListenAndServe or http.Server.Handler.
func NewServer(svc Service, log *logrus.Logger) *Server {
	s := &Server{svc: svc, log: log, mux: chi.NewRouter()}
	s.mux.Use(middleware.RequestID)
	s.mux.Use(chiLogger(log))
	s.mux.Use(middleware.Recoverer)

	s.mux.Get("/status", s.handleStatus)
	s.mux.Get("/blocks/{number}", s.handleGetBlock)
	s.mux.Get("/accounts/{address}", s.handleGetAccount)
	s.mux.Post("/transactions", s.handleSubmitTransaction)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func chiLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Info("query request")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(chi.URLParam(r, "number"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.svc.GetBlock(n)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := core.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	acct, err := s.svc.GetAccount(addr)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.SubmitTransaction(&tx); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"txHash": core.TxHash(&tx).Hex()})
}
