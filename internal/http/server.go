// Package http exposes the transaction services over a JSON API.
package http

import (
	"net/http"

	"gofinances/internal/services"
)

type Server struct {
	transactions *services.TransactionService
	imports      *services.ImportService
	uploadDir    string
}

// NewServer wires the handlers onto a stdlib mux. Timeouts are left for the
// caller to set on the returned server.
func NewServer(addr string, transactions *services.TransactionService, imports *services.ImportService, uploadDir string) *http.Server {
	s := &Server{
		transactions: transactions,
		imports:      imports,
		uploadDir:    uploadDir,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/transactions", s.handleTransactions)
	mux.HandleFunc("/transactions/import", s.handleImport)
	mux.HandleFunc("/healthz", s.handleHealth)

	return &http.Server{
		Addr:    addr,
		Handler: withRequestLogging(mux),
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
