package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/shopspring/decimal"

	"gofinances/internal/core"
	"gofinances/internal/services"
)

type createTransactionRequest struct {
	Title    string          `json:"title"`
	Kind     string          `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

type listTransactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Balance      core.Balance       `json:"balance"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.transactions.CreateTransaction(r.Context(), services.CreateTransactionInput{
		Title:    req.Title,
		Kind:     core.Kind(req.Kind),
		Amount:   req.Amount,
		Category: req.Category,
	})
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Failed to create transaction",
				"error", err,
				"title", req.Title,
				"kind", req.Kind)
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, balance, err := s.transactions.ListTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, listTransactionsResponse{
		Transactions: transactions,
		Balance:      balance,
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create upload directory", "error", err, "dir", s.uploadDir)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	tmp, err := os.CreateTemp(s.uploadDir, "import-*.csv")
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create upload file", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	path := tmp.Name()
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(path)
		slog.ErrorContext(r.Context(), "Failed to write upload file", "error", err, "path", path)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	tmp.Close()

	// The import service owns the file from here on, including deletion.
	imported, err := s.imports.ImportFromFile(r.Context(), path)
	if err != nil {
		slog.ErrorContext(r.Context(), "Import failed", "error", err, "path", path)
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	writeJSON(w, http.StatusCreated, imported)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidOperation),
		errors.Is(err, core.ErrInsufficientBalance),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrEmptyCategoryTitle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
