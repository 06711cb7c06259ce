package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/service"
)

type LoanHandler struct {
	loans service.LoanService
}

func NewLoanHandler(loans service.LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

type borrowRequest struct {
	BookID  uuid.UUID `json:"book_id"`
	UserID  uuid.UUID `json:"user_id"`
	DueDate *string   `json:"due_date"`
}

func (h *LoanHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.BookID == uuid.Nil || req.UserID == uuid.Nil {
		respondFail(w, http.StatusBadRequest, "book_id and user_id are required")
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		respondError(w, r, err)
		return
	}

	loan, err := h.loans.Borrow(r.Context(), service.BorrowRequest{
		BookID:        req.BookID,
		UserID:        req.UserID,
		ProcessedByID: actorFrom(r).ID,
		DueDate:       due,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondCreated(w, "Book borrowed successfully", map[string]any{"loan": loan})
}

func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	loan, err := h.loans.Return(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Book returned successfully", map[string]any{"loan": loan})
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	loan, err := h.loans.GetLoan(r.Context(), actorFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"loan": loan})
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUUID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	bookID, err := queryUUID(r, "bookId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	filter := domain.LoanFilter{
		Status: domain.LoanStatus(r.URL.Query().Get("status")),
		UserID: userID,
		BookID: bookID,
		Page:   pageFrom(r),
	}
	loans, page, err := h.loans.ListLoans(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"loans": loans, "pagination": page})
}

func (h *LoanHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	status := domain.LoanStatus(r.URL.Query().Get("status"))
	loans, page, err := h.loans.ListMyLoans(r.Context(), actor.ID, status, pageFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"loans": loans, "pagination": page})
}

func (h *LoanHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.ListOverdue(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"loans": loans, "count": len(loans)})
}

func (h *LoanHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.loans.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"stats": stats})
}

// RegisterLoanRoutes registers circulation routes; fixed paths precede {id}.
func RegisterLoanRoutes(router *mux.Router, h *LoanHandler) {
	router.HandleFunc("/loans", h.List).Methods(http.MethodGet)
	router.HandleFunc("/loans", h.Borrow).Methods(http.MethodPost)
	router.HandleFunc("/loans/my", h.Mine).Methods(http.MethodGet)
	router.HandleFunc("/loans/overdue", h.Overdue).Methods(http.MethodGet)
	router.HandleFunc("/loans/stats", h.Stats).Methods(http.MethodGet)
	router.HandleFunc("/loans/{id}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/loans/{id}/return", h.Return).Methods(http.MethodPut)
}
