package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/service"
)

type BookHandler struct {
	catalog service.CatalogService
}

func NewBookHandler(catalog service.CatalogService) *BookHandler {
	return &BookHandler{catalog: catalog}
}

type addCopiesRequest struct {
	Quantity int `json:"quantity"`
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	available, err := queryBool(r, "available")
	if err != nil {
		respondError(w, r, err)
		return
	}
	filter := domain.BookFilter{
		Search:        strings.TrimSpace(q.Get("search")),
		Category:      strings.TrimSpace(q.Get("category")),
		AvailableOnly: available != nil && *available,
		SortBy:        q.Get("sortBy"),
		SortDesc:      strings.EqualFold(q.Get("order"), "desc"),
		Page:          pageFrom(r),
	}
	books, page, err := h.catalog.ListBooks(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"books": books, "pagination": page})
}

func (h *BookHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"categories": categories})
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	book, err := h.catalog.GetBook(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"book": book})
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.BookInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	book, err := h.catalog.CreateBook(r.Context(), actorFrom(r).ID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondCreated(w, "Book created successfully", map[string]any{"book": book})
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var patch domain.BookPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, r, err)
		return
	}
	book, err := h.catalog.UpdateBook(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Book updated successfully", map[string]any{"book": book})
}

func (h *BookHandler) AddCopies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req addCopiesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	book, err := h.catalog.AddCopies(r.Context(), id, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Copies added successfully", map[string]any{"book": book})
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.catalog.DeleteBook(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Book deleted successfully", nil)
}

// RegisterBookRoutes registers catalog routes; fixed paths precede {id}.
func RegisterBookRoutes(router *mux.Router, h *BookHandler) {
	router.HandleFunc("/books", h.List).Methods(http.MethodGet)
	router.HandleFunc("/books", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/books/categories", h.Categories).Methods(http.MethodGet)
	router.HandleFunc("/books/{id}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/books/{id}", h.Update).Methods(http.MethodPut)
	router.HandleFunc("/books/{id}", h.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/books/{id}/add-copies", h.AddCopies).Methods(http.MethodPost)
}
