package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	api "github.com/tzayo/library-management-system/internal/api/http"
	"github.com/tzayo/library-management-system/internal/config"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/jobs"
	"github.com/tzayo/library-management-system/internal/service"
)

type testEnv struct {
	router    http.Handler
	auth      *MockAuthService
	catalog   *MockCatalogService
	loans     *MockLoanService
	users     *MockUserService
	reminders *MockReminderService

	patron *domain.User
	editor *domain.User
	admin  *domain.User
}

func newTestEnv() *testEnv {
	env := &testEnv{
		auth:      new(MockAuthService),
		catalog:   new(MockCatalogService),
		loans:     new(MockLoanService),
		users:     new(MockUserService),
		reminders: new(MockReminderService),
		patron:    &domain.User{ID: uuid.New(), Email: "p@example.com", FullName: "Pat", Role: domain.UserRolePatron, IsActive: true},
		editor:    &domain.User{ID: uuid.New(), Email: "e@example.com", FullName: "Ed", Role: domain.UserRoleEditor, IsActive: true},
		admin:     &domain.User{ID: uuid.New(), Email: "a@example.com", FullName: "Ada", Role: domain.UserRoleAdministrator, IsActive: true},
	}
	env.auth.On("Authenticate", mock.Anything, "patron-token").Return(env.patron, nil)
	env.auth.On("Authenticate", mock.Anything, "editor-token").Return(env.editor, nil)
	env.auth.On("Authenticate", mock.Anything, "admin-token").Return(env.admin, nil)
	env.auth.On("Authenticate", mock.Anything, "expired-token").Return(nil, domain.NewError(domain.KindUnauthorized, "token has expired"))

	runner := jobs.NewJobRunner(env.reminders, &config.Config{})
	env.router = api.NewRouter(api.Services{
		Auth:    env.auth,
		Catalog: env.catalog,
		Loans:   env.loans,
		Users:   env.users,
		Jobs:    runner,
	})
	return env
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func (env *testEnv) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var env2 envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env2), rec.Body.String())
	return rec, env2
}

func TestHealth(t *testing.T) {
	env := newTestEnv()
	rec, body := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
}

func TestAuthorization(t *testing.T) {
	env := newTestEnv()
	env.catalog.On("ListBooks", mock.Anything, mock.Anything).Return([]domain.Book{}, domain.Pagination{Page: 1, Limit: 20}, nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"public catalog", http.MethodGet, "/api/books", "", http.StatusOK},
		{"missing token", http.MethodGet, "/api/loans/my", "", http.StatusUnauthorized},
		{"expired token", http.MethodGet, "/api/loans/my", "expired-token", http.StatusUnauthorized},
		{"patron cannot add books", http.MethodPost, "/api/books", "patron-token", http.StatusForbidden},
		{"editor cannot delete books", http.MethodDelete, "/api/books/" + uuid.NewString(), "editor-token", http.StatusForbidden},
		{"editor cannot list users", http.MethodGet, "/api/users", "editor-token", http.StatusForbidden},
		{"patron cannot run jobs", http.MethodPost, "/api/admin/jobs/daily", "patron-token", http.StatusForbidden},
		{"unknown route", http.MethodGet, "/api/nowhere", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := env.do(t, tt.method, tt.path, tt.token, "")
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want == http.StatusOK, body.Success)
		})
	}
}

func TestBorrow(t *testing.T) {
	bookID := uuid.New()

	t.Run("Editor records a loan as processor", func(t *testing.T) {
		env := newTestEnv()
		due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		view := &domain.LoanView{Loan: domain.Loan{ID: uuid.New(), BookID: bookID, UserID: env.patron.ID, DueDate: due, Status: domain.LoanStatusActive}}
		env.loans.On("Borrow", mock.Anything, service.BorrowRequest{
			BookID:        bookID,
			UserID:        env.patron.ID,
			ProcessedByID: env.editor.ID,
			DueDate:       &due,
		}).Return(view, nil)

		body := `{"book_id":"` + bookID.String() + `","user_id":"` + env.patron.ID.String() + `","due_date":"2026-04-01"}`
		rec, resp := env.do(t, http.MethodPost, "/api/loans", "editor-token", body)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, resp.Success)
		assert.Contains(t, string(resp.Data), `"status":"active"`)
		env.loans.AssertExpectations(t)
	})

	t.Run("Domain errors map to statuses", func(t *testing.T) {
		cases := []struct {
			err  error
			want int
			code string
		}{
			{domain.ErrNoCopiesAvailable, http.StatusBadRequest, "NO_COPIES_AVAILABLE"},
			{domain.ErrUserInactive, http.StatusBadRequest, "USER_INACTIVE"},
			{domain.ErrDuplicateActiveLoan, http.StatusBadRequest, "DUPLICATE_ACTIVE_LOAN"},
			{domain.ErrBookNotFound, http.StatusNotFound, "BOOK_NOT_FOUND"},
			{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		}
		for _, c := range cases {
			env := newTestEnv()
			env.loans.On("Borrow", mock.Anything, mock.Anything).Return(nil, c.err)

			body := `{"book_id":"` + bookID.String() + `","user_id":"` + env.patron.ID.String() + `"}`
			rec, resp := env.do(t, http.MethodPost, "/api/loans", "editor-token", body)
			assert.Equal(t, c.want, rec.Code, c.code)
			assert.Equal(t, c.code, resp.Code)
			assert.False(t, resp.Success)
		}
	})

	t.Run("Infrastructure errors are hidden", func(t *testing.T) {
		env := newTestEnv()
		env.loans.On("Borrow", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused"))

		body := `{"book_id":"` + bookID.String() + `","user_id":"` + env.patron.ID.String() + `"}`
		rec, resp := env.do(t, http.MethodPost, "/api/loans", "editor-token", body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal server error", resp.Message)
	})

	t.Run("Malformed body", func(t *testing.T) {
		env := newTestEnv()
		rec, _ := env.do(t, http.MethodPost, "/api/loans", "editor-token", `{"book_id":"nope"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env.loans.AssertNotCalled(t, "Borrow", mock.Anything, mock.Anything)
	})
}

func TestReturn(t *testing.T) {
	env := newTestEnv()
	loanID := uuid.New()
	env.loans.On("Return", mock.Anything, loanID).Return(nil, domain.ErrAlreadyReturned)

	rec, resp := env.do(t, http.MethodPut, "/api/loans/"+loanID.String()+"/return", "editor-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_RETURNED", resp.Code)

	rec, _ = env.do(t, http.MethodPut, "/api/loans/not-a-uuid/return", "editor-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMyLoansUsesAuthenticatedUser(t *testing.T) {
	env := newTestEnv()
	env.loans.On("ListMyLoans", mock.Anything, env.patron.ID, domain.LoanStatusOverdue, domain.Page{Number: 2, Size: 5}).
		Return([]domain.LoanView{}, domain.Pagination{Page: 2, Limit: 5}, nil)

	rec, resp := env.do(t, http.MethodGet, "/api/loans/my?status=overdue&page=2&limit=5", "patron-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"loans":[]`)
	env.loans.AssertExpectations(t)
}

func TestGetLoanPassesViewer(t *testing.T) {
	env := newTestEnv()
	loanID := uuid.New()
	env.loans.On("GetLoan", mock.Anything, service.Actor{ID: env.patron.ID, Role: domain.UserRolePatron}, loanID).
		Return(nil, domain.NewError(domain.KindForbidden, "you can only view your own loans"))

	rec, resp := env.do(t, http.MethodGet, "/api/loans/"+loanID.String(), "patron-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "you can only view your own loans", resp.Message)
}

func TestAddCopies(t *testing.T) {
	env := newTestEnv()
	bookID := uuid.New()
	env.catalog.On("AddCopies", mock.Anything, bookID, 3).
		Return(&domain.Book{ID: bookID, Title: "Dune", QuantityTotal: 4, QuantityAvailable: 3}, nil)

	rec, resp := env.do(t, http.MethodPost, "/api/books/"+bookID.String()+"/add-copies", "editor-token", `{"quantity":3}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"quantity_available":3`)
}

func TestLogin(t *testing.T) {
	env := newTestEnv()
	env.auth.On("Login", mock.Anything, "p@example.com", "secret-pass").Return(env.patron, "jwt", nil)
	env.auth.On("Login", mock.Anything, "p@example.com", "wrong").Return(nil, "", service.ErrInvalidCredentials)

	rec, resp := env.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"p@example.com","password":"secret-pass"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"token":"jwt"`)
	assert.NotContains(t, string(resp.Data), "password")

	rec, _ = env.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"p@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunDailyJobs(t *testing.T) {
	env := newTestEnv()
	env.reminders.On("RunDaily", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(service.DailySummary{ReminderSummary: service.ReminderSummary{Total: 3, Sent: 2, Failed: 1}, MarkedOverdue: 1}, nil)

	rec, resp := env.do(t, http.MethodPost, "/api/admin/jobs/daily", "admin-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var summary map[string]int
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Equal(t, map[string]int{"total": 3, "sent": 2, "failed": 1, "markedOverdue": 1}, summary)
}

func TestToggleActiveSelf(t *testing.T) {
	env := newTestEnv()
	env.users.On("ToggleActive", mock.Anything, env.admin.ID, env.admin.ID).
		Return(nil, domain.NewError(domain.KindForbidden, "you cannot deactivate your own account"))

	rec, _ := env.do(t, http.MethodPut, "/api/users/"+env.admin.ID.String()+"/toggle-active", "admin-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
