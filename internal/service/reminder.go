package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/repository"
)

const defaultReminderLeadDays = 7

type reminderService struct {
	store    repository.Store
	email    EmailService
	leadDays int
}

// NewReminderService builds the two daily passes. leadDays is how many days
// before the due date a loan becomes eligible for a reminder.
func NewReminderService(store repository.Store, email EmailService, leadDays int) ReminderService {
	if leadDays < 0 {
		leadDays = defaultReminderLeadDays
	}
	return &reminderService{store: store, email: email, leadDays: leadDays}
}

// MarkOverdue stamps status=overdue on open loans past due. A failure on one
// loan is logged and the pass moves on.
func (s *reminderService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	log := logger.WithJob("mark_overdue")

	stale, err := s.store.Loans().ListStaleOverdue(ctx, now)
	if err != nil {
		return 0, wrapInfra("list stale overdue loans", err)
	}
	if len(stale) == 0 {
		log.Info("No loans to mark as overdue")
		return 0, nil
	}

	marked := 0
	for _, loan := range stale {
		if err := ctx.Err(); err != nil {
			return marked, err
		}
		ok, err := s.store.Loans().MarkOverdue(ctx, loan.ID, now)
		if err != nil {
			log.Error("Failed to mark loan overdue", "loanID", loan.ID, "error", err)
			continue
		}
		if ok {
			marked++
		}
	}

	log.Info("Marked loans as overdue", "count", marked, "candidates", len(stale))
	return marked, nil
}

type reminderGroup struct {
	userID uuid.UUID
	loans  []domain.Loan
}

// groupByBorrower keeps borrowers in the order their first loan appears.
func groupByBorrower(loans []domain.Loan) []reminderGroup {
	index := make(map[uuid.UUID]int)
	var groups []reminderGroup
	for _, l := range loans {
		i, ok := index[l.UserID]
		if !ok {
			i = len(groups)
			index[l.UserID] = i
			groups = append(groups, reminderGroup{userID: l.UserID})
		}
		groups[i].loans = append(groups[i].loans, l)
	}
	return groups
}

// SendDueReminders notifies each borrower once per run about every open,
// unreminded loan due by now + leadDays. Flags are only set after a
// successful send, so failed groups are retried on the next run.
func (s *reminderService) SendDueReminders(ctx context.Context, now time.Time) (ReminderSummary, error) {
	log := logger.WithJob("send_reminders")

	candidates, err := s.store.Loans().ListReminderCandidates(ctx, domain.ReminderCutoff(now, s.leadDays))
	if err != nil {
		return ReminderSummary{}, wrapInfra("list reminder candidates", err)
	}
	summary := ReminderSummary{Total: len(candidates)}
	if len(candidates) == 0 {
		log.Info("No loans require reminders")
		return summary, nil
	}

	groups := groupByBorrower(candidates)
	users, books, err := s.loadParties(ctx, groups)
	if err != nil {
		return summary, err
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		n := len(g.loans)

		user, ok := users[g.userID]
		if !ok {
			summary.Failed += n
			log.Error("Borrower missing for reminder group", "userID", g.userID, "loans", n)
			continue
		}

		items := make([]domain.ReminderItem, 0, n)
		ids := make([]uuid.UUID, 0, n)
		for _, l := range g.loans {
			items = append(items, domain.ReminderItem{Loan: l, Book: books[l.BookID]})
			ids = append(ids, l.ID)
		}

		if n == 1 {
			err = s.email.SendLoanReminder(ctx, user, items[0], now)
		} else {
			err = s.email.SendBatchReminder(ctx, user, items, now)
		}
		if err != nil {
			summary.Failed += n
			log.Warn("Failed to send reminder", "userID", user.ID, "email", user.Email, "loans", n, "error", err)
			continue
		}

		summary.Sent += n
		if _, err := s.store.Loans().MarkReminderSent(ctx, ids, now); err != nil {
			log.Error("Reminder sent but flag not saved", "userID", user.ID, "loans", n, "error", err)
		}
	}

	log.Info("Loan reminders completed", "total", summary.Total, "sent", summary.Sent, "failed", summary.Failed)
	return summary, nil
}

func (s *reminderService) loadParties(ctx context.Context, groups []reminderGroup) (map[uuid.UUID]domain.User, map[uuid.UUID]domain.Book, error) {
	userIDs := make([]uuid.UUID, 0, len(groups))
	var bookIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, g := range groups {
		userIDs = append(userIDs, g.userID)
		for _, l := range g.loans {
			if !seen[l.BookID] {
				seen[l.BookID] = true
				bookIDs = append(bookIDs, l.BookID)
			}
		}
	}

	userList, err := s.store.Users().ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, nil, wrapInfra("load reminder borrowers", err)
	}
	bookList, err := s.store.Books().ListByIDs(ctx, bookIDs)
	if err != nil {
		return nil, nil, wrapInfra("load reminder books", err)
	}

	users := make(map[uuid.UUID]domain.User, len(userList))
	for _, u := range userList {
		users[u.ID] = u
	}
	books := make(map[uuid.UUID]domain.Book, len(bookList))
	for _, b := range bookList {
		books[b.ID] = b
	}
	return users, books, nil
}

// RunDaily runs the overdue pass and then the reminder pass. The second pass
// runs even when the first one fails.
func (s *reminderService) RunDaily(ctx context.Context, now time.Time) (DailySummary, error) {
	logger.Info("Running daily loan maintenance", "at", now)

	marked, markErr := s.MarkOverdue(ctx, now)
	reminders, sendErr := s.SendDueReminders(ctx, now)

	summary := DailySummary{ReminderSummary: reminders, MarkedOverdue: marked}
	err := errors.Join(markErr, sendErr)
	if err != nil {
		logger.Error("Daily loan maintenance finished with errors", "error", err)
	} else {
		logger.Info("Daily loan maintenance completed", "markedOverdue", marked, "sent", reminders.Sent, "failed", reminders.Failed)
	}
	return summary, err
}
