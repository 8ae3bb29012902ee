package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cuentas-claras/panel/internal/application"
)

var (
	userCounter         uint64
	notificationCounter uint64
	expenseCounter      uint64
	fineCounter         uint64
)

var referenceTime = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures a generated user fixture.
type UserOption func(*application.UserProfile)

// NewUserFixture returns a deterministic resident profile with optional
// overrides. Consecutive calls yield distinct IDs and residence numbers.
func NewUserFixture(opts ...UserOption) application.UserProfile {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := application.UserProfile{
		ID:              int(idx),
		Username:        fmt.Sprintf("residente%03d", idx),
		FirstName:       "Ana",
		LastName:        fmt.Sprintf("Pérez %03d", idx),
		Email:           fmt.Sprintf("residente%03d@condominio.cl", idx),
		Role:            application.RoleResident,
		Phone:           "+56912345678",
		ResidenceNumber: fmt.Sprintf("%d", 100+idx),
		JoinedAt:        referenceTime.AddDate(0, 0, -int(idx)).Format("2006-01-02"),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated account ID.
func WithUserID(id int) UserOption {
	return func(f *application.UserProfile) {
		f.ID = id
	}
}

// WithUserRole overrides the generated role.
func WithUserRole(role application.Role) UserOption {
	return func(f *application.UserProfile) {
		f.Role = role
	}
}

// WithUserUsername overrides the generated username.
func WithUserUsername(username string) UserOption {
	return func(f *application.UserProfile) {
		f.Username = username
	}
}

// WithUserResidence overrides the generated residence number.
func WithUserResidence(number string) UserOption {
	return func(f *application.UserProfile) {
		f.ResidenceNumber = number
	}
}

// NewAdminFixture returns a deterministic administrator profile.
func NewAdminFixture(opts ...UserOption) application.UserProfile {
	base := []UserOption{
		WithUserRole(application.RoleAdmin),
		WithUserUsername("admin"),
		WithUserResidence(""),
	}
	return NewUserFixture(append(base, opts...)...)
}

// ------------------------- Notification fixtures -------------------------

// NotificationOption configures a generated notification fixture.
type NotificationOption func(*application.Notification)

// NewNotificationFixture returns a deterministic unread notification. Each
// call yields a distinct ID and a creation time one minute older than the
// previous fixture, so lists sort deterministically.
func NewNotificationFixture(opts ...NotificationOption) application.Notification {
	idx := atomic.AddUint64(&notificationCounter, 1)
	fixture := application.Notification{
		ID:        int(idx),
		Kind:      "multa",
		Title:     fmt.Sprintf("Nueva multa #%d", idx),
		Message:   "Se ha registrado una nueva multa en tu cuenta.",
		Target:    application.TargetFine,
		IsRead:    false,
		CreatedAt: referenceTime.Add(-time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithNotificationID overrides the generated notification ID.
func WithNotificationID(id int) NotificationOption {
	return func(f *application.Notification) {
		f.ID = id
	}
}

// WithNotificationKind overrides the kind and clears the object tag so the
// kind heuristics decide the destination.
func WithNotificationKind(kind string) NotificationOption {
	return func(f *application.Notification) {
		f.Kind = kind
		f.Target = application.TargetNone
	}
}

// WithNotificationTarget overrides the object tag.
func WithNotificationTarget(target application.TargetKind) NotificationOption {
	return func(f *application.Notification) {
		f.Target = target
	}
}

// WithNotificationRead marks the fixture as already read.
func WithNotificationRead() NotificationOption {
	return func(f *application.Notification) {
		f.IsRead = true
	}
}

// WithNotificationCreatedAt overrides the creation time.
func WithNotificationCreatedAt(t time.Time) NotificationOption {
	return func(f *application.Notification) {
		f.CreatedAt = t
	}
}

// --------------------------- Expense fixtures ----------------------------

// ExpenseOption configures a generated common expense fixture.
type ExpenseOption func(*application.CommonExpense)

// NewExpenseFixture returns a deterministic pending common expense.
func NewExpenseFixture(opts ...ExpenseOption) application.CommonExpense {
	idx := atomic.AddUint64(&expenseCounter, 1)
	issued := referenceTime.AddDate(0, 0, -int(idx))
	fixture := application.CommonExpense{
		ID:          int(idx),
		ResidentID:  int(idx),
		Concept:     fmt.Sprintf("Gasto común marzo %03d", idx),
		Description: "Mantención de áreas comunes.",
		Amount:      "45000",
		Status:      application.ExpenseStatusPending,
		IssuedOn:    issued.Format("2006-01-02"),
		DueOn:       issued.AddDate(0, 1, 0).Format("2006-01-02"),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithExpenseResident overrides the resident the expense belongs to.
func WithExpenseResident(id int) ExpenseOption {
	return func(f *application.CommonExpense) {
		f.ResidentID = id
	}
}

// WithExpensePaid marks the fixture as settled at the given time.
func WithExpensePaid(at time.Time) ExpenseOption {
	return func(f *application.CommonExpense) {
		f.Status = application.ExpenseStatusPaid
		f.PaidAt = &at
	}
}

// ----------------------------- Fine fixtures -----------------------------

// FineOption configures a generated fine fixture.
type FineOption func(*application.Fine)

// NewFineFixture returns a deterministic pending fine.
func NewFineFixture(opts ...FineOption) application.Fine {
	idx := atomic.AddUint64(&fineCounter, 1)
	fixture := application.Fine{
		ID:          int(idx),
		ResidentID:  int(idx),
		Reason:      "Ruidos molestos",
		Description: "Música a alto volumen pasadas las 23:00.",
		Amount:      "25000",
		Status:      application.FineStatusPending,
		CreatedAt:   referenceTime.AddDate(0, 0, -int(idx)),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithFineResident overrides the resident the fine belongs to.
func WithFineResident(id int) FineOption {
	return func(f *application.Fine) {
		f.ResidentID = id
	}
}

// WithFineStatus overrides the fine state.
func WithFineStatus(status application.FineStatus) FineOption {
	return func(f *application.Fine) {
		f.Status = status
	}
}
