package application

import "time"

// Role distinguishes the two account kinds gating route and feature access.
type Role string

const (
	// RoleAdmin marks condominium administrators.
	RoleAdmin Role = "admin"
	// RoleResident marks residents.
	RoleResident Role = "residente"
)

// IsAdmin reports whether the role carries administrator privileges.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Principal represents the authenticated operator invoking a service method.
type Principal struct {
	UserID  int
	IsAdmin bool
}

// UserProfile is the backend-owned account record held by the session.
type UserProfile struct {
	ID               int
	Username         string
	FirstName        string
	LastName         string
	Email            string
	Role             Role
	Phone            string
	ResidenceNumber  string
	JoinedAt         string
}

// ProfileUpdate carries the editable profile fields for a shallow merge.
// Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName       *string
	LastName        *string
	Email           *string
	Phone           *string
	ResidenceNumber *string
}

// SessionSnapshot is the read surface the route guard and handlers consume.
// It is a value copy; mutation goes exclusively through the store methods.
type SessionSnapshot struct {
	Loading       bool
	Authenticated bool
	IsAdmin       bool
	User          *UserProfile
	LastError     string
}

// TargetKind tags the backend object a notification points at.
type TargetKind string

const (
	// TargetNone means the notification carries no explicit object tag.
	TargetNone TargetKind = ""
	// TargetFine points at a fine.
	TargetFine TargetKind = "multa"
	// TargetCommonExpense points at a common expense.
	TargetCommonExpense TargetKind = "gasto_comun"
	// TargetUser points at a user account.
	TargetUser TargetKind = "usuario"
	// TargetConfig points at condominium configuration.
	TargetConfig TargetKind = "configuracion"
)

// ParseTargetKind maps the backend objeto_tipo value onto a TargetKind.
// Unrecognized values degrade to TargetNone so the kind heuristics apply.
func ParseTargetKind(value string) TargetKind {
	switch TargetKind(value) {
	case TargetFine, TargetCommonExpense, TargetUser, TargetConfig:
		return TargetKind(value)
	default:
		return TargetNone
	}
}

// Notification is the locally cached copy of a backend notification. The
// cached list is never authoritative; the server is the source of truth.
type Notification struct {
	ID          int
	Kind        string
	Title       string
	Message     string
	Target      TargetKind
	IsRead      bool
	CreatedAt   time.Time
	RelativeAge string
}

// ExpenseStatus enumerates common expense states.
type ExpenseStatus string

const (
	// ExpenseStatusPending marks an unpaid expense.
	ExpenseStatusPending ExpenseStatus = "pendiente"
	// ExpenseStatusPaid marks a settled expense.
	ExpenseStatusPaid ExpenseStatus = "pagado"
)

// CommonExpense is a read-mostly copy of a backend common expense record.
type CommonExpense struct {
	ID          int
	ResidentID  int
	Concept     string
	Description string
	Amount      string
	Status      ExpenseStatus
	IssuedOn    string
	DueOn       string
	PaidAt      *time.Time
}

// ExpenseInput captures caller provided expense fields.
type ExpenseInput struct {
	ResidentID  int
	Concept     string
	Description string
	Amount      string
	DueOn       string
}

// ExpenseFilter selects which slice of expenses to list.
type ExpenseFilter string

const (
	// ExpenseFilterAll lists every visible expense.
	ExpenseFilterAll ExpenseFilter = ""
	// ExpenseFilterPending lists unpaid expenses.
	ExpenseFilterPending ExpenseFilter = "pendientes"
	// ExpenseFilterPaid lists settled expenses.
	ExpenseFilterPaid ExpenseFilter = "pagados"
)

// FineStatus enumerates fine states.
type FineStatus string

const (
	// FineStatusPending marks an unpaid fine.
	FineStatusPending FineStatus = "pendiente"
	// FineStatusPaid marks a settled fine.
	FineStatusPaid FineStatus = "pagada"
	// FineStatusVoided marks an annulled fine.
	FineStatusVoided FineStatus = "anulada"
)

// Fine is a read-mostly copy of a backend fine record.
type Fine struct {
	ID          int
	ResidentID  int
	Reason      string
	Description string
	Amount      string
	Status      FineStatus
	CreatedAt   time.Time
	PaidAt      *time.Time
}

// FineInput captures caller provided fine fields.
type FineInput struct {
	ResidentID  int
	Reason      string
	Description string
	Amount      string
}

// UserInput captures the fields accepted by the registration endpoint.
type UserInput struct {
	Username        string
	Password        string
	PasswordConfirm string
	Email           string
	FirstName       string
	LastName        string
	Role            Role
	Phone           string
	ResidenceNumber string
}

// ExpenseStats is the server aggregated expense summary.
type ExpenseStats struct {
	Total         int
	Pending       int
	Paid          int
	PendingAmount float64
	PaidAmount    float64
}

// FineStats is the server aggregated fine summary.
type FineStats struct {
	Total         int
	Pending       int
	Paid          int
	Voided        int
	PendingAmount float64
	PaidAmount    float64
}

// DashboardStats combines the aggregate payloads shown on the admin dashboard.
type DashboardStats struct {
	Expenses ExpenseStats
	Fines    FineStats
}

// ResidentSummary is the lightweight overview shown on the resident dashboard.
type ResidentSummary struct {
	PendingExpenses int
	PendingFines    int
	Unread          int
}
