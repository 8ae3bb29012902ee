package application

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

// UserGateway abstracts the backend user endpoints.
type UserGateway interface {
	RegisterUser(ctx context.Context, input UserInput) (UserProfile, error)
	ListUsers(ctx context.Context) ([]UserProfile, error)
	GetUser(ctx context.Context, id int) (UserProfile, error)
	UpdateUser(ctx context.Context, id int, update ProfileUpdate) (UserProfile, error)
	DeleteUser(ctx context.Context, id int) error
	UpdateOwnProfile(ctx context.Context, update ProfileUpdate) (UserProfile, error)
}

// UserService fronts the backend user endpoints. Registration and user
// management are admin only; the own-profile update is open to everyone
// and feeds the merged result back into the session.
type UserService struct {
	gateway  UserGateway
	sessions *SessionStore
}

// NewUserService wires dependencies for the user service.
func NewUserService(gateway UserGateway, sessions *SessionStore) *UserService {
	return &UserService{gateway: gateway, sessions: sessions}
}

// RegisterUser validates input and creates a new account. Admin only.
func (s *UserService) RegisterUser(ctx context.Context, principal Principal, input UserInput) (UserProfile, error) {
	if s == nil {
		return UserProfile{}, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return UserProfile{}, ErrForbidden
	}
	if s.gateway == nil {
		return UserProfile{}, fmt.Errorf("user gateway not configured")
	}

	normalized := normalizeUserInput(input)
	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		return UserProfile{}, vErr
	}
	return s.gateway.RegisterUser(ctx, normalized)
}

// ListUsers returns every account, residents first by residence number.
// Admin only.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]UserProfile, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrForbidden
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("user gateway not configured")
	}

	users, err := s.gateway.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]UserProfile, len(users))
	copy(out, users)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ResidenceNumber == out[j].ResidenceNumber {
			return out[i].ID < out[j].ID
		}
		return out[i].ResidenceNumber < out[j].ResidenceNumber
	})
	return out, nil
}

// GetUser fetches an account by id. Admin only.
func (s *UserService) GetUser(ctx context.Context, principal Principal, id int) (UserProfile, error) {
	if s == nil {
		return UserProfile{}, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return UserProfile{}, ErrForbidden
	}
	if s.gateway == nil {
		return UserProfile{}, fmt.Errorf("user gateway not configured")
	}
	return s.gateway.GetUser(ctx, id)
}

// UpdateUser updates another account. Admin only. When the admin edits
// their own record the session copy is refreshed too.
func (s *UserService) UpdateUser(ctx context.Context, principal Principal, id int, update ProfileUpdate) (UserProfile, error) {
	if s == nil {
		return UserProfile{}, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return UserProfile{}, ErrForbidden
	}
	if s.gateway == nil {
		return UserProfile{}, fmt.Errorf("user gateway not configured")
	}

	if vErr := validateProfileUpdate(update); vErr.HasErrors() {
		return UserProfile{}, vErr
	}

	updated, err := s.gateway.UpdateUser(ctx, id, update)
	if err != nil {
		return UserProfile{}, err
	}
	if principal.UserID == id {
		s.sessions.ReplaceUser(updated)
	}
	return updated, nil
}

// DeleteUser removes an account. Admin only, and never the acting admin.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, id int) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return ErrForbidden
	}
	if principal.UserID == id {
		vErr := &ValidationError{}
		vErr.add("usuario", "No puedes eliminar tu propia cuenta")
		return vErr
	}
	if s.gateway == nil {
		return fmt.Errorf("user gateway not configured")
	}
	return s.gateway.DeleteUser(ctx, id)
}

// UpdateOwnProfile updates the acting account and merges the result into
// the session so the snapshot reflects the change immediately.
func (s *UserService) UpdateOwnProfile(ctx context.Context, principal Principal, update ProfileUpdate) (UserProfile, error) {
	if s == nil {
		return UserProfile{}, fmt.Errorf("UserService is nil")
	}
	if s.gateway == nil {
		return UserProfile{}, fmt.Errorf("user gateway not configured")
	}

	if vErr := validateProfileUpdate(update); vErr.HasErrors() {
		return UserProfile{}, vErr
	}

	updated, err := s.gateway.UpdateOwnProfile(ctx, update)
	if err != nil {
		return UserProfile{}, err
	}
	s.sessions.ReplaceUser(updated)
	return updated, nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Phone = strings.TrimSpace(input.Phone)
	input.ResidenceNumber = strings.TrimSpace(input.ResidenceNumber)
	if input.Role == "" {
		input.Role = RoleResident
	}
	return input
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Username == "" {
		vErr.add("username", "El nombre de usuario es obligatorio")
	}
	if input.Password == "" {
		vErr.add("password", "La contraseña es obligatoria")
	} else if len(input.Password) < 8 {
		vErr.add("password", "La contraseña debe tener al menos 8 caracteres")
	}
	if input.Password != input.PasswordConfirm {
		vErr.add("password2", "Las contraseñas no coinciden")
	}
	if input.Email == "" {
		vErr.add("email", "El correo electrónico es obligatorio")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "El correo electrónico no es válido")
	}
	if input.Role != RoleAdmin && input.Role != RoleResident {
		vErr.add("rol", "El rol no es válido")
	}
	if input.Role == RoleResident && input.ResidenceNumber == "" {
		vErr.add("numero_residencia", "El número de residencia es obligatorio")
	}

	return vErr
}

func validateProfileUpdate(update ProfileUpdate) *ValidationError {
	vErr := &ValidationError{}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email == "" {
			vErr.add("email", "El correo electrónico es obligatorio")
		} else if _, err := mail.ParseAddress(email); err != nil {
			vErr.add("email", "El correo electrónico no es válido")
		}
	}
	if update.FirstName != nil && strings.TrimSpace(*update.FirstName) == "" {
		vErr.add("first_name", "El nombre es obligatorio")
	}
	if update.LastName != nil && strings.TrimSpace(*update.LastName) == "" {
		vErr.add("last_name", "El apellido es obligatorio")
	}

	return vErr
}
