package repository

import (
	"context"
	"net/http"

	"github.com/estatepro/leadsync/internal/collaborator"
	"github.com/estatepro/leadsync/internal/domain"
)

// StaffRepository fetches the two staff rosters.
type StaffRepository interface {
	// ListAssignable returns roster A, the general assignable staff.
	ListAssignable(ctx context.Context) ([]domain.RosterEntry, error)
	// ListProfiles returns roster B, staff profiles that may link an account id.
	ListProfiles(ctx context.Context) ([]domain.RosterEntry, error)
}

type staffRepository struct {
	client *collaborator.Client
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(client *collaborator.Client) StaffRepository {
	return &staffRepository{client: client}
}

func (r *staffRepository) ListAssignable(ctx context.Context) ([]domain.RosterEntry, error) {
	var entries []domain.RosterEntry
	err := r.client.Do(ctx, collaborator.Request{
		Operation: "list_assignable_staff",
		Method:    http.MethodGet,
		Path:      "/staff/assignable",
	}, &entries)
	return entries, err
}

func (r *staffRepository) ListProfiles(ctx context.Context) ([]domain.RosterEntry, error) {
	var entries []domain.RosterEntry
	err := r.client.Do(ctx, collaborator.Request{
		Operation: "list_staff_profiles",
		Method:    http.MethodGet,
		Path:      "/staff-profiles",
	}, &entries)
	return entries, err
}
