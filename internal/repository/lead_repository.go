package repository

import (
	"context"
	"net/http"
	"net/url"

	"github.com/estatepro/leadsync/internal/collaborator"
	"github.com/estatepro/leadsync/internal/domain"
)

// LeadFilter narrows the lead listing.
type LeadFilter struct {
	// StaffID restricts the listing to leads assigned to this staff member.
	StaffID string
}

// LeadUpdate carries a form edit. Nil fields are left unchanged.
type LeadUpdate struct {
	Name   *string            `json:"name,omitempty"`
	Email  *string            `json:"email,omitempty"`
	Phone  *string            `json:"phone,omitempty"`
	Status *domain.LeadStatus `json:"status,omitempty"`
	Source *string            `json:"source,omitempty"`
}

// Fields lists the wire names of the fields being changed.
func (u LeadUpdate) Fields() []string {
	var fields []string
	if u.Name != nil {
		fields = append(fields, "name")
	}
	if u.Email != nil {
		fields = append(fields, "email")
	}
	if u.Phone != nil {
		fields = append(fields, "phone")
	}
	if u.Status != nil {
		fields = append(fields, "status")
	}
	if u.Source != nil {
		fields = append(fields, "source")
	}
	return fields
}

// Empty reports whether the update changes nothing.
func (u LeadUpdate) Empty() bool {
	return len(u.Fields()) == 0
}

// LeadRepository reaches leads held by the collaborator.
type LeadRepository interface {
	List(ctx context.Context, filter LeadFilter) ([]domain.Lead, error)
	Update(ctx context.Context, id string, update LeadUpdate) (*domain.Lead, error)
	UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) (*domain.Lead, error)
	Assign(ctx context.Context, id, staffID string) (*domain.Lead, error)
	AddFollowUp(ctx context.Context, leadID string, input domain.FollowUpInput) (*domain.FollowUp, error)
}

type leadRepository struct {
	client *collaborator.Client
}

// NewLeadRepository instantiates the repository.
func NewLeadRepository(client *collaborator.Client) LeadRepository {
	return &leadRepository{client: client}
}

func (r *leadRepository) List(ctx context.Context, filter LeadFilter) ([]domain.Lead, error) {
	query := url.Values{}
	if filter.StaffID != "" {
		query.Set("assignedTo", filter.StaffID)
	}
	var leads []domain.Lead
	err := r.client.Do(ctx, collaborator.Request{
		Operation: "list_leads",
		Method:    http.MethodGet,
		Path:      "/leads",
		Query:     query,
	}, &leads)
	return leads, err
}

func (r *leadRepository) Update(ctx context.Context, id string, update LeadUpdate) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.client.Do(ctx, collaborator.Request{
		Operation: "update_lead",
		Method:    http.MethodPatch,
		Path:      "/leads/" + url.PathEscape(id),
		Body:      update,
	}, &lead)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.client.Do(ctx, collaborator.Request{
		Operation: "update_lead_status",
		Method:    http.MethodPatch,
		Path:      "/leads/" + url.PathEscape(id) + "/status",
		Body:      map[string]domain.LeadStatus{"status": status},
	}, &lead)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) Assign(ctx context.Context, id, staffID string) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.client.Do(ctx, collaborator.Request{
		Operation: "assign_lead",
		Method:    http.MethodPatch,
		Path:      "/leads/" + url.PathEscape(id) + "/assign",
		Body:      map[string]string{"staffId": staffID},
	}, &lead)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) AddFollowUp(ctx context.Context, leadID string, input domain.FollowUpInput) (*domain.FollowUp, error) {
	var followUp domain.FollowUp
	err := r.client.Do(ctx, collaborator.Request{
		Operation: "add_follow_up",
		Method:    http.MethodPost,
		Path:      "/leads/" + url.PathEscape(leadID) + "/follow-ups",
		Body:      input,
	}, &followUp)
	if err != nil {
		return nil, err
	}
	return &followUp, nil
}
