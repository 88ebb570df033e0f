package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/repository"
)

// DirectoryService builds the canonical staff directory from the two rosters.
// A directory is rebuilt on every call and never cached.
type DirectoryService struct {
	staff  repository.StaffRepository
	logger *zap.Logger
}

// NewDirectoryService creates the service.
func NewDirectoryService(staff repository.StaffRepository, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{staff: staff, logger: logger}
}

// Build fetches both rosters concurrently and merges them. A failed roster
// fetch contributes an empty roster; Build itself never fails.
func (s *DirectoryService) Build(ctx context.Context) *Directory {
	var assignable, profiles []domain.RosterEntry

	var g errgroup.Group
	g.Go(func() error {
		entries, err := s.staff.ListAssignable(ctx)
		if err != nil {
			s.logger.Warn("assignable staff roster unavailable", zap.Error(err))
			return nil
		}
		assignable = entries
		return nil
	})
	g.Go(func() error {
		entries, err := s.staff.ListProfiles(ctx)
		if err != nil {
			s.logger.Warn("staff profile roster unavailable", zap.Error(err))
			return nil
		}
		profiles = entries
		return nil
	})
	_ = g.Wait()

	return MergeRosters(assignable, profiles)
}

// Directory is the merged, deduplicated staff directory.
type Directory struct {
	entries []domain.Staff
	index   map[string]int
}

// MergeRosters runs the two-phase merge: roster B (profiles, keyed by linked
// account id) is inserted first so its display fields win, then roster A fills
// the gaps. Entries whose identifier cannot be normalized are dropped.
func MergeRosters(assignable, profiles []domain.RosterEntry) *Directory {
	d := &Directory{index: make(map[string]int, len(assignable)+len(profiles))}

	for _, entry := range profiles {
		id := entry.LinkedID()
		if id == "" {
			id = entry.OwnID()
		}
		d.insert(id, entry, domain.RosterProfiles)
	}
	for _, entry := range assignable {
		d.insert(entry.OwnID(), entry, domain.RosterAssignable)
	}
	return d
}

func (d *Directory) insert(id string, entry domain.RosterEntry, source domain.RosterSource) {
	if id == "" {
		return
	}
	if _, exists := d.index[id]; exists {
		return
	}
	d.index[id] = len(d.entries)
	d.entries = append(d.entries, domain.Staff{
		ID:     id,
		Name:   entry.DisplayName(),
		Email:  entry.Email,
		Avatar: entry.AvatarRef(),
		Role:   entry.Role,
		Source: source,
	})
}

// Entries returns the directory in merge order.
func (d *Directory) Entries() []domain.Staff {
	if d == nil {
		return nil
	}
	out := make([]domain.Staff, len(d.entries))
	copy(out, d.entries)
	return out
}

// Len returns the number of canonical entries.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Resolve finds the canonical entry for an identifier.
func (d *Directory) Resolve(id string) *domain.Staff {
	return d.ResolveRef(domain.RawRef(id))
}

// ResolveRef finds the canonical entry for any reference shape.
func (d *Directory) ResolveRef(ref domain.Ref) *domain.Staff {
	if d == nil {
		return nil
	}
	id, ok := domain.NormalizeRef(ref)
	if !ok {
		return nil
	}
	i, ok := d.index[id]
	if !ok {
		return nil
	}
	staff := d.entries[i]
	return &staff
}

// Lookup resolves a lead's assigned staff member. A roster-B profile shadows
// a populated reference; against a roster-A entry the populated reference's
// own display fields take precedence.
func (d *Directory) Lookup(lead domain.Lead) *domain.Staff {
	_, ref := lead.AssignedRef()
	if ref.IsZero() {
		return nil
	}
	staff := d.ResolveRef(ref)
	if staff == nil {
		return nil
	}
	if staff.Source == domain.RosterProfiles || !ref.Populated() {
		return staff
	}
	if name := ref.Field("name"); name != "" {
		staff.Name = name
	}
	if email := ref.Field("email"); email != "" {
		staff.Email = email
	}
	if avatar := ref.Field("avatar"); avatar != "" {
		staff.Avatar = avatar
	}
	return staff
}

// FollowUpAuthor names the staff member behind a follow-up.
func (d *Directory) FollowUpAuthor(f domain.FollowUp) string {
	if staff := d.ResolveRef(f.PerformedBy); staff != nil && staff.Name != "" {
		return staff.Name
	}
	if f.PerformedByName != "" {
		return f.PerformedByName
	}
	if name := f.PerformedBy.Field("name"); name != "" {
		return name
	}
	return "Unknown"
}
