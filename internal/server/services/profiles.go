package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/session"
	"github.com/dmitrijs2005/questboard/internal/store"
)

// ProfileService reads and edits the public profiles at users/{id}.
type ProfileService struct {
	store  store.Store
	logger logging.Logger
}

func NewProfileService(s store.Store, logger logging.Logger) *ProfileService {
	return &ProfileService{store: s, logger: logger.With("module", "profiles")}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (models.Profile, error) {
	path, err := recordPath(usersRoot, userID)
	if err != nil {
		return models.Profile{}, err
	}
	var p models.Profile
	if err := readRecord(ctx, s.store, path, &p); err != nil {
		return models.Profile{}, err
	}
	p.ID = userID
	return p, nil
}

// Lookup returns the profiles of ids; unknown users are left out.
func (s *ProfileService) Lookup(ctx context.Context, ids []string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok || id == "" {
			continue
		}
		p, err := s.Get(ctx, id)
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// Identity resolves the display name of an authenticated user.
func (s *ProfileService) Identity(ctx context.Context, userID string) (session.Identity, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return session.Identity{UserID: userID, DisplayName: userID}, nil
	}
	if err != nil {
		return session.Identity{}, err
	}
	return session.Identity{UserID: userID, DisplayName: p.DisplayName()}, nil
}

// Create writes the profile of a freshly registered account.
func (s *ProfileService) Create(ctx context.Context, p models.Profile) error {
	path := store.JoinPath(usersRoot, p.ID)
	p.ID = ""
	if err := s.store.Write(ctx, path, p); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Update saves name, bio and picture reference. The picture reference is
// stored exactly as given; nothing is uploaded.
func (s *ProfileService) Update(ctx context.Context, id session.Identity, edit models.ProfileEdit) (models.Profile, error) {
	if !id.SignedIn() {
		return models.Profile{}, common.ErrorUnauthorized
	}
	edit.Name = strings.TrimSpace(edit.Name)
	edit.Bio = strings.TrimSpace(edit.Bio)
	if err := edit.Validate(); err != nil {
		return models.Profile{}, err
	}

	err := s.store.Update(ctx, store.JoinPath(usersRoot, id.UserID), map[string]any{
		"name":           edit.Name,
		"bio":            edit.Bio,
		"profilePicture": edit.ProfilePicture,
	})
	if err != nil {
		return models.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	s.logger.Info(ctx, "profile updated", "user_id", id.UserID)
	return s.Get(ctx, id.UserID)
}
