package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/booknook/storefront/internal/api"
	"golang.org/x/sync/singleflight"
)

var ErrValidation = errors.New("validation")

const MinPasswordLength = 6

type Backend interface {
	Profile(ctx context.Context, token string) (*api.User, error)
	UpdateProfile(ctx context.Context, token string, in api.ProfileUpdate) (*api.User, string, error)
	ChangePassword(ctx context.Context, token, oldPassword, newPassword string) (string, error)
	UploadProfilePicture(ctx context.Context, token string, pic api.File, fields map[string]string) (*api.User, error)
	Addresses(ctx context.Context, token string) ([]api.Address, error)
	AddAddress(ctx context.Context, token string, in api.AddressInput) (api.ID, error)
	DeleteAddress(ctx context.Context, token, id string) (string, error)
	Cards(ctx context.Context, token string) ([]api.Card, error)
	AddCard(ctx context.Context, token string, in api.NewCard) (api.ID, error)
	SetDefaultCard(ctx context.Context, token, id string, isDefault bool) (string, error)
	DeleteCard(ctx context.Context, token, id string) (string, error)
}

type Service struct {
	api   Backend
	group singleflight.Group
}

func New(backend Backend) *Service {
	return &Service{api: backend}
}

// Load fetches the profile for token. Concurrent loads for the same token
// share one backend call, which outlives any single caller's cancellation.
func (s *Service) Load(ctx context.Context, token string) (*api.User, error) {
	ch := s.group.DoChan(token, func() (any, error) {
		return s.api.Profile(context.WithoutCancel(ctx), token)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		u := *r.Val.(*api.User)
		return &u, nil
	}
}

type AccountKind string

const (
	AccountGoogle   AccountKind = "google"
	AccountPassword AccountKind = "password"
)

func KindOf(u *api.User) AccountKind {
	if u != nil && u.IsGoogleAccount() {
		return AccountGoogle
	}
	return AccountPassword
}

type Update struct {
	Name       string
	Phone      string
	Bio        string
	PictureURL string
	Picture    *api.File
}

// Save applies a profile edit. A picture file goes through the upload
// endpoint together with the text fields; otherwise the picture URL, or the
// current picture, is sent with a plain update.
func (s *Service) Save(ctx context.Context, token string, current *api.User, in Update) (*api.User, string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, "", fmt.Errorf("%w: Name is required", ErrValidation)
	}
	phone, bio := strings.TrimSpace(in.Phone), strings.TrimSpace(in.Bio)

	if in.Picture != nil {
		u, err := s.api.UploadProfilePicture(ctx, token, *in.Picture, map[string]string{"name": name, "phone": phone, "bio": bio})
		if err != nil {
			return nil, "", err
		}
		return u, "Profile updated", nil
	}

	pic := strings.TrimSpace(in.PictureURL)
	if pic == "" && current != nil {
		pic = current.ProfilePic
	}
	u, msg, err := s.api.UpdateProfile(ctx, token, api.ProfileUpdate{Name: name, Phone: phone, Bio: bio, ProfilePic: pic})
	if err != nil {
		return nil, "", err
	}
	if msg == "" {
		msg = "Profile updated"
	}
	return u, msg, nil
}

type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

func (p PasswordChange) Validate() error {
	cur, next, confirm := strings.TrimSpace(p.Current), strings.TrimSpace(p.New), strings.TrimSpace(p.Confirm)
	switch {
	case cur == "" || next == "" || confirm == "":
		return fmt.Errorf("%w: Fill all password fields", ErrValidation)
	case next != confirm:
		return fmt.Errorf("%w: New passwords do not match", ErrValidation)
	case len(next) < MinPasswordLength:
		return fmt.Errorf("%w: New password must be at least %d chars", ErrValidation, MinPasswordLength)
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, token string, in PasswordChange) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	msg, err := s.api.ChangePassword(ctx, token, strings.TrimSpace(in.Current), strings.TrimSpace(in.New))
	if err != nil {
		return "", err
	}
	if msg == "" || msg == "password_updated" {
		msg = "Password updated"
	}
	return msg, nil
}

// Addresses returns the saved addresses with duplicate ids removed.
func (s *Service) Addresses(ctx context.Context, token string) ([]api.Address, error) {
	addrs, err := s.api.Addresses(ctx, token)
	if err != nil {
		return nil, err
	}
	return DedupeAddresses(addrs), nil
}

func DedupeAddresses(addrs []api.Address) []api.Address {
	seen := make(map[api.ID]struct{}, len(addrs))
	out := make([]api.Address, 0, len(addrs))
	for _, a := range addrs {
		if a.ID.IsZero() {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

func (s *Service) AddAddress(ctx context.Context, token string, in api.AddressInput) (api.ID, error) {
	in = api.AddressInput{
		Label:     strings.TrimSpace(in.Label),
		Recipient: strings.TrimSpace(in.Recipient),
		Street:    strings.TrimSpace(in.Street),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		Zip:       strings.TrimSpace(in.Zip),
	}
	if !in.Complete() {
		return "", fmt.Errorf("%w: Fill all address fields", ErrValidation)
	}
	return s.api.AddAddress(ctx, token, in)
}

func (s *Service) DeleteAddress(ctx context.Context, token, id string) (string, error) {
	return s.api.DeleteAddress(ctx, token, id)
}

func (s *Service) Cards(ctx context.Context, token string) ([]api.Card, error) {
	return s.api.Cards(ctx, token)
}

func (s *Service) AddCard(ctx context.Context, token string, in api.NewCard) (api.ID, error) {
	in.Number = strings.ReplaceAll(strings.TrimSpace(in.Number), " ", "")
	in.Holder = strings.TrimSpace(in.Holder)
	if in.Holder == "" || len(in.Number) < 12 || in.ExpMonth < 1 || in.ExpMonth > 12 || in.ExpYear < 2000 {
		return "", fmt.Errorf("%w: Enter valid card details", ErrValidation)
	}
	return s.api.AddCard(ctx, token, in)
}

func (s *Service) SetDefaultCard(ctx context.Context, token, id string) (string, error) {
	return s.api.SetDefaultCard(ctx, token, id, true)
}

func (s *Service) DeleteCard(ctx context.Context, token, id string) (string, error) {
	return s.api.DeleteCard(ctx, token, id)
}
