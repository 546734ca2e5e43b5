package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/booknook/storefront/internal/api"
)

var (
	ErrNothingClaimed = errors.New("gift already claimed or not found")
	ErrValidation     = errors.New("validation")
)

func Unclaimed(gifts []api.Gift) int {
	n := 0
	for _, g := range gifts {
		if !g.Claimed() {
			n++
		}
	}
	return n
}

// UnclaimedCount drives the nav badge; failures count as zero.
func (s *Service) UnclaimedCount(ctx context.Context, token string) int {
	gifts, err := s.api.Gifts(ctx, token)
	if err != nil {
		return 0
	}
	return Unclaimed(gifts)
}

func (s *Service) ClaimGift(ctx context.Context, token, giftID string) error {
	res, err := s.api.ClaimGift(ctx, token, giftID)
	if err != nil {
		return err
	}
	if res.Claimed <= 0 {
		return ErrNothingClaimed
	}
	return nil
}

func (s *Service) ClaimAll(ctx context.Context, token string) (int, error) {
	res, err := s.api.ClaimGifts(ctx, token)
	if err != nil {
		return 0, err
	}
	return res.Claimed, nil
}

func (s *Service) MarkRead(ctx context.Context, token, giftID string) error {
	_, err := s.api.MarkGiftRead(ctx, token, giftID)
	return err
}

func (s *Service) MarkAllRead(ctx context.Context, token string) (int, error) {
	res, err := s.api.MarkAllGiftsRead(ctx, token)
	if err != nil {
		return 0, err
	}
	return res.MarkedRead, nil
}

func (s *Service) AddToWishlist(ctx context.Context, token, bookID string) (string, error) {
	if bookID == "" {
		return "", fmt.Errorf("%w: book id required", ErrValidation)
	}
	return s.api.AddToWishlist(ctx, token, bookID)
}

func (s *Service) RemoveFromWishlist(ctx context.Context, token, bookID string) (string, error) {
	if bookID == "" {
		return "", fmt.Errorf("%w: book id required", ErrValidation)
	}
	return s.api.RemoveFromWishlist(ctx, token, bookID)
}
