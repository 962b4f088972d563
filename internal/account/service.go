// Package account links guest activity to a signed-in user.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mission-backend/internal/analyses"
	"mission-backend/internal/shared/telemetry"
	"mission-backend/internal/usage"
)

// ErrInvalidClaim is returned when either side of a claim is missing or
// both name the same principal.
var ErrInvalidClaim = errors.New("a guest id and a different signed-in user are required")

// Service moves guest-owned data to a signed-in user.
type Service struct {
	Analyses *analyses.Service
	Usage    *usage.Service
}

// ClaimResult reports what moved.
type ClaimResult struct {
	GuestID          string `json:"guestId"`
	MigratedAnalyses int    `json:"migratedAnalyses"`
	UsageMerged      bool   `json:"usageMerged"`
}

func NewService(analysisSvc *analyses.Service, usageSvc *usage.Service) *Service {
	return &Service{Analyses: analysisSvc, Usage: usageSvc}
}

// ClaimGuest reassigns the guest's analyses and history and folds the
// guest's advisory usage into the user's current window. Claiming twice is
// harmless: the second call finds nothing to move.
func (s *Service) ClaimGuest(ctx context.Context, guest, user string) (ClaimResult, error) {
	guest, user = strings.TrimSpace(guest), strings.TrimSpace(user)
	if guest == "" || user == "" || guest == user {
		return ClaimResult{}, ErrInvalidClaim
	}

	result := ClaimResult{GuestID: guest}
	if s.Analyses != nil {
		moved, err := s.Analyses.ClaimGuest(ctx, guest, user)
		if err != nil {
			return ClaimResult{}, fmt.Errorf("claim analyses: %w", err)
		}
		result.MigratedAnalyses = moved
	}
	if s.Usage != nil {
		if err := s.Usage.Transfer(ctx, guest, user); err != nil {
			return result, fmt.Errorf("transfer usage: %w", err)
		}
		result.UsageMerged = true
	}

	telemetry.Info("account.guest_claimed", map[string]any{
		"request_id":        telemetry.RequestIDFromContext(ctx),
		"user_id":           user,
		"guest_id":          guest,
		"migrated_analyses": result.MigratedAnalyses,
	})
	return result, nil
}
