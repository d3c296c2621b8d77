package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/events"
	"github.com/skill-swap/skillswap/internal/repository"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

const maxRequestMessageLength = 500

// SwapService manages the request and accept flow between two members.
type SwapService struct {
	requests   repository.SwapRequestRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewSwapService constructs the service.
func NewSwapService(requests repository.SwapRequestRepository, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *SwapService {
	return &SwapService{
		requests:   requests,
		users:      users,
		dispatcher: dispatcher,
		logger:     orNop(logger),
		now:        time.Now,
	}
}

// CreateSwapRequestInput carries a new proposal.
type CreateSwapRequestInput struct {
	ReceiverID   string
	SkillOffered string
	SkillWanted  string
	Message      string
}

// Create proposes a swap from sender to the receiver.
func (s *SwapService) Create(ctx context.Context, sender *domain.User, in CreateSwapRequestInput) (*domain.SwapRequest, error) {
	in.SkillOffered = strings.TrimSpace(in.SkillOffered)
	in.SkillWanted = strings.TrimSpace(in.SkillWanted)
	in.Message = strings.TrimSpace(in.Message)

	fields := map[string]any{}
	if in.ReceiverID == "" {
		fields["receiver_id"] = "required"
	} else if in.ReceiverID == sender.ID {
		fields["receiver_id"] = "cannot send a request to yourself"
	}
	if in.SkillOffered == "" {
		fields["skill_offered"] = "required"
	}
	if in.SkillWanted == "" {
		fields["skill_wanted"] = "required"
	}
	if utf8.RuneCountInString(in.Message) > maxRequestMessageLength {
		fields["message"] = fmt.Sprintf("must be at most %d characters", maxRequestMessageLength)
	}
	if len(sender.SkillsOffered) > 0 && in.SkillOffered != "" && !sender.OffersSkill(in.SkillOffered) {
		fields["skill_offered"] = "must be one of your offered skills"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("invalid swap request", fields)
	}

	receiver, err := s.users.GetByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if receiver.IsBanned {
		return nil, apperrors.NewForbidden("this member cannot receive requests")
	}
	if len(receiver.SkillsOffered) > 0 && !receiver.OffersSkill(in.SkillWanted) {
		return nil, apperrors.NewValidationError("invalid swap request", map[string]any{
			"skill_wanted": "must be one of the receiver's offered skills",
		})
	}

	req := &domain.SwapRequest{
		SenderID:     sender.ID,
		SenderName:   sender.DisplayName(),
		ReceiverID:   receiver.ID,
		ReceiverName: receiver.DisplayName(),
		SkillOffered: in.SkillOffered,
		SkillWanted:  in.SkillWanted,
		Message:      in.Message,
		Status:       domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("a pending request for these skills already exists", nil)
		}
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventSwapRequestCreated, sender.ID, req.ID, payloadFor(req)))
	return req, nil
}

// ListSent returns requests the user sent, newest first.
func (s *SwapService) ListSent(ctx context.Context, user *domain.User, status *domain.RequestStatus, page Page) ([]domain.SwapRequest, error) {
	page = page.Normalize()
	return s.requests.List(ctx, repository.SwapRequestFilter{SenderID: &user.ID, Status: status, Limit: page.Limit, Offset: page.Offset})
}

// ListReceived returns requests addressed to the user, newest first.
func (s *SwapService) ListReceived(ctx context.Context, user *domain.User, status *domain.RequestStatus, page Page) ([]domain.SwapRequest, error) {
	page = page.Normalize()
	return s.requests.List(ctx, repository.SwapRequestFilter{ReceiverID: &user.ID, Status: status, Limit: page.Limit, Offset: page.Offset})
}

// ListAll returns every request for administrators, optionally only those involving
// participantID on either side.
func (s *SwapService) ListAll(ctx context.Context, participantID *string, status *domain.RequestStatus, page Page) ([]domain.SwapRequest, error) {
	page = page.Normalize()
	return s.requests.List(ctx, repository.SwapRequestFilter{
		ParticipantID: participantID,
		Status:        status,
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
}

// Get returns a request visible to the user.
func (s *SwapService) Get(ctx context.Context, user *domain.User, id string) (*domain.SwapRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "swap request")
	}
	if !req.Involves(user.ID) && !user.IsAdmin() {
		return nil, apperrors.NewNotFound("swap request", nil)
	}
	return req, nil
}

// Respond accepts or rejects a pending request. Only the receiver may answer.
func (s *SwapService) Respond(ctx context.Context, user *domain.User, id string, accept bool) (*domain.SwapRequest, error) {
	req, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != user.ID {
		return nil, apperrors.NewForbidden("only the receiver can respond to a request")
	}

	next := domain.RequestStatusRejected
	if accept {
		next = domain.RequestStatusAccepted
	}
	if !req.Status.CanTransition(next) {
		return nil, apperrors.NewConflict(fmt.Sprintf("request is already %s", req.Status), nil)
	}

	updated, err := s.requests.Respond(ctx, req.ID, next, s.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("request was answered concurrently", nil)
		}
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventSwapRequestResponded, user.ID, updated.ID, payloadFor(updated)))
	return updated, nil
}

// Delete removes a request on behalf of either participant, whatever its status.
func (s *SwapService) Delete(ctx context.Context, user *domain.User, id string) error {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "swap request")
	}
	if !req.Involves(user.ID) {
		return apperrors.NewForbidden("only participants can delete a request")
	}
	if err := s.requests.Delete(ctx, req.ID); err != nil {
		return notFound(err, "swap request")
	}
	return nil
}

func payloadFor(req *domain.SwapRequest) events.SwapRequestPayload {
	return events.SwapRequestPayload{
		RequestID:    req.ID,
		SenderID:     req.SenderID,
		ReceiverID:   req.ReceiverID,
		SkillOffered: req.SkillOffered,
		SkillWanted:  req.SkillWanted,
		Status:       req.Status,
	}
}
