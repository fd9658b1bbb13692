package organization

import (
	"context"
	"errors"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/domain/shared/valueobject"
	"github.com/facturacion/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repositories groups the stores the organization services work on
type Repositories struct {
	Channels   organization.ChannelRepository
	Activities organization.ActivityRepository
	Branches   organization.BranchRepository
	Registers  organization.RegisterRepository
	Sequences  organization.SequenceRepository
}

// HierarchyService manages the Channel → Activity → Branch → Register tree.
// Every operation is scoped to the actor's channel; entities of other
// channels are reported as not found.
type HierarchyService struct {
	repos     Repositories
	guard     access.Guard
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewHierarchyService creates a new HierarchyService
func NewHierarchyService(repos Repositories, guard access.Guard, publisher shared.EventPublisher, logger *zap.Logger) *HierarchyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchyService{
		repos:     repos,
		guard:     guard,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateChannel onboards a channel and makes the user its admin
func (s *HierarchyService) CreateChannel(ctx context.Context, userID uuid.UUID, req CreateChannelRequest) (*ChannelResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "hierarchy", "create_channel")
	defer span.End()

	legalIdent, err := valueobject.NewLegalIdent(req.LegalIdentType, req.LegalIdentNumber)
	if err != nil {
		return nil, err
	}
	address, err := req.Address.toAddress()
	if err != nil {
		return nil, err
	}
	channel, err := organization.NewChannel(req.Code, legalIdent, organization.ChannelContact{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: address,
	})
	if err != nil {
		return nil, err
	}

	exists, err := s.repos.Channels.ExistsByCode(ctx, channel.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrDuplicateCode.Withf("channel code %s is already registered", channel.Code)
	}
	exists, err = s.repos.Channels.ExistsByLegalIdent(ctx, string(legalIdent.Type()), legalIdent.Number())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrDuplicateLegalIdent
	}

	if err := s.repos.Channels.Create(ctx, channel, userID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrChannelID, channel.ID.String())
	s.logger.Info("Channel created",
		zap.String("channel_id", channel.ID.String()),
		zap.String("code", channel.Code),
		zap.String("owner_id", userID.String()),
	)
	s.publish(ctx, channel)
	return ToChannelResponse(channel), nil
}

// GetChannel returns the actor's channel
func (s *HierarchyService) GetChannel(ctx context.Context, actor access.Actor) (*ChannelResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}
	channel, err := s.repos.Channels.FindByID(ctx, actor.ChannelID)
	if err != nil {
		return nil, err
	}
	return ToChannelResponse(channel), nil
}

// UpdateChannel replaces the contact details of the actor's channel
func (s *HierarchyService) UpdateChannel(ctx context.Context, actor access.Actor, req UpdateChannelRequest) (*ChannelResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return nil, err
	}
	address, err := req.Address.toAddress()
	if err != nil {
		return nil, err
	}
	channel, err := s.repos.Channels.FindByID(ctx, actor.ChannelID)
	if err != nil {
		return nil, err
	}
	if err := channel.UpdateContact(organization.ChannelContact{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: address,
	}); err != nil {
		return nil, err
	}
	if err := s.repos.Channels.Save(ctx, channel); err != nil {
		return nil, err
	}
	s.publish(ctx, channel)
	return ToChannelResponse(channel), nil
}

// ActivateChannel re-enables the actor's channel. Admins of a deactivated
// channel can still call it.
func (s *HierarchyService) ActivateChannel(ctx context.Context, actor access.Actor) (*ChannelResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireAdminAnyStatus); err != nil {
		return nil, err
	}
	return s.changeStatus(ctx, actor, (*organization.Channel).Activate)
}

// DeactivateChannel soft-deactivates the actor's channel
func (s *HierarchyService) DeactivateChannel(ctx context.Context, actor access.Actor) (*ChannelResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireAdmin); err != nil {
		return nil, err
	}
	return s.changeStatus(ctx, actor, (*organization.Channel).Deactivate)
}

func (s *HierarchyService) changeStatus(ctx context.Context, actor access.Actor, apply func(*organization.Channel) error) (*ChannelResponse, error) {
	channel, err := s.repos.Channels.FindByID(ctx, actor.ChannelID)
	if err != nil {
		return nil, err
	}
	if err := apply(channel); err != nil {
		return nil, err
	}
	if err := s.repos.Channels.Save(ctx, channel); err != nil {
		return nil, err
	}
	s.logger.Info("Channel status changed",
		zap.String("channel_id", channel.ID.String()),
		zap.Bool("is_active", channel.IsActive),
		zap.String("user_id", actor.UserID.String()),
	)
	s.publish(ctx, channel)
	return ToChannelResponse(channel), nil
}

// DeleteChannel removes the actor's channel. Without force it refuses while
// activities, branches or overrides exist.
func (s *HierarchyService) DeleteChannel(ctx context.Context, actor access.Actor, force bool) error {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireAdmin); err != nil {
		return err
	}
	if _, err := s.repos.Channels.FindByID(ctx, actor.ChannelID); err != nil {
		return err
	}
	if err := s.repos.Channels.Delete(ctx, actor.ChannelID, force); err != nil {
		return err
	}
	s.logger.Warn("Channel deleted",
		zap.String("channel_id", actor.ChannelID.String()),
		zap.Bool("force", force),
		zap.String("user_id", actor.UserID.String()),
	)
	s.publishEvents(ctx, organization.NewEntityDeletedEvent(organization.AggregateTypeChannel, actor.ChannelID, actor.ChannelID, force))
	return nil
}

// CreateActivity registers an economic activity for the actor's channel
func (s *HierarchyService) CreateActivity(ctx context.Context, actor access.Actor, req CreateActivityRequest) (*ActivityResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return nil, err
	}
	activity, err := organization.NewActivity(actor.ChannelID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	exists, err := s.repos.Activities.ExistsByCode(ctx, actor.ChannelID, activity.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrDuplicateCode.Withf("activity %s is already registered", activity.Code)
	}
	if err := s.repos.Activities.Create(ctx, activity); err != nil {
		return nil, err
	}
	s.publish(ctx, activity)
	resp := ToActivityResponse(activity)
	return &resp, nil
}

// ListActivities lists the activities of the actor's channel
func (s *HierarchyService) ListActivities(ctx context.Context, actor access.Actor) ([]ActivityResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}
	activities, err := s.repos.Activities.FindAllForChannel(ctx, actor.ChannelID)
	if err != nil {
		return nil, err
	}
	out := make([]ActivityResponse, len(activities))
	for i := range activities {
		out[i] = ToActivityResponse(&activities[i])
	}
	return out, nil
}

// CreateBranch creates a branch under an activity of the actor's channel.
// The code must be three digits and unique within the activity; a
// concurrent insert that loses on the unique index is a duplicate too.
func (s *HierarchyService) CreateBranch(ctx context.Context, actor access.Actor, req CreateBranchRequest) (*BranchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "hierarchy", "create_branch")
	defer span.End()

	if err := organization.ValidateBranchCode(req.Code); err != nil {
		return nil, err
	}
	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return nil, err
	}
	address, err := req.Address.toAddress()
	if err != nil {
		return nil, err
	}

	activity, err := s.repos.Activities.FindByIDForChannel(ctx, actor.ChannelID, req.ActivityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Activity not found")
		}
		return nil, err
	}
	exists, err := s.repos.Branches.ExistsByCode(ctx, activity.ID, req.Code, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrDuplicateCode.Withf("branch %s already exists for this activity", req.Code)
	}

	branch, err := organization.NewBranch(activity, req.Code, organization.BranchDetails{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: address,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repos.Branches.Create(ctx, branch); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrBranchID, branch.ID.String())
	s.publish(ctx, branch)
	resp := ToBranchResponse(branch)
	return &resp, nil
}

// GetBranch returns a branch of the actor's channel
func (s *HierarchyService) GetBranch(ctx context.Context, actor access.Actor, id uuid.UUID) (*BranchResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}
	branch, err := s.repos.Branches.FindByIDForChannel(ctx, actor.ChannelID, id)
	if err != nil {
		return nil, err
	}
	resp := ToBranchResponse(branch)
	return &resp, nil
}

// ListBranches lists the branches of the actor's channel
func (s *HierarchyService) ListBranches(ctx context.Context, actor access.Actor, filter BranchListFilter) ([]BranchResponse, int64, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, 0, err
	}
	domainFilter := shared.DefaultFilter()
	domainFilter.Search = filter.Search
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.SortBy != "" {
		domainFilter.OrderBy = filter.SortBy
	}
	if filter.SortDir != "" {
		domainFilter.OrderDir = filter.SortDir
	}

	branches, total, err := s.repos.Branches.FindAllForChannel(ctx, actor.ChannelID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BranchResponse, len(branches))
	for i := range branches {
		out[i] = ToBranchResponse(&branches[i])
	}
	return out, total, nil
}

// UpdateBranch replaces the descriptive fields of a branch
func (s *HierarchyService) UpdateBranch(ctx context.Context, actor access.Actor, id uuid.UUID, req UpdateBranchRequest) (*BranchResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return nil, err
	}
	address, err := req.Address.toAddress()
	if err != nil {
		return nil, err
	}
	branch, err := s.repos.Branches.FindByIDForChannel(ctx, actor.ChannelID, id)
	if err != nil {
		return nil, err
	}
	if err := branch.UpdateDetails(organization.BranchDetails{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: address,
	}); err != nil {
		return nil, err
	}
	if err := s.repos.Branches.Save(ctx, branch); err != nil {
		return nil, err
	}
	resp := ToBranchResponse(branch)
	return &resp, nil
}

// RenameBranchCode changes a branch code, re-checking the format and
// uniqueness within the activity
func (s *HierarchyService) RenameBranchCode(ctx context.Context, actor access.Actor, id uuid.UUID, code string) (*BranchResponse, error) {
	if err := organization.ValidateBranchCode(code); err != nil {
		return nil, err
	}
	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return nil, err
	}
	branch, err := s.repos.Branches.FindByIDForChannel(ctx, actor.ChannelID, id)
	if err != nil {
		return nil, err
	}
	if branch.Code != code {
		exists, err := s.repos.Branches.ExistsByCode(ctx, branch.ActivityID, code, &branch.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.ErrDuplicateCode.Withf("branch %s already exists for this activity", code)
		}
		if err := branch.ChangeCode(code); err != nil {
			return nil, err
		}
		if err := s.repos.Branches.Save(ctx, branch); err != nil {
			return nil, err
		}
		s.publish(ctx, branch)
	}
	resp := ToBranchResponse(branch)
	return &resp, nil
}

// DeleteBranch removes a branch. Without force it refuses while registers
// exist; with force they are removed with it.
func (s *HierarchyService) DeleteBranch(ctx context.Context, actor access.Actor, id uuid.UUID, force bool) error {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return err
	}
	if _, err := s.repos.Branches.FindByIDForChannel(ctx, actor.ChannelID, id); err != nil {
		return err
	}
	if err := s.repos.Branches.Delete(ctx, id, force); err != nil {
		return err
	}
	s.logger.Info("Branch deleted",
		zap.String("channel_id", actor.ChannelID.String()),
		zap.String("branch_id", id.String()),
		zap.Bool("force", force),
	)
	s.publishEvents(ctx, organization.NewEntityDeletedEvent(organization.AggregateTypeBranch, id, actor.ChannelID, force))
	return nil
}

// CreateRegister creates a register under a branch of the actor's channel.
// The register and its ten counters are written together.
func (s *HierarchyService) CreateRegister(ctx context.Context, actor access.Actor, branchID uuid.UUID, req CreateRegisterRequest) (*RegisterResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "hierarchy", "create_register",
		telemetry.WithAttribute(telemetry.SpanAttrBranchID, branchID.String()))
	defer span.End()

	initial, err := organization.ParseCounterValues(req.Numbering)
	if err != nil {
		return nil, err
	}
	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return nil, err
	}
	branch, err := s.repos.Branches.FindByIDForChannel(ctx, actor.ChannelID, branchID)
	if err != nil {
		return nil, err
	}
	register, err := organization.NewRegister(branch, req.Number, req.Name, initial)
	if err != nil {
		return nil, err
	}
	exists, err := s.repos.Registers.ExistsByNumber(ctx, branch.ID, register.Number)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrDuplicateNumber.Withf("register %s already exists in this branch", register.Number)
	}
	if err := s.repos.Registers.Create(ctx, register); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRegisterID, register.ID.String())
	s.publish(ctx, register)
	resp := ToRegisterResponse(register)
	return &resp, nil
}

// GetRegister returns a register of the actor's channel with its counters
func (s *HierarchyService) GetRegister(ctx context.Context, actor access.Actor, id uuid.UUID) (*RegisterResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}
	register, err := s.findRegister(ctx, actor.ChannelID, id)
	if err != nil {
		return nil, err
	}
	resp := ToRegisterResponse(register)
	return &resp, nil
}

// ListRegisters lists the registers of a branch
func (s *HierarchyService) ListRegisters(ctx context.Context, actor access.Actor, branchID uuid.UUID) ([]RegisterResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}
	if _, err := s.repos.Branches.FindByIDForChannel(ctx, actor.ChannelID, branchID); err != nil {
		return nil, err
	}
	registers, err := s.repos.Registers.FindAllForBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	out := make([]RegisterResponse, len(registers))
	for i := range registers {
		out[i] = ToRegisterResponse(&registers[i])
	}
	return out, nil
}

// RenameRegister changes a register's display name
func (s *HierarchyService) RenameRegister(ctx context.Context, actor access.Actor, id uuid.UUID, req RenameRegisterRequest) (*RegisterResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return nil, err
	}
	register, err := s.findRegister(ctx, actor.ChannelID, id)
	if err != nil {
		return nil, err
	}
	if err := register.Rename(req.Name); err != nil {
		return nil, err
	}
	if err := s.repos.Registers.Save(ctx, register); err != nil {
		return nil, err
	}
	resp := ToRegisterResponse(register)
	return &resp, nil
}

// DeleteRegister removes a register. Its counters belong to it and are
// removed too; a register has no dependents.
func (s *HierarchyService) DeleteRegister(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return err
	}
	if _, err := s.findRegister(ctx, actor.ChannelID, id); err != nil {
		return err
	}
	if err := s.repos.Registers.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Register deleted",
		zap.String("channel_id", actor.ChannelID.String()),
		zap.String("register_id", id.String()),
	)
	s.publishEvents(ctx, organization.NewEntityDeletedEvent(organization.AggregateTypeRegister, id, actor.ChannelID, false))
	return nil
}

func (s *HierarchyService) findRegister(ctx context.Context, channelID, id uuid.UUID) (*organization.Register, error) {
	register, err := s.repos.Registers.FindByIDForChannel(ctx, channelID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrRegisterNotFound
	}
	return register, err
}

// publish hands the aggregates' pending events to the bus. It runs after
// the write returned, so the events describe committed state.
func (s *HierarchyService) publish(ctx context.Context, aggregates ...shared.AggregateRoot) {
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	s.publishEvents(ctx, events...)
}

func (s *HierarchyService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	// Handler failures are logged by the bus, not propagated
	_ = s.publisher.Publish(ctx, events...)
}
