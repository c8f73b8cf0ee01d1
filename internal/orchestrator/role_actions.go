package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"gorm.io/gorm"
)

// buildRoleChangeRequest derives the ephemeral shape of a role change:
// whether it must resolve as a superadmin transfer, and from whom.
func (o *Orchestrator) buildRoleChangeRequest(session Session, target *models.User, newRole models.Role) (RoleChangeRequest, error) {
	req := RoleChangeRequest{
		TargetUserID:  target.ID,
		CurrentRole:   target.Role,
		RequestedRole: newRole,
	}

	if newRole != models.RoleSuperadmin {
		return req, nil
	}

	holder, err := o.users.FindByRole(session.OrganizationID, models.RoleSuperadmin)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return req, nil
		}
		return req, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	if holder.ID != target.ID {
		req.RequiresSuperadminTransfer = true
		req.CurrentSuperadminID = &holder.ID
	}

	return req, nil
}

func (o *Orchestrator) changeUserRole(ctx context.Context, session Session, action ChangeUserRole, mutationID string) (*Result, error) {
	// Authorizing
	switch action.NewRole {
	case models.RoleUser, models.RoleTeamLeader, models.RoleManager, models.RoleAdmin, models.RoleSuperadmin:
	default:
		return nil, fmt.Errorf("%w: invalid role %q", ErrValidation, action.NewRole)
	}

	target, err := o.users.FindByID(action.TargetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	if target.OrganizationID != session.OrganizationID {
		return nil, ErrNotFound
	}

	if action.NewRole == models.RoleSuperadmin {
		// Granting the top role is only ever a transfer (or a first grant)
		// by the current superadmin; CanManage's strict dominance check
		// cannot express assigning the actor's own level.
		if session.Role != models.RoleSuperadmin {
			return nil, ErrUnauthorized
		}
	} else if !o.hierarchy.CanManage(session.Role, target.Role, action.NewRole) {
		return nil, ErrUnauthorized
	}

	req, err := o.buildRoleChangeRequest(session, target, action.NewRole)
	if err != nil {
		return nil, err
	}

	// Persisting
	if req.RequiresSuperadminTransfer {
		if err := o.transferSuperadmin(target, *req.CurrentSuperadminID, mutationID); err != nil {
			return nil, err
		}
	} else {
		if err := o.users.UpdateRole(target.ID, action.NewRole); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
		}
	}

	target.Role = action.NewRole

	// Role changes touch no cached task/project views, so the lifecycle
	// skips straight past Notifying and Invalidating.
	return &Result{MutationID: mutationID, State: StateDone, User: target}, nil
}

// transferSuperadmin moves the top role: promote the new holder first, then
// demote the old one to admin. Promote-then-demote ordering means a partial
// failure leaves a transient extra superadmin, never zero. A failed demote
// gets one compensating retry; if that also fails the promote is kept and
// the caller is told to re-run the action.
func (o *Orchestrator) transferSuperadmin(target *models.User, currentHolderID uint64, mutationID string) error {
	if err := o.users.UpdateRole(target.ID, models.RoleSuperadmin); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	demote := func() error {
		return o.users.UpdateRole(currentHolderID, models.RoleAdmin)
	}

	if err := demote(); err != nil {
		o.log.WithFields(logrus.Fields{
			"mutation_id":    mutationID,
			"new_superadmin": target.ID,
			"old_superadmin": currentHolderID,
		}).WithError(err).Warn("superadmin demote failed after promote, retrying")

		if err := demote(); err != nil {
			o.log.WithFields(logrus.Fields{
				"mutation_id":    mutationID,
				"new_superadmin": target.ID,
				"old_superadmin": currentHolderID,
			}).WithError(err).Error("superadmin transfer left two holders, demote must be retried")
			return fmt.Errorf("%w: demote of user %d failed: %v", ErrTransferIncomplete, currentHolderID, err)
		}
	}

	return nil
}
