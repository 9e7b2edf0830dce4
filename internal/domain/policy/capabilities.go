// Package policy centralizes role-based authorization for workflow operations.
package policy

import (
	"sort"

	"dms/internal/domain/entity"
)

type Operation string

const (
	OpRegisterDevice     Operation = "devices:register"
	OpReadDevices        Operation = "devices:read"
	OpCreateDistribution Operation = "distributions:create"
	OpDecideDistribution Operation = "distributions:decide"
	OpCancelDistribution Operation = "distributions:cancel"
	OpReadDistributions  Operation = "distributions:read"
	OpFileDefect         Operation = "defects:create"
	OpReviewDefect       Operation = "defects:review"
	OpReadDefects        Operation = "defects:read"
	OpInitiateReturn     Operation = "returns:create"
	OpAdvanceReturn      Operation = "returns:advance"
	OpReadReturns        Operation = "returns:read"
	OpViewApprovals      Operation = "approvals:read"
	OpReadReports        Operation = "reports:read"
	OpExportReports      Operation = "reports:export"
	OpViewDashboard      Operation = "dashboard:read"
)

var (
	admin   = entity.RoleAdmin
	manager = entity.RoleManager
	dist    = entity.RoleDistributor
	sub     = entity.RoleSubDistributor
	op      = entity.RoleOperator
)

var capabilities = map[Operation][]entity.Role{
	OpRegisterDevice:     {admin, dist},
	OpReadDevices:        {admin, manager, dist, sub, op},
	OpCreateDistribution: {admin, dist, sub},
	// Narrowed per distribution by RecipientApprover.
	OpDecideDistribution: {dist, sub, op},
	OpCancelDistribution: {admin, dist, sub},
	OpReadDistributions:  {admin, manager, dist, sub, op},
	OpFileDefect:         {op, sub},
	OpReviewDefect:       {dist, sub, admin, manager},
	OpReadDefects:        {admin, manager, dist, sub, op},
	OpInitiateReturn:     {op, sub},
	// Narrowed per request by the approval chain.
	OpAdvanceReturn: {sub, dist},
	OpReadReturns:   {admin, manager, dist, sub, op},
	OpViewApprovals: {admin, manager, dist, sub, op},
	OpReadReports:   {admin, manager},
	OpExportReports: {admin, manager},
	OpViewDashboard: {admin, manager, dist, sub, op},
}

// Allowed reports whether role may attempt the operation at all.
func Allowed(role entity.Role, operation Operation) bool {
	for _, r := range capabilities[operation] {
		if r == role {
			return true
		}
	}
	return false
}

// Permissions lists every operation granted to role, sorted.
func Permissions(role entity.Role) []string {
	var perms []string
	for operation, roles := range capabilities {
		for _, r := range roles {
			if r == role {
				perms = append(perms, string(operation))
				break
			}
		}
	}
	sort.Strings(perms)
	return perms
}

var tierApprover = map[entity.Location]entity.Role{
	entity.LocationMainDistribution: entity.RoleDistributor,
	entity.LocationSubDistributor:   entity.RoleSubDistributor,
	entity.LocationOperator:         entity.RoleOperator,
}

// RecipientApprover is the role that accepts a distribution into a holder of
// the given tier.
func RecipientApprover(tier entity.Location) (entity.Role, bool) {
	r, ok := tierApprover[tier]
	return r, ok
}

// ReviewerRoles are the roles that decide defect reports.
func ReviewerRoles() []entity.Role {
	return append([]entity.Role(nil), capabilities[OpReviewDefect]...)
}
