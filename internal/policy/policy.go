package policy

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

type Resource string

const (
	ResourceClinic    Resource = "clinic"
	ResourceUser      Resource = "user"
	ResourcePatient   Resource = "patient"
	ResourceTreatment Resource = "treatment"
	ResourceAuditLog  Resource = "audit_log"
)

type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionRestore Action = "restore"
)

// rules is the coarse role gate: which roles may perform which action on
// which resource. Superusers bypass the table entirely. Reads are open to
// every authenticated role; tenant isolation is enforced separately by the
// query layer and the object gate below.
var rules = map[Resource]map[Action][]model.Role{
	ResourceClinic: {
		ActionRead:    {model.RoleAdmin, model.RoleDoctor},
		ActionCreate:  {model.RoleAdmin},
		ActionUpdate:  {model.RoleAdmin},
		ActionDelete:  {model.RoleAdmin},
		ActionRestore: {model.RoleAdmin},
	},
	ResourceUser: {
		ActionRead:    {model.RoleAdmin, model.RoleDoctor},
		ActionCreate:  {model.RoleAdmin},
		ActionUpdate:  {model.RoleAdmin},
		ActionDelete:  {model.RoleAdmin},
		ActionRestore: {model.RoleAdmin},
	},
	ResourcePatient: {
		ActionRead:    {model.RoleAdmin, model.RoleDoctor},
		ActionCreate:  {model.RoleAdmin, model.RoleDoctor},
		ActionUpdate:  {model.RoleAdmin, model.RoleDoctor},
		ActionDelete:  {model.RoleAdmin},
		ActionRestore: {model.RoleAdmin},
	},
	ResourceTreatment: {
		ActionRead:    {model.RoleAdmin, model.RoleDoctor},
		ActionCreate:  {model.RoleAdmin, model.RoleDoctor},
		ActionUpdate:  {model.RoleAdmin, model.RoleDoctor},
		ActionDelete:  {model.RoleAdmin, model.RoleDoctor},
		ActionRestore: {model.RoleAdmin},
	},
	ResourceAuditLog: {
		ActionRead: {model.RoleAdmin},
	},
}

// Allows evaluates the coarse role gate.
func Allows(scope model.Scope, resource Resource, action Action) bool {
	if scope.Superuser {
		return true
	}
	actions, ok := rules[resource]
	if !ok {
		return false
	}
	for _, role := range actions[action] {
		if role == scope.Role {
			return true
		}
	}
	return false
}

// Require returns a 403 unless the role gate passes.
func Require(scope model.Scope, resource Resource, action Action) error {
	if !Allows(scope, resource, action) {
		return errors.Forbidden("you do not have permission to perform this action")
	}
	return nil
}

// RequireSameClinic is the object-level tenant gate: the target row's clinic
// must equal the caller's clinic. Fails closed for callers without a clinic.
func RequireSameClinic(scope model.Scope, clinicID uuid.UUID) error {
	if scope.CanSee(clinicID) {
		return nil
	}
	return errors.Forbidden("you do not have permission to access resources from other clinics")
}

// CanModifyTreatment enforces the doctor-ownership rule: a doctor may only
// update a treatment they are the assigned doctor of. Admins and superusers
// are limited only by the tenant gate.
func CanModifyTreatment(scope model.Scope, t *model.Treatment) error {
	if err := RequireSameClinic(scope, t.ClinicID); err != nil {
		return err
	}
	if scope.Superuser || scope.Role == model.RoleAdmin {
		return nil
	}
	if t.DoctorID == nil || *t.DoctorID != scope.UserID {
		return errors.Forbidden("you can only update treatments you are the assigned doctor of")
	}
	return nil
}
