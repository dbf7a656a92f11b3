package authorization

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/safeguardhq/safeguard/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectTerminal = "terminal"
	ObjectProduct  = "product"
	ObjectCustomer = "customer"
	ObjectPurchase = "purchase"
	ObjectApproval = "approval"
	ObjectIncident = "incident"
	ObjectAuditLog = "audit_log"
	ObjectOutlet   = "outlet"
)

const (
	ActionTerminalIdentify = "terminal.identify"
	ActionTerminalPurchase = "terminal.purchase"

	ActionProductView   = "product.view"
	ActionProductManage = "product.manage"

	ActionCustomerView   = "customer.view"
	ActionCustomerCreate = "customer.create"

	ActionPurchaseView   = "purchase.view"
	ActionPurchaseStream = "purchase.stream"
	ActionReceiptView    = "receipt.view"

	ActionApprovalView   = "approval.view"
	ActionApprovalDecide = "approval.decide"

	ActionIncidentReport = "incident.report"
	ActionIncidentView   = "incident.view"

	ActionAuditLogView = "audit_log.view"

	ActionOutletView   = "outlet.view"
	ActionOutletManage = "outlet.manage"
)

const (
	RoleTerminal = "role:terminal"
	RoleManager  = "role:manager"
	RoleAdmin    = "role:admin"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

type Service interface {
	Authorize(ctx context.Context, role, object, action string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role, object, action string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := role
	if !strings.HasPrefix(subject, "role:") {
		subject = "role:" + strings.ToLower(subject)
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, subject, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, subject, object, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, "authorization.denied", "authorization", &targetID, map[string]any{
		"subject": subject,
		"object":  object,
		"action":  action,
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Terminal: the purchase flow and nothing else.
		{RoleTerminal, ObjectTerminal, ActionTerminalIdentify},
		{RoleTerminal, ObjectTerminal, ActionTerminalPurchase},
		{RoleTerminal, ObjectProduct, ActionProductView},
		{RoleTerminal, ObjectPurchase, ActionReceiptView},

		// Manager: decide approvals, watch the floor, file incidents.
		{RoleManager, ObjectApproval, ActionApprovalView},
		{RoleManager, ObjectApproval, ActionApprovalDecide},
		{RoleManager, ObjectPurchase, ActionPurchaseView},
		{RoleManager, ObjectPurchase, ActionPurchaseStream},
		{RoleManager, ObjectPurchase, ActionReceiptView},
		{RoleManager, ObjectCustomer, ActionCustomerView},
		{RoleManager, ObjectIncident, ActionIncidentReport},
		{RoleManager, ObjectIncident, ActionIncidentView},
		{RoleManager, ObjectProduct, ActionProductView},
		{RoleManager, ObjectOutlet, ActionOutletView},

		// Admin-only surfaces.
		{RoleAdmin, ObjectCustomer, ActionCustomerCreate},
		{RoleAdmin, ObjectProduct, ActionProductManage},
		{RoleAdmin, ObjectOutlet, ActionOutletManage},
		{RoleAdmin, ObjectAuditLog, ActionAuditLogView},
	}

	for _, policy := range policies {
		params := []interface{}{policy[0], policy[1], policy[2]}
		has, err := enforcer.HasPolicy(params...)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(params...); err != nil {
			return err
		}
	}

	// Admin inherits everything managers can do.
	groupings := [][]string{
		{RoleAdmin, RoleManager},
	}
	for _, grouping := range groupings {
		params := []interface{}{grouping[0], grouping[1]}
		has, err := enforcer.HasGroupingPolicy(params...)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddGroupingPolicy(params...); err != nil {
			return err
		}
	}

	return nil
}
