package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectWorkspace    = "workspace"
	ObjectStaff        = "staff"
	ObjectContact      = "contact"
	ObjectConversation = "conversation"
	ObjectOffering     = "offering"
	ObjectBooking      = "booking"
	ObjectForm         = "form"
	ObjectInventory    = "inventory"
	ObjectRule         = "rule"
	ObjectAlert        = "alert"
	ObjectAuditLog     = "audit_log"
)

const (
	ActionWorkspaceView         = "workspace.view"
	ActionWorkspaceActivate     = "workspace.activate"
	ActionWorkspaceIntegrations = "workspace.integrations"

	ActionStaffView   = "staff.view"
	ActionStaffInvite = "staff.invite"

	ActionContactView    = "contact.view"
	ActionContactManage  = "contact.manage"
	ActionConversation   = "conversation.view"
	ActionConversationTx = "conversation.reply"

	ActionOfferingView   = "offering.view"
	ActionOfferingManage = "offering.manage"
	ActionBookingView    = "booking.view"
	ActionBookingManage  = "booking.manage"

	ActionFormView   = "form.view"
	ActionFormManage = "form.manage"

	ActionInventoryView   = "inventory.view"
	ActionInventoryManage = "inventory.manage"

	ActionRuleView   = "rule.view"
	ActionRuleManage = "rule.manage"

	ActionAlertView   = "alert.view"
	ActionAlertManage = "alert.manage"

	ActionAuditLogView = "audit_log.view"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
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
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, workspaceID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return ErrInvalidWorkspace
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := s.resolveActor(ctx, actor, workspaceID)
	if err != nil {
		return err
	}

	domain := fmt.Sprintf("workspace:%s", workspaceID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string, workspaceID string) (string, string, error) {
	if actor == "system" {
		return actor, "role:system", nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", ErrInvalidActor
		}
		parsedWorkspaceID, err := snowflake.ParseString(workspaceID)
		if err != nil || parsedWorkspaceID == 0 {
			return "", "", ErrInvalidWorkspace
		}
		role, err := s.roleForUser(ctx, parsedWorkspaceID, userID)
		if err != nil {
			return "", "", err
		}
		return actor, fmt.Sprintf("role:%s", strings.ToLower(role)), nil
	}
	return "", "", ErrInvalidActor
}

func (s *ServiceImpl) roleForUser(ctx context.Context, workspaceID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM users
		 WHERE workspace_id = ? AND id = ?
		 LIMIT 1`,
		workspaceID,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	staffPolicies := [][]string{
		{"role:staff", ObjectWorkspace, ActionWorkspaceView},
		{"role:staff", ObjectContact, ActionContactView},
		{"role:staff", ObjectContact, ActionContactManage},
		{"role:staff", ObjectConversation, ActionConversation},
		{"role:staff", ObjectConversation, ActionConversationTx},
		{"role:staff", ObjectOffering, ActionOfferingView},
		{"role:staff", ObjectBooking, ActionBookingView},
		{"role:staff", ObjectBooking, ActionBookingManage},
		{"role:staff", ObjectForm, ActionFormView},
		{"role:staff", ObjectForm, ActionFormManage},
		{"role:staff", ObjectInventory, ActionInventoryView},
		{"role:staff", ObjectInventory, ActionInventoryManage},
		{"role:staff", ObjectRule, ActionRuleView},
		{"role:staff", ObjectAlert, ActionAlertView},
		{"role:staff", ObjectAlert, ActionAlertManage},
	}

	// Owners hold every staff permission plus workspace administration.
	ownerPolicies := make([][]string, 0, len(staffPolicies)+8)
	for _, policy := range staffPolicies {
		ownerPolicies = append(ownerPolicies, []string{"role:owner", policy[1], policy[2]})
	}
	ownerPolicies = append(ownerPolicies,
		[]string{"role:owner", ObjectWorkspace, ActionWorkspaceActivate},
		[]string{"role:owner", ObjectWorkspace, ActionWorkspaceIntegrations},
		[]string{"role:owner", ObjectStaff, ActionStaffView},
		[]string{"role:owner", ObjectStaff, ActionStaffInvite},
		[]string{"role:owner", ObjectOffering, ActionOfferingManage},
		[]string{"role:owner", ObjectRule, ActionRuleManage},
		[]string{"role:owner", ObjectAuditLog, ActionAuditLogView},
	)

	systemPolicies := [][]string{
		{"role:system", ObjectForm, ActionFormManage},
		{"role:system", ObjectAlert, ActionAlertManage},
		{"role:system", ObjectConversation, ActionConversationTx},
	}

	for _, group := range [][][]string{staffPolicies, ownerPolicies, systemPolicies} {
		for _, policy := range group {
			if len(policy) < 3 {
				continue
			}
			if _, err := enforcer.AddPolicy(policy); err != nil {
				return err
			}
		}
	}
	return nil
}
