package authz

import (
	"context"

	"weddingtimeline/internal/timeline"
)

// 权限常量
const (
	PermissionReadTask        = "task:read"
	PermissionCreateTask      = "task:create"
	PermissionEditAnyTask     = "task:edit_any"
	PermissionDeleteTask      = "task:delete"
	PermissionModerateComment = "comment:moderate"
	PermissionMaterialize     = "timeline:materialize"
)

// 角色常量
const (
	RoleTenantAdmin = "tenant_admin"
	RolePlanner     = "planner"
	RoleClient      = "client"
	// RoleSystem 调度器和消息消费者使用的内部身份
	RoleSystem = "system"
)

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleClient: {
		PermissionReadTask,
		PermissionCreateTask,
	},
	RolePlanner: {
		PermissionReadTask,
		PermissionCreateTask,
		PermissionEditAnyTask,
		PermissionModerateComment,
		PermissionMaterialize,
	},
	RoleTenantAdmin: {
		PermissionReadTask,
		PermissionCreateTask,
		PermissionEditAnyTask,
		PermissionDeleteTask,
		PermissionModerateComment,
		PermissionMaterialize,
	},
	RoleSystem: {
		PermissionReadTask,
		PermissionCreateTask,
		PermissionEditAnyTask,
		PermissionMaterialize,
	},
}

type roleKey struct{}

// WithRole 把调用者角色放入 context（由 JWT 中间件设置）
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFromContext 没有角色时返回空串
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}

// ValidRole 是否为已知角色
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 检查 ctx 中的角色是否有指定权限，没有则返回授权错误
func CheckPermission(ctx context.Context, permission string) error {
	role := RoleFromContext(ctx)
	if !HasPermission(role, permission) {
		return timeline.Unauthorizedf("authz", "role %q lacks %s", role, permission)
	}
	return nil
}

// RBAC 基于角色的授权实现
type RBAC struct{}

func NewRBAC() *RBAC {
	return &RBAC{}
}

// CanEdit 策划方可以编辑任意任务；客户只能编辑指派给自己或自己创建的任务
func (RBAC) CanEdit(ctx context.Context, actorID string, t *timeline.TaskInstance) bool {
	if HasPermission(RoleFromContext(ctx), PermissionEditAnyTask) {
		return true
	}
	if RoleFromContext(ctx) != RoleClient || actorID == "" {
		return false
	}
	if t.AssigneeType == timeline.AssigneeClient && t.AssigneeID == actorID {
		return true
	}
	return t.CreatedByUserID == actorID
}

// CanDelete 创建者之外的删除需要 task:delete 权限
func (RBAC) CanDelete(ctx context.Context, _ string, _ *timeline.TaskInstance) bool {
	return HasPermission(RoleFromContext(ctx), PermissionDeleteTask)
}

func (RBAC) CanModerateComment(ctx context.Context, _ string, _ *timeline.Comment) bool {
	return HasPermission(RoleFromContext(ctx), PermissionModerateComment)
}
