package authz

import (
	"context"
	"errors"
	"testing"

	"weddingtimeline/internal/timeline"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		role, perm string
		want       bool
	}{
		{RoleTenantAdmin, PermissionDeleteTask, true},
		{RolePlanner, PermissionDeleteTask, false},
		{RolePlanner, PermissionModerateComment, true},
		{RoleClient, PermissionEditAnyTask, false},
		{RoleClient, PermissionReadTask, true},
		{"ghost", PermissionReadTask, false},
	}
	for _, tc := range cases {
		if got := HasPermission(tc.role, tc.perm); got != tc.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckPermission_ReturnsAuthorizationKind(t *testing.T) {
	ctx := WithRole(context.Background(), RoleClient)
	err := CheckPermission(ctx, PermissionMaterialize)
	if !errors.Is(err, timeline.ErrAuthorization) {
		t.Fatalf("err = %v, want ErrAuthorization", err)
	}
	if err := CheckPermission(WithRole(context.Background(), RolePlanner), PermissionMaterialize); err != nil {
		t.Fatalf("planner should materialize: %v", err)
	}
}

func TestRBAC_CanEdit(t *testing.T) {
	task := &timeline.TaskInstance{
		ClientID:        "client-1",
		AssigneeType:    timeline.AssigneeClient,
		AssigneeID:      "user-c",
		CreatedByUserID: "user-p",
	}
	rbac := NewRBAC()

	cases := []struct {
		name  string
		role  string
		actor string
		want  bool
	}{
		{"planner edits anything", RolePlanner, "user-x", true},
		{"client assignee", RoleClient, "user-c", true},
		{"client stranger", RoleClient, "user-z", false},
		{"no role", "", "user-c", false},
	}
	for _, tc := range cases {
		ctx := WithRole(context.Background(), tc.role)
		if got := rbac.CanEdit(ctx, tc.actor, task); got != tc.want {
			t.Errorf("%s: CanEdit = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRBAC_CanDeleteAndModerate(t *testing.T) {
	rbac := NewRBAC()
	admin := WithRole(context.Background(), RoleTenantAdmin)
	planner := WithRole(context.Background(), RolePlanner)
	client := WithRole(context.Background(), RoleClient)

	if !rbac.CanDelete(admin, "a", &timeline.TaskInstance{}) {
		t.Errorf("tenant admin should delete")
	}
	if rbac.CanDelete(planner, "p", &timeline.TaskInstance{}) {
		t.Errorf("planner should not delete others' tasks")
	}
	if !rbac.CanModerateComment(planner, "p", &timeline.Comment{}) {
		t.Errorf("planner should moderate comments")
	}
	if rbac.CanModerateComment(client, "c", &timeline.Comment{}) {
		t.Errorf("client should not moderate comments")
	}
}
