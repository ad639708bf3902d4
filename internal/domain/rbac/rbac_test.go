package rbac

import (
	"reflect"
	"testing"
)

// TestCanManage перебирает все пары ролей решётки старшинства.
func TestCanManage(t *testing.T) {
	tests := []struct {
		name   string
		actor  string
		target string
		want   bool
	}{
		{"super_admin управляет admin", RoleSuperAdmin, RoleAdmin, true},
		{"super_admin управляет recepcionista", RoleSuperAdmin, RoleRecepcion, true},
		{"super_admin управляет cliente", RoleSuperAdmin, RoleCliente, true},
		{"super_admin не управляет super_admin", RoleSuperAdmin, RoleSuperAdmin, false},
		{"admin управляет recepcionista", RoleAdmin, RoleRecepcion, true},
		{"admin управляет cliente", RoleAdmin, RoleCliente, true},
		{"admin не управляет admin", RoleAdmin, RoleAdmin, false},
		{"admin не управляет super_admin", RoleAdmin, RoleSuperAdmin, false},
		{"recepcionista управляет только cliente", RoleRecepcion, RoleCliente, true},
		{"recepcionista не управляет recepcionista", RoleRecepcion, RoleRecepcion, false},
		{"recepcionista не управляет admin", RoleRecepcion, RoleAdmin, false},
		{"cliente не управляет никем", RoleCliente, RoleCliente, false},
		{"cliente не управляет cliente ниже нет", RoleCliente, RoleRecepcion, false},
		{"неизвестная роль актора", "viewer", RoleCliente, false},
		{"неизвестная роль цели", RoleSuperAdmin, "viewer", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanManage(tt.actor, tt.target); got != tt.want {
				t.Errorf("CanManage(%q, %q) = %v, ожидалось %v", tt.actor, tt.target, got, tt.want)
			}
		})
	}
}

func TestIsStaff(t *testing.T) {
	staff := []string{RoleSuperAdmin, RoleAdmin, RoleRecepcion}
	for _, r := range staff {
		if !IsStaff(r) {
			t.Errorf("IsStaff(%q) = false, ожидалось true", r)
		}
	}
	if IsStaff(RoleCliente) {
		t.Error("IsStaff(cliente) = true, cliente не персонал")
	}
	if IsStaff("unknown") {
		t.Error("IsStaff(unknown) = true для неизвестной роли")
	}
}

func TestManageableRoles(t *testing.T) {
	tests := []struct {
		name  string
		actor string
		want  []string
	}{
		{"super_admin", RoleSuperAdmin, []string{RoleAdmin, RoleRecepcion, RoleCliente}},
		{"admin", RoleAdmin, []string{RoleRecepcion, RoleCliente}},
		{"recepcionista", RoleRecepcion, []string{RoleCliente}},
		{"cliente", RoleCliente, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ManageableRoles(tt.actor); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ManageableRoles(%q) = %v, ожидалось %v", tt.actor, got, tt.want)
			}
		})
	}
}

func TestFieldVisibility(t *testing.T) {
	if !CanViewRestrictedFields(RoleAdmin) || !CanViewRestrictedFields(RoleSuperAdmin) {
		t.Error("admin/super_admin должны видеть ограниченные поля")
	}
	if CanViewRestrictedFields(RoleRecepcion) || CanViewRestrictedFields(RoleCliente) {
		t.Error("recepcionista/cliente не должны видеть ограниченные поля")
	}
}

func TestAuditLogVisibility(t *testing.T) {
	if !CanViewAuditLog(RoleSuperAdmin) {
		t.Error("super_admin должен видеть журнал аудита")
	}
	for _, r := range []string{RoleAdmin, RoleRecepcion, RoleCliente} {
		if CanViewAuditLog(r) {
			t.Errorf("роль %q не должна видеть журнал аудита", r)
		}
	}
}

func TestStorageConfigAccess(t *testing.T) {
	if !CanEditStorageConfig(RoleAdmin) || !CanEditStorageConfig(RoleSuperAdmin) {
		t.Error("admin/super_admin должны редактировать конфигурацию хранения")
	}
	if CanEditStorageConfig(RoleRecepcion) {
		t.Error("recepcionista не редактирует конфигурацию хранения")
	}
	if !CanViewStorageConfig(RoleRecepcion) {
		t.Error("recepcionista должен видеть конфигурацию хранения")
	}
	if CanViewStorageConfig(RoleCliente) {
		t.Error("cliente не видит конфигурацию хранения")
	}
}
