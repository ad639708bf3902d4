// Пакет rbac — решётка старшинства ролей и предикаты доступа.
// Иерархия: super_admin > admin > recepcionista > cliente.
// Роль — закрытое перечисление с явной таблицей весов,
// сравнение строк вне этой таблицы не допускается.
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleCliente    = "cliente"
	RoleRecepcion  = "recepcionista"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// roleWeight — вес роли для сравнения по старшинству.
var roleWeight = map[string]int{
	RoleCliente:    1,
	RoleRecepcion:  2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// IsStaff — true для super_admin, admin и recepcionista.
func IsStaff(role string) bool {
	return roleWeight[role] >= roleWeight[RoleRecepcion]
}

// CanManage проверяет, может ли actor администрировать учётку с ролью target.
// Управление допустимо строго вниз по решётке: super_admin не управляет
// другим super_admin, cliente не управляет никем.
func CanManage(actor, target string) bool {
	wa, okA := roleWeight[actor]
	wt, okT := roleWeight[target]
	if !okA || !okT {
		return false
	}
	return wa > wt
}

// ManageableRoles возвращает роли, доступные actor при создании
// и редактировании учёток, в порядке убывания привилегий.
func ManageableRoles(actor string) []string {
	all := []string{RoleAdmin, RoleRecepcion, RoleCliente}
	var result []string
	for _, r := range all {
		if CanManage(actor, r) {
			result = append(result, r)
		}
	}
	return result
}

// CanViewRestrictedFields — видимость полей price, supplier_info,
// internal_operational_notes (только admin и super_admin).
func CanViewRestrictedFields(role string) bool {
	return roleWeight[role] >= roleWeight[RoleAdmin]
}

// CanViewAuditLog — журнал аудита доступен только super_admin.
func CanViewAuditLog(role string) bool {
	return role == RoleSuperAdmin
}

// CanDeleteCorrespondence — удаление записей доступно admin и super_admin.
func CanDeleteCorrespondence(role string) bool {
	return roleWeight[role] >= roleWeight[RoleAdmin]
}

// CanEditStorageConfig — редактирование конфигурации вместимости.
func CanEditStorageConfig(role string) bool {
	return roleWeight[role] >= roleWeight[RoleAdmin]
}

// CanViewStorageConfig — просмотр конфигурации вместимости (весь персонал).
func CanViewStorageConfig(role string) bool {
	return IsStaff(role)
}
