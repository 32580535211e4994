package auth

import "errors"

// RBAC роли и разрешения
const (
	RoleAdmin     = "admin"
	RoleTreasurer = "treasurer"
	RoleVolunteer = "volunteer"
)

const (
	PermDonationsRead  = "donations:read"
	PermDonationsWrite = "donations:write" // ручной запуск сверки
)

// Permissions список разрешений
var Permissions = map[string][]string{
	RoleAdmin: {
		PermDonationsRead,
		PermDonationsWrite,
	},
	RoleTreasurer: {
		PermDonationsRead,
		PermDonationsWrite,
	},
	RoleVolunteer: {
		PermDonationsRead,
	},
}

// HasPermission проверяет есть ли у роли указанное разрешение
func HasPermission(role, permission string) bool {
	permissions, exists := Permissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CanPerformAction проверяет может ли пользователь выполнить действие
func CanPerformAction(claims *Claims, permission string) bool {
	return HasPermission(claims.Role, permission)
}

func IsAdmin(claims *Claims) bool {
	return claims.Role == RoleAdmin
}

// ValidateRole проверяет валидность роли
func ValidateRole(role string) error {
	switch role {
	case RoleAdmin, RoleTreasurer, RoleVolunteer:
		return nil
	default:
		return errors.New("invalid role")
	}
}
