package userservice

func (s *Session) IsAnonymous() bool {
	return s == nil || s == AnonymousSession
}

func (u *User) HasPermission(permission Permission) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}

	return false
}

func (s *Session) HasPermission(permission Permission) bool {
	if s.IsAnonymous() {
		return false
	}
	return s.User.HasPermission(permission)
}

func rolePermissions(role Role) Permissions {
	switch role {
	case RoleAdmin, RoleEditor:
		return Permissions{PermissionWritePost}
	}
	return Permissions{}
}
