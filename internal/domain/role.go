package domain

// Role enumerates the parties that act on a ticket. The set is closed:
// thread access is a pure function of Role, never a per-call conditional.
type Role string

const (
	RoleReporter       Role = "REPORTER"
	RoleAnalyst        Role = "ANALYST"
	RoleAuthority      Role = "AUTHORITY"
	RoleAuthorityAdmin Role = "AUTHORITY_ADMIN"
	RoleAdmin          Role = "ADMIN"

	// RoleSystem is reserved for audit messages authored by the engine.
	RoleSystem Role = "SYSTEM"
)

// ValidRole reports whether r is an assignable account role. The system
// role is reserved and never valid for an account.
func ValidRole(r Role) bool {
	switch r {
	case RoleReporter, RoleAnalyst, RoleAuthority, RoleAuthorityAdmin, RoleAdmin:
		return true
	}
	return false
}

// Staff reports whether the role is an internal operator role.
func (r Role) Staff() bool {
	switch r {
	case RoleAnalyst, RoleAuthority, RoleAuthorityAdmin, RoleAdmin:
		return true
	}
	return false
}

// CanResolve reports whether the role may move a ticket to RESOLVED.
func (r Role) CanResolve() bool {
	return r == RoleAnalyst || r == RoleAuthority || r == RoleAuthorityAdmin || r == RoleAdmin
}

// CanClose reports whether the role may close a resolved ticket.
func (r Role) CanClose() bool {
	return r == RoleAuthority || r == RoleAuthorityAdmin || r == RoleAdmin
}

var allowedThreads = map[Role][]Thread{
	RoleReporter:       {ThreadAll, ThreadReporterAnalyst},
	RoleAnalyst:        {ThreadAll, ThreadReporterAnalyst, ThreadAuthorityAnalyst, ThreadInternal},
	RoleAuthority:      {ThreadAll, ThreadAuthorityAnalyst, ThreadInternal},
	RoleAuthorityAdmin: {ThreadAll, ThreadAuthorityAnalyst, ThreadInternal},
	RoleAdmin:          {ThreadAll, ThreadAuthorityAnalyst, ThreadInternal},
	RoleSystem:         {ThreadAll, ThreadReporterAnalyst, ThreadAuthorityAnalyst, ThreadInternal},
}

// AllowedThreads returns the thread channels the role may use. Unknown roles
// fall back to the all thread only.
func AllowedThreads(role Role) []Thread {
	threads, ok := allowedThreads[role]
	if !ok {
		return []Thread{ThreadAll}
	}
	return threads
}

// ThreadAllowed reports whether the role may use the given thread channel.
func ThreadAllowed(role Role, thread Thread) bool {
	for _, t := range AllowedThreads(role) {
		if t == thread {
			return true
		}
	}
	return false
}
