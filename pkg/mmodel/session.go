package mmodel

// Session is the explicit per-request identity passed to every storage call.
// It replaces any ambient thread-local state: the resolver, the auth gate and
// the vector adapter only ever see what the caller put here.
type Session struct {
	UserID string `json:"userId"`
	Tenant string `json:"tenant"`
	// Kernel marks privileged initialization (schema load, seed data) that
	// bypasses per-row authorization.
	Kernel bool `json:"kernel,omitempty"`
	// NeedAuthCheck gates the auth machinery entirely; callers that already
	// authorized upstream set it to false.
	NeedAuthCheck bool `json:"needAuthCheck"`
}

// KernelSession returns a privileged session for schema load and seeding.
func KernelSession(tenant string) Session {
	return Session{Tenant: tenant, Kernel: true}
}

// UserSession returns a normal session with per-row authorization enabled.
func UserSession(userID, tenant string) Session {
	return Session{UserID: userID, Tenant: tenant, NeedAuthCheck: true}
}

// Bypass reports whether authorization checks are skipped for this session.
func (s Session) Bypass() bool {
	return s.Kernel || !s.NeedAuthCheck
}
