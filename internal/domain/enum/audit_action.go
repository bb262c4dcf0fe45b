package enum

// AuditAction classifies an audit log entry.
type AuditAction string

const (
	AuditActionCreate     AuditAction = "create"
	AuditActionUpdate     AuditAction = "update"
	AuditActionDelete     AuditAction = "delete"
	AuditActionPayment    AuditAction = "payment"
	AuditActionRoleChange AuditAction = "role_change"
	AuditActionLogin      AuditAction = "login"
	AuditActionLogout     AuditAction = "logout"
	AuditActionSync       AuditAction = "sync"
)

func (a AuditAction) String() string {
	return string(a)
}

// ConnectivityMode records whether the actor's session was online or
// offline at the time of a mutation.
type ConnectivityMode string

const (
	ModeOnline  ConnectivityMode = "online"
	ModeOffline ConnectivityMode = "offline"
)

func (m ConnectivityMode) String() string {
	return string(m)
}
