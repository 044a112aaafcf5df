package policy

// Kind selects which grant table a code is checked against
type Kind string

const (
	KindPermission Kind = "permission"
	KindRole       Kind = "role"
)

// Logic combines the per-code results of a requirement
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Requirement describes what a caller must hold to pass a route's policy
// check: a set of codes combined with AND or OR semantics
type Requirement struct {
	Codes []string
	Logic Logic
	Kind  Kind
}

// Empty reports whether the requirement constrains anything
func (r Requirement) Empty() bool {
	return len(r.Codes) == 0
}

// AllPermissions requires every listed permission code
func AllPermissions(codes ...string) Requirement {
	return Requirement{Codes: codes, Logic: LogicAnd, Kind: KindPermission}
}

// AnyPermission requires at least one of the listed permission codes
func AnyPermission(codes ...string) Requirement {
	return Requirement{Codes: codes, Logic: LogicOr, Kind: KindPermission}
}

// AllRoles requires every listed role code
func AllRoles(codes ...string) Requirement {
	return Requirement{Codes: codes, Logic: LogicAnd, Kind: KindRole}
}

// AnyRole requires at least one of the listed role codes
func AnyRole(codes ...string) Requirement {
	return Requirement{Codes: codes, Logic: LogicOr, Kind: KindRole}
}
