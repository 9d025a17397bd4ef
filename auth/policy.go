package auth

// Capability names an action guarded by the access policy.
type Capability string

const (
	ManagePosts Capability = "posts:manage"
)

const RoleAdmin = "admin"

// Principal is anything carrying role names, usually a *database.User.
type Principal interface {
	RoleNames() []string
}

type Authorizer interface {
	Can(p Principal, c Capability) bool
}

// RolePolicy maps role names to the capabilities they grant.
type RolePolicy map[string][]Capability

func DefaultPolicy() RolePolicy {
	return RolePolicy{
		RoleAdmin: {ManagePosts},
	}
}

func (p RolePolicy) Can(principal Principal, c Capability) bool {
	if principal == nil {
		return false
	}
	for _, role := range principal.RoleNames() {
		for _, granted := range p[role] {
			if granted == c {
				return true
			}
		}
	}
	return false
}
