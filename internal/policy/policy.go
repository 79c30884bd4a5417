// Package policy derives what an authenticated identity may see and change.
//
// Rules are kept in a fixed order and the first rule naming the caller's role
// wins. A role no rule names gets no capability at all.
package policy

import (
	"encoding/json"
	"strings"
)

// Role values are the ones stored in the Users table.
type Role string

const (
	RoleTeacher       Role = "guru"
	RoleStudent       Role = "siswa"
	RoleSecretary     Role = "sekertaris"
	RoleHomeroomProxy Role = "guru_wali_murid"
)

// Roles lists every valid role.
var Roles = []Role{RoleTeacher, RoleStudent, RoleSecretary, RoleHomeroomProxy}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Identity is the verified {username, role, class} carried by a credential.
// An empty Class stands for "no class".
type Identity struct {
	Username string
	Role     Role
	Class    string
}

func (id Identity) MarshalJSON() ([]byte, error) {
	wire := struct {
		Username string  `json:"username"`
		Role     Role    `json:"role"`
		Class    *string `json:"class"`
	}{Username: id.Username, Role: id.Role}
	if id.Class != "" {
		class := id.Class
		wire.Class = &class
	}
	return json.Marshal(wire)
}

// Classed is anything scoped to a class, such as an attendance record.
type Classed interface {
	ClassName() string
}

type Capabilities struct {
	// Scoped limits visibility to records of the caller's own class.
	Scoped           bool
	WriteAttendance  bool
	DeleteAttendance bool
	ManageUsers      bool
}

type rule struct {
	roles []Role
	caps  Capabilities
}

var rules = []rule{
	{
		roles: []Role{RoleTeacher},
		caps:  Capabilities{WriteAttendance: true, DeleteAttendance: true, ManageUsers: true},
	},
	{
		roles: []Role{RoleSecretary},
		caps:  Capabilities{Scoped: true, WriteAttendance: true},
	},
	{
		roles: []Role{RoleStudent, RoleHomeroomProxy},
		caps:  Capabilities{Scoped: true},
	},
}

// CapabilitiesOf returns the first matching rule's capabilities.
func CapabilitiesOf(role Role) (Capabilities, bool) {
	for _, r := range rules {
		for _, candidate := range r.roles {
			if candidate == role {
				return r.caps, true
			}
		}
	}
	return Capabilities{}, false
}

func never(Classed) bool  { return false }
func always(Classed) bool { return true }

// Visible returns the read predicate for id. It never widens access: unknown
// roles and scoped roles without a class see nothing.
func Visible(id Identity) func(Classed) bool {
	caps, ok := CapabilitiesOf(id.Role)
	if !ok {
		return never
	}
	if !caps.Scoped {
		return always
	}
	if strings.TrimSpace(id.Class) == "" {
		return never
	}
	class := id.Class
	return func(r Classed) bool {
		return r.ClassName() == class
	}
}

func CanWriteAttendance(id Identity) bool {
	caps, _ := CapabilitiesOf(id.Role)
	return caps.WriteAttendance
}

func CanDeleteAttendance(id Identity) bool {
	caps, _ := CapabilitiesOf(id.Role)
	return caps.DeleteAttendance
}

func CanManageUsers(id Identity) bool {
	caps, _ := CapabilitiesOf(id.Role)
	return caps.ManageUsers
}
