// Package access decides, per incident and per request, whether a caller
// may read or mutate the incident's protected state and which author role
// they act as. Reporter ownership is a capability: bearing the incident's
// edit token is sufficient, independent of any login mechanism.
package access

import "github.com/wittawat/incident_map_system/internal/models"

// Role is a verified role claim attached to the request by the officer
// dashboard's API-key middleware.
type Role string

const (
	RoleReporter Role = "REPORTER"
	RoleOfficer  Role = "OFFICER"
	RoleAdmin    Role = "ADMIN"
)

// Decision is the guard's outcome. ActingAs is only meaningful when
// Permitted is true.
type Decision struct {
	Permitted bool
	ActingAs  string
}

// Authorize applies one uniform rule for message-read, message-post and
// status-update:
//   - A caller on the officer channel with a verified OFFICER or ADMIN
//     claim is permitted regardless of any token, acting as OFFICER.
//   - Otherwise the caller must present a non-empty token exactly equal
//     to the incident's stored edit token, acting as REPORTER.
//   - Anything else is denied.
func Authorize(officerChannel bool, roles []Role, presentedToken, incidentEditToken string) Decision {
	if officerChannel {
		for _, r := range roles {
			if r == RoleOfficer || r == RoleAdmin {
				return Decision{Permitted: true, ActingAs: models.AuthorOfficer}
			}
		}
	}

	if presentedToken != "" && incidentEditToken != "" && presentedToken == incidentEditToken {
		return Decision{Permitted: true, ActingAs: models.AuthorReporter}
	}

	return Decision{}
}
