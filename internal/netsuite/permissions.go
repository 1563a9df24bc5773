package netsuite

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gleansync/ns-glean-sync/internal/glean"
)

// PermissionMap lists the users allowed to see records, by object type then subsidiary id
type PermissionMap map[string]map[string][]glean.AllowedUser

// Users returns the allowed users for a record of objectType in subsidiary
func (p PermissionMap) Users(objectType, subsidiary string) []glean.AllowedUser {
	return p[objectType][subsidiary]
}

// buildPermissionMap groups role permission rows by object type and subsidiary.
// Rows missing a permission, email or subsidiary restriction are skipped.
func buildPermissionMap(rows []Row, datasource string) PermissionMap {
	result := PermissionMap{}
	for _, row := range rows {
		permission := stringValue(row["permission_name"])
		email := stringValue(row["email"])
		restriction := stringValue(row["role_subsidiary_restriction"])
		if permission == "" || email == "" || restriction == "" {
			continue
		}

		objectType, ok := objectTypeForPermission(permission)
		if !ok {
			continue
		}

		bySubsidiary, ok := result[objectType]
		if !ok {
			bySubsidiary = map[string][]glean.AllowedUser{}
			result[objectType] = bySubsidiary
		}

		user := glean.AllowedUser{Email: email, DatasourceUserID: datasource}
		for _, sub := range strings.Split(restriction, ",") {
			sub = strings.TrimSpace(sub)
			if sub == "" || containsUser(bySubsidiary[sub], user) {
				continue
			}
			bySubsidiary[sub] = append(bySubsidiary[sub], user)
		}
	}
	return result
}

// allowedUsersFromEmployees turns employee rows into the user list for
// records every employee may see.
func allowedUsersFromEmployees(rows []Row, datasource string) []glean.AllowedUser {
	emails := distinctEmails(rows)
	users := make([]glean.AllowedUser, 0, len(emails))
	for _, email := range emails {
		users = append(users, glean.AllowedUser{Email: email, DatasourceUserID: datasource})
	}
	return users
}

// distinctEmails returns the non-empty emails in first-seen order
func distinctEmails(rows []Row) []string {
	seen := make(map[string]struct{}, len(rows))
	var emails []string
	for _, row := range rows {
		email := strings.TrimSpace(stringValue(row["email"]))
		if email == "" {
			continue
		}
		key := strings.ToLower(email)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		emails = append(emails, email)
	}
	return emails
}

func containsUser(users []glean.AllowedUser, user glean.AllowedUser) bool {
	for _, u := range users {
		if u == user {
			return true
		}
	}
	return false
}

// stringValue renders a SuiteQL column value as text; null is empty
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
