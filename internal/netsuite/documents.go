package netsuite

import (
	"fmt"

	"github.com/gleansync/ns-glean-sync/internal/glean"
)

const (
	untitled       = "Untitled"
	unknownIDValue = "unknown"
)

// dedupe keeps the last row for each internalid, in the order ids were first seen.
// Rows without an internalid are kept as they are.
func dedupe(rows []Row) []Row {
	index := make(map[string]int, len(rows))
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		id := stringValue(row["internalid"])
		if id == "" {
			out = append(out, row)
			continue
		}
		if i, ok := index[id]; ok {
			out[i] = row
			continue
		}
		index[id] = len(out)
		out = append(out, row)
	}
	return out
}

// documentBuilder maps SuiteQL rows to Glean documents for one account
type documentBuilder struct {
	appURL      string
	datasource  string
	permissions PermissionMap
	allUsers    []glean.AllowedUser
}

func (b *documentBuilder) build(o ObjectType, row Row) glean.Document {
	internalID := stringValue(row["internalid"])

	titleValue := unknownIDValue
	title := untitled
	if len(o.Keys) > 0 {
		if v, ok := row[o.Keys[0]]; ok && v != nil {
			titleValue = stringValue(v)
			title = titleValue
		}
	}
	idValue := internalID
	if idValue == "" {
		idValue = unknownIDValue
	}

	allowed := b.allUsers
	if !o.AllUsers {
		allowed = b.permissions.Users(o.Name, stringValue(row["subsidiary"]))
	}
	if allowed == nil {
		allowed = []glean.AllowedUser{}
	}

	props := make([]glean.CustomProperty, 0, len(o.Keys))
	for _, key := range o.Keys {
		value, ok := row[key]
		if !ok || value == nil {
			value = ""
		}
		props = append(props, glean.CustomProperty{Name: key, Value: value})
	}

	return glean.Document{
		ID:         fmt.Sprintf("DOCNS_%s_%s", titleValue, idValue),
		Datasource: b.datasource,
		ObjectType: o.Name,
		Title:      title,
		ViewURL:    fmt.Sprintf("%s/app/%s?id=%s", b.appURL, o.ViewPath(), internalID),
		Permissions: glean.Permissions{
			AllowedUsers:                  allowed,
			AllowAnonymousAccess:          false,
			AllowAllDatasourceUsersAccess: true,
		},
		CustomProperties: props,
	}
}

func (b *documentBuilder) buildAll(o ObjectType, rows []Row) []glean.Document {
	unique := dedupe(rows)
	docs := make([]glean.Document, 0, len(unique))
	for _, row := range unique {
		docs = append(docs, b.build(o, row))
	}
	return docs
}
