package netsuite

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/glean"
)

// FetchResult holds the documents built from every object type
type FetchResult struct {
	Documents []glean.Document

	// Counts is the number of distinct records per object type name
	Counts map[string]int
}

// ListUserEmails returns the distinct emails of employees with NetSuite access
func (c *Client) ListUserEmails(ctx context.Context, creds credentials.CredentialSet) ([]string, error) {
	rows, err := c.newSession(creds).queryObject(ctx, "employee", employeeQuery)
	if err != nil {
		return nil, err
	}
	return distinctEmails(rows), nil
}

// FetchDocuments fetches every object type and maps the records to documents.
// Any failed query fails the whole fetch.
func (c *Client) FetchDocuments(ctx context.Context, creds credentials.CredentialSet) (*FetchResult, error) {
	s := c.newSession(creds)

	var permRows, employeeRows []Row
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		permRows, err = s.queryObject(gctx, "role permissions", rolePermissionsQuery)
		return err
	})
	g.Go(func() error {
		var err error
		employeeRows, err = s.queryObject(gctx, "employee", employeeQuery)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	builder := &documentBuilder{
		appURL:      c.appBaseURL(creds),
		datasource:  c.datasource,
		permissions: buildPermissionMap(permRows, c.datasource),
		allUsers:    allowedUsersFromEmployees(employeeRows, c.datasource),
	}

	perType := make([][]glean.Document, len(ObjectTypes))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)
	for i, o := range ObjectTypes {
		g.Go(func() error {
			rows, err := s.queryObject(gctx, o.Name, o.Query)
			if err != nil {
				return err
			}
			perType[i] = builder.buildAll(o, rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &FetchResult{Counts: make(map[string]int, len(ObjectTypes))}
	for i, o := range ObjectTypes {
		result.Counts[o.Name] = len(perType[i])
		result.Documents = append(result.Documents, perType[i]...)
	}

	slog.InfoContext(ctx, "Fetched NetSuite records",
		"account_id", creds.AccountID,
		"documents", len(result.Documents),
		"object_types", len(result.Counts))
	return result, nil
}

func (c *Client) appBaseURL(creds credentials.CredentialSet) string {
	if c.appURL != "" {
		return c.appURL
	}
	return fmt.Sprintf("https://%s.app.netsuite.com", creds.HostAccountID())
}
