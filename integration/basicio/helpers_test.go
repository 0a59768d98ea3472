package basicio_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bengeek06/waterfall-e2e/integration/harness"
	"github.com/bengeek06/waterfall-e2e/internal/client"
)

const (
	exportPath = "/api/basic-io/export"
	importPath = "/api/basic-io/import"

	unitsPath     = "/api/identity/organization_units"
	positionsPath = "/api/identity/positions"
	usersPath     = "/api/identity/users"
)

// importResult mirrors the basic-io import response envelope.
type importResult struct {
	ImportReport struct {
		Total     int               `json:"total"`
		Success   int               `json:"success"`
		Failed    int               `json:"failed"`
		IDMapping map[string]string `json:"id_mapping"`
	} `json:"import_report"`
	ResolutionReport struct {
		Resolved  int              `json:"resolved"`
		Ambiguous int              `json:"ambiguous"`
		Missing   int              `json:"missing"`
		Details   []map[string]any `json:"details"`
	} `json:"resolution_report"`
}

// importFile posts content as the import file with the given form fields
// and decodes the report envelope.
func importFile(ctx context.Context, t *testing.T, h *harness.Harness, name string, content []byte, fields map[string]string) (*client.Response, importResult) {
	t.Helper()

	resp, err := h.Client.PostMultipart(ctx, importPath, fields, &client.File{
		Field:   "file",
		Name:    name,
		Content: content,
	})
	require.NoError(t, err)

	var result importResult
	if len(resp.Body) > 0 {
		require.NoError(t, resp.JSON(&result), "unparseable import response: %s", resp.Text())
	}
	return resp, result
}

// deferMapped registers cleanup deletes for every resource an import
// created, newest-first is irrelevant here since mapped records are
// siblings.
func deferMapped(h *harness.Harness, resourcePath string, idMapping map[string]string) {
	for _, id := range idMapping {
		h.DeferDelete(resourcePath + "/" + id)
	}
}

func createUnit(ctx context.Context, t *testing.T, h *harness.Harness, name, parentID string) map[string]any {
	t.Helper()
	body := map[string]any{
		"name":       name,
		"company_id": h.User.CompanyID,
	}
	if parentID != "" {
		body["parent_id"] = parentID
	}
	resp, err := h.Client.PostJSON(ctx, unitsPath, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Status, "create unit failed: %s", resp.Text())

	unit, err := resp.JSONMap()
	require.NoError(t, err)
	h.DeferDelete(unitsPath + "/" + unit["id"].(string))
	return unit
}

func createPosition(ctx context.Context, t *testing.T, h *harness.Harness, title, unitID string) map[string]any {
	t.Helper()
	resp, err := h.Client.PostJSON(ctx, positionsPath, map[string]any{
		"title":                title,
		"organization_unit_id": unitID,
		"company_id":           h.User.CompanyID,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Status, "create position failed: %s", resp.Text())

	position, err := resp.JSONMap()
	require.NoError(t, err)
	h.DeferDelete(positionsPath + "/" + position["id"].(string))
	return position
}

func createUser(ctx context.Context, t *testing.T, h *harness.Harness, email, positionID string) map[string]any {
	t.Helper()
	body := map[string]any{
		"email":      email,
		"password":   "TestPassword123!",
		"first_name": "Export",
		"last_name":  "Fixture",
		"company_id": h.User.CompanyID,
	}
	if positionID != "" {
		body["position_id"] = positionID
	}
	resp, err := h.Client.PostJSON(ctx, usersPath, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Status, "create user failed: %s", resp.Text())

	user, err := resp.JSONMap()
	require.NoError(t, err)
	h.DeferDelete(usersPath + "/" + user["id"].(string))
	return user
}

// candidateCount tolerates both representations of ambiguity details: a
// candidate list or a plain count.
func candidateCount(v any) int {
	switch c := v.(type) {
	case []any:
		return len(c)
	case float64:
		return int(c)
	default:
		return 0
	}
}
