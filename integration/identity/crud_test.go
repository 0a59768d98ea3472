package identity_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bengeek06/waterfall-e2e/integration/harness"
)

// crudResource describes one identity collection with standard CRUD
// semantics: list returns an array, create returns 201 with an id, PATCH
// is partial, PUT replaces, DELETE answers 204 and the record is gone.
type crudResource struct {
	// path is the collection path, e.g. /api/identity/companies.
	path string
	// nameField is the attribute the service echoes back on create.
	nameField string
	// newPayload builds a creation body with a unique name.
	newPayload func(h *harness.Harness, name string) map[string]any
}

func (r crudResource) create(ctx context.Context, t *testing.T, h *harness.Harness, name string) map[string]any {
	t.Helper()
	resp, err := h.Client.PostJSON(ctx, r.path, r.newPayload(h, name))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Status,
		"create on %s failed: %s", r.path, resp.Text())

	created, err := resp.JSONMap()
	require.NoError(t, err)
	require.Contains(t, created, "id", "no id in create response")
	h.DeferDelete(r.path + "/" + created["id"].(string))
	return created
}

// runCRUD drives the full create/read/update/delete contract for one
// resource, the way every identity collection behaves.
func runCRUD(t *testing.T, h *harness.Harness, r crudResource) {
	ctx, cancel := h.Context()
	defer cancel()

	t.Run("list", func(t *testing.T) {
		resp, err := h.Client.Get(ctx, r.path, nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status, "list failed: %s", resp.Text())

		items, err := resp.JSONList()
		require.NoError(t, err, "expected a JSON array")
		t.Logf("retrieved %d records from %s", len(items), r.path)
	})

	t.Run("create", func(t *testing.T) {
		name := harness.UniqueName("test_create")
		created := r.create(ctx, t, h, name)
		assert.Equal(t, name, created[r.nameField])
	})

	t.Run("get_by_id", func(t *testing.T) {
		name := harness.UniqueName("test_get")
		created := r.create(ctx, t, h, name)

		resp, err := h.Client.Get(ctx, r.path+"/"+created["id"].(string), nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status, "get failed: %s", resp.Text())

		fetched, err := resp.JSONMap()
		require.NoError(t, err)
		assert.Equal(t, created["id"], fetched["id"])
		assert.Equal(t, name, fetched[r.nameField])
	})

	t.Run("patch_partial_update", func(t *testing.T) {
		name := harness.UniqueName("test_patch")
		created := r.create(ctx, t, h, name)

		newDescription := "updated description " + name
		resp, err := h.Client.PatchJSON(ctx, r.path+"/"+created["id"].(string),
			map[string]any{"description": newDescription})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status, "patch failed: %s", resp.Text())

		patched, err := resp.JSONMap()
		require.NoError(t, err)
		assert.Equal(t, newDescription, patched["description"])
		// A partial update must not touch the other fields.
		assert.Equal(t, name, patched[r.nameField])
	})

	t.Run("put_full_replace", func(t *testing.T) {
		name := harness.UniqueName("test_put")
		created := r.create(ctx, t, h, name)

		replacement := r.newPayload(h, harness.UniqueName("updated"))
		replacement["description"] = "replaced"
		resp, err := h.Client.PutJSON(ctx, r.path+"/"+created["id"].(string), replacement)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status, "put failed: %s", resp.Text())

		replaced, err := resp.JSONMap()
		require.NoError(t, err)
		assert.Equal(t, replacement[r.nameField], replaced[r.nameField])
		assert.Equal(t, "replaced", replaced["description"])
	})

	t.Run("delete", func(t *testing.T) {
		name := harness.UniqueName("test_delete")
		created := r.create(ctx, t, h, name)
		id := created["id"].(string)

		resp, err := h.Client.Delete(ctx, r.path+"/"+id)
		require.NoError(t, err)
		require.Equal(t, http.StatusNoContent, resp.Status, "delete failed: %s", resp.Text())

		verify, err := h.Client.Get(ctx, r.path+"/"+id, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, verify.Status,
			"record should not exist after deletion")
	})
}
