package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"fieldbook.org/internal/access"
	"fieldbook.org/internal/audit"
)

type createOrganizationRequest struct {
	Name     string `json:"name"`
	LeaderID string `json:"leader_id"`
}

type renameOrganizationRequest struct {
	Name string `json:"name"`
}

type setRoleRequest struct {
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
}

type requestGrantRequest struct {
	OwnerID string `json:"owner_id"`
	CanView bool   `json:"can_view"`
	CanEdit bool   `json:"can_edit"`
}

func (a *API) audit(r *http.Request, event, resourceType, resourceID string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["resource_type"] = resourceType
	fields["resource_id"] = resourceID
	_ = audit.LogEvent(r.Context(), event, fields)
}

func (a *API) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		var req createOrganizationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		org, err := a.directory.CreateOrganization(r.Context(), req.Name, req.LeaderID)
		if err != nil {
			if org.ID != "" {
				// The organization exists but the leader promotion failed.
				// Surface the partial state instead of pretending success.
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"error":        err.Error(),
					"organization": org,
				})
				return
			}
			handleAccessError(w, r, err)
			return
		}
		a.audit(r, "directory.organization.create", "organization", org.ID, map[string]any{
			"name":      org.Name,
			"leader_id": org.LeaderID,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/organizations/%s", org.ID))
		writeJSON(w, http.StatusCreated, org)

	case http.MethodGet:
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		orgs, err := a.directory.ListOrganizations(r.Context())
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"organizations": orgs})

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrganizationScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/organizations/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	orgID := parts[0]

	if len(parts) == 2 && parts[1] == "members" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		caller, ok := currentProfile(w, r)
		if !ok {
			return
		}
		// Admins see any organization; a leader sees only their own.
		if caller.Role != access.RoleAdmin && !(caller.Role == access.RoleOrgLeader && caller.OrganizationID == orgID) {
			writeError(w, r, http.StatusForbidden, "insufficient role")
			return
		}
		members, err := a.directory.MembersOf(r.Context(), orgID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})
		return
	}

	if len(parts) != 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		org, err := a.directory.GetOrganization(r.Context(), orgID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, org)

	case http.MethodPut:
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		var req renameOrganizationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		org, err := a.directory.RenameOrganization(r.Context(), orgID, req.Name)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		a.audit(r, "directory.organization.rename", "organization", org.ID, map[string]any{
			"name": org.Name,
		})
		writeJSON(w, http.StatusOK, org)

	case http.MethodDelete:
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		if err := a.directory.DeleteOrganization(r.Context(), orgID); err != nil {
			handleAccessError(w, r, err)
			return
		}
		a.audit(r, "directory.organization.delete", "organization", orgID, nil)
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	profiles, err := a.profiles.ListProfiles(r.Context())
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (a *API) handleProfileScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/profiles/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")

	if len(parts) == 1 && parts[0] == "me" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		caller, ok := currentProfile(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, caller)
		return
	}

	actorID := parts[0]
	if len(parts) == 2 && parts[1] == "role" {
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		var req setRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.profiles.SetRoleAndOrganization(r.Context(), actorID, req.Role, req.OrganizationID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		a.audit(r, "profile.role.set", "profile", actorID, map[string]any{
			"role":            req.Role,
			"organization_id": req.OrganizationID,
		})
		writeJSON(w, http.StatusOK, updated)
		return
	}

	if len(parts) != 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	caller, ok := currentProfile(w, r)
	if !ok {
		return
	}
	if caller.ID != actorID && caller.Role != access.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "insufficient role")
		return
	}
	p, err := a.profiles.GetProfile(r.Context(), actorID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleGrants(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentProfile(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req requestGrantRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		g, err := a.grants.RequestGrant(r.Context(), req.OwnerID, caller.ID, req.CanView, req.CanEdit)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		a.audit(r, "ledger.grant.request", "grant", g.ID, map[string]any{
			"from_user_id": g.FromUserID,
			"can_view":     g.CanView,
			"can_edit":     g.CanEdit,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/grants/%s", g.ID))
		writeJSON(w, http.StatusCreated, g)

	case http.MethodGet:
		direction := strings.TrimSpace(r.URL.Query().Get("direction"))
		var (
			grants []access.PermissionGrant
			err    error
		)
		switch direction {
		case "", "incoming":
			grants, err = a.grants.ListIncoming(r.Context(), caller.ID)
		case "outgoing":
			grants, err = a.grants.ListOutgoing(r.Context(), caller.ID)
		default:
			writeError(w, r, http.StatusBadRequest, "direction must be incoming or outgoing")
			return
		}
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"grants": grants})

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleGrantScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/grants/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	caller, ok := currentProfile(w, r)
	if !ok {
		return
	}
	grantID := parts[0]

	var (
		g   access.PermissionGrant
		err error
	)
	switch parts[1] {
	case "approve":
		g, err = a.grants.Approve(r.Context(), grantID, caller.ID)
	case "reject":
		g, err = a.grants.Reject(r.Context(), grantID, caller.ID)
	case "revoke":
		g, err = a.grants.Revoke(r.Context(), grantID, caller.ID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	a.audit(r, "ledger.grant."+parts[1], "grant", g.ID, map[string]any{
		"to_user_id": g.ToUserID,
		"status":     string(g.Status),
	})
	writeJSON(w, http.StatusOK, g)
}

func (a *API) handleScope(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	caller, ok := currentProfile(w, r)
	if !ok {
		return
	}
	scope, err := a.resolver.ResolveScope(r.Context(), caller)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actor_id":   caller.ID,
		"owner_ids":  scope.IDs(),
		"chunk_size": access.DefaultScopeChunkSize,
	})
}

func (a *API) handleCanMutate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	caller, ok := currentProfile(w, r)
	if !ok {
		return
	}
	ownerID := strings.TrimSpace(r.URL.Query().Get("owner"))
	if ownerID == "" {
		writeError(w, r, http.StatusBadRequest, "owner query parameter is required")
		return
	}
	allowed, err := a.resolver.CanMutate(r.Context(), caller, ownerID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner_id": ownerID,
		"allowed":  allowed,
	})
}
