package httpapi

import (
	"net/http"

	"procodus.dev/fleet-inventory/internal/inventory"
)

func (a *api) createTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	tenant, err := a.svc.CreateTenant(r.Context(), inventory.CreateTenantInput{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (a *api) listTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := a.svc.ListTenants(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (a *api) getTenant(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	tenant, err := a.svc.GetTenant(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (a *api) updateTenant(w http.ResponseWriter, r *http.Request) {
	id, paramErr := parseUUIDParam(r, "id")

	var req updateTenantRequest
	if err := collectValidation(paramErr, decodeBody(r, &req)); err != nil {
		a.writeError(w, r, err)
		return
	}

	tenant, err := a.svc.UpdateTenant(r.Context(), id, inventory.UpdateTenantInput{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (a *api) deleteTenant(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.svc.DeleteTenant(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
