package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"fieldbook.org/internal/records"
)

func (a *API) handleFields(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentProfile(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		fields, err := a.records.ListFields(r.Context(), caller)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"fields": fields})

	case http.MethodPost:
		var in records.FieldInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		f, err := a.records.CreateField(r.Context(), caller, in)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		a.audit(r, "records.field.create", "field", f.ID, map[string]any{
			"name": f.Name,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/fields/%s", f.ID))
		writeJSON(w, http.StatusCreated, f)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleFieldScoped(w http.ResponseWriter, r *http.Request) {
	fieldID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/fields/"), "/")
	if fieldID == "" || strings.Contains(fieldID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	caller, ok := currentProfile(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPut:
		var in records.FieldInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		f, err := a.records.UpdateField(r.Context(), caller, fieldID, in)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		a.audit(r, "records.field.update", "field", f.ID, nil)
		writeJSON(w, http.StatusOK, f)

	case http.MethodDelete:
		if err := a.records.DeleteField(r.Context(), caller, fieldID); err != nil {
			handleAccessError(w, r, err)
			return
		}
		a.audit(r, "records.field.delete", "field", fieldID, nil)
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleWorkRecords(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentProfile(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		work, err := a.records.ListWork(r.Context(), caller)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"work_records": work})

	case http.MethodPost:
		var in records.WorkRecordInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		rec, err := a.records.CreateWork(r.Context(), caller, in)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		a.audit(r, "records.work.create", "work_record", rec.ID, map[string]any{
			"work_type": rec.WorkType,
			"date":      rec.Date,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/work-records/%s", rec.ID))
		writeJSON(w, http.StatusCreated, rec)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleWorkRecordScoped(w http.ResponseWriter, r *http.Request) {
	workID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/work-records/"), "/")
	if workID == "" || strings.Contains(workID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	caller, ok := currentProfile(w, r)
	if !ok {
		return
	}
	if err := a.records.DeleteWork(r.Context(), caller, workID); err != nil {
		handleAccessError(w, r, err)
		return
	}
	a.audit(r, "records.work.delete", "work_record", workID, nil)
	w.WriteHeader(http.StatusNoContent)
}
