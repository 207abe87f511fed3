package http

import (
	"net/http"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/service"
)

// PropertyHandler serves the owner's properties and tenants
type PropertyHandler struct {
	propertySvc service.PropertyService
	tenantSvc   service.TenantService
}

func NewPropertyHandler(propertySvc service.PropertyService, tenantSvc service.TenantService) *PropertyHandler {
	return &PropertyHandler{propertySvc: propertySvc, tenantSvc: tenantSvc}
}

type propertyRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Address      string `json:"address" validate:"max=500"`
	City         string `json:"city" validate:"max=100"`
	PropertyType string `json:"property_type" validate:"omitempty,property_type"`
	Units        int    `json:"units" validate:"gte=0,lte=10000"`
}

func (req propertyRequest) toDomain() *domain.Property {
	return &domain.Property{
		Name:         req.Name,
		Address:      req.Address,
		City:         req.City,
		PropertyType: domain.PropertyType(req.PropertyType),
		Units:        req.Units,
	}
}

type tenantRequest struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Phone    string `json:"phone" validate:"max=32"`
}

func (req tenantRequest) toDomain() *domain.Tenant {
	return &domain.Tenant{FullName: req.FullName, Email: req.Email, Phone: req.Phone}
}

func (h *PropertyHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	props, err := h.propertySvc.List(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req propertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	prop := req.toDomain()
	prop.OwnerID = p.UserID
	if err := h.propertySvc.Create(r.Context(), prop); err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, prop)
}

func (h *PropertyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	prop, err := h.propertySvc.Get(r.Context(), p.UserID, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (h *PropertyHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req propertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	prop := req.toDomain()
	prop.ID, prop.OwnerID = id, p.UserID
	if err := h.propertySvc.Update(r.Context(), prop); err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (h *PropertyHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := h.propertySvc.Delete(r.Context(), p.UserID, id); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PropertyHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	tenants, err := h.tenantSvc.List(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (h *PropertyHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req tenantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	t := req.toDomain()
	t.OwnerID = p.UserID
	if err := h.tenantSvc.Create(r.Context(), t); err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *PropertyHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	t, err := h.tenantSvc.Get(r.Context(), p.UserID, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *PropertyHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req tenantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	t := req.toDomain()
	t.ID, t.OwnerID = id, p.UserID
	if err := h.tenantSvc.Update(r.Context(), t); err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
