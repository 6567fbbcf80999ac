package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/hrc-bakery/storefront/internal/catalog"
)

func (h *Handler) listCakes(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	writeJSON(w, http.StatusOK, h.catalog.Cakes(activeOnly))
}

func (h *Handler) getCake(w http.ResponseWriter, r *http.Request) {
	c, ok := h.catalog.Cake(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "cake not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type decorationsResponse struct {
	Decorations []catalog.Decoration         `json:"decorations"`
	Categories  []catalog.DecorationCategory `json:"categories"`
}

func (h *Handler) listDecorations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, decorationsResponse{
		Decorations: h.catalog.Decorations(),
		Categories:  h.catalog.Categories(),
	})
}

func (h *Handler) listZones(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Zones())
}

func (h *Handler) listContainers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalog.ContainerTypes())
}

func (h *Handler) adminPutCake(w http.ResponseWriter, r *http.Request) {
	var c catalog.Cake
	if err := decodeBody(w, r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.ID = r.PathValue("id")

	if err := h.admin.PutCake(r.Context(), c); err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) adminDeleteCake(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteCake(r.Context(), r.PathValue("id")); err != nil {
		h.catalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminPutDecoration(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "decoration id must be an integer")
		return
	}
	var d catalog.Decoration
	if err := decodeBody(w, r, &d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d.ID = id

	if err := h.admin.PutDecoration(r.Context(), d); err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) adminDeleteDecoration(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "decoration id must be an integer")
		return
	}
	if err := h.admin.DeleteDecoration(r.Context(), id); err != nil {
		h.catalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminPutCategory(w http.ResponseWriter, r *http.Request) {
	var c catalog.DecorationCategory
	if err := decodeBody(w, r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.ID = r.PathValue("id")

	if err := h.admin.PutCategory(r.Context(), c); err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) adminPutZone(w http.ResponseWriter, r *http.Request) {
	var z catalog.DeliveryZone
	if err := decodeBody(w, r, &z); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	z.ID = r.PathValue("id")

	if err := h.admin.PutZone(r.Context(), z); err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (h *Handler) adminDeleteZone(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteZone(r.Context(), r.PathValue("id")); err != nil {
		h.catalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalid):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		internalError(w, r, err)
	}
}
