package admin

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-clinic/internal/domain/auth"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/pets"
	"vet-clinic/internal/domain/vaccines"
	"vet-clinic/internal/middleware"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/platform/respond"
)

// Services junta lo que el workflow administrativo compone.
type Services struct {
	Owners   *owners.Service
	Pets     *pets.Service
	Vaccines *vaccines.Service
	Auth     *auth.Service
	Log      logger.Logger
}

func RegisterRoutes(r chi.Router, s Services) {
	r.Route("/admin", func(ar chi.Router) {
		ar.Get("/", dashboardHandler(s))

		ar.Get("/managepets", managePetsHandler(s))
		ar.Post("/managepets", managePetsHandler(s))
		ar.Get("/createpet", createPetFormHandler(s))
		ar.Post("/createpet", createPetHandler(s))
		ar.Get("/editpet/{id}", editPetFormHandler(s))
		ar.Post("/editpet/{id}", editPetHandler(s))
		ar.Post("/deletepet/{id}", deletePetHandler(s))

		ar.Get("/managevaccines", manageVaccinesHandler(s))
		ar.Post("/createvaccine", createVaccineHandler(s))
		ar.Post("/deletevaccine/{id}", deleteVaccineHandler(s))
		ar.Post("/addvaccinetopet", addVaccineToPetHandler(s))
		ar.Post("/removevaccinefrompet", removeVaccineFromPetHandler(s))

		ar.Get("/manageowners", manageOwnersHandler(s))
		ar.Post("/manageowners", createOwnerHandler(s))
		ar.Get("/editowner/{id}", editOwnerFormHandler(s))
		ar.Post("/editowner/{id}", editOwnerHandler(s))
		ar.Post("/deleteowner/{id}", deleteOwnerHandler(s))
	})
}

// option es el par (value, label) de los dropdowns; se recalcula en
// cada render, incluidos los re-renders por error.
type option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// requireAdmin corta con 403 si el caller no tiene rol admin.
func requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		if respond.WantsJSON(r) {
			respond.JSON(w, http.StatusUnauthorized, respond.Envelope{Success: false, Message: "unauthorized"})
		} else {
			respond.SeeOther(w, r, "/account/login")
		}
		return auth.Session{}, false
	}
	if !sess.HasRole(auth.RoleAdmin) {
		respond.JSON(w, http.StatusForbidden, respond.Envelope{Success: false, Message: "forbidden"})
		return auth.Session{}, false
	}
	return sess, true
}

// actionDone responde una acción admin: envelope para AJAX, flash +
// redirect al listado para el resto.
func actionDone(w http.ResponseWriter, r *http.Request, s Services, sess auth.Session, status int, msg, location string) {
	success := status < 400
	if respond.WantsJSON(r) {
		respond.JSON(w, status, respond.Envelope{Success: success, Message: msg})
		return
	}

	kind := "success"
	if !success {
		kind = "error"
	}
	_ = s.Auth.SetFlash(r.Context(), sess.Token, auth.Flash{Kind: kind, Message: msg})
	respond.SeeOther(w, r, location)
}

func dashboardHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		ownerRows, err := s.Owners.List(r.Context())
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}
		petRows, err := s.Pets.ListAll(r.Context())
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}
		vaccineRows, err := s.Vaccines.ListVaccines(r.Context())
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		resp := map[string]any{
			"owners":   len(ownerRows),
			"pets":     len(petRows),
			"vaccines": len(vaccineRows),
		}
		if f, ok := s.Auth.TakeFlash(r.Context(), sess.Token); ok {
			resp["flash"] = f
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// los owners usan uuid como id, sin parseo numérico
func ownerIDParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func parseDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
