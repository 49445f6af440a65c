package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vet-clinic/internal/domain/validation"
	"vet-clinic/internal/domain/vaccines"
	"vet-clinic/internal/platform/respond"
)

type vaccineRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func manageVaccinesHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		list, err := s.Vaccines.ListVaccines(r.Context())
		if err != nil {
			s.Log.Error("manage vaccines listing failed", map[string]any{"error": err.Error()})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		rows := make([]vaccineRow, 0, len(list))
		for _, v := range list {
			rows = append(rows, vaccineRow{ID: v.ID, Name: v.Name})
		}

		resp := map[string]any{"vaccines": rows}
		if f, ok := s.Auth.TakeFlash(r.Context(), sess.Token); ok {
			resp["flash"] = f
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}

func createVaccineHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		name := r.PostFormValue("name")
		v, err := s.Vaccines.CreateVaccine(r.Context(), name)
		if ve := validation.AsError(err); ve != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "validation failed", Errors: ve.Fields})
			return
		}
		if errors.Is(err, vaccines.ErrDuplicateName) {
			actionDone(w, r, s, sess, http.StatusConflict,
				fmt.Sprintf("Vaccine '%s' already exists!", strings.TrimSpace(name)), "/admin/managevaccines")
			return
		}
		if err != nil {
			s.Log.Error("create vaccine failed", map[string]any{"error": err.Error()})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		actionDone(w, r, s, sess, http.StatusOK,
			fmt.Sprintf("Vaccine '%s' created successfully!", v.Name), "/admin/managevaccines")
	}
}

// deleteVaccineHandler: el borrado del catálogo respeta la guarda
// referencial; con asociaciones vivas devuelve conflicto.
func deleteVaccineHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		id, ok := parseID(r)
		if !ok {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid vaccine id"})
			return
		}

		err := s.Vaccines.DeleteVaccine(r.Context(), id)
		switch {
		case errors.Is(err, vaccines.ErrNotFound):
			actionDone(w, r, s, sess, http.StatusNotFound, "Vaccine not found!", "/admin/managevaccines")
		case errors.Is(err, vaccines.ErrInUse):
			actionDone(w, r, s, sess, http.StatusConflict,
				"Cannot delete this vaccine because it is assigned to one or more pets.", "/admin/managevaccines")
		case err != nil:
			s.Log.Error("delete vaccine failed", map[string]any{"error": err.Error(), "vaccine_id": id})
			actionDone(w, r, s, sess, http.StatusInternalServerError, "operation failed", "/admin/managevaccines")
		default:
			actionDone(w, r, s, sess, http.StatusOK, "Vaccine deleted successfully!", "/admin/managevaccines")
		}
	}
}

// addVaccineToPetHandler asocia por id (vaccine_id) o por nombre
// (new_vaccine_name, resolve-or-create); exactamente uno de los dos.
func addVaccineToPetHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		petID, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("pet_id")), 10, 64)
		if err != nil || petID <= 0 {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid pet id"})
			return
		}
		if _, err := s.Pets.GetByID(r.Context(), petID); err != nil {
			actionDone(w, r, s, sess, http.StatusNotFound, "Pet not found", "/admin/managepets")
			return
		}
		location := fmt.Sprintf("/admin/editpet/%d", petID)

		rawID := strings.TrimSpace(r.PostFormValue("vaccine_id"))
		newName := strings.TrimSpace(r.PostFormValue("new_vaccine_name"))
		if (rawID == "") == (newName == "") {
			actionDone(w, r, s, sess, http.StatusBadRequest,
				"Select an existing vaccine or enter a new name, not both.", location)
			return
		}

		var administered *time.Time
		if raw := r.PostFormValue("administered_at"); strings.TrimSpace(raw) != "" {
			t, ok := parseDate(raw)
			if !ok {
				actionDone(w, r, s, sess, http.StatusBadRequest,
					"Administered date must be a valid date (YYYY-MM-DD)", location)
				return
			}
			administered = t
		}

		if rawID != "" {
			vaccineID, parseErr := strconv.ParseInt(rawID, 10, 64)
			if parseErr != nil {
				actionDone(w, r, s, sess, http.StatusBadRequest, "Invalid vaccine id", location)
				return
			}
			_, err = s.Vaccines.AddToPet(r.Context(), petID, vaccineID, administered)
			if errors.Is(err, vaccines.ErrNotFound) {
				actionDone(w, r, s, sess, http.StatusNotFound, "Vaccine not found!", location)
				return
			}
		} else {
			_, _, err = s.Vaccines.AddNewToPet(r.Context(), petID, newName, administered)
			if ve := validation.AsError(err); ve != nil {
				respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "validation failed", Errors: ve.Fields})
				return
			}
		}
		if err != nil {
			s.Log.Error("add vaccine to pet failed", map[string]any{"error": err.Error(), "pet_id": petID})
			actionDone(w, r, s, sess, http.StatusInternalServerError, "operation failed", location)
			return
		}

		// el duplicado idempotente también se reporta como éxito
		actionDone(w, r, s, sess, http.StatusOK, "Vaccine added successfully!", location)
	}
}

func removeVaccineFromPetHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		petID, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("pet_id")), 10, 64)
		if err != nil || petID <= 0 {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid pet id"})
			return
		}
		vaccineID, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("vaccine_id")), 10, 64)
		if err != nil || vaccineID <= 0 {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid vaccine id"})
			return
		}

		if _, err := s.Pets.GetByID(r.Context(), petID); err != nil {
			actionDone(w, r, s, sess, http.StatusNotFound, "Pet not found", "/admin/managepets")
			return
		}
		location := fmt.Sprintf("/admin/editpet/%d", petID)

		if err := s.Vaccines.RemoveFromPet(r.Context(), petID, vaccineID); err != nil {
			s.Log.Error("remove vaccine from pet failed", map[string]any{"error": err.Error(), "pet_id": petID})
			actionDone(w, r, s, sess, http.StatusInternalServerError, "operation failed", location)
			return
		}

		actionDone(w, r, s, sess, http.StatusOK, "Vaccine removed successfully!", location)
	}
}
