package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/validation"
	"vet-clinic/internal/platform/respond"
)

type ownerRow struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

func ownerListing(ctx context.Context, s Services) ([]ownerRow, error) {
	rows, err := s.Owners.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ownerRow, 0, len(rows))
	for _, o := range rows {
		out = append(out, ownerRow{
			ID:          o.ID,
			Email:       o.Email,
			FirstName:   o.FirstName,
			LastName:    o.LastName,
			DateOfBirth: o.DateOfBirth,
		})
	}
	return out, nil
}

func manageOwnersHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		rows, err := ownerListing(r.Context(), s)
		if err != nil {
			s.Log.Error("manage owners listing failed", map[string]any{"error": err.Error()})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		resp := map[string]any{"owners": rows}
		if f, ok := s.Auth.TakeFlash(r.Context(), sess.Token); ok {
			resp["flash"] = f
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}

// createOwnerHandler reutiliza el mismo Register del alta
// self-service; la cuenta creada queda con rol user.
func createOwnerHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		dob, dobOK := parseDate(r.PostFormValue("date_of_birth"))

		var err error
		if dobOK {
			_, err = s.Owners.Register(r.Context(), owners.RegisterInput{
				Email:           r.PostFormValue("email"),
				Password:        r.PostFormValue("password"),
				ConfirmPassword: r.PostFormValue("confirm_password"),
				FirstName:       r.PostFormValue("first_name"),
				LastName:        r.PostFormValue("last_name"),
				DateOfBirth:     dob,
			})
		}

		ve := validation.AsError(err)
		if !dobOK {
			if ve == nil {
				ve = validation.NewError()
			}
			ve.Add("date_of_birth", "date of birth must be a valid date (YYYY-MM-DD)")
		}
		if ve != nil {
			rows, listErr := ownerListing(r.Context(), s)
			if listErr != nil {
				rows = []ownerRow{}
			}
			respond.JSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"message": "validation failed",
				"errors":  ve.Fields,
				"owners":  rows,
			})
			return
		}
		if err != nil {
			s.Log.Error("create owner failed", map[string]any{"error": err.Error()})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		actionDone(w, r, s, sess, http.StatusOK, "Owner created successfully!", "/admin/manageowners")
	}
}

func editOwnerFormHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		id := ownerIDParam(r)
		o, err := s.Owners.GetByID(r.Context(), id)
		if err != nil {
			actionDone(w, r, s, sess, http.StatusNotFound, "Owner not found!", "/admin/manageowners")
			return
		}

		respond.JSON(w, http.StatusOK, ownerRow{
			ID:          o.ID,
			Email:       o.Email,
			FirstName:   o.FirstName,
			LastName:    o.LastName,
			DateOfBirth: o.DateOfBirth,
		})
	}
}

func editOwnerHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		id := ownerIDParam(r)
		dob, dobOK := parseDate(r.PostFormValue("date_of_birth"))

		var err error
		if dobOK {
			_, err = s.Owners.AdminUpdate(r.Context(), id, owners.AdminUpdateInput{
				Email:       r.PostFormValue("email"),
				FirstName:   r.PostFormValue("first_name"),
				LastName:    r.PostFormValue("last_name"),
				DateOfBirth: dob,
			})
		}

		if errors.Is(err, owners.ErrNotFound) {
			actionDone(w, r, s, sess, http.StatusNotFound, "Owner not found!", "/admin/manageowners")
			return
		}

		ve := validation.AsError(err)
		if !dobOK {
			if ve == nil {
				ve = validation.NewError()
			}
			ve.Add("date_of_birth", "date of birth must be a valid date (YYYY-MM-DD)")
		}
		if ve != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "validation failed", Errors: ve.Fields})
			return
		}
		if err != nil {
			s.Log.Error("edit owner failed", map[string]any{"error": err.Error(), "owner_id": id})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		actionDone(w, r, s, sess, http.StatusOK, "Owner updated successfully!", "/admin/manageowners")
	}
}

// deleteOwnerHandler borra en cascada: asociaciones de vacunas de
// cada mascota, mascotas, y recién después perfil + credencial.
func deleteOwnerHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		id := ownerIDParam(r)
		if _, err := s.Owners.GetByID(r.Context(), id); err != nil {
			actionDone(w, r, s, sess, http.StatusNotFound, "Owner not found!", "/admin/manageowners")
			return
		}

		ownedPets, err := s.Pets.ListByOwner(r.Context(), id)
		if err != nil {
			s.Log.Error("delete owner: pet listing failed", map[string]any{"error": err.Error(), "owner_id": id})
			actionDone(w, r, s, sess, http.StatusInternalServerError, "operation failed", "/admin/manageowners")
			return
		}
		for _, p := range ownedPets {
			if err := s.Vaccines.RemoveAllForPet(r.Context(), p.ID); err != nil {
				s.Log.Error("delete owner: association cleanup failed", map[string]any{"error": err.Error(), "pet_id": p.ID})
				actionDone(w, r, s, sess, http.StatusInternalServerError, "operation failed", "/admin/manageowners")
				return
			}
		}
		if _, err := s.Pets.DeleteByOwner(r.Context(), id); err != nil {
			s.Log.Error("delete owner: pet cleanup failed", map[string]any{"error": err.Error(), "owner_id": id})
			actionDone(w, r, s, sess, http.StatusInternalServerError, "operation failed", "/admin/manageowners")
			return
		}

		if err := s.Owners.Delete(r.Context(), id); err != nil {
			s.Log.Error("delete owner failed", map[string]any{"error": err.Error(), "owner_id": id})
			actionDone(w, r, s, sess, http.StatusInternalServerError, "operation failed", "/admin/manageowners")
			return
		}

		actionDone(w, r, s, sess, http.StatusOK, "Owner deleted successfully!", "/admin/manageowners")
	}
}
