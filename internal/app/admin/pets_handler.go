package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vet-clinic/internal/domain/pets"
	"vet-clinic/internal/domain/validation"
	"vet-clinic/internal/platform/respond"
)

type petRow struct {
	PetID      int64  `json:"pet_id"`
	Name       string `json:"name"`
	Age        int    `json:"age"`
	AnimalType string `json:"animal_type"`
}

type ownerWithPets struct {
	OwnerID    string   `json:"owner_id"`
	OwnerName  string   `json:"owner_name"`
	OwnerEmail string   `json:"owner_email"`
	Pets       []petRow `json:"pets"`
}

// managePetsHandler lista owners con sus mascotas, con filtro por
// substring case-insensitive sobre nombre del owner, nombre de
// mascota o tipo de animal.
func managePetsHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		term := r.URL.Query().Get("searchTerm")
		if r.Method == http.MethodPost {
			_ = r.ParseForm()
			if v := r.PostFormValue("searchTerm"); v != "" {
				term = v
			}
		}

		rows, err := ownersWithPets(r.Context(), s, term)
		if err != nil {
			s.Log.Error("manage pets listing failed", map[string]any{"error": err.Error()})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		resp := map[string]any{
			"owners_with_pets": rows,
			"search_term":      term,
		}
		if f, ok := s.Auth.TakeFlash(r.Context(), sess.Token); ok {
			resp["flash"] = f
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}

func ownersWithPets(ctx context.Context, s Services, term string) ([]ownerWithPets, error) {
	ownerRows, err := s.Owners.List(ctx)
	if err != nil {
		return nil, err
	}
	petRows, err := s.Pets.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byOwner := make(map[string][]petRow)
	for _, p := range petRows {
		byOwner[p.OwnerID] = append(byOwner[p.OwnerID], petRow{
			PetID:      p.ID,
			Name:       p.Name,
			Age:        p.Age,
			AnimalType: p.AnimalType,
		})
	}

	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]ownerWithPets, 0, len(ownerRows))
	for _, o := range ownerRows {
		rowPets := byOwner[o.ID]

		if term != "" {
			fullName := strings.ToLower(o.FirstName + " " + o.LastName)
			matches := strings.Contains(fullName, term)
			for _, p := range rowPets {
				if matches {
					break
				}
				if strings.Contains(strings.ToLower(p.Name), term) ||
					strings.Contains(strings.ToLower(p.AnimalType), term) {
					matches = true
				}
			}
			if !matches {
				continue
			}
		}

		if rowPets == nil {
			rowPets = []petRow{}
		}
		out = append(out, ownerWithPets{
			OwnerID:    o.ID,
			OwnerName:  o.FullName(),
			OwnerEmail: o.Email,
			Pets:       rowPets,
		})
	}
	return out, nil
}

// Dropdowns del alta de mascota; se recalculan también en el
// re-render por error de validación.
func createPetOptions(ctx context.Context, s Services) (map[string][]option, error) {
	ownerRows, err := s.Owners.List(ctx)
	if err != nil {
		return nil, err
	}
	vaccineRows, err := s.Vaccines.ListVaccines(ctx)
	if err != nil {
		return nil, err
	}

	ownerOpts := make([]option, 0, len(ownerRows))
	for _, o := range ownerRows {
		ownerOpts = append(ownerOpts, option{
			Value: o.ID,
			Label: o.FullName() + " (" + o.Email + ")",
		})
	}

	typeOpts := make([]option, 0, len(pets.AnimalTypes))
	for _, t := range pets.AnimalTypes {
		typeOpts = append(typeOpts, option{Value: t, Label: t})
	}

	vaccineOpts := make([]option, 0, len(vaccineRows))
	for _, v := range vaccineRows {
		vaccineOpts = append(vaccineOpts, option{Value: strconv.FormatInt(v.ID, 10), Label: v.Name})
	}

	return map[string][]option{
		"owner_options":       ownerOpts,
		"animal_type_options": typeOpts,
		"vaccine_options":     vaccineOpts,
	}, nil
}

func createPetFormHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}

		opts, err := createPetOptions(r.Context(), s)
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}
		respond.JSON(w, http.StatusOK, opts)
	}
}

func createPetHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		ve := validation.NewError()

		age, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("age")))
		if err != nil {
			ve.Add("age", "age must be a number")
		}

		// Política única para IDs desconocidos: se resuelven todos
		// ANTES de escribir nada y cualquier ID inválido corta el alta.
		vaccineIDs := make([]int64, 0)
		for _, raw := range r.PostForm["vaccine_ids"] {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				ve.Add("vaccine_ids", "invalid vaccine id: "+raw)
				continue
			}
			if _, err := s.Vaccines.GetVaccine(r.Context(), id); err != nil {
				ve.Add("vaccine_ids", "unknown vaccine id: "+raw)
				continue
			}
			vaccineIDs = append(vaccineIDs, id)
		}

		var created pets.Pet
		if !ve.HasErrors() {
			created, err = s.Pets.Create(r.Context(), pets.CreateInput{
				OwnerID:    r.PostFormValue("owner_id"),
				Name:       r.PostFormValue("name"),
				Age:        age,
				AnimalType: r.PostFormValue("animal_type"),
			})
			if v := validation.AsError(err); v != nil {
				for field, msgs := range v.Fields {
					for _, m := range msgs {
						ve.Add(field, m)
					}
				}
				err = nil
			}
		}

		if ve.HasErrors() {
			opts, optErr := createPetOptions(r.Context(), s)
			if optErr != nil {
				opts = map[string][]option{}
			}
			respond.JSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"message": "validation failed",
				"errors":  ve.Fields,
				"options": opts,
			})
			return
		}
		if err != nil {
			s.Log.Error("create pet failed", map[string]any{"error": err.Error()})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		// Los IDs ya se validaron; si una escritura falla a mitad de
		// camino se reporta el éxito parcial en vez de perderlo en
		// silencio. El FK en Postgres es el backstop.
		for _, id := range vaccineIDs {
			if _, err := s.Vaccines.AddToPet(r.Context(), created.ID, id, nil); err != nil {
				s.Log.Error("create pet: vaccination write failed", map[string]any{
					"error": err.Error(), "pet_id": created.ID, "vaccine_id": id,
				})
				actionDone(w, r, s, sess, http.StatusInternalServerError,
					"Pet created but some vaccinations could not be recorded", "/admin/managepets")
				return
			}
		}

		actionDone(w, r, s, sess, http.StatusOK, "Pet created successfully!", "/admin/managepets")
	}
}

type administeredRow struct {
	VaccineID        int64     `json:"vaccine_id"`
	Name             string    `json:"name"`
	DateAdministered time.Time `json:"date_administered"`
}

// Vacunas todavía no aplicadas a la mascota, para el dropdown de la
// edición. Recalculado en cada render.
func availableVaccineOptions(ctx context.Context, s Services, petID int64) ([]administeredRow, []option, error) {
	current, err := s.Vaccines.ListByPet(ctx, petID)
	if err != nil {
		return nil, nil, err
	}
	all, err := s.Vaccines.ListVaccines(ctx)
	if err != nil {
		return nil, nil, err
	}

	currentRows := make([]administeredRow, 0, len(current))
	applied := make(map[int64]bool, len(current))
	for _, a := range current {
		applied[a.VaccineID] = true
		currentRows = append(currentRows, administeredRow{
			VaccineID:        a.VaccineID,
			Name:             a.Name,
			DateAdministered: a.DateAdministered,
		})
	}

	avail := make([]option, 0, len(all))
	for _, v := range all {
		if applied[v.ID] {
			continue
		}
		avail = append(avail, option{Value: strconv.FormatInt(v.ID, 10), Label: v.Name})
	}
	return currentRows, avail, nil
}

func editPetFormHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		id, ok := parseID(r)
		if !ok {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid pet id"})
			return
		}

		p, err := s.Pets.GetByID(r.Context(), id)
		if err != nil {
			actionDone(w, r, s, sess, http.StatusNotFound, "Pet not found", "/admin/managepets")
			return
		}

		current, avail, err := availableVaccineOptions(r.Context(), s, id)
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		typeOpts := make([]option, 0, len(pets.AnimalTypes))
		for _, t := range pets.AnimalTypes {
			typeOpts = append(typeOpts, option{Value: t, Label: t})
		}

		resp := map[string]any{
			"id":                  p.ID,
			"name":                p.Name,
			"age":                 p.Age,
			"animal_type":         p.AnimalType,
			"animal_type_options": typeOpts,
			"current_vaccines":    current,
			"available_vaccines":  avail,
		}
		if f, ok := s.Auth.TakeFlash(r.Context(), sess.Token); ok {
			resp["flash"] = f
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}

func editPetHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		id, ok := parseID(r)
		if !ok {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid pet id"})
			return
		}

		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		ve := validation.NewError()
		age, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("age")))
		if err != nil {
			ve.Add("age", "age must be a number")
		}

		if !ve.HasErrors() {
			_, err = s.Pets.Update(r.Context(), id, pets.UpdateInput{
				Name:       r.PostFormValue("name"),
				Age:        age,
				AnimalType: r.PostFormValue("animal_type"),
			})
			if v := validation.AsError(err); v != nil {
				for field, msgs := range v.Fields {
					for _, m := range msgs {
						ve.Add(field, m)
					}
				}
				err = nil
			} else if errors.Is(err, pets.ErrNotFound) {
				actionDone(w, r, s, sess, http.StatusNotFound, "Pet not found", "/admin/managepets")
				return
			}
		}

		if ve.HasErrors() {
			_, avail, availErr := availableVaccineOptions(r.Context(), s, id)
			if availErr != nil {
				avail = []option{}
			}
			respond.JSON(w, http.StatusBadRequest, map[string]any{
				"success":            false,
				"message":            "validation failed",
				"errors":             ve.Fields,
				"available_vaccines": avail,
			})
			return
		}
		if err != nil {
			s.Log.Error("edit pet failed", map[string]any{"error": err.Error(), "pet_id": id})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		// alta opcional de una vacuna existente junto con la edición
		if raw := strings.TrimSpace(r.PostFormValue("vaccine_id")); raw != "" {
			vaccineID, parseErr := strconv.ParseInt(raw, 10, 64)
			if parseErr != nil {
				actionDone(w, r, s, sess, http.StatusBadRequest, "Invalid vaccine id", "/admin/managepets")
				return
			}
			if _, err := s.Vaccines.AddToPet(r.Context(), id, vaccineID, nil); err != nil {
				actionDone(w, r, s, sess, http.StatusNotFound, "Unknown vaccine", "/admin/managepets")
				return
			}
		}

		actionDone(w, r, s, sess, http.StatusOK, "Pet updated successfully!", "/admin/managepets")
	}
}

func deletePetHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		id, ok := parseID(r)
		if !ok {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid pet id"})
			return
		}

		if _, err := s.Pets.GetByID(r.Context(), id); err != nil {
			actionDone(w, r, s, sess, http.StatusNotFound, "Pet not found", "/admin/managepets")
			return
		}

		// cascada: primero las asociaciones, después la mascota
		if err := s.Vaccines.RemoveAllForPet(r.Context(), id); err != nil {
			s.Log.Error("delete pet: association cleanup failed", map[string]any{"error": err.Error(), "pet_id": id})
			actionDone(w, r, s, sess, http.StatusInternalServerError, "operation failed", "/admin/managepets")
			return
		}
		if err := s.Pets.Delete(r.Context(), id); err != nil {
			s.Log.Error("delete pet failed", map[string]any{"error": err.Error(), "pet_id": id})
			actionDone(w, r, s, sess, http.StatusInternalServerError, "operation failed", "/admin/managepets")
			return
		}

		actionDone(w, r, s, sess, http.StatusOK, "Pet deleted successfully!", "/admin/managepets")
	}
}
