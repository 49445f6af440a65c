package account

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-clinic/internal/domain/auth"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/pets"
	"vet-clinic/internal/domain/vaccines"
	"vet-clinic/internal/domain/validation"
	"vet-clinic/internal/middleware"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/platform/respond"
)

// Services junta lo que el workflow self-service necesita componer.
type Services struct {
	Owners   *owners.Service
	Pets     *pets.Service
	Vaccines *vaccines.Service
	Auth     *auth.Service
	Log      logger.Logger
}

func RegisterRoutes(r chi.Router, s Services) {
	r.Route("/account", func(ar chi.Router) {
		ar.Get("/register", emptyFormHandler())
		ar.Post("/register", registerHandler(s))

		ar.Get("/login", emptyFormHandler())
		ar.Post("/login", loginHandler(s))

		ar.Post("/logout", logoutHandler(s))

		ar.Get("/profile", profileHandler(s))
		ar.Post("/profile", updateProfileHandler(s))

		ar.Get("/forgotpassword", emptyFormHandler())
		ar.Post("/forgotpassword", forgotPasswordHandler(s))

		ar.Get("/resetpassword", resetPasswordFormHandler())
		ar.Post("/resetpassword", resetPasswordHandler(s))
	})
}

type vaccineLine struct {
	VaccineID        int64     `json:"vaccine_id"`
	Name             string    `json:"name"`
	DateAdministered time.Time `json:"date_administered"`
}

type petWithVaccines struct {
	PetID      int64         `json:"pet_id"`
	Name       string        `json:"name"`
	Age        int           `json:"age"`
	AnimalType string        `json:"animal_type"`
	Vaccines   []vaccineLine `json:"vaccines"`
}

type profileResponse struct {
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	DateOfBirth string            `json:"date_of_birth,omitempty"`
	Age         *int              `json:"age,omitempty"`
	Pets        []petWithVaccines `json:"pets"`
	Flash       *auth.Flash       `json:"flash,omitempty"`
}

func emptyFormHandler() http.HandlerFunc {
	// GET de formularios sin estado: solo asegura la cookie CSRF
	// (la pone el middleware) y responde el modelo vacío.
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]any{})
	}
}

func registerHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		dob, dobErr := parseDate(r.PostFormValue("date_of_birth"))
		if dobErr != "" {
			ve := validation.NewError()
			ve.Add("date_of_birth", dobErr)
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "validation failed", Errors: ve.Fields})
			return
		}

		o, err := s.Owners.Register(r.Context(), owners.RegisterInput{
			Email:           r.PostFormValue("email"),
			Password:        r.PostFormValue("password"),
			ConfirmPassword: r.PostFormValue("confirm_password"),
			FirstName:       r.PostFormValue("first_name"),
			LastName:        r.PostFormValue("last_name"),
			DateOfBirth:     dob,
		})
		if err != nil {
			if ve := validation.AsError(err); ve != nil {
				respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "validation failed", Errors: ve.Fields})
				return
			}
			s.Log.Error("register failed", map[string]any{"error": err.Error()})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		// sign-in inmediato tras registrarse
		sess, err := s.Auth.StartSession(r.Context(), o.ID)
		if err != nil {
			s.Log.Error("post-register sign-in failed", map[string]any{"error": err.Error()})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}
		middleware.SetSessionCookie(w, sess)

		if respond.WantsJSON(r) {
			respond.JSON(w, http.StatusOK, respond.Envelope{Success: true, Message: "registered"})
			return
		}
		respond.SeeOther(w, r, "/account/profile")
	}
}

func loginHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		remember := parseBool(r.PostFormValue("remember_me"))
		sess, err := s.Auth.Login(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"), remember)
		if err != nil {
			// mensaje genérico, sin distinguir email de password
			respond.JSON(w, http.StatusUnauthorized, respond.Envelope{Success: false, Message: "Invalid login attempt."})
			return
		}
		middleware.SetSessionCookie(w, sess)

		if respond.WantsJSON(r) {
			respond.JSON(w, http.StatusOK, respond.Envelope{Success: true, Message: "logged in"})
			return
		}
		respond.SeeOther(w, r, "/account/profile")
	}
}

func logoutHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := middleware.GetSession(r.Context()); ok {
			_ = s.Auth.Logout(r.Context(), sess.Token)
		}
		middleware.ClearSessionCookie(w)

		if respond.WantsJSON(r) {
			respond.JSON(w, http.StatusOK, respond.Envelope{Success: true, Message: "logged out"})
			return
		}
		respond.SeeOther(w, r, "/account/login")
	}
}

func profileHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSession(r.Context())
		if !ok {
			unauthorized(w, r)
			return
		}

		o, err := s.Owners.GetByID(r.Context(), sess.OwnerID)
		if err != nil {
			respond.JSON(w, http.StatusNotFound, respond.Envelope{Success: false, Message: "owner not found"})
			return
		}

		petList, err := petListing(r, s, sess.OwnerID)
		if err != nil {
			s.Log.Error("profile pet listing failed", map[string]any{"error": err.Error(), "owner_id": sess.OwnerID})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		resp := profileResponse{
			FirstName: o.FirstName,
			LastName:  o.LastName,
			Email:     o.Email,
			Phone:     o.Phone,
			Pets:      petList,
		}
		if o.DateOfBirth != nil {
			resp.DateOfBirth = o.DateOfBirth.Format("2006-01-02")
			age := validation.AgeAt(*o.DateOfBirth, time.Now())
			resp.Age = &age
		}
		if f, ok := s.Auth.TakeFlash(r.Context(), sess.Token); ok {
			resp.Flash = &f
		}

		respond.JSON(w, http.StatusOK, resp)
	}
}

func updateProfileHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSession(r.Context())
		if !ok {
			unauthorized(w, r)
			return
		}

		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		dob, dobErr := parseDate(r.PostFormValue("date_of_birth"))
		ve := validation.NewError()
		if dobErr != "" {
			ve.Add("date_of_birth", dobErr)
		}

		var err error
		if !ve.HasErrors() {
			_, err = s.Owners.UpdateProfile(r.Context(), sess.OwnerID, owners.UpdateProfileInput{
				FirstName:   r.PostFormValue("first_name"),
				LastName:    r.PostFormValue("last_name"),
				Phone:       r.PostFormValue("phone"),
				DateOfBirth: dob,
			})
			if v := validation.AsError(err); v != nil {
				ve = v
				err = nil
			}
		}

		if ve.HasErrors() {
			// re-render: el listado de mascotas se recalcula, nunca
			// se reusa el del submit
			petList, listErr := petListing(r, s, sess.OwnerID)
			if listErr != nil {
				petList = []petWithVaccines{}
			}
			respond.JSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"message": "validation failed",
				"errors":  ve.Fields,
				"pets":    petList,
			})
			return
		}
		if err != nil {
			s.Log.Error("profile update failed", map[string]any{"error": err.Error(), "owner_id": sess.OwnerID})
			respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Success: false, Message: "operation failed"})
			return
		}

		if respond.WantsJSON(r) {
			respond.JSON(w, http.StatusOK, respond.Envelope{Success: true, Message: "Profile updated successfully!"})
			return
		}
		_ = s.Auth.SetFlash(r.Context(), sess.Token, auth.Flash{Kind: "success", Message: "Profile updated successfully!"})
		respond.SeeOther(w, r, "/account/profile")
	}
}

func forgotPasswordHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		email := r.PostFormValue("email")
		if t, err := s.Auth.CreateResetToken(r.Context(), email); err == nil {
			// el envío de mail queda stubbeado: se loguea el link
			s.Log.Info("password reset link issued", map[string]any{
				"link": "/account/resetpassword?email=" + t.Email + "&code=" + t.Token,
			})
		}

		// misma respuesta exista o no el email
		respond.JSON(w, http.StatusOK, respond.Envelope{
			Success: true,
			Message: "If the email is registered, a reset link has been sent.",
		})
	}
}

func resetPasswordFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "a code must be supplied for password reset"})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]any{
			"email": r.URL.Query().Get("email"),
			"code":  code,
		})
	}
}

func resetPasswordHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid form"})
			return
		}

		password := r.PostFormValue("password")
		ve := validation.NewError()
		if msg := auth.PasswordPolicyMessage(password); msg != "" {
			ve.Add("password", msg)
		}
		if password != r.PostFormValue("confirm_password") {
			ve.Add("confirm_password", "passwords need to match")
		}
		if ve.HasErrors() {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "validation failed", Errors: ve.Fields})
			return
		}

		err := s.Auth.ResetPassword(r.Context(), r.PostFormValue("email"), r.PostFormValue("code"), password)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{Success: false, Message: "invalid or expired reset token"})
			return
		}

		respond.JSON(w, http.StatusOK, respond.Envelope{Success: true, Message: "Password has been reset. You can now log in."})
	}
}

// petListing arma mascotas + vacunas frescas desde los services.
func petListing(r *http.Request, s Services, ownerID string) ([]petWithVaccines, error) {
	petRows, err := s.Pets.ListByOwner(r.Context(), ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]petWithVaccines, 0, len(petRows))
	for _, p := range petRows {
		administered, err := s.Vaccines.ListByPet(r.Context(), p.ID)
		if err != nil {
			return nil, err
		}
		lines := make([]vaccineLine, 0, len(administered))
		for _, a := range administered {
			lines = append(lines, vaccineLine{
				VaccineID:        a.VaccineID,
				Name:             a.Name,
				DateAdministered: a.DateAdministered,
			})
		}
		out = append(out, petWithVaccines{
			PetID:      p.ID,
			Name:       p.Name,
			Age:        p.Age,
			AnimalType: p.AnimalType,
			Vaccines:   lines,
		})
	}
	return out, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusUnauthorized, respond.Envelope{Success: false, Message: "unauthorized"})
		return
	}
	respond.SeeOther(w, r, "/account/login")
}

func parseDate(s string) (*time.Time, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ""
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, "date must be YYYY-MM-DD"
	}
	return &t, ""
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}
