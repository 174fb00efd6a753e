package http

import (
	"net/http"
	"strconv"
	"strings"
)

type RouterConfig struct {
	Auth         *AuthHandler
	Doctors      *DoctorHandler
	Patients     *PatientHandler
	Appointments *AppointmentHandler
	Dashboards   *DashboardHandler
	Middleware   []func(http.Handler) http.Handler
}

// PublicRoute reports whether a request may be served without a session:
// signing in, registering as a patient, and browsing the doctor directory.
func PublicRoute(r *http.Request) bool {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/login":
		return true
	case r.Method == http.MethodPost && r.URL.Path == "/patients":
		return true
	case r.Method == http.MethodGet && (r.URL.Path == "/doctors" || strings.HasPrefix(r.URL.Path, "/doctors/")):
		return true
	}
	return false
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
	}

	if cfg.Doctors != nil {
		mux.HandleFunc("/doctors", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Doctors.List(w, r)
		})
		mux.HandleFunc("/doctors/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/doctors/")
			idPart, tail, _ := strings.Cut(rest, "/")
			id, err := strconv.ParseInt(idPart, 10, 64)
			if err != nil || id <= 0 {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithDoctorID(r.Context(), id))
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			switch tail {
			case "":
				cfg.Doctors.Get(w, r)
			case "slots":
				cfg.Doctors.Slots(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Patients != nil {
		mux.HandleFunc("/patients", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Patients.List(w, r)
			case http.MethodPost:
				cfg.Patients.Register(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/patients/lookup", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Patients.Lookup(w, r)
		})
		mux.HandleFunc("/patients/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/patients/lookup" {
				// handled by the exact pattern above
				http.NotFound(w, r)
				return
			}
			idPart := strings.TrimPrefix(r.URL.Path, "/patients/")
			id, err := strconv.ParseInt(idPart, 10, 64)
			if err != nil || id <= 0 {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithPatientID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Patients.Get(w, r)
			case http.MethodPut:
				cfg.Patients.Update(w, r)
			case http.MethodDelete:
				cfg.Patients.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Appointments != nil {
		mux.HandleFunc("/appointments", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Appointments.List(w, r)
			case http.MethodPost:
				cfg.Appointments.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/appointments/proposals", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Appointments.Propose(w, r)
		})
		mux.HandleFunc("/appointments/proposals/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/appointments/proposals/")
			token, tail, _ := strings.Cut(rest, "/")
			if token == "" || tail != "commit" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Appointments.Commit(w, r, token)
		})
		mux.HandleFunc("/appointments/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/appointments/proposals") {
				http.NotFound(w, r)
				return
			}
			rest := strings.TrimPrefix(r.URL.Path, "/appointments/")
			idPart, tail, _ := strings.Cut(rest, "/")
			id, err := strconv.ParseInt(idPart, 10, 64)
			if err != nil || id <= 0 {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithAppointmentID(r.Context(), id))
			switch tail {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Appointments.Get(w, r)
				case http.MethodPut:
					cfg.Appointments.Reschedule(w, r)
				case http.MethodDelete:
					cfg.Appointments.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "status":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Appointments.UpdateStatus(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Dashboards != nil {
		mux.HandleFunc("/dashboard/admin", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Dashboards.Admin(w, r)
		})
		mux.HandleFunc("/dashboard/doctor", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Dashboards.Doctor(w, r)
		})
		mux.HandleFunc("/dashboard/patient", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Dashboards.Patient(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
