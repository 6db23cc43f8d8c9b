package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/lexflow/lexflow-api/api"
	"github.com/lexflow/lexflow-api/api/scheduler"
	"github.com/lexflow/lexflow-api/caseflow"
	"github.com/lexflow/lexflow-api/config"
	"github.com/lexflow/lexflow-api/databases"
	"github.com/lexflow/lexflow-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Service   *caseflow.Service
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	if a.Service == nil {
		a.Service = caseflow.NewService(
			databases.NewCaseDatabase(a.dbHelper),
			databases.NewRequestDatabase(a.dbHelper),
			databases.NewHearingDatabase(a.dbHelper),
			databases.NewUserDatabase(a.dbHelper),
		)
	}

	c := Case{Service: a.Service}
	rq := Request{Service: a.Service}
	h := Hearing{Service: a.Service}
	j := Judgement{Service: a.Service}
	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	reg := Registrar{UDB: databases.NewUserDatabase(a.dbHelper), CDB: databases.NewCaseDatabase(a.dbHelper)}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	r.Use(api.LoggingMiddleware)
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/case", api.Middleware(http.HandlerFunc(c.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}", api.Middleware(http.HandlerFunc(c.CaseByIDHandler))).Methods("GET")
	apiCreate.Handle("/case/{case_id}", api.Middleware(http.HandlerFunc(c.UpdateCaseHandler))).Methods("PATCH")
	apiCreate.Handle("/case/{case_id}", api.Middleware(RequireRegistrar(reg.DeleteCaseHandler))).Methods("DELETE")
	apiCreate.Handle("/case/{case_id}/claim-defendant", api.Middleware(http.HandlerFunc(c.ClaimDefendantHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/evidence", api.Middleware(http.HandlerFunc(c.AddEvidenceHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/witness", api.Middleware(http.HandlerFunc(c.AddWitnessHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/refresh-names", api.Middleware(http.HandlerFunc(c.RefreshNamesHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/dismiss", api.Middleware(http.HandlerFunc(c.DismissCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases/user/{user_id}", api.Middleware(http.HandlerFunc(c.CasesByUserIDHandler))).Methods("GET")
	apiCreate.Handle("/cases/identity", api.Middleware(http.HandlerFunc(c.CasesByIdentityHandler))).Methods("GET")

	apiCreate.Handle("/request", api.Middleware(http.HandlerFunc(rq.CreateRequestHandler))).Methods("POST")
	apiCreate.Handle("/request/{request_id}/resolve", api.Middleware(http.HandlerFunc(rq.ResolveRequestHandler))).Methods("POST")
	apiCreate.Handle("/requests/lawyer/{lawyer_id}", api.Middleware(http.HandlerFunc(rq.RequestsByLawyerIDHandler))).Methods("GET")

	apiCreate.Handle("/case/{case_id}/hearing", api.Middleware(http.HandlerFunc(h.ScheduleHearingHandler))).Methods("POST")
	apiCreate.Handle("/hearings/case/{case_id}", api.Middleware(http.HandlerFunc(h.HearingsByCaseIDHandler))).Methods("GET")
	apiCreate.Handle("/hearing/{hearing_id}/reschedule", api.Middleware(http.HandlerFunc(h.RescheduleHearingHandler))).Methods("PUT")

	apiCreate.Handle("/case/{case_id}/judgement", api.Middleware(http.HandlerFunc(j.IssueJudgementHandler))).Methods("POST")

	apiCreate.Handle("/registrar/login", http.HandlerFunc(reg.RegistrarLoginHandler)).Methods("POST")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("lexflow-api has connected to the database")

	a.Scheduler = scheduler.NewScheduler(
		databases.NewHearingDatabase(a.dbHelper),
		databases.NewCaseDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
	)

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
