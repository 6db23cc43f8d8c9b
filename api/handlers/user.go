package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/lexflow/lexflow-api/api"
	"github.com/lexflow/lexflow-api/config"
	"github.com/lexflow/lexflow-api/databases"
	"github.com/lexflow/lexflow-api/models"
)

// User exported for testing purposes
type User struct {
	DB databases.UserDatabase
}

func validRole(role string) bool {
	switch role {
	case models.RoleClient, models.RoleLawyer, models.RoleClerk, models.RoleJudge:
		return true
	}
	return false
}

// UserCreateHandler creates a new account. Lawyers must supply a bar number
// and judges a courtroom.
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var details models.UserDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	details.Email = strings.TrimSpace(strings.ToLower(details.Email))
	if details.Email == "" || details.Password == "" {
		config.ErrorStatus("email and password are required", http.StatusBadRequest, w, nil)
		return
	}
	if !validRole(details.Role) {
		config.ErrorStatus("invalid role", http.StatusBadRequest, w, nil)
		return
	}
	if details.Role == models.RoleLawyer && details.BarNumber == "" {
		config.ErrorStatus("lawyers require a bar number", http.StatusBadRequest, w, nil)
		return
	}
	if details.Role == models.RoleJudge && details.Courtroom == "" {
		config.ErrorStatus("judges require a courtroom", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := u.DB.CountDocuments(ctx, bson.M{"user.email": details.Email})
	if err != nil {
		config.ErrorStatus("failed to check for existing user", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("email already registered", http.StatusConflict, w, nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(details.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	details.Password = string(hash)
	now := primitive.NewDateTimeFromTime(time.Now())
	details.CreatedAt = now
	details.UpdatedAt = now

	res, err := u.DB.InsertOne(ctx, details)
	if err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	insertedID := ""
	if oid, ok := res.Decode().(primitive.ObjectID); ok {
		insertedID = oid.Hex()
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "user created",
		"_id":     insertedID,
	})
}

// UserHandler returns a user by ID with the password hash stripped
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("invalid user ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}
	user.Details.Password = ""

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
