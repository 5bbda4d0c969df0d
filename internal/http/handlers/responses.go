package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/access"
	"github.com/hongminglow/jiahe-fees/internal/auth"
	"github.com/hongminglow/jiahe-fees/internal/billing"
	"github.com/hongminglow/jiahe-fees/internal/feeconfig"
	"github.com/hongminglow/jiahe-fees/internal/http/respond"
	"github.com/hongminglow/jiahe-fees/internal/middleware"
	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/registration"
	"github.com/hongminglow/jiahe-fees/internal/residents"
	"github.com/hongminglow/jiahe-fees/internal/storage"
	"github.com/hongminglow/jiahe-fees/internal/users"
)

var validate = validator.New()

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON payload")
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

// actor returns the signed-in user of the request, or nil.
func actor(r *http.Request) *models.User {
	return middleware.SessionFrom(r.Context()).Actor()
}

// residentParam reads the {id} path variable and checks it names a unit.
func residentParam(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if _, _, err := residents.ParseID(id); err != nil {
		return "", err
	}
	return id, nil
}

// paymentKey reads the {id}/{year}/{month} path variables.
func paymentKey(r *http.Request) (models.PaymentKey, error) {
	vars := mux.Vars(r)
	id, err := residentParam(r)
	if err != nil {
		return models.PaymentKey{}, err
	}
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		return models.PaymentKey{}, fmt.Errorf("invalid year %q", vars["year"])
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || month < 1 || month > 12 {
		return models.PaymentKey{}, fmt.Errorf("invalid month %q", vars["month"])
	}
	return models.PaymentKey{ResidentID: id, Year: year, Month: month}, nil
}

// monthParam reads ?month=YYYY-MM, defaulting to the month of now.
func monthParam(r *http.Request, def models.YearMonth) (models.YearMonth, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return def, nil
	}
	return models.ParseYearMonth(raw)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		respond.Error(w, http.StatusBadRequest, verrs.Error())
	case errors.Is(err, access.ErrForbidden):
		respond.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		respond.Error(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrUnknownUser), errors.Is(err, auth.ErrInvalidPassword):
		respond.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "already exists")
	case errors.Is(err, registration.ErrDuplicateClaim),
		errors.Is(err, registration.ErrNotPending),
		errors.Is(err, billing.ErrPeriodLocked):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, residents.ErrInvalidID),
		errors.Is(err, registration.ErrIncompleteAddress),
		errors.Is(err, registration.ErrInvalidAddress),
		errors.Is(err, billing.ErrResidentRequired),
		errors.Is(err, billing.ErrInvalidMonth),
		errors.Is(err, billing.ErrNegativeCount),
		errors.Is(err, billing.ErrOutsideDeleteWindow),
		errors.Is(err, feeconfig.ErrNegativeRate),
		errors.Is(err, users.ErrUsernameRequired),
		errors.Is(err, users.ErrInvalidRole),
		errors.Is(err, users.ErrSelfDelete),
		errors.Is(err, users.ErrSelfRoleChange):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
