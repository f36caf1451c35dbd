package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/justestif/neurosense/internal/mood"
)

// maxJSONBody bounds the prediction API request body.
const maxJSONBody = 1 << 16

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// formValidator returns the shared validator instance.
func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// PredictForm is one day of lifestyle inputs from the forecast form.
type PredictForm struct {
	SleepHours float64 `validate:"gte=0,lte=24"`
	Steps      int     `validate:"gte=0"`
	Meditated  bool
	Journaled  bool
}

// Features converts the form to the predictor's input.
func (f PredictForm) Features() mood.FeatureVector {
	return mood.FeatureVector{
		SleepHours: f.SleepHours,
		Steps:      f.Steps,
		Meditated:  f.Meditated,
		Journaled:  f.Journaled,
	}
}

// predictRequest is the JSON body of POST /api/predict. Pointers tell
// missing fields apart from zero values.
type predictRequest struct {
	SleepHours *float64 `json:"sleep_hours" validate:"required,gte=0,lte=24"`
	Steps      *int     `json:"steps" validate:"required,gte=0"`
	Meditated  *bool    `json:"meditated" validate:"required"`
	Journaled  *bool    `json:"journaled" validate:"required"`
}

type predictResponse struct {
	Mood float64 `json:"mood"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// parsePredictForm reads and validates the forecast form.
func parsePredictForm(r *http.Request) (PredictForm, error) {
	var form PredictForm

	sleep, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("sleep_hours")), 64)
	if err != nil {
		return form, errors.New("sleep hours must be a number")
	}
	steps, err := strconv.Atoi(strings.TrimSpace(r.FormValue("steps")))
	if err != nil {
		return form, errors.New("steps must be a whole number")
	}

	form = PredictForm{
		SleepHours: sleep,
		Steps:      steps,
		Meditated:  checked(r.FormValue("meditated")),
		Journaled:  checked(r.FormValue("journaled")),
	}
	if err := formValidator().Struct(form); err != nil {
		return form, validationMessage(err)
	}
	return form, nil
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "1", "true", "yes":
		return true
	default:
		return false
	}
}

// validationMessage turns validator errors into a readable sentence.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "gte":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}

func fieldLabel(name string) string {
	switch name {
	case "SleepHours":
		return "sleep hours"
	case "Steps":
		return "steps"
	case "Meditated":
		return "meditated"
	case "Journaled":
		return "journaled"
	default:
		return strings.ToLower(name)
	}
}

// Predict shows the forecast form (GET /predict).
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request, session *Session) {
	h.render(w, r, http.StatusOK, "predict", PredictPageData{
		PageData: h.page(r, session, "Forecast tomorrow's mood"),
		Form:     PredictForm{SleepHours: 7, Steps: 5000},
	})
}

// SubmitPredict scores the submitted day (POST /predict).
func (h *Handlers) SubmitPredict(w http.ResponseWriter, r *http.Request, session *Session) {
	data := PredictPageData{PageData: h.page(r, session, "Forecast tomorrow's mood")}

	form, err := parsePredictForm(r)
	data.Form = form
	if err != nil {
		data.Flash = flash("warning", capitalize(err.Error())+".")
		h.render(w, r, http.StatusUnprocessableEntity, "predict", data)
		return
	}

	score, err := h.deps.Forecaster.Forecast(r.Context(), form.Features())
	if err != nil {
		status, message := predictorErrorStatus(err)
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("prediction failed")
		data.Flash = flash("error", message)
		h.render(w, r, status, "predict", data)
		return
	}

	data.Prediction = &score
	h.render(w, r, http.StatusOK, "predict", data)
}

// APIPredict is the JSON form of the forecast (POST /api/predict).
func (h *Handlers) APIPredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := formValidator().Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(err).Error()})
		return
	}

	score, err := h.deps.Forecaster.Forecast(r.Context(), mood.FeatureVector{
		SleepHours: *req.SleepHours,
		Steps:      *req.Steps,
		Meditated:  *req.Meditated,
		Journaled:  *req.Journaled,
	})
	if err != nil {
		status, message := predictorErrorStatus(err)
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("api prediction failed")
		writeJSON(w, status, errorResponse{Error: message})
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{Mood: score})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
