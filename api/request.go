package api

import (
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"

	"qurrium.com/pqp/estimator"
	"qurrium.com/pqp/trace"
)

type Request struct {
	Pipeline estimator.Pipeline
}

type estimateBody struct {
	Measurements string `json:"measurements"`
	Subsystems   string `json:"subsystems"`
}

func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	logger := makeRequestLogger(r)

	if r.Method != "POST" {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := ioutil.ReadAll(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	var body estimateBody
	if err = json.Unmarshal(msg, &body); err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not unmarshal request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	request := estimator.Request{
		Tid:          "test_api",
		Measurements: body.Measurements,
		Subsystems:   body.Subsystems,
	}
	logger.Info().Str("tid", request.Tid).Msg("Starting pipeline for request from API")
	resp := <-req.Pipeline(r.Context(), request)
	if resp.Err != nil {
		status := http.StatusInternalServerError
		var indexErr *trace.IndexOutOfRangeError
		if errors.As(resp.Err, &indexErr) {
			status = http.StatusUnprocessableEntity
		}
		logger.Err(resp.Err).Int("status", status).Msg("Pipeline returned error")
		http.Error(w, resp.Err.Error(), status)
		return
	}
	_, _ = w.Write([]byte(resp.Data))
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}
