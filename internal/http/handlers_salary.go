package http

import (
	"net/http"

	"contas/internal/core"
	applog "contas/internal/log"
)

// handleCalculate serves POST /calculate-net-salary. A months value of 1 (or
// none) returns one breakdown; more returns {"projection": [...]}.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Year == nil || req.Month == nil {
		writeBadRequest(w, "year and month are required")
		return
	}

	months := req.MonthCount()
	res, err := s.deps.Salary.Calculate(r.Context(), userID(r), *req.Year, *req.Month, months)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ym := core.YearMonth{Year: *req.Year, Month: *req.Month}
	if res.Single != nil {
		s.events.LogCalculation(r.Context(), res.HouseholdID, ym.String(), 1, res.Single.NetAmount.Cents)
		_ = NewJSONResponse().Body(res.Single).Write(w)
		return
	}

	var total int64
	for _, p := range res.Projection {
		total += p.Salary.NetAmount.Cents
	}
	s.events.LogCalculation(r.Context(), res.HouseholdID, ym.String(), months, total)
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Projection served",
		applog.FieldHousehold, res.HouseholdID,
		applog.FieldMonths, len(res.Projection))

	_ = NewJSONResponse().Body(ProjectionResponse{Projection: res.Projection}).Write(w)
}
