package http

import (
	"context"
	"net/http"

	"contas/internal/core"
)

func (s *Server) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Settings.Household(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = NewJSONResponse().Body(householdDTO(h)).Write(w)
}

// handleCreateHousehold onboards the caller into a new household.
func (s *Server) handleCreateHousehold(w http.ResponseWriter, r *http.Request) {
	var req HouseholdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	h, err := s.deps.Settings.CreateHousehold(r.Context(), userID(r), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.deps.Salary.ForgetUser(userID(r))
	_ = NewJSONResponse().Created(householdDTO(h)).Write(w)
}

func (s *Server) handleJoinHousehold(w http.ResponseWriter, r *http.Request) {
	var req JoinHouseholdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if sanitizeInput(req.HouseholdID) == "" {
		writeBadRequest(w, "householdId is required")
		return
	}
	user := userID(r)
	if err := s.deps.Settings.JoinHousehold(r.Context(), user, sanitizeInput(req.HouseholdID)); err != nil {
		writeError(w, r, err)
		return
	}
	s.deps.Salary.ForgetUser(user)

	h, err := s.deps.Settings.Household(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = NewJSONResponse().Body(householdDTO(h)).Write(w)
}

func (s *Server) handleListBaseSalaries(w http.ResponseWriter, r *http.Request) {
	list(w, r, s.deps.Settings.ListBaseSalaries, baseSalaryDTO)
}

func (s *Server) handleCreateBaseSalary(w http.ResponseWriter, r *http.Request) {
	var req BaseSalaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	rec, err := req.toCore()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.deps.Settings.CreateBaseSalary(r.Context(), userID(r), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = NewJSONResponse().Created(baseSalaryDTO(created)).Write(w)
}

func (s *Server) handleDeleteBaseSalary(w http.ResponseWriter, r *http.Request) {
	remove(w, r, s.deps.Settings.DeleteBaseSalary)
}

func (s *Server) handleListComponents(w http.ResponseWriter, r *http.Request) {
	list(w, r, s.deps.Settings.ListComponents, componentDTO)
}

func (s *Server) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	create(w, r, func(req ComponentRequest) core.IncomeComponent { return req.toCore() },
		s.deps.Settings.CreateComponent, componentDTO)
}

func (s *Server) handleDeleteComponent(w http.ResponseWriter, r *http.Request) {
	remove(w, r, s.deps.Settings.DeleteComponent)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	list(w, r, s.deps.Settings.ListEvents, eventDTO)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	create(w, r, func(req EventRequest) core.SeasonalEvent { return req.toCore() },
		s.deps.Settings.CreateEvent, eventDTO)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	remove(w, r, s.deps.Settings.DeleteEvent)
}

func (s *Server) handleListDeductions(w http.ResponseWriter, r *http.Request) {
	list(w, r, s.deps.Settings.ListDeductions, deductionDTO)
}

func (s *Server) handleCreateDeduction(w http.ResponseWriter, r *http.Request) {
	create(w, r, func(req DeductionRequest) core.Deduction { return req.toCore() },
		s.deps.Settings.CreateDeduction, deductionDTO)
}

func (s *Server) handleDeleteDeduction(w http.ResponseWriter, r *http.Request) {
	remove(w, r, s.deps.Settings.DeleteDeduction)
}

// list writes the caller's records of one kind as a JSON array.
func list[T, D any](w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) ([]T, error), toDTO func(T) D) {
	records, err := fetch(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = NewJSONResponse().Body(mapSlice(records, toDTO)).Write(w)
}

// create decodes a Req body, stores it and answers 201 with the stored record.
func create[Req, T, D any](w http.ResponseWriter, r *http.Request, toCore func(Req) T, store func(context.Context, string, T) (T, error), toDTO func(T) D) {
	var req Req
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	created, err := store(r.Context(), userID(r), toCore(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = NewJSONResponse().Created(toDTO(created)).Write(w)
}

func remove(w http.ResponseWriter, r *http.Request, del func(context.Context, string, string) error) {
	id := pathID(r)
	if id == "" {
		writeBadRequest(w, "id is required")
		return
	}
	if err := del(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	_ = NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
