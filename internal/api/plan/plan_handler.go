package plan

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/api/auth"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

func (h *HandlerImpl) GetPlans(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	plans, err := h.service.GetPlans(r.Context(), caller)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, plans)
}

func (h *HandlerImpl) CreatePlan(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	var req types.CreatePlanRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), caller, req)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, plan)
}

func (h *HandlerImpl) GetPlanByID(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	planID, err := api.URLParamUUID(r, "planId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	plan, err := h.service.GetPlanByID(r.Context(), caller, planID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, plan)
}

func (h *HandlerImpl) DeletePlan(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	planID, err := api.URLParamUUID(r, "planId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	plan, err := h.service.DeletePlan(r.Context(), caller, planID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, plan)
}

func (h *HandlerImpl) GetPlanDetail(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	dayID, err := api.URLParamUUID(r, "dayId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	detail, err := h.service.GetPlanDetail(r.Context(), caller, dayID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, detail)
}

func (h *HandlerImpl) AddActivity(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	dayID, err := api.URLParamUUID(r, "dayId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	var req types.CreateActivityRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	activity, err := h.service.AddActivity(r.Context(), caller, dayID, req)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, activity)
}

func (h *HandlerImpl) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	activityID, err := api.URLParamUUID(r, "activityId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteActivity(r.Context(), caller, activityID); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, nil)
}

func (h *HandlerImpl) AddHotelToPlan(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	dayID, err := api.URLParamUUID(r, "dayId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	var req types.AddHotelRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	hotelPlan, err := h.service.AddHotelToPlan(r.Context(), caller, dayID, req)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, hotelPlan)
}

func (h *HandlerImpl) DeleteHotelFromPlan(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	hotelPlanID, err := api.URLParamUUID(r, "hotelPlanId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteHotelFromPlan(r.Context(), caller, hotelPlanID); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, nil)
}

func (h *HandlerImpl) SendMessageToBot(w http.ResponseWriter, r *http.Request) {
	var req types.BotRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	reply, err := h.service.SendMessageToBot(r.Context(), req.Prompt)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, reply)
}

func (h *HandlerImpl) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	planID, err := api.URLParamUUID(r, "planId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	itinerary, err := h.service.GenerateItinerary(r.Context(), caller, planID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, itinerary)
}
