package hotel

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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

// NearbyHotel reads the address from the query string, or from a JSON body
// for clients that send one with GET.
func (h *HandlerImpl) NearbyHotel(w http.ResponseWriter, r *http.Request) {
	req := types.NearbyHotelRequest{Address: strings.TrimSpace(r.URL.Query().Get("address"))}
	if req.Address == "" && r.ContentLength != 0 {
		if err := api.DecodeAndValidate(w, r, &req); err != nil {
			api.HandleError(w, r, h.logger, err)
			return
		}
	}
	if err := api.ValidateStruct(&req); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	places, err := h.service.NearbyHotel(r.Context(), req.Address)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, places)
}

func (h *HandlerImpl) GetHotel(w http.ResponseWriter, r *http.Request) {
	hotelID, err := api.URLParamUUID(r, "hotelId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	hotel, err := h.service.GetHotel(r.Context(), hotelID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, hotel)
}

func (h *HandlerImpl) GetAllHotels(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.service.GetAllHotels(r.Context())
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, hotels)
}

func (h *HandlerImpl) SearchHotel(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.service.SearchHotel(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, hotels)
}

func (h *HandlerImpl) AddClick(w http.ResponseWriter, r *http.Request) {
	h.addInteraction(w, r, h.service.AddClick)
}

func (h *HandlerImpl) AddBookmark(w http.ResponseWriter, r *http.Request) {
	h.addInteraction(w, r, h.service.AddBookmark)
}

type interactionFunc func(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, bool, error)

func (h *HandlerImpl) addInteraction(w http.ResponseWriter, r *http.Request, add interactionFunc) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	hotelID, err := api.URLParamUUID(r, "hotelId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	interaction, duplicate, err := add(r.Context(), caller.UserID, hotelID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	if duplicate {
		api.Success(w, r, map[string]string{"message": DuplicateMessage})
		return
	}
	api.Success(w, r, interaction)
}

func (h *HandlerImpl) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	hotelID, err := api.URLParamUUID(r, "hotelId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	bookmark, err := h.service.DeleteBookmark(r.Context(), caller.UserID, hotelID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, bookmark)
}

func (h *HandlerImpl) GetClicks(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	clicks, err := h.service.GetClicks(r.Context(), caller.UserID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, clicks)
}

func (h *HandlerImpl) GetBookmarks(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	bookmarks, err := h.service.GetBookmarks(r.Context(), caller.UserID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, bookmarks)
}

func (h *HandlerImpl) Recommendation(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	hotels, err := h.service.Recommendation(r.Context(), caller.UserID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, hotels)
}

func (h *HandlerImpl) TopRecommendation(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || n < 1 {
		api.HandleError(w, r, h.logger, api.BadRequest(`"number" must be a positive integer`))
		return
	}

	hotels, err := h.service.TopRecommendation(r.Context(), caller.UserID, n)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, hotels)
}
