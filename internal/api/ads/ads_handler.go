package ads

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

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

// formValue returns the trimmed field and whether the form carried it at all.
func formValue(r *http.Request, name string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}

func formInt(r *http.Request, name string) (*int, error) {
	raw, ok := formValue(r, name)
	if !ok || raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, api.BadRequest(fmt.Sprintf("%q must be an integer", name))
	}
	return &n, nil
}

func formFloat(r *http.Request, name string) (*float64, error) {
	raw, ok := formValue(r, name)
	if !ok || raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, api.BadRequest(fmt.Sprintf("%q must be a number", name))
	}
	return &f, nil
}

func formString(r *http.Request, name string) *string {
	v, ok := formValue(r, name)
	if !ok {
		return nil
	}
	return &v
}

func (h *HandlerImpl) UploadBanner(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	image, ok, err := api.ReadImageFile(r, "image")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	if !ok {
		api.HandleError(w, r, h.logger, api.BadRequest("Please upload image files"))
		return
	}

	duration, err := formInt(r, "bannerDuration")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	cost, err := formFloat(r, "cost")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	req := types.BannerRequest{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		StartDate:   r.PostFormValue("startDate"),
		TargetURL:   r.PostFormValue("targetUrl"),
		Location:    r.PostFormValue("location"),
	}
	if duration != nil {
		req.BannerDuration = *duration
	}
	if cost != nil {
		req.Cost = *cost
	}
	if err := api.ValidateStruct(&req); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	banner, err := h.service.SaveAdBanner(r.Context(), caller, image, req)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, banner)
}

func (h *HandlerImpl) GetAllBanners(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter types.BannerFilter
	var err error
	if raw := q.Get("page"); raw != "" {
		if filter.Page, err = strconv.Atoi(raw); err != nil {
			api.HandleError(w, r, h.logger, api.BadRequest(`"page" must be a number`))
			return
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if filter.PageSize, err = strconv.Atoi(raw); err != nil {
			api.HandleError(w, r, h.logger, api.BadRequest(`"limit" must be a number`))
			return
		}
	}
	if raw := q.Get("isPaid"); raw != "" {
		paid, err := strconv.ParseBool(raw)
		if err != nil {
			api.HandleError(w, r, h.logger, api.BadRequest(`"isPaid" must be a boolean`))
			return
		}
		filter.IsPaid = &paid
	}
	if filter, err = normalizeFilter(filter); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	page, err := h.service.GetAllBanners(r.Context(), filter)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Status:     http.StatusOK,
		Message:    "Success",
		Data:       page.BannerData,
		Pagination: types.NewPagination(page.TotalCount, filter.Page, filter.PageSize),
	})
}

func (h *HandlerImpl) GetBannerByID(w http.ResponseWriter, r *http.Request) {
	bannerID, err := api.URLParamUUID(r, "bannerId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	banner, err := h.service.GetBannerByID(r.Context(), bannerID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, banner)
}

func (h *HandlerImpl) DeleteBannerByID(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	bannerID, err := api.URLParamUUID(r, "bannerId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	banner, err := h.service.DeleteBannerByID(r.Context(), caller, bannerID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, banner)
}

// UpdateBanner accepts a multipart form where every field and the image are optional.
func (h *HandlerImpl) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	bannerID, err := api.URLParamUUID(r, "bannerId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	image, ok, err := api.ReadImageFile(r, "image")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	if !ok {
		image = nil
	}

	req := types.UpdateBannerRequest{
		Title:       formString(r, "title"),
		Description: formString(r, "description"),
		StartDate:   formString(r, "startDate"),
		TargetURL:   formString(r, "targetUrl"),
		Location:    formString(r, "location"),
	}
	if req.BannerDuration, err = formInt(r, "bannerDuration"); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	if req.Cost, err = formFloat(r, "cost"); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	if err := api.ValidateStruct(&req); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	banner, err := h.service.UpdateBanner(r.Context(), caller, bannerID, req, image)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, banner)
}

func (h *HandlerImpl) ChangeBannerPaidStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	bannerID, err := api.URLParamUUID(r, "bannerId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	banner, err := h.service.ChangeBannerPaidStatus(r.Context(), caller, bannerID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, banner)
}
