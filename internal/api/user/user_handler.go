package user

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/api/auth"
	"github.com/FACorreiaa/trexense-api/internal/platform/mailer"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetUser(w http.ResponseWriter, r *http.Request)
	UpdateUser(w http.ResponseWriter, r *http.Request)
	DeleteUser(w http.ResponseWriter, r *http.Request)
	RequestResetPassword(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)
	UserActivity(w http.ResponseWriter, r *http.Request)
	ChangeProfilePicture(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("PANIC: Attempting to create HandlerImpl with nil logger!")
	}
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

func (h *HandlerImpl) GetUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	userID, err := api.URLParamUUID(r, "userId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), caller, userID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, user)
}

func (h *HandlerImpl) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	userID, err := api.URLParamUUID(r, "userId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	var params types.UpdateUserParams
	if err := api.DecodeAndValidate(w, r, &params); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	if params.Name == nil && params.Email == nil {
		api.HandleError(w, r, h.logger, api.BadRequest("At least one of \"name\" or \"email\" is required"))
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), caller, userID, params)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, user)
}

func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	userID, err := api.URLParamUUID(r, "userId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.DeleteUser(r.Context(), caller, userID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Status:  http.StatusOK,
		Message: "User deleted successfully",
		Data:    user,
	})
}

func (h *HandlerImpl) RequestResetPassword(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	userID, err := api.URLParamUUID(r, "userId")
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	var req types.ResetPasswordRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	if err := h.userService.RequestResetPassword(r.Context(), caller, userID, req.Password); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Status:  http.StatusOK,
		Message: "Password reset link sent.",
	})
}

// ResetPassword is opened from the emailed link and answers with a page.
func (h *HandlerImpl) ResetPassword(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.WriteHTML(w, http.StatusUnauthorized, mailer.FailurePage("Password Reset Failed", api.PublicMessage(err)))
		return
	}

	user, err := h.userService.ResetPassword(r.Context(), caller.UserID, caller.NewPasswordHash)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Password reset failed", slog.Any("error", err))
		api.WriteHTML(w, api.KindOf(err).HTTPStatus(), mailer.FailurePage("Password Reset Failed", api.PublicMessage(err)))
		return
	}
	api.WriteHTML(w, http.StatusOK, mailer.SuccessPage("Password Reset Successful",
		fmt.Sprintf("Thank you, %s. Your password has been successfully reset!", user.Name)))
}

func (h *HandlerImpl) UserActivity(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	activity, err := h.userService.UserActivity(r.Context(), caller.UserID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, activity)
}

func (h *HandlerImpl) ChangeProfilePicture(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.userService.ChangeProfilePicture(r.Context(), caller.UserID, image)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, user)
}
