package auth

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/platform/mailer"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

type HandlerImpl struct {
	logger      *slog.Logger
	authService AuthService
}

func NewHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:      logger,
		authService: authService,
	}
}

func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.Success(w, r, user)
}

func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Status:  http.StatusOK,
		Message: "Success",
		Data:    result.User,
		Tokens:  result.Tokens,
	})
}

func (h *HandlerImpl) RefreshToken(w http.ResponseWriter, r *http.Request) {
	id, err := CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	tokens, err := h.authService.RefreshTokens(r.Context(), id.UserID)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Status:  http.StatusOK,
		Message: "Success",
		Tokens:  tokens,
	})
}

func (h *HandlerImpl) SendEmailVerification(w http.ResponseWriter, r *http.Request) {
	id, err := CurrentIdentity(r)
	if err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}

	if err := h.authService.SendEmailVerification(r.Context(), id.UserID, id.Email); err != nil {
		api.HandleError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Status:  http.StatusOK,
		Message: "Verification email sent",
	})
}

// VerifyEmail is opened from the email link, so it answers with a page rather than JSON.
func (h *HandlerImpl) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	id, err := CurrentIdentity(r)
	if err != nil {
		api.WriteHTML(w, http.StatusUnauthorized, mailer.FailurePage("Email Verification Failed", api.PublicMessage(err)))
		return
	}

	user, err := h.authService.VerifyEmail(r.Context(), id.UserID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Email verification failed", slog.Any("error", err))
		api.WriteHTML(w, api.KindOf(err).HTTPStatus(),
			mailer.FailurePage("Email Verification Failed", api.PublicMessage(err)))
		return
	}
	api.WriteHTML(w, http.StatusOK, mailer.SuccessPage("Email Verification Successful",
		fmt.Sprintf("Thank you, %s. Your email has been successfully verified!", user.Name)))
}
